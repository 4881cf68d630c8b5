package rooms

// AssetType classifies what a token represents on the board.
type AssetType string

const (
	AssetCharacter  AssetType = "CHARACTER"
	AssetProp       AssetType = "PROP"
	AssetMount      AssetType = "MOUNT"
	AssetAttachment AssetType = "ATTACHMENT"
)

// Layer identifies the canvas layer a token lives on.
type Layer string

const (
	LayerMap        Layer = "MAP"
	LayerFog        Layer = "FOG"
	LayerToken      Layer = "TOKEN"
	LayerAttachment Layer = "ATTACHMENT"
)

// DrawingKind is the closed set of drawing tools.
type DrawingKind string

const (
	DrawBrush   DrawingKind = "brush"
	DrawLine    DrawingKind = "line"
	DrawRect    DrawingKind = "rect"
	DrawCircle  DrawingKind = "circle"
	DrawPolygon DrawingKind = "polygon"
	DrawErase   DrawingKind = "erase"
	DrawText    DrawingKind = "text"
)

// FogKind is the closed set of fog shape kinds.
type FogKind string

const (
	FogRect    FogKind = "rect"
	FogPolygon FogKind = "polygon"
)

// TimerStatus is the countdown lifecycle state.
type TimerStatus string

const (
	TimerPaused   TimerStatus = "PAUSED"
	TimerRunning  TimerStatus = "RUNNING"
	TimerFinished TimerStatus = "FINISHED"
)

// Point is a 2D coordinate.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Token is a movable piece on the board.
type Token struct {
	ID           string    `json:"id"`
	Type         AssetType `json:"type"`
	X            float64   `json:"x"`
	Y            float64   `json:"y"`
	Rotation     float64   `json:"rotation"`
	Scale        float64   `json:"scale"`
	Layer        Layer     `json:"layer"`
	OwnerID      *string   `json:"ownerId"`
	Src          string    `json:"src"`
	Label        string    `json:"label"`
	Visible      bool      `json:"visible"`
	StatusRings  []string  `json:"statusRings"`
	Locked       bool      `json:"locked"`
	AttachedToID string    `json:"attachedToId,omitempty"`
}

// Drawing covers freehand strokes, shapes, and sticky notes. Points is
// a flattened list of coordinate pairs; for text the first pair is the
// anchor position.
type Drawing struct {
	ID     string      `json:"id"`
	Type   DrawingKind `json:"type"`
	Points []float64   `json:"points"`
	Color  string      `json:"color"`
	Width  float64     `json:"width"`
	Fill   string      `json:"fill,omitempty"`
	Text   string      `json:"text,omitempty"`
	Layer  string      `json:"layer"`
}

// FogShape is an additive or subtractive visibility region. Holes are
// subtractive cutouts in declaration order.
type FogShape struct {
	ID      string      `json:"id"`
	Type    FogKind     `json:"type"`
	Points  []float64   `json:"points"`
	Holes   [][]float64 `json:"holes"`
	Visible bool        `json:"visible"`
}

// Presence is a participant's live membership record.
type Presence struct {
	ID          string `json:"id"`
	DisplayName string `json:"displayName"`
	Color       string `json:"color"`
	Cursor      *Point `json:"cursor"`
	Connected   bool   `json:"connected"`
	IsGM        bool   `json:"isGm"`
}

// Timer is the shared countdown, nil on State when none is active.
type Timer struct {
	ID           string      `json:"id"`
	Label        string      `json:"label"`
	DurationSec  float64     `json:"durationSec"`
	RemainingSec float64     `json:"remainingSec"`
	Status       TimerStatus `json:"status"`
	UpdatedAt    int64       `json:"updatedAt"`
}

// MapConfig describes the background map image.
type MapConfig struct {
	URL    string  `json:"url"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
	Offset Point   `json:"offset"`
	Scale  float64 `json:"scale"`
}

// GridConfig is the grid/display configuration. Always present on a
// room; defaults are applied at creation.
type GridConfig struct {
	GridType    string  `json:"gridType"`
	GridSize    float64 `json:"gridSize"`
	GridScale   float64 `json:"gridScale"`
	GridVisible bool    `json:"gridVisible"`
	GridColor   string  `json:"gridColor"`
	GridOpacity float64 `json:"gridOpacity"`
	SnapToGrid  bool    `json:"snapToGrid"`
	ScaleToGrid bool    `json:"scaleToGrid"`
}

// State is the authoritative snapshot of one room.
type State struct {
	ID           string              `json:"id"`
	GMID         string              `json:"gmId"`
	PasswordHash *string             `json:"passwordHash"`
	Config       GridConfig          `json:"config"`
	Map          *MapConfig          `json:"map"`
	Tokens       map[string]Token    `json:"tokens"`
	Drawings     map[string]Drawing  `json:"drawings"`
	Fog          []FogShape          `json:"fog"`
	Timer        *Timer              `json:"timer"`
	Players      map[string]Presence `json:"players"`
}

// DefaultGridConfig returns the grid configuration new rooms start with.
func DefaultGridConfig() GridConfig {
	return GridConfig{
		GridType:    "SQUARE",
		GridSize:    50,
		GridScale:   5,
		GridVisible: true,
		GridColor:   "#000000",
		GridOpacity: 0.2,
	}
}

// New builds a room state with default config and empty collections.
// passwordHash may be nil for open rooms.
func New(id, gmID string, passwordHash *string) *State {
	return &State{
		ID:           id,
		GMID:         gmID,
		PasswordHash: passwordHash,
		Config:       DefaultGridConfig(),
		Tokens:       make(map[string]Token),
		Drawings:     make(map[string]Drawing),
		Fog:          []FogShape{},
		Players:      make(map[string]Presence),
	}
}

// Clone returns a deep copy of the state. Stores hand out clones so
// callers never alias a stored snapshot.
func (s *State) Clone() *State {
	if s == nil {
		return nil
	}
	out := *s
	if s.PasswordHash != nil {
		h := *s.PasswordHash
		out.PasswordHash = &h
	}
	if s.Map != nil {
		m := *s.Map
		out.Map = &m
	}
	if s.Timer != nil {
		t := *s.Timer
		out.Timer = &t
	}
	out.Tokens = make(map[string]Token, len(s.Tokens))
	for id, t := range s.Tokens {
		if t.StatusRings != nil {
			t.StatusRings = append([]string(nil), t.StatusRings...)
		}
		out.Tokens[id] = t
	}
	out.Drawings = make(map[string]Drawing, len(s.Drawings))
	for id, d := range s.Drawings {
		if d.Points != nil {
			d.Points = append([]float64(nil), d.Points...)
		}
		out.Drawings[id] = d
	}
	out.Fog = make([]FogShape, len(s.Fog))
	for i, f := range s.Fog {
		if f.Points != nil {
			f.Points = append([]float64(nil), f.Points...)
		}
		if f.Holes != nil {
			holes := make([][]float64, len(f.Holes))
			for j, h := range f.Holes {
				holes[j] = append([]float64(nil), h...)
			}
			f.Holes = holes
		}
		out.Fog[i] = f
	}
	out.Players = make(map[string]Presence, len(s.Players))
	for id, p := range s.Players {
		if p.Cursor != nil {
			c := *p.Cursor
			p.Cursor = &c
		}
		out.Players[id] = p
	}
	return &out
}
