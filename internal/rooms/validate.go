package rooms

import "fmt"

// Entity payloads arrive from clients and are validated here before
// they are broadcast or stored. Anything that fails validation is
// rejected at the protocol boundary.

// Valid reports whether t is a known asset type.
func (t AssetType) Valid() bool {
	switch t {
	case AssetCharacter, AssetProp, AssetMount, AssetAttachment:
		return true
	}
	return false
}

// Valid reports whether l is a known layer.
func (l Layer) Valid() bool {
	switch l {
	case LayerMap, LayerFog, LayerToken, LayerAttachment:
		return true
	}
	return false
}

// Valid reports whether k is a known drawing kind.
func (k DrawingKind) Valid() bool {
	switch k {
	case DrawBrush, DrawLine, DrawRect, DrawCircle, DrawPolygon, DrawErase, DrawText:
		return true
	}
	return false
}

// Valid reports whether k is a known fog shape kind.
func (k FogKind) Valid() bool {
	switch k {
	case FogRect, FogPolygon:
		return true
	}
	return false
}

// Valid reports whether s is a known timer status.
func (s TimerStatus) Valid() bool {
	switch s {
	case TimerPaused, TimerRunning, TimerFinished:
		return true
	}
	return false
}

// Validate checks a token payload for structural soundness.
func (t *Token) Validate() error {
	if t.ID == "" {
		return fmt.Errorf("token: missing id")
	}
	if !t.Type.Valid() {
		return fmt.Errorf("token %s: unknown type %q", t.ID, t.Type)
	}
	if !t.Layer.Valid() {
		return fmt.Errorf("token %s: unknown layer %q", t.ID, t.Layer)
	}
	if t.Src == "" {
		return fmt.Errorf("token %s: missing src", t.ID)
	}
	return nil
}

// Validate checks a drawing payload. Points must come in x/y pairs.
func (d *Drawing) Validate() error {
	if d.ID == "" {
		return fmt.Errorf("drawing: missing id")
	}
	if !d.Type.Valid() {
		return fmt.Errorf("drawing %s: unknown type %q", d.ID, d.Type)
	}
	if len(d.Points)%2 != 0 {
		return fmt.Errorf("drawing %s: odd point list length %d", d.ID, len(d.Points))
	}
	if d.Type == DrawText && len(d.Points) < 2 {
		return fmt.Errorf("drawing %s: text needs an anchor position", d.ID)
	}
	return nil
}

// Validate checks a fog shape payload.
func (f *FogShape) Validate() error {
	if f.ID == "" {
		return fmt.Errorf("fog shape: missing id")
	}
	if !f.Type.Valid() {
		return fmt.Errorf("fog shape %s: unknown type %q", f.ID, f.Type)
	}
	if len(f.Points)%2 != 0 {
		return fmt.Errorf("fog shape %s: odd point list length %d", f.ID, len(f.Points))
	}
	for i, hole := range f.Holes {
		if len(hole)%2 != 0 {
			return fmt.Errorf("fog shape %s: hole %d has odd point list length %d", f.ID, i, len(hole))
		}
	}
	return nil
}

// Validate checks a map payload.
func (m *MapConfig) Validate() error {
	if m.URL == "" {
		return fmt.Errorf("map: missing url")
	}
	if m.Width <= 0 || m.Height <= 0 {
		return fmt.Errorf("map: non-positive dimensions %gx%g", m.Width, m.Height)
	}
	return nil
}

// Validate checks a grid config payload.
func (g *GridConfig) Validate() error {
	if g.GridType != "SQUARE" {
		return fmt.Errorf("config: unknown grid type %q", g.GridType)
	}
	if g.GridSize <= 0 {
		return fmt.Errorf("config: non-positive grid size %g", g.GridSize)
	}
	if g.GridOpacity < 0 || g.GridOpacity > 1 {
		return fmt.Errorf("config: grid opacity %g out of range", g.GridOpacity)
	}
	return nil
}

// Validate checks a timer payload.
func (t *Timer) Validate() error {
	if t.ID == "" {
		return fmt.Errorf("timer: missing id")
	}
	if !t.Status.Valid() {
		return fmt.Errorf("timer %s: unknown status %q", t.ID, t.Status)
	}
	if t.DurationSec < 0 || t.RemainingSec < 0 {
		return fmt.Errorf("timer %s: negative duration", t.ID)
	}
	return nil
}
