// Package protocol defines the websocket wire protocol: one closed set
// of message kinds and the payload shapes that travel with them. Every
// message is an envelope {t, d} where t is the kind and d the payload.
package protocol

import (
	"encoding/json"
	"fmt"
)

// Kind names a wire message. The set is closed; dispatch switches on it
// exhaustively and unknown kinds are rejected at the boundary.
type Kind string

// Client-to-server kinds.
const (
	KindJoinRoom      Kind = "JOIN_ROOM"
	KindUpdateToken   Kind = "UPDATE_TOKEN"
	KindDeleteToken   Kind = "DELETE_TOKEN"
	KindUpdateDrawing Kind = "UPDATE_DRAWING"
	KindUpdateFog     Kind = "UPDATE_FOG"
	KindUpdateMap     Kind = "UPDATE_MAP"
	KindUpdateConfig  Kind = "UPDATE_CONFIG"
	KindPatchState    Kind = "PATCH_STATE"
	KindPointerMove   Kind = "POINTER_MOVE"
	KindRollDice      Kind = "ROLL_DICE"
)

// Server-to-client kinds.
const (
	KindRoomState    Kind = "ROOM_STATE"
	KindPlayerJoined Kind = "PLAYER_JOINED"
	KindPlayerLeft   Kind = "PLAYER_LEFT"
	KindEventPointer Kind = "EVENT_POINTER"
	KindEventDice    Kind = "EVENT_DICE"
	KindError        Kind = "ERROR"
)

// Signaling kinds, relayed in both directions.
const (
	KindSignalAudio      Kind = "SIGNAL_AUDIO"
	KindAudioStarted     Kind = "AUDIO_STARTED"
	KindAudioStopped     Kind = "AUDIO_STOPPED"
	KindJoinAudioRequest Kind = "JOIN_AUDIO_REQUEST"
)

// Valid reports whether k is part of the protocol.
func (k Kind) Valid() bool {
	switch k {
	case KindJoinRoom, KindUpdateToken, KindDeleteToken, KindUpdateDrawing,
		KindUpdateFog, KindUpdateMap, KindUpdateConfig, KindPatchState,
		KindPointerMove, KindRollDice,
		KindRoomState, KindPlayerJoined, KindPlayerLeft,
		KindEventPointer, KindEventDice, KindError,
		KindSignalAudio, KindAudioStarted, KindAudioStopped, KindJoinAudioRequest:
		return true
	}
	return false
}

// Envelope is the outer frame of every wire message.
type Envelope struct {
	T Kind            `json:"t"`
	D json.RawMessage `json:"d,omitempty"`
}

// Decode parses an envelope and rejects kinds outside the protocol.
func Decode(data []byte) (*Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("decoding envelope: %w", err)
	}
	if !env.T.Valid() {
		return nil, fmt.Errorf("unknown message kind %q", env.T)
	}
	return &env, nil
}

// Marshal frames a payload into an envelope ready for the wire.
func Marshal(kind Kind, payload any) ([]byte, error) {
	var d json.RawMessage
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("encoding %s payload: %w", kind, err)
		}
		d = data
	}
	return json.Marshal(Envelope{T: kind, D: d})
}

// Op is a patch operation.
type Op string

const (
	OpAdd    Op = "add"
	OpUpdate Op = "update"
	OpRemove Op = "remove"

	// OpReplace is accepted as an alias of update.
	OpReplace Op = "replace"
)

// Valid reports whether o is a known patch operation.
func (o Op) Valid() bool {
	switch o {
	case OpAdd, OpUpdate, OpReplace, OpRemove:
		return true
	}
	return false
}

// Patch is a targeted mutation descriptor. Path addresses a location in
// the room state tree, e.g. ["tokens", "<id>"] or ["map"].
type Patch struct {
	Op    Op              `json:"op"`
	Path  []string        `json:"path"`
	Value json.RawMessage `json:"value,omitempty"`
}

// JoinPayload is the JOIN_ROOM request body.
type JoinPayload struct {
	RoomID      string `json:"roomId"`
	Password    string `json:"password,omitempty"`
	DisplayName string `json:"displayName"`
	GuestID     string `json:"guestId"`
}

// Validate checks the join request shape. All identifying fields are
// required strings.
func (p *JoinPayload) Validate() error {
	if p.RoomID == "" {
		return fmt.Errorf("join: missing roomId")
	}
	if p.DisplayName == "" {
		return fmt.Errorf("join: missing displayName")
	}
	if p.GuestID == "" {
		return fmt.Errorf("join: missing guestId")
	}
	return nil
}

// PointerEvent is an ephemeral cursor broadcast, never persisted.
type PointerEvent struct {
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
	Color   string  `json:"color,omitempty"`
	GuestID string  `json:"guestId,omitempty"`
}

// DiceEvent is a dice roll result, broadcast-only.
type DiceEvent struct {
	Formula string `json:"formula"`
	Results []int  `json:"results"`
	Total   int    `json:"total"`
	GuestID string `json:"guestId,omitempty"`
}

// SignalPayload targets one connection with an opaque signaling blob.
type SignalPayload struct {
	Target string          `json:"target"`
	Signal json.RawMessage `json:"signal"`
}

// SignalRelay is the forwarded form, tagged with the sender's guest id.
type SignalRelay struct {
	From   string          `json:"from"`
	Signal json.RawMessage `json:"signal"`
}

// ErrorPayload carries a failure message to one client.
type ErrorPayload struct {
	Message string `json:"message"`
}

// PlayerLeft identifies a departed guest.
type PlayerLeft struct {
	ID string `json:"id"`
}
