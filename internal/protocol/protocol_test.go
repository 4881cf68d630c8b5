package protocol

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestDecode_RoundTrip(t *testing.T) {
	data, err := Marshal(KindPlayerLeft, PlayerLeft{ID: "g-1"})
	if err != nil {
		t.Fatal(err)
	}

	env, err := Decode(data)
	if err != nil {
		t.Fatal(err)
	}
	if env.T != KindPlayerLeft {
		t.Errorf("kind = %q, want %q", env.T, KindPlayerLeft)
	}

	var left PlayerLeft
	if err := json.Unmarshal(env.D, &left); err != nil {
		t.Fatal(err)
	}
	if left.ID != "g-1" {
		t.Errorf("id = %q, want g-1", left.ID)
	}
}

func TestDecode_UnknownKind(t *testing.T) {
	_, err := Decode([]byte(`{"t":"FORMAT_DISK","d":{}}`))
	if err == nil {
		t.Fatal("unknown kind should be rejected")
	}
	if !strings.Contains(err.Error(), "FORMAT_DISK") {
		t.Errorf("error should name the kind, got: %v", err)
	}
}

func TestDecode_MalformedJSON(t *testing.T) {
	if _, err := Decode([]byte(`{`)); err == nil {
		t.Fatal("malformed frame should be rejected")
	}
}

func TestMarshal_NilPayload(t *testing.T) {
	data, err := Marshal(KindAudioStarted, nil)
	if err != nil {
		t.Fatal(err)
	}
	env, err := Decode(data)
	if err != nil {
		t.Fatal(err)
	}
	if env.T != KindAudioStarted {
		t.Errorf("kind = %q, want %q", env.T, KindAudioStarted)
	}
	if len(env.D) != 0 {
		t.Errorf("payload should be empty, got %s", env.D)
	}
}

func TestKind_Valid(t *testing.T) {
	known := []Kind{
		KindJoinRoom, KindUpdateToken, KindDeleteToken, KindUpdateDrawing,
		KindUpdateFog, KindUpdateMap, KindUpdateConfig, KindPatchState,
		KindPointerMove, KindRollDice, KindRoomState, KindPlayerJoined,
		KindPlayerLeft, KindEventPointer, KindEventDice, KindError,
		KindSignalAudio, KindAudioStarted, KindAudioStopped, KindJoinAudioRequest,
	}
	for _, k := range known {
		if !k.Valid() {
			t.Errorf("%q should be part of the protocol", k)
		}
	}
	for _, k := range []Kind{"", "JOIN", "join_room", "ROOM"} {
		if k.Valid() {
			t.Errorf("%q should not be part of the protocol", k)
		}
	}
}

func TestJoinPayload_Validate(t *testing.T) {
	valid := JoinPayload{RoomID: "a1b2c3d4", DisplayName: "Alice", GuestID: "g-1"}
	if err := valid.Validate(); err != nil {
		t.Errorf("valid join rejected: %v", err)
	}

	cases := []struct {
		name    string
		payload JoinPayload
	}{
		{"missing roomId", JoinPayload{DisplayName: "Alice", GuestID: "g-1"}},
		{"missing displayName", JoinPayload{RoomID: "a1b2c3d4", GuestID: "g-1"}},
		{"missing guestId", JoinPayload{RoomID: "a1b2c3d4", DisplayName: "Alice"}},
	}
	for _, tc := range cases {
		if err := tc.payload.Validate(); err == nil {
			t.Errorf("%s: expected validation error", tc.name)
		}
	}
}

func TestOp_Valid(t *testing.T) {
	for _, op := range []Op{OpAdd, OpUpdate, OpReplace, OpRemove} {
		if !op.Valid() {
			t.Errorf("%q should be a valid op", op)
		}
	}
	if Op("set").Valid() {
		t.Error("set is not part of the op set")
	}
}
