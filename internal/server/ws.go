package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"vttserver/internal/metrics"
	"vttserver/internal/protocol"
	"vttserver/internal/rooms"
	"vttserver/internal/utility"
	"vttserver/internal/wshub"
)

// Join failures signaled to the caller only; the connection stays open.
var (
	errRoomNotFound = errors.New("room not found")
	errBadPassword  = errors.New("invalid password")
)

// session is the per-connection state machine: disconnected until a
// successful JOIN_ROOM, joined until the socket closes.
type session struct {
	srv    *Server
	client *wshub.Client
	logger zerolog.Logger

	roomID  string
	guestID string
}

func (sess *session) joined() bool {
	return sess.roomID != ""
}

// handleWS upgrades the connection and runs the session read loop.
// Handlers for one connection run to completion in arrival order.
func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		s.Logger.Warn().Err(err).Msg("websocket accept failed")
		return
	}

	connID := uuid.New().String()
	client := &wshub.Client{ConnID: connID, Conn: conn, Send: make(chan []byte, 64)}
	s.Hub.Register(client)
	metrics.ConnectedClients.Inc()

	sess := &session{
		srv:    s,
		client: client,
		logger: s.Logger.With().Str("conn", connID).Logger(),
	}

	ctx := r.Context()
	go client.WritePump(ctx)

	for {
		_, data, err := conn.Read(ctx)
		if err != nil {
			break
		}
		sess.handle(ctx, data)
	}

	s.Hub.Unregister(connID)
	metrics.ConnectedClients.Dec()
	// The socket context is gone; the final presence write must not be
	// cancelled by it.
	sess.disconnect(context.Background())
	conn.Close(websocket.StatusNormalClosure, "")
}

// handle dispatches one inbound frame. The kind set is closed; anything
// else is an error back to the sender.
func (sess *session) handle(ctx context.Context, data []byte) {
	env, err := protocol.Decode(data)
	if err != nil {
		sess.logger.Warn().Err(err).Msg("rejecting frame")
		sess.sendError("invalid message")
		return
	}

	switch env.T {
	case protocol.KindJoinRoom:
		sess.handleJoin(ctx, env.D)

	case protocol.KindUpdateToken:
		sess.applyEntity(ctx, "tokens", protocol.OpUpdate, env.D)
	case protocol.KindDeleteToken:
		sess.removeEntity(ctx, "tokens", env.D)
	case protocol.KindUpdateDrawing:
		sess.applyEntity(ctx, "drawings", protocol.OpUpdate, env.D)
	case protocol.KindUpdateMap:
		sess.applyPatch(ctx, protocol.Patch{Op: protocol.OpUpdate, Path: []string{"map"}, Value: env.D})
	case protocol.KindUpdateConfig:
		sess.applyPatch(ctx, protocol.Patch{Op: protocol.OpUpdate, Path: []string{"config"}, Value: env.D})
	case protocol.KindUpdateFog:
		sess.applyPatch(ctx, protocol.Patch{Op: protocol.OpUpdate, Path: []string{"fog"}, Value: env.D})
	case protocol.KindPatchState:
		var p protocol.Patch
		if err := json.Unmarshal(env.D, &p); err != nil {
			sess.sendError("invalid patch")
			return
		}
		sess.applyPatch(ctx, p)

	case protocol.KindPointerMove:
		sess.relayEphemeral(protocol.KindEventPointer, env.D, false)
	case protocol.KindRollDice:
		sess.relayEphemeral(protocol.KindEventDice, env.D, true)

	case protocol.KindSignalAudio:
		sess.handleSignal(env.D)
	case protocol.KindAudioStarted, protocol.KindAudioStopped, protocol.KindJoinAudioRequest:
		sess.relayEphemeral(env.T, env.D, false)

	default:
		// Server-to-client kinds arriving from a client.
		sess.sendError("invalid message")
	}
}

// handleJoin runs the join flow: shape validation, room lookup,
// password check, presence insertion, snapshot to the joiner, and a
// joined notification to everyone else.
func (sess *session) handleJoin(ctx context.Context, data []byte) {
	var payload protocol.JoinPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		metrics.JoinsTotal.WithLabelValues("invalid").Inc()
		sess.sendError("invalid join request")
		return
	}
	if err := payload.Validate(); err != nil {
		metrics.JoinsTotal.WithLabelValues("invalid").Inc()
		sess.sendError("invalid join request")
		return
	}

	var presence rooms.Presence
	state, err := sess.srv.Relay.Mutate(ctx, payload.RoomID, func(s *rooms.State) error {
		if s.PasswordHash != nil && !rooms.CheckPassword(*s.PasswordHash, payload.Password) {
			return errBadPassword
		}
		presence = rooms.Presence{
			ID:          payload.GuestID,
			DisplayName: payload.DisplayName,
			Color:       utility.RandomColorHex(),
			Connected:   true,
			IsGM:        payload.GuestID == s.GMID,
		}
		s.Players[payload.GuestID] = presence
		// Bind to the broadcast group while the room lock is still
		// held: every mutation is then either in this snapshot or
		// delivered as a frame afterwards, never lost between the two.
		sess.srv.Hub.JoinRoom(sess.client.ConnID, payload.RoomID, payload.GuestID)
		return nil
	})
	switch {
	case errors.Is(err, errBadPassword):
		metrics.JoinsTotal.WithLabelValues("bad_password").Inc()
		sess.sendError("invalid password")
		return
	case err != nil:
		// A lookup failure is not an absence; don't claim the room is
		// gone.
		sess.logger.Error().Err(err).Str("room", payload.RoomID).Msg("join lookup failed")
		sess.sendError("failed to join room")
		return
	case state == nil:
		metrics.JoinsTotal.WithLabelValues("not_found").Inc()
		sess.sendError(errRoomNotFound.Error())
		return
	}

	sess.roomID = payload.RoomID
	sess.guestID = payload.GuestID

	snapshot, err := protocol.Marshal(protocol.KindRoomState, state)
	if err != nil {
		sess.logger.Error().Err(err).Msg("encoding snapshot")
		return
	}
	sess.srv.Hub.SendTo(sess.client.ConnID, snapshot)

	if joined, err := protocol.Marshal(protocol.KindPlayerJoined, presence); err == nil {
		sess.srv.Hub.BroadcastExcept(payload.RoomID, sess.client.ConnID, joined)
	}

	metrics.JoinsTotal.WithLabelValues("ok").Inc()
	sess.logger.Info().Str("room", payload.RoomID).Str("guest", payload.GuestID).Msg("joined room")
}

// disconnect marks the guest's presence disconnected and notifies the
// remaining members. The presence entry itself is retained.
func (sess *session) disconnect(ctx context.Context) {
	if !sess.joined() || sess.guestID == "" {
		return
	}

	missing := errors.New("presence missing")
	state, err := sess.srv.Relay.Mutate(ctx, sess.roomID, func(s *rooms.State) error {
		p, ok := s.Players[sess.guestID]
		if !ok {
			return missing
		}
		p.Connected = false
		s.Players[sess.guestID] = p
		return nil
	})
	if err != nil || state == nil {
		return
	}

	if left, err := protocol.Marshal(protocol.KindPlayerLeft, protocol.PlayerLeft{ID: sess.guestID}); err == nil {
		sess.srv.Hub.Broadcast(sess.roomID, left)
	}
	sess.logger.Info().Str("room", sess.roomID).Str("guest", sess.guestID).Msg("left room")
}

// applyEntity handles token/drawing upserts, where the path id comes
// from the payload itself.
func (sess *session) applyEntity(ctx context.Context, collection string, op protocol.Op, data []byte) {
	var meta struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(data, &meta); err != nil || meta.ID == "" {
		sess.sendError("invalid entity payload")
		return
	}
	sess.applyPatch(ctx, protocol.Patch{Op: op, Path: []string{collection, meta.ID}, Value: data})
}

// removeEntity handles delete messages carrying only {id}.
func (sess *session) removeEntity(ctx context.Context, collection string, data []byte) {
	var meta struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(data, &meta); err != nil || meta.ID == "" {
		sess.sendError("invalid entity payload")
		return
	}
	sess.applyPatch(ctx, protocol.Patch{Op: protocol.OpRemove, Path: []string{collection, meta.ID}})
}

func (sess *session) applyPatch(ctx context.Context, p protocol.Patch) {
	if !sess.joined() {
		return
	}
	if err := sess.srv.Relay.Apply(ctx, sess.roomID, p); err != nil {
		sess.logger.Warn().Err(err).Msg("rejecting patch")
		sess.sendError(err.Error())
	}
}

// relayEphemeral forwards a frame to the session's room without
// touching persistence. includeSender selects the scoping policy:
// dice results go to everyone, cursor and audio lifecycle events only
// to the others.
func (sess *session) relayEphemeral(kind protocol.Kind, data []byte, includeSender bool) {
	if !sess.joined() {
		return
	}
	frame, err := protocol.Marshal(kind, json.RawMessage(data))
	if err != nil {
		return
	}
	if includeSender {
		sess.srv.Hub.Broadcast(sess.roomID, frame)
	} else {
		sess.srv.Hub.BroadcastExcept(sess.roomID, sess.client.ConnID, frame)
	}
}

// handleSignal forwards an opaque negotiation payload to one target
// connection, tagged with the sender's guest id. Unknown targets are a
// silent no-op.
func (sess *session) handleSignal(data []byte) {
	if !sess.joined() {
		return
	}
	var payload protocol.SignalPayload
	if err := json.Unmarshal(data, &payload); err != nil || payload.Target == "" {
		return
	}
	frame, err := protocol.Marshal(protocol.KindSignalAudio, protocol.SignalRelay{
		From:   sess.guestID,
		Signal: payload.Signal,
	})
	if err != nil {
		return
	}
	delivered := sess.srv.Hub.SendTo(payload.Target, frame)
	metrics.SignalsRelayed.WithLabelValues(boolLabel(delivered)).Inc()
}

func boolLabel(b bool) string {
	if b {
		return "true"
	}
	return "false"
}

func (sess *session) sendError(message string) {
	frame, err := protocol.Marshal(protocol.KindError, protocol.ErrorPayload{Message: message})
	if err != nil {
		return
	}
	select {
	case sess.client.Send <- frame:
	default:
	}
}
