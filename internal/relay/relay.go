// Package relay propagates room state mutations: each accepted patch is
// broadcast to the room's members and then folded into the persisted
// snapshot. All mutations for one room are serialized through a
// per-room lock so the fetch-mutate-save round trips of concurrent
// callers never interleave; different rooms proceed in parallel.
package relay

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"vttserver/internal/metrics"
	"vttserver/internal/protocol"
	"vttserver/internal/rooms"
	"vttserver/internal/store"
	"vttserver/internal/wshub"
)

// Relay applies patches to room snapshots and fans them out.
type Relay struct {
	store  store.Store
	hub    *wshub.Hub
	logger zerolog.Logger

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// New creates a relay over the given store and hub.
func New(st store.Store, hub *wshub.Hub, logger zerolog.Logger) *Relay {
	return &Relay{
		store:  st,
		hub:    hub,
		logger: logger.With().Str("component", "relay").Logger(),
		locks:  make(map[string]*sync.Mutex),
	}
}

// roomLock returns the serialization lock for a room, creating it on
// first use. Locks are never reclaimed; the table is bounded by the
// number of rooms touched during the process lifetime.
func (r *Relay) roomLock(roomID string) *sync.Mutex {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.locks[roomID]
	if !ok {
		l = &sync.Mutex{}
		r.locks[roomID] = l
	}
	return l
}

// Apply validates a patch, broadcasts it to every member of the room
// (sender included), and persists the mutated snapshot. Persistence is
// best-effort: write failures are logged and dropped, never surfaced to
// the caller. Patches that fail validation are rejected before anything
// is broadcast or stored.
func (r *Relay) Apply(ctx context.Context, roomID string, p protocol.Patch) error {
	mutate, err := compile(p)
	if err != nil {
		return err
	}

	frame, err := protocol.Marshal(protocol.KindPatchState, p)
	if err != nil {
		return err
	}

	lock := r.roomLock(roomID)
	lock.Lock()
	defer lock.Unlock()

	r.hub.Broadcast(roomID, frame)
	metrics.PatchesRelayed.WithLabelValues(p.Path[0]).Inc()

	state, err := r.store.Get(ctx, roomID)
	if err != nil {
		r.logger.Error().Err(err).Str("room", roomID).Msg("snapshot fetch failed, patch not persisted")
		return nil
	}
	if state == nil {
		return nil
	}

	mutate(state)

	if err := r.store.Put(ctx, roomID, state); err != nil {
		metrics.PersistFailures.Inc()
		r.logger.Error().Err(err).Str("room", roomID).Msg("snapshot save failed, patch dropped")
	}
	return nil
}

// Mutate runs fn against the room's current snapshot under the room's
// serialization lock and persists the result. It returns the mutated
// snapshot, (nil, nil) when the room is absent, or fn's error with
// nothing persisted. Save failures follow the same best-effort policy
// as Apply.
func (r *Relay) Mutate(ctx context.Context, roomID string, fn func(*rooms.State) error) (*rooms.State, error) {
	lock := r.roomLock(roomID)
	lock.Lock()
	defer lock.Unlock()

	state, err := r.store.Get(ctx, roomID)
	if err != nil {
		return nil, err
	}
	if state == nil {
		return nil, nil
	}
	if err := fn(state); err != nil {
		return nil, err
	}
	if err := r.store.Put(ctx, roomID, state); err != nil {
		metrics.PersistFailures.Inc()
		r.logger.Error().Err(err).Str("room", roomID).Msg("snapshot save failed")
	}
	return state, nil
}

// compile turns a patch descriptor into a snapshot mutation. The value
// is decoded into its typed form and validated here, so malformed
// entities never reach the broadcast path or the store.
func compile(p protocol.Patch) (func(*rooms.State), error) {
	if !p.Op.Valid() {
		return nil, fmt.Errorf("patch: unknown op %q", p.Op)
	}
	if len(p.Path) == 0 {
		return nil, fmt.Errorf("patch: empty path")
	}

	switch p.Path[0] {
	case "tokens":
		if len(p.Path) != 2 || p.Path[1] == "" {
			return nil, fmt.Errorf("patch: tokens path needs an id")
		}
		id := p.Path[1]
		if p.Op == protocol.OpRemove {
			return func(s *rooms.State) { delete(s.Tokens, id) }, nil
		}
		var tok rooms.Token
		if err := decodeValue(p.Value, &tok); err != nil {
			return nil, err
		}
		if err := tok.Validate(); err != nil {
			return nil, err
		}
		if tok.ID != id {
			return nil, fmt.Errorf("patch: token id %q does not match path %q", tok.ID, id)
		}
		return func(s *rooms.State) { s.Tokens[id] = tok }, nil

	case "drawings":
		if len(p.Path) != 2 || p.Path[1] == "" {
			return nil, fmt.Errorf("patch: drawings path needs an id")
		}
		id := p.Path[1]
		if p.Op == protocol.OpRemove {
			return func(s *rooms.State) { delete(s.Drawings, id) }, nil
		}
		var d rooms.Drawing
		if err := decodeValue(p.Value, &d); err != nil {
			return nil, err
		}
		if err := d.Validate(); err != nil {
			return nil, err
		}
		if d.ID != id {
			return nil, fmt.Errorf("patch: drawing id %q does not match path %q", d.ID, id)
		}
		return func(s *rooms.State) { s.Drawings[id] = d }, nil

	case "map":
		if len(p.Path) != 1 {
			return nil, fmt.Errorf("patch: map takes no sub-path")
		}
		if p.Op == protocol.OpRemove {
			return func(s *rooms.State) { s.Map = nil }, nil
		}
		var m rooms.MapConfig
		if err := decodeValue(p.Value, &m); err != nil {
			return nil, err
		}
		if err := m.Validate(); err != nil {
			return nil, err
		}
		return func(s *rooms.State) { s.Map = &m }, nil

	case "config":
		if len(p.Path) != 1 {
			return nil, fmt.Errorf("patch: config takes no sub-path")
		}
		if p.Op == protocol.OpRemove {
			return nil, fmt.Errorf("patch: config cannot be removed")
		}
		var cfg rooms.GridConfig
		if err := decodeValue(p.Value, &cfg); err != nil {
			return nil, err
		}
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
		return func(s *rooms.State) { s.Config = cfg }, nil

	case "timer":
		if len(p.Path) != 1 {
			return nil, fmt.Errorf("patch: timer takes no sub-path")
		}
		if p.Op == protocol.OpRemove {
			return func(s *rooms.State) { s.Timer = nil }, nil
		}
		var t rooms.Timer
		if err := decodeValue(p.Value, &t); err != nil {
			return nil, err
		}
		if err := t.Validate(); err != nil {
			return nil, err
		}
		return func(s *rooms.State) { s.Timer = &t }, nil

	case "fog":
		if len(p.Path) != 1 {
			return nil, fmt.Errorf("patch: fog takes no sub-path")
		}
		if p.Op == protocol.OpRemove {
			return func(s *rooms.State) { s.Fog = []rooms.FogShape{} }, nil
		}
		var shapes []rooms.FogShape
		if err := decodeValue(p.Value, &shapes); err != nil {
			return nil, err
		}
		for i := range shapes {
			if err := shapes[i].Validate(); err != nil {
				return nil, err
			}
		}
		return func(s *rooms.State) { s.Fog = shapes }, nil
	}

	return nil, fmt.Errorf("patch: unknown path %q", p.Path[0])
}

func decodeValue(raw json.RawMessage, into any) error {
	if len(raw) == 0 {
		return fmt.Errorf("patch: missing value")
	}
	if err := json.Unmarshal(raw, into); err != nil {
		return fmt.Errorf("patch: decoding value: %w", err)
	}
	return nil
}
