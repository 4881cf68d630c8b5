package store

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"

	"vttserver/internal/rooms"
)

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *RedisStore) {
	t.Helper()
	mr := miniredis.RunT(t)
	s, err := NewRedisStore(context.Background(), "redis://"+mr.Addr(), time.Hour)
	if err != nil {
		t.Fatalf("connecting to test redis: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return mr, s
}

func TestRedisStore_PutGet(t *testing.T) {
	_, s := newTestRedis(t)
	ctx := context.Background()

	state := rooms.New("a1b2c3d4", "gm-1", nil)
	state.Drawings["d1"] = rooms.Drawing{ID: "d1", Type: rooms.DrawBrush, Points: []float64{0, 0, 1, 1}, Color: "#fff", Width: 2, Layer: "DRAWING"}

	if err := s.Put(ctx, state.ID, state); err != nil {
		t.Fatal(err)
	}

	got, err := s.Get(ctx, state.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got == nil {
		t.Fatal("Get() returned nil for stored room")
	}
	if got.ID != "a1b2c3d4" || got.GMID != "gm-1" {
		t.Errorf("round trip mismatch: %+v", got)
	}
	d, ok := got.Drawings["d1"]
	if !ok || d.Type != rooms.DrawBrush || len(d.Points) != 4 {
		t.Errorf("drawing did not survive round trip: %+v", d)
	}
}

func TestRedisStore_AbsentRoom(t *testing.T) {
	_, s := newTestRedis(t)

	got, err := s.Get(context.Background(), "missing")
	if err != nil {
		t.Fatal(err)
	}
	if got != nil {
		t.Error("Get() should return nil for unknown room")
	}
}

func TestRedisStore_PutSetsTTL(t *testing.T) {
	mr, s := newTestRedis(t)
	ctx := context.Background()

	state := rooms.New("a1b2c3d4", "gm-1", nil)
	if err := s.Put(ctx, state.ID, state); err != nil {
		t.Fatal(err)
	}

	ttl := mr.TTL(roomKey(state.ID))
	if ttl != time.Hour {
		t.Errorf("TTL = %v, want %v", ttl, time.Hour)
	}

	// TTL is refreshed on every write.
	mr.FastForward(30 * time.Minute)
	if err := s.Put(ctx, state.ID, state); err != nil {
		t.Fatal(err)
	}
	if ttl := mr.TTL(roomKey(state.ID)); ttl != time.Hour {
		t.Errorf("TTL after rewrite = %v, want %v", ttl, time.Hour)
	}
}

func TestRedisStore_Expiry(t *testing.T) {
	mr, s := newTestRedis(t)
	ctx := context.Background()

	state := rooms.New("a1b2c3d4", "gm-1", nil)
	s.Put(ctx, state.ID, state)

	mr.FastForward(time.Hour + time.Minute)

	got, err := s.Get(ctx, state.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got != nil {
		t.Error("room should have expired")
	}
	ok, _ := s.Exists(ctx, state.ID)
	if ok {
		t.Error("Exists() should be false after expiry")
	}
}

func TestRedisStore_Exists(t *testing.T) {
	_, s := newTestRedis(t)
	ctx := context.Background()

	ok, err := s.Exists(ctx, "a1b2c3d4")
	if err != nil {
		t.Fatal(err)
	}
	if ok {
		t.Error("Exists() should be false before Put")
	}

	s.Put(ctx, "a1b2c3d4", rooms.New("a1b2c3d4", "gm-1", nil))

	ok, err = s.Exists(ctx, "a1b2c3d4")
	if err != nil {
		t.Fatal(err)
	}
	if !ok {
		t.Error("Exists() should be true after Put")
	}
}
