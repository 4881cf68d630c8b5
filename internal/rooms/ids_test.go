package rooms

import (
	"regexp"
	"testing"
)

func TestNewID_Format(t *testing.T) {
	pattern := regexp.MustCompile(`^[0-9a-f]{8}$`)

	for i := 0; i < 100; i++ {
		id := NewID()
		if !pattern.MatchString(id) {
			t.Errorf("NewID() = %q, doesn't match expected pattern", id)
		}
	}
}

func TestNewID_Length(t *testing.T) {
	id := NewID()
	if len(id) != idLength {
		t.Errorf("id length = %d, want %d", len(id), idLength)
	}
}

func TestNewID_Uniqueness(t *testing.T) {
	seen := make(map[string]bool)
	dupes := 0
	for i := 0; i < 1000; i++ {
		id := NewID()
		if seen[id] {
			dupes++
		}
		seen[id] = true
	}
	// 16^8 = 4.3B combinations; 1000 samples should have essentially no dupes
	if dupes > 1 {
		t.Errorf("too many duplicate ids: %d out of 1000", dupes)
	}
}

func TestNewGMID_IsUUID(t *testing.T) {
	pattern := regexp.MustCompile(`^[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}$`)
	id := NewGMID()
	if !pattern.MatchString(id) {
		t.Errorf("NewGMID() = %q, not a UUID", id)
	}
}
