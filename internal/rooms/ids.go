package rooms

import "github.com/google/uuid"

// Room ids are the first 8 hex characters of a UUIDv4. Short enough to
// share verbally, long enough that collisions are not a practical
// concern at this scale.
const idLength = 8

// NewID mints a short room identifier.
func NewID() string {
	return uuid.New().String()[:idLength]
}

// NewGMID mints a GM identifier for rooms created without one.
func NewGMID() string {
	return uuid.New().String()
}
