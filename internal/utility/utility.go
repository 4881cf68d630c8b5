package utility

import (
	"fmt"
	"math/rand"
)

// RandomColorHex returns a random #rrggbb color. Components stay away
// from the extremes so assigned colors remain visible on both light and
// dark backgrounds.
func RandomColorHex() string {
	r := rand.Intn(248) + 4
	g := rand.Intn(248) + 4
	b := rand.Intn(248) + 4
	return fmt.Sprintf("#%02x%02x%02x", r, g, b)
}
