// Package paint holds the colours and colour ramps used by the tree map.
package paint

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// RGBA is an 8-bit colour with alpha.
type RGBA struct {
	R, G, B, A uint8
}

// Palette colours.
var (
	Transparent = RGBA{200, 200, 200, 0}
	Blue        = RGBA{53, 117, 177, 200}
	Turquoise   = RGBA{0, 128, 128, 200}
	Red         = RGBA{247, 105, 6, 255}
	HoverGrey   = RGBA{200, 200, 200, 255}
	White       = RGBA{255, 255, 255, 255}
	OutlineDark = RGBA{0, 0, 0, 200}
)

// IsTransparent reports whether the colour is fully transparent.
func (c RGBA) IsTransparent() bool { return c.A == 0 }

// Array returns the colour as [r, g, b, a], the form deck-style layers use.
func (c RGBA) Array() [4]uint8 { return [4]uint8{c.R, c.G, c.B, c.A} }

// Hex returns #rrggbb, dropping alpha.
func (c RGBA) Hex() string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

// CSS returns an rgba() string with alpha in 0..1.
func (c RGBA) CSS() string {
	a := math.Round(float64(c.A)/255*1000) / 1000
	return fmt.Sprintf("rgba(%d,%d,%d,%s)", c.R, c.G, c.B, strconv.FormatFloat(a, 'f', -1, 64))
}

func (c RGBA) String() string { return c.CSS() }

// MarshalJSON encodes the colour as a CSS string so it can sit inside a
// style expression.
func (c RGBA) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.CSS())
}

// Lerp blends towards another RGBA. It satisfies expr.Lerper.
func (c RGBA) Lerp(to any, t float64) any {
	o, ok := to.(RGBA)
	if !ok {
		return c
	}
	return c.Mix(o, t)
}

// Mix blends c and o; t=0 yields c and t=1 yields o.
func (c RGBA) Mix(o RGBA, t float64) RGBA {
	if t <= 0 {
		return c
	}
	if t >= 1 {
		return o
	}
	ch := func(a, b uint8) uint8 {
		return uint8(math.Round(float64(a) + (float64(b)-float64(a))*t))
	}
	return RGBA{ch(c.R, o.R), ch(c.G, o.G), ch(c.B, o.B), ch(c.A, o.A)}
}

// ParseHex parses #rgb or #rrggbb into an opaque colour.
func ParseHex(s string) (RGBA, error) {
	h := strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(h) == 3 {
		h = string([]byte{h[0], h[0], h[1], h[1], h[2], h[2]})
	}
	if len(h) != 6 {
		return RGBA{}, fmt.Errorf("invalid hex colour %q", s)
	}
	v, err := strconv.ParseUint(h, 16, 32)
	if err != nil {
		return RGBA{}, fmt.Errorf("invalid hex colour %q: %w", s, err)
	}
	return RGBA{uint8(v >> 16), uint8(v >> 8), uint8(v), 255}, nil
}

// MustHex is ParseHex for package-level colour tables.
func MustHex(s string) RGBA {
	c, err := ParseHex(s)
	if err != nil {
		panic(err)
	}
	return c
}
