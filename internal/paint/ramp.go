package paint

import (
	"sort"

	"github.com/joeblew999/plat-trees/internal/expr"
)

// RadolanUnitsPerMM converts tree radolan_sum values (0.1 mm) to millimetres.
const RadolanUnitsPerMM = 10

// Stop is one point of a Ramp.
type Stop struct {
	Value float64
	Color RGBA
}

// Ramp is a piecewise-linear colour scale, clamped at both ends.
// Stops must be sorted by Value.
type Ramp []Stop

// RainRamp colours precipitation in millimetres, white-ish for dry through
// deep blue for wet.
var RainRamp = Ramp{
	{0, MustHex("#f7fbff")},
	{60, MustHex("#c6dbef")},
	{120, MustHex("#6baed6")},
	{180, MustHex("#3182bd")},
	{240, MustHex("#08519c")},
	{300, MustHex("#08306b")},
}

// TreeRamp is RainRamp over raw radolan_sum units.
var TreeRamp = RainRamp.ScaleDomain(RadolanUnitsPerMM)

// At returns the interpolated colour for v.
func (r Ramp) At(v float64) RGBA {
	if len(r) == 0 {
		return Transparent
	}
	if v <= r[0].Value {
		return r[0].Color
	}
	last := r[len(r)-1]
	if v >= last.Value {
		return last.Color
	}
	i := sort.Search(len(r), func(i int) bool { return r[i].Value >= v })
	lo, hi := r[i-1], r[i]
	return lo.Color.Mix(hi.Color, (v-lo.Value)/(hi.Value-lo.Value))
}

// ScaleDomain returns a copy of the ramp with every stop value multiplied by f.
func (r Ramp) ScaleDomain(f float64) Ramp {
	out := make(Ramp, len(r))
	for i, s := range r {
		out[i] = Stop{Value: s.Value * f, Color: s.Color}
	}
	return out
}

// Expr returns an interpolate expression over the given input.
func (r Ramp) Expr(input expr.Expr) expr.Interpolate {
	stops := make([]expr.Stop, len(r))
	for i, s := range r {
		stops[i] = expr.Stop{Value: s.Value, Output: s.Color}
	}
	return expr.Interpolate{Input: input, Stops: stops}
}
