// Package colorize decides the fill colour of a single tree.
//
// Transparency doubles as the "filtered out" signal: a tree that fails any
// filter keeps its place on the map but is drawn invisible.
package colorize

import (
	"github.com/joeblew999/plat-trees/internal/community"
	"github.com/joeblew999/plat-trees/internal/dataset"
	"github.com/joeblew999/plat-trees/internal/filter"
	"github.com/joeblew999/plat-trees/internal/paint"
	"github.com/joeblew999/plat-trees/internal/waterneed"
)

// Resolve returns the fill colour of a tree under the given filters, using
// the default rainfall ramp.
func Resolve(t dataset.Tree, s filter.State, snap community.Snapshot) paint.RGBA {
	return ResolveWith(paint.TreeRamp, t, s, snap)
}

// ResolveWith is Resolve with an explicit rainfall ramp. Rules are applied
// in order and the first match wins.
func ResolveWith(ramp paint.Ramp, t dataset.Tree, s filter.State, snap community.Snapshot) paint.RGBA {
	// Only an absent rain sum or age is missing; zero is a measured value.
	if t.RainSum == nil {
		return paint.Transparent
	}

	ageFiltered := s.AgeFilterActive()
	inRange := s.AgeRange.Contains(t.Age)
	if ageFiltered && !inRange {
		return paint.Transparent
	}

	if s.WaterNeed != nil && waterneed.Classify(t.Age) != *s.WaterNeed {
		return paint.Transparent
	}

	status, known := snap.Lookup(t.ID)
	switch s.ViewMode {
	case filter.ViewWatered:
		if known && status.Watered && (!ageFiltered || inRange) {
			return paint.Blue
		}
		return paint.Transparent
	case filter.ViewAdopted:
		if known && status.Adopted && (!ageFiltered || inRange) {
			return paint.Turquoise
		}
		return paint.Transparent
	}

	return ramp.At(*t.RainSum)
}
