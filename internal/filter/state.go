// Package filter holds the user's map filter state and composes the style
// expressions the tree layer is drawn with.
package filter

import (
	"fmt"

	"github.com/joeblew999/plat-trees/internal/waterneed"
)

// Bounds of the age slider. A range equal to these bounds means "no filter".
const (
	MinAge = 0
	MaxAge = 320
)

// ViewMode selects a community-status lens.
type ViewMode string

const (
	ViewNone    ViewMode = ""
	ViewWatered ViewMode = "watered"
	ViewAdopted ViewMode = "adopted"
)

// Layer is the data layer shown on the map.
type Layer string

const (
	LayerTrees Layer = "trees"
	LayerRain  Layer = "rain"
	LayerPumps Layer = "pumps"
)

// AgeRange is an inclusive [min, max] range of tree ages in years.
type AgeRange [2]int

// DefaultAgeRange is the unfiltered range.
var DefaultAgeRange = AgeRange{MinAge, MaxAge}

// Min returns the lower bound.
func (r AgeRange) Min() int { return r[0] }

// Max returns the upper bound.
func (r AgeRange) Max() int { return r[1] }

// Contains reports whether age lies within the range. A missing age is
// never contained.
func (r AgeRange) Contains(age *int) bool {
	return age != nil && *age >= r[0] && *age <= r[1]
}

// State is the complete filter state. It is replaced, never patched.
type State struct {
	AgeRange     AgeRange        `json:"ageRange" doc:"Inclusive age range in years"`
	ViewMode     ViewMode        `json:"viewMode,omitempty" doc:"Community lens: watered or adopted"`
	WaterNeed    *waterneed.Need `json:"waterNeed,omitempty" doc:"Water-need category filter"`
	VisibleLayer Layer           `json:"visibleLayer" doc:"Visible data layer: trees, rain or pumps"`
}

// Default returns the unfiltered state showing trees.
func Default() State {
	return State{AgeRange: DefaultAgeRange, VisibleLayer: LayerTrees}
}

// AgeFilterActive reports whether the age range differs from the default.
func (s State) AgeFilterActive() bool {
	return s.AgeRange != DefaultAgeRange
}

// WaterNeedActive reports whether a water-need filter is set.
func (s State) WaterNeedActive() bool {
	return s.WaterNeed != nil
}

// Equal compares two states by value.
func (s State) Equal(o State) bool {
	if s.AgeRange != o.AgeRange || s.ViewMode != o.ViewMode || s.VisibleLayer != o.VisibleLayer {
		return false
	}
	if (s.WaterNeed == nil) != (o.WaterNeed == nil) {
		return false
	}
	return s.WaterNeed == nil || *s.WaterNeed == *o.WaterNeed
}

// WithWaterNeed returns a copy of s filtering by n.
func (s State) WithWaterNeed(n waterneed.Need) State {
	s.WaterNeed = &n
	return s
}

// Validate checks that every field holds a known value.
func (s State) Validate() error {
	if s.AgeRange[0] > s.AgeRange[1] {
		return fmt.Errorf("age range min %d above max %d", s.AgeRange[0], s.AgeRange[1])
	}
	switch s.ViewMode {
	case ViewNone, ViewWatered, ViewAdopted:
	default:
		return fmt.Errorf("unknown view mode %q", s.ViewMode)
	}
	switch s.VisibleLayer {
	case LayerTrees, LayerRain, LayerPumps:
	default:
		return fmt.Errorf("unknown layer %q", s.VisibleLayer)
	}
	if s.WaterNeed != nil && !s.WaterNeed.Valid() {
		return fmt.Errorf("unknown water need %d", int(*s.WaterNeed))
	}
	return nil
}
