package filter

import (
	"github.com/joeblew999/plat-trees/internal/community"
	"github.com/joeblew999/plat-trees/internal/dataset"
	"github.com/joeblew999/plat-trees/internal/expr"
	"github.com/joeblew999/plat-trees/internal/paint"
	"github.com/joeblew999/plat-trees/internal/waterneed"
)

// Feature-state flags set on tree features by the selection machine.
const (
	StateSelect = "select"
	StateHover  = "hover"
)

// Expressions is everything the tree layer needs for one filter state.
type Expressions struct {
	Visibility  string    `json:"visibility"`
	Opacity     expr.Expr `json:"circle-opacity"`
	Filter      expr.Expr `json:"filter"`
	Color       expr.Expr `json:"circle-color"`
	StrokeWidth expr.Expr `json:"circle-stroke-width"`
}

// Compose regenerates every tree-layer expression from scratch. Identical
// inputs give structurally identical output.
func Compose(s State, snap community.Snapshot) Expressions {
	return Expressions{
		Visibility:  Visibility(s),
		Opacity:     Opacity(s),
		Filter:      Membership(s, snap),
		Color:       CircleColor(paint.TreeRamp),
		StrokeWidth: StrokeWidth(),
	}
}

// Visibility returns the layout visibility of the tree layer.
func Visibility(s State) string {
	if s.VisibleLayer == LayerTrees {
		return "visible"
	}
	return "none"
}

// Opacity shows a tree iff its age lies within the range. Without an
// active age filter every tree is opaque, including trees with no age.
func Opacity(s State) expr.Expr {
	if !s.AgeFilterActive() {
		return expr.Literal{Value: 1}
	}
	age := expr.Get{Property: dataset.PropAge}
	return expr.Case{
		Branches: []expr.Branch{{
			When: expr.Compare{Op: expr.OpGe, Left: age, Right: expr.Literal{Value: s.AgeRange.Min()}},
			Then: expr.Case{
				Branches: []expr.Branch{{
					When: expr.Compare{Op: expr.OpLe, Left: age, Right: expr.Literal{Value: s.AgeRange.Max()}},
					Then: expr.Literal{Value: 1},
				}},
				Else: expr.Literal{Value: 0},
			},
		}},
		Else: expr.Literal{Value: 0},
	}
}

// Membership ANDs the community and water-need filters. Absent filters are
// left out; with none it returns nil, which clears the layer filter.
func Membership(s State, snap community.Snapshot) expr.Expr {
	var parts []expr.Expr
	if f := CommunityFilter(s, snap); f != nil {
		parts = append(parts, f)
	}
	if f := WaterNeedFilter(s); f != nil {
		parts = append(parts, f)
	}
	switch len(parts) {
	case 0:
		return nil
	case 1:
		return parts[0]
	}
	return expr.All{Args: parts}
}

// CommunityFilter keeps trees whose id is in the watered or adopted set.
// An empty set matches nothing.
func CommunityFilter(s State, snap community.Snapshot) expr.Expr {
	var ids []string
	switch s.ViewMode {
	case ViewWatered:
		ids = snap.WateredIDs()
	case ViewAdopted:
		ids = snap.AdoptedIDs()
	default:
		return nil
	}
	if len(ids) == 0 {
		return expr.Literal{Value: false}
	}
	labels := make([]any, len(ids))
	for i, id := range ids {
		labels[i] = id
	}
	return expr.Match{
		Input:  expr.Get{Property: dataset.PropID},
		Labels: labels,
		Then:   expr.Literal{Value: true},
		Else:   expr.Literal{Value: false},
	}
}

// WaterNeedFilter keeps trees whose age-derived need equals the selected one.
func WaterNeedFilter(s State) expr.Expr {
	if s.WaterNeed == nil {
		return nil
	}
	return expr.Match{
		Input:  WaterNeedExpr(),
		Labels: []any{int(*s.WaterNeed)},
		Then:   expr.Literal{Value: true},
		Else:   expr.Literal{Value: false},
	}
}

// WaterNeedExpr classifies a feature by age inline, with the thresholds of
// waterneed.Classify.
func WaterNeedExpr() expr.Expr {
	age := expr.Get{Property: dataset.PropAge}
	return expr.Case{
		Branches: []expr.Branch{{
			When: expr.Compare{Op: expr.OpLt, Left: age, Right: expr.Literal{Value: waterneed.OldTreeMinAge}},
			Then: expr.Case{
				Branches: []expr.Branch{{
					When: expr.Compare{Op: expr.OpLt, Left: age, Right: expr.Literal{Value: waterneed.YoungTreeMaxAge}},
					Then: expr.Literal{Value: int(waterneed.High)},
				}},
				Else: expr.Literal{Value: int(waterneed.Medium)},
			},
		}},
		Else: expr.Literal{Value: int(waterneed.Low)},
	}
}

// CircleColor colours trees by rainfall, grey while hovered.
func CircleColor(ramp paint.Ramp) expr.Expr {
	return expr.Case{
		Branches: []expr.Branch{{
			When: expr.Boolean{Input: expr.FeatureState{Key: StateHover}, Fallback: false},
			Then: expr.Literal{Value: paint.HoverGrey},
		}},
		Else: ramp.Expr(expr.Get{Property: dataset.PropRadolanSum}),
	}
}

// StrokeWidth draws a thick outline around the selected tree.
func StrokeWidth() expr.Expr {
	return expr.Case{
		Branches: []expr.Branch{{
			When: expr.Boolean{Input: expr.FeatureState{Key: StateSelect}, Fallback: false},
			Then: expr.Literal{Value: 15},
		}},
		Else: expr.Literal{Value: 0},
	}
}

// CircleRadius grows tree circles exponentially with zoom.
func CircleRadius() expr.Expr {
	return expr.Interpolate{
		Input: expr.Zoom{},
		Base:  1.75,
		Stops: []expr.Stop{{Value: 11, Output: 1}, {Value: 22, Output: 100}},
	}
}
