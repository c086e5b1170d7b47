package selection

import "github.com/joeblew999/plat-trees/internal/tooltip"

// Event is an interaction delivered to Machine.Dispatch.
type Event interface {
	selectionEvent()
}

// PickedFeature is a feature reported under the pointer by the render surface.
type PickedFeature struct {
	ID         any            `json:"id,omitempty"`
	Properties map[string]any `json:"properties,omitempty"`
}

// TreeClick is a click on the trees layer. Features are ordered top-most first.
type TreeClick struct {
	Features []PickedFeature
}

// SelectTree selects a tree from outside the map (search, deep link).
type SelectTree struct {
	ID string
}

// PumpHover is a pointer move over the pumps layer. A nil or empty pick
// means the pointer left the pump.
type PumpHover struct {
	Info *tooltip.PickInfo
}

// PumpClick is a click on the pumps layer.
type PumpClick struct {
	Info *tooltip.PickInfo
}

// DismissTooltip is a click outside any pump.
type DismissTooltip struct{}

// ViewportChanged reports any camera change.
type ViewportChanged struct{}

// LayerHover reports the interactive layer now under the pointer. The
// surface picks one layer at a time; "" means none.
type LayerHover struct {
	Layer string
}

func (TreeClick) selectionEvent()       {}
func (SelectTree) selectionEvent()      {}
func (PumpHover) selectionEvent()       {}
func (PumpClick) selectionEvent()       {}
func (DismissTooltip) selectionEvent()  {}
func (ViewportChanged) selectionEvent() {}
func (LayerHover) selectionEvent()      {}
