package engine

import (
	"github.com/paulmach/orb"

	"github.com/joeblew999/plat-trees/internal/selection"
	"github.com/joeblew999/plat-trees/internal/tooltip"
)

// Event is a render-surface or host event delivered to Engine.Dispatch.
type Event interface {
	Kind() string
}

// Load reports that the render surface finished loading its base style.
type Load struct{}

// Hover reports what is now under the pointer: the picked layer and its
// feature. A nil Feature means no interactive feature is under it.
type Hover struct {
	Layer   string                   `json:"layer"`
	Feature *selection.PickedFeature `json:"feature,omitempty"`
}

// TreeClick is a click on the map with the tree features under it.
type TreeClick struct {
	Features []selection.PickedFeature `json:"features"`
}

// SelectTree selects a tree by id from the host UI.
type SelectTree struct {
	ID string `json:"id"`
}

// PumpHover is a pointer move over the pumps layer.
type PumpHover struct {
	Pick *tooltip.PickInfo `json:"pick,omitempty"`
}

// PumpClick is a click on the pumps layer.
type PumpClick struct {
	Pick *tooltip.PickInfo `json:"pick,omitempty"`
}

// DismissTooltip is a click outside any pump.
type DismissTooltip struct{}

// ViewStateChange is a camera change made by a user gesture. Pitch and
// bearing are kept unless sent.
type ViewStateChange struct {
	Latitude  float64  `json:"latitude"`
	Longitude float64  `json:"longitude"`
	Zoom      float64  `json:"zoom"`
	Pitch     *float64 `json:"pitch,omitempty"`
	Bearing   *float64 `json:"bearing,omitempty"`
}

// Geolocate is a position fix from the geolocation control.
type Geolocate struct {
	Point orb.Point `json:"point"`
}

// Navigate is a camera change from the navigation control.
type Navigate struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Zoom      float64 `json:"zoom"`
}

// Focus asks the map to centre on a tree. Zoom defaults to the zoomed-in level.
type Focus struct {
	ID    string    `json:"id"`
	Point orb.Point `json:"point"`
	Zoom  *float64  `json:"zoom,omitempty"`
}

func (Load) Kind() string            { return "load" }
func (Hover) Kind() string           { return "hover" }
func (TreeClick) Kind() string       { return "tree_click" }
func (SelectTree) Kind() string      { return "select_tree" }
func (PumpHover) Kind() string       { return "pump_hover" }
func (PumpClick) Kind() string       { return "pump_click" }
func (DismissTooltip) Kind() string  { return "dismiss_tooltip" }
func (ViewStateChange) Kind() string { return "view_state_change" }
func (Geolocate) Kind() string       { return "geolocate" }
func (Navigate) Kind() string        { return "navigate" }
func (Focus) Kind() string           { return "focus" }
