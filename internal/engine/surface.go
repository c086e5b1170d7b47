package engine

import (
	"github.com/joeblew999/plat-trees/internal/expr"
	"github.com/joeblew999/plat-trees/internal/selection"
	"github.com/joeblew999/plat-trees/internal/viewport"
)

// Surface is the render surface the engine drives. Implementations draw
// layers and report interaction back through Engine.Dispatch.
type Surface interface {
	selection.FeatureStateStore

	// FirstSymbolLayer returns the id of the first symbol layer in the
	// base style, or "" if there is none.
	FirstSymbolLayer() string
	AddSource(id string, src Source)
	// AddLayer inserts layer before the layer with id before; an empty
	// before appends it.
	AddLayer(layer Layer, before string)
	SetLayoutProperty(layer, name string, value any)
	SetPaintProperty(layer, name string, value expr.Expr)
	// SetFilter replaces the layer filter; nil clears it.
	SetFilter(layer string, filter expr.Expr)
	SetViewport(v viewport.State)
	SetCursor(cursor string)
	DisableRotation()
}
