// Package engine is the thematic tree map engine. It owns the datasets,
// filters, camera and selection of one map and keeps a render surface in
// sync with them.
package engine

import (
	"time"

	"github.com/paulmach/orb/geojson"

	"github.com/joeblew999/plat-trees/internal/colorize"
	"github.com/joeblew999/plat-trees/internal/community"
	"github.com/joeblew999/plat-trees/internal/dataset"
	"github.com/joeblew999/plat-trees/internal/expr"
	"github.com/joeblew999/plat-trees/internal/filter"
	"github.com/joeblew999/plat-trees/internal/paint"
	"github.com/joeblew999/plat-trees/internal/selection"
	"github.com/joeblew999/plat-trees/internal/tooltip"
	"github.com/joeblew999/plat-trees/internal/viewport"
)

// Config configures an Engine.
type Config struct {
	Mobile bool
	// TreesTilesetURL is the vector tile source of the tree layer.
	TreesTilesetURL string
	// TreesSourceLayer is the layer name inside the tree tileset.
	TreesSourceLayer string
	// Ramp colours trees by raw radolan_sum; defaults to paint.TreeRamp.
	Ramp paint.Ramp
}

// Recorder receives engine activity for metrics.
type Recorder interface {
	EventDispatched(kind string)
	ExpressionPushed(property string)
}

type nopRecorder struct{}

func (nopRecorder) EventDispatched(string)  {}
func (nopRecorder) ExpressionPushed(string) {}

// pushed is what the surface last received for the tree layer.
type pushed struct {
	valid bool
	x     filter.Expressions
}

// Engine drives one render surface. It is not safe for concurrent use;
// callers serialise access.
type Engine struct {
	cfg      Config
	surface  Surface
	recorder Recorder

	loading   bool
	ready     bool
	data      dataset.Datasets
	trees     map[string]dataset.Tree
	community community.Snapshot
	filters   filter.State

	view *viewport.Controller
	sel  *selection.Machine

	revision     uint64
	last         pushed
	cursor       string
	hoveredTree  string
	pendingFocus *Focus
	focusedID    string
	onTreeSelect func(string)
}

// Option configures an Engine.
type Option func(*Engine)

// WithRecorder reports activity to r.
func WithRecorder(r Recorder) Option {
	return func(e *Engine) { e.recorder = r }
}

// OnTreeSelect registers the sink called once per tree selection.
func OnTreeSelect(fn func(id string)) Option {
	return func(e *Engine) { e.onTreeSelect = fn }
}

// New creates an engine in the loading state with default filters.
func New(cfg Config, surface Surface, opts ...Option) *Engine {
	if len(cfg.Ramp) == 0 {
		cfg.Ramp = paint.TreeRamp
	}
	e := &Engine{
		cfg:       cfg,
		surface:   surface,
		recorder:  nopRecorder{},
		loading:   true,
		data:      dataset.Empty(),
		trees:     map[string]dataset.Tree{},
		community: community.NewSnapshot(nil),
		filters:   filter.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.view = viewport.NewController(viewport.Defaults(cfg.Mobile))
	e.view.Observe(e.viewportChanged)
	e.sel = selection.New(surface,
		selection.WithTreeSource(TreesSourceID, cfg.TreesSourceLayer),
		selection.OnTreeSelect(e.treeSelected),
	)
	e.cursor = e.sel.Cursor()
	return e
}

// Loading reports whether datasets are still awaited.
func (e *Engine) Loading() bool { return e.loading }

// Ready reports whether the render surface has loaded.
func (e *Engine) Ready() bool { return e.ready }

// Revision counts committed state changes.
func (e *Engine) Revision() uint64 { return e.revision }

// Filters returns the committed filter state.
func (e *Engine) Filters() filter.State { return e.filters }

// Community returns the committed community snapshot.
func (e *Engine) Community() community.Snapshot { return e.community }

// Viewport returns the current camera.
func (e *Engine) Viewport() viewport.State { return e.view.State() }

// Selected returns the selected tree id.
func (e *Engine) Selected() string { return e.sel.Selected() }

// Tooltip returns the pump tooltip to display, if any.
func (e *Engine) Tooltip() *tooltip.PumpTooltip { return e.sel.ActiveTooltip() }

// Cursor returns the current cursor hint.
func (e *Engine) Cursor() string { return e.sel.Cursor() }

// Expressions returns the tree-layer expressions for the committed state.
func (e *Engine) Expressions() filter.Expressions {
	return e.compose()
}

// Load commits a new dataset snapshot.
func (e *Engine) Load(d dataset.Datasets) {
	if d.Trees == nil || d.Pumps == nil || d.Rain == nil {
		empty := dataset.Empty()
		if d.Trees == nil {
			d.Trees = empty.Trees
		}
		if d.Pumps == nil {
			d.Pumps = empty.Pumps
		}
		if d.Rain == nil {
			d.Rain = empty.Rain
		}
	}
	trees := make(map[string]dataset.Tree, len(d.Trees.Features))
	for _, f := range d.Trees.Features {
		t := dataset.TreeFromFeature(f)
		if t.ID != "" {
			trees[t.ID] = t
		}
	}
	e.data, e.trees, e.loading = d, trees, false
	e.commit()
}

// SetFilters commits a new filter state.
func (e *Engine) SetFilters(s filter.State) {
	e.filters = s
	e.commit()
}

// SetCommunity commits a new community snapshot.
func (e *Engine) SetCommunity(s community.Snapshot) {
	e.community = s
	e.commit()
}

func (e *Engine) commit() {
	e.revision++
	e.push()
}

func (e *Engine) compose() filter.Expressions {
	x := filter.Compose(e.filters, e.community)
	x.Color = filter.CircleColor(e.cfg.Ramp)
	return x
}

// push sends the tree-layer expressions that differ from what the surface
// last received. Derivation always reads the latest committed state.
func (e *Engine) push() {
	if !e.ready {
		return
	}
	x := e.compose()
	if !e.last.valid || x.Visibility != e.last.x.Visibility {
		e.surface.SetLayoutProperty(TreesLayerID, LayoutVisibility, x.Visibility)
		e.recorder.ExpressionPushed(LayoutVisibility)
	}
	e.pushPaint(PaintOpacity, x.Opacity, e.last.x.Opacity)
	e.pushPaint(PaintColor, x.Color, e.last.x.Color)
	e.pushPaint(PaintStrokeWidth, x.StrokeWidth, e.last.x.StrokeWidth)
	if !e.last.valid || !expr.Equal(x.Filter, e.last.x.Filter) {
		e.surface.SetFilter(TreesLayerID, x.Filter)
		e.recorder.ExpressionPushed("filter")
	}
	e.last = pushed{valid: true, x: x}
}

func (e *Engine) pushPaint(name string, next, prev expr.Expr) {
	if e.last.valid && expr.Equal(next, prev) {
		return
	}
	e.surface.SetPaintProperty(TreesLayerID, name, next)
	e.recorder.ExpressionPushed(name)
}

// TreeColor resolves the display colour of t under the committed state.
func (e *Engine) TreeColor(t dataset.Tree) paint.RGBA {
	return colorize.ResolveWith(e.cfg.Ramp, t, e.filters, e.community)
}

// Layers returns the rain and pump overlays. They are empty while loading.
func (e *Engine) Layers() []DataLayer {
	return []DataLayer{
		RainLayer(e.data.Rain, paint.RainRamp, e.filters.VisibleLayer == filter.LayerRain),
		PumpsLayer(e.data.Pumps, e.filters.VisibleLayer == filter.LayerPumps),
	}
}

// TreePoints returns the loaded trees as a GeoJSON layer coloured by
// TreeColor. Filtered-out trees are transparent, not removed.
func (e *Engine) TreePoints() DataLayer {
	return DataLayer{
		ID:      TreePointsLayerID,
		Visible: e.filters.VisibleLayer == filter.LayerTrees,
		Opacity: 1,
		Radius:  3,
		Data: colorFeatures(e.data.Trees, func(f *geojson.Feature) paint.RGBA {
			return e.TreeColor(dataset.TreeFromFeature(f))
		}),
	}
}

// Datasets returns the committed datasets.
func (e *Engine) Datasets() dataset.Datasets { return e.data }

// Tree looks up a loaded tree by id.
func (e *Engine) Tree(id string) (dataset.Tree, bool) {
	t, ok := e.trees[id]
	return t, ok
}

// Dispatch applies one event.
func (e *Engine) Dispatch(ev Event) {
	if ev == nil {
		return
	}
	e.recorder.EventDispatched(ev.Kind())

	switch ev := ev.(type) {
	case Load:
		e.onLoad()
	case Hover:
		e.hover(ev)
	case TreeClick:
		e.sel.Dispatch(selection.TreeClick{Features: ev.Features})
	case SelectTree:
		e.sel.Dispatch(selection.SelectTree{ID: ev.ID})
	case PumpHover:
		e.sel.Dispatch(selection.PumpHover{Info: ev.Pick})
	case PumpClick:
		e.sel.Dispatch(selection.PumpClick{Info: ev.Pick})
	case DismissTooltip:
		e.sel.Dispatch(selection.DismissTooltip{})
	case ViewStateChange:
		var none time.Duration
		e.view.SetViewport(viewport.Partial{
			Latitude:   &ev.Latitude,
			Longitude:  &ev.Longitude,
			Zoom:       &ev.Zoom,
			Pitch:      ev.Pitch,
			Bearing:    ev.Bearing,
			Transition: &none,
		})
	case Geolocate:
		e.view.Geolocate(ev.Point)
	case Navigate:
		e.view.Navigate(ev.Latitude, ev.Longitude, ev.Zoom)
	case Focus:
		e.focus(ev)
	}
	e.syncCursor()
}

func (e *Engine) onLoad() {
	if e.ready {
		return
	}
	e.ready = true
	e.surface.AddLayer(BuildingsLayer(), e.surface.FirstSymbolLayer())
	e.surface.DisableRotation()
	e.surface.AddSource(TreesSourceID, TreesSource(e.cfg.TreesTilesetURL))

	x := e.compose()
	e.surface.AddLayer(TreesLayer(e.cfg.TreesSourceLayer, x), "")
	e.last = pushed{valid: true, x: x}
	e.surface.SetViewport(e.view.State())

	if f := e.pendingFocus; f != nil {
		e.pendingFocus = nil
		e.applyFocus(*f)
	}
}

func (e *Engine) hover(ev Hover) {
	layer, id := "", ""
	if ev.Feature != nil {
		layer = ev.Layer
		if layer == TreesLayerID {
			id = selection.FeatureID(*ev.Feature)
		}
	}
	e.sel.Dispatch(selection.LayerHover{Layer: layer})
	if id == e.hoveredTree {
		return
	}
	ref := selection.FeatureRef{Source: TreesSourceID, SourceLayer: e.cfg.TreesSourceLayer}
	if e.hoveredTree != "" {
		ref.ID = e.hoveredTree
		e.surface.SetFeatureState(ref, selection.Flags{selection.FlagHover: false})
	}
	if id != "" {
		ref.ID = id
		e.surface.SetFeatureState(ref, selection.Flags{selection.FlagHover: true})
	}
	e.hoveredTree = id
}

// focus applies f now, or after the surface loads. A repeated focus on
// the same tree is ignored.
func (e *Engine) focus(f Focus) {
	if f.ID != "" && f.ID == e.focusedID {
		return
	}
	if !e.ready {
		e.pendingFocus = &f
		return
	}
	e.applyFocus(f)
}

func (e *Engine) applyFocus(f Focus) {
	e.focusedID = f.ID
	e.view.FlyTo(f.Point, f.Zoom, viewport.DefaultTransition)
}

func (e *Engine) treeSelected(id string) {
	if t, ok := e.trees[id]; ok && !t.Point.Equal(zeroPoint) {
		e.focusedID = id
		e.view.FlyTo(t.Point, nil, viewport.DefaultTransition)
	}
	if e.onTreeSelect != nil {
		e.onTreeSelect(id)
	}
}

func (e *Engine) viewportChanged(s viewport.State) {
	e.sel.Dispatch(selection.ViewportChanged{})
	e.surface.SetViewport(s)
}

func (e *Engine) syncCursor() {
	if c := e.sel.Cursor(); c != e.cursor {
		e.cursor = c
		e.surface.SetCursor(c)
	}
}
