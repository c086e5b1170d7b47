package engine

import (
	"testing"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/joeblew999/plat-trees/internal/community"
	"github.com/joeblew999/plat-trees/internal/dataset"
	"github.com/joeblew999/plat-trees/internal/expr"
	"github.com/joeblew999/plat-trees/internal/filter"
	"github.com/joeblew999/plat-trees/internal/paint"
	"github.com/joeblew999/plat-trees/internal/selection"
	"github.com/joeblew999/plat-trees/internal/tooltip"
	"github.com/joeblew999/plat-trees/internal/viewport"
)

func feature(p orb.Point, props geojson.Properties) *geojson.Feature {
	f := geojson.NewFeature(p)
	f.Properties = props
	return f
}

func testDatasets() dataset.Datasets {
	d := dataset.Empty()
	d.Trees.Append(feature(orb.Point{7.62, 51.96}, geojson.Properties{"id": "A", "age": 10.0, "radolan_sum": 600.0}))
	d.Trees.Append(feature(orb.Point{7.63, 51.97}, geojson.Properties{"id": "B", "age": 50.0}))
	d.Pumps.Append(feature(orb.Point{7.6, 51.9}, geojson.Properties{"id": 7.0, "pump:status": "broken"}))
	d.Rain.Append(feature(orb.Point{7.6, 51.9}, geojson.Properties{"data": []any{600.0}}))
	return d
}

type countingRecorder struct {
	events map[string]int
	pushes int
}

func (r *countingRecorder) EventDispatched(kind string) { r.events[kind]++ }
func (r *countingRecorder) ExpressionPushed(string)     { r.pushes++ }

func newTestEngine(t *testing.T, opts ...Option) (*Engine, *StateSurface) {
	t.Helper()
	s := NewStateSurface("")
	e := New(Config{TreesTilesetURL: "mapbox://trees", TreesSourceLayer: "original"}, s, opts...)
	return e, s
}

func TestLoadingUntilDatasets(t *testing.T) {
	e, _ := newTestEngine(t)
	if !e.Loading() {
		t.Fatal("new engine not loading")
	}
	for _, l := range e.Layers() {
		if len(l.Data.Features) != 0 {
			t.Errorf("layer %s has data while loading", l.ID)
		}
	}
	e.Load(testDatasets())
	if e.Loading() {
		t.Error("still loading after Load")
	}
	if _, ok := e.Tree("A"); !ok {
		t.Error("tree A not indexed")
	}
}

func TestSurfaceLoadAddsLayers(t *testing.T) {
	s := NewStateSurface("waterway-label")
	s.AddLayer(Layer{ID: "waterway-label", Type: "symbol"}, "")
	e := New(Config{TreesTilesetURL: "mapbox://trees", TreesSourceLayer: "original"}, s)

	e.SetFilters(filter.State{AgeRange: filter.DefaultAgeRange, VisibleLayer: filter.LayerRain})
	if len(s.Snapshot().Layers) != 1 {
		t.Fatal("layers added before load")
	}
	e.Dispatch(Load{})
	e.Dispatch(Load{})

	snap := s.Snapshot()
	var ids []string
	for _, l := range snap.Layers {
		ids = append(ids, l.ID)
	}
	want := []string{BuildingsLayerID, "waterway-label", TreesLayerID}
	if len(ids) != len(want) {
		t.Fatalf("layers = %v, want %v", ids, want)
	}
	for i := range want {
		if ids[i] != want[i] {
			t.Fatalf("layers = %v, want %v", ids, want)
		}
	}
	if !snap.RotationDisabled {
		t.Error("rotation not disabled")
	}
	if src := snap.Sources[TreesSourceID]; src.URL != "mapbox://trees" || src.MinZoom != 11 {
		t.Errorf("trees source = %+v", src)
	}
	trees := snap.Layers[2]
	if trees.Layout[LayoutVisibility] != "none" {
		t.Errorf("trees visibility = %v, want none", trees.Layout[LayoutVisibility])
	}
	if trees.SourceLayer != "original" {
		t.Errorf("source layer = %q", trees.SourceLayer)
	}
	if !e.Ready() {
		t.Error("engine not ready")
	}
}

func TestUnchangedDerivationsAreNotPushed(t *testing.T) {
	e, s := newTestEngine(t)
	e.Dispatch(Load{})
	rev := e.Revision()

	watered := filter.Default()
	watered.ViewMode = filter.ViewWatered
	e.SetFilters(watered)
	if got := s.Pushes("filter"); got != 1 {
		t.Errorf("filter pushes = %d, want 1", got)
	}
	if got := s.Pushes("paint:" + PaintOpacity); got != 0 {
		t.Errorf("opacity pushed %d times without an age change", got)
	}

	e.SetFilters(watered)
	if got := s.Pushes("filter"); got != 1 {
		t.Errorf("identical state re-pushed the filter (%d)", got)
	}
	if e.Revision() != rev+2 {
		t.Errorf("revision = %d, want %d", e.Revision(), rev+2)
	}

	e.SetCommunity(community.FromIDs([]string{"A"}, nil))
	if got := s.Pushes("filter"); got != 2 {
		t.Errorf("community change not pushed (%d)", got)
	}
	if f := s.Snapshot().Filters[TreesLayerID]; !expr.Equal(f, e.Expressions().Filter) {
		t.Errorf("surface filter %s is stale", mustJSON(t, f))
	}
}

func TestLatestFilterStateWins(t *testing.T) {
	e, s := newTestEngine(t)
	e.Dispatch(Load{})

	narrow := filter.Default()
	narrow.AgeRange = filter.AgeRange{5, 20}
	e.SetFilters(narrow)
	e.SetFilters(filter.Default())

	got := s.Snapshot().Paint[TreesLayerID][PaintOpacity]
	if !expr.Equal(got, filter.Opacity(filter.Default())) {
		t.Errorf("opacity = %s, want the default", mustJSON(t, got))
	}
}

func TestSelectAThenB(t *testing.T) {
	var selected []string
	e, s := newTestEngine(t, OnTreeSelect(func(id string) { selected = append(selected, id) }))
	e.Load(testDatasets())
	e.Dispatch(Load{})

	e.Dispatch(TreeClick{Features: []selection.PickedFeature{{ID: "A", Properties: map[string]any{"id": "A"}}}})
	e.Dispatch(SelectTree{ID: "B"})

	ids := s.FlaggedFeatures(selection.FlagSelect)
	if len(ids) != 1 || ids[0] != "B" {
		t.Fatalf("selected features = %v, want [B]", ids)
	}
	if e.Selected() != "B" || len(selected) != 2 {
		t.Errorf("selected = %q, callbacks = %v", e.Selected(), selected)
	}
	v := e.Viewport()
	if v.Zoom != viewport.ZoomedIn || v.Latitude != 51.97 {
		t.Errorf("selection did not fly to B: %+v", v)
	}
}

func TestViewportChangeClearsTooltips(t *testing.T) {
	e, s := newTestEngine(t)
	e.Dispatch(Load{})
	pick := &tooltip.PickInfo{X: 4, Y: 2, Object: &tooltip.PickedObject{Properties: map[string]any{"id": 7.0}}}
	e.Dispatch(PumpHover{Pick: pick})
	e.Dispatch(PumpClick{Pick: pick})
	if e.Tooltip() == nil {
		t.Fatal("no tooltip after click")
	}

	e.Dispatch(ViewStateChange{Latitude: 51, Longitude: 7, Zoom: 12})
	if e.Tooltip() != nil {
		t.Error("tooltip survived a user camera change")
	}
	if v := s.Snapshot().Viewport; v.TransitionDuration != 0 || v.Zoom != 12 {
		t.Errorf("surface viewport = %+v", v)
	}

	e.Dispatch(PumpClick{Pick: pick})
	e.Dispatch(Navigate{Latitude: 51, Longitude: 7, Zoom: 13})
	if e.Tooltip() != nil {
		t.Error("tooltip survived navigation")
	}
	e.Dispatch(PumpClick{Pick: pick})
	e.Dispatch(Geolocate{Point: orb.Point{7, 51}})
	if e.Tooltip() != nil {
		t.Error("tooltip survived geolocation")
	}
	if e.Viewport().Zoom != viewport.ZoomedIn {
		t.Errorf("geolocate zoom = %v", e.Viewport().Zoom)
	}
}

func TestFocusWaitsForLoad(t *testing.T) {
	e, _ := newTestEngine(t)
	start := e.Viewport()
	e.Dispatch(Focus{ID: "A", Point: orb.Point{7.62, 51.96}})
	if e.Viewport() != start {
		t.Fatal("focus applied before load")
	}
	e.Dispatch(Load{})
	v := e.Viewport()
	if v.Latitude != 51.96 || v.Zoom != viewport.ZoomedIn {
		t.Fatalf("pending focus not applied: %+v", v)
	}

	e.Dispatch(ViewStateChange{Latitude: 50, Longitude: 8, Zoom: 10})
	e.Dispatch(Focus{ID: "A", Point: orb.Point{7.62, 51.96}})
	if e.Viewport().Latitude != 50 {
		t.Error("repeated focus on the same tree moved the camera")
	}
	z := 15.0
	e.Dispatch(Focus{ID: "B", Point: orb.Point{7.63, 51.97}, Zoom: &z})
	if e.Viewport().Zoom != 15 {
		t.Errorf("focus zoom = %v", e.Viewport().Zoom)
	}
}

func TestTreeHoverFlagsAndCursor(t *testing.T) {
	e, s := newTestEngine(t)
	e.Dispatch(Load{})

	e.Dispatch(Hover{Layer: TreesLayerID, Feature: &selection.PickedFeature{ID: "A"}})
	if ids := s.FlaggedFeatures(selection.FlagHover); len(ids) != 1 || ids[0] != "A" {
		t.Errorf("hovered = %v", ids)
	}
	if s.Snapshot().Cursor != selection.CursorPointer {
		t.Errorf("cursor = %q", s.Snapshot().Cursor)
	}

	e.Dispatch(Hover{Layer: TreesLayerID, Feature: &selection.PickedFeature{ID: "B"}})
	if ids := s.FlaggedFeatures(selection.FlagHover); len(ids) != 1 || ids[0] != "B" {
		t.Errorf("hovered = %v", ids)
	}

	e.Dispatch(Hover{Layer: TreesLayerID})
	if ids := s.FlaggedFeatures(selection.FlagHover); len(ids) != 0 {
		t.Errorf("hover not cleared: %v", ids)
	}
	if s.Snapshot().Cursor != selection.CursorGrab {
		t.Errorf("cursor = %q", s.Snapshot().Cursor)
	}
}

func TestHoverAcrossLayers(t *testing.T) {
	e, s := newTestEngine(t)
	e.Dispatch(Load{})

	e.Dispatch(Hover{Layer: TreesLayerID, Feature: &selection.PickedFeature{ID: "A"}})
	e.Dispatch(Hover{Layer: PumpsLayerID, Feature: &selection.PickedFeature{ID: 7.0}})
	if ids := s.FlaggedFeatures(selection.FlagHover); len(ids) != 0 {
		t.Errorf("tree hover kept over a pump: %v", ids)
	}
	if s.Snapshot().Cursor != selection.CursorPointer {
		t.Errorf("cursor over pump = %q", s.Snapshot().Cursor)
	}

	e.Dispatch(Hover{Layer: PumpsLayerID})
	if ids := s.FlaggedFeatures(selection.FlagHover); len(ids) != 0 {
		t.Errorf("hovered = %v", ids)
	}
	if s.Snapshot().Cursor != selection.CursorGrab {
		t.Errorf("idle cursor = %q", s.Snapshot().Cursor)
	}
}

func TestTileClickSelectsTreeByProperty(t *testing.T) {
	var selected []string
	e, s := newTestEngine(t, OnTreeSelect(func(id string) { selected = append(selected, id) }))
	e.Load(testDatasets())
	e.Dispatch(Load{})

	e.Dispatch(TreeClick{Features: []selection.PickedFeature{{ID: 17.0, Properties: map[string]any{"id": "B"}}}})
	if e.Selected() != "B" || len(selected) != 1 || selected[0] != "B" {
		t.Fatalf("selected = %q, callbacks = %v", e.Selected(), selected)
	}
	if ids := s.FlaggedFeatures(selection.FlagSelect); len(ids) != 1 || ids[0] != "17" {
		t.Errorf("selected features = %v, want [17]", ids)
	}
	if v := e.Viewport(); v.Latitude != 51.97 || v.Zoom != viewport.ZoomedIn {
		t.Errorf("selection did not fly to B: %+v", v)
	}
}

func TestViewStateChangeKeepsPitch(t *testing.T) {
	e, _ := newTestEngine(t)
	e.Dispatch(ViewStateChange{Latitude: 51, Longitude: 7, Zoom: 12})
	if v := e.Viewport(); v.Pitch != 45 || v.Zoom != 12 {
		t.Errorf("viewport = %+v, want desktop pitch kept", v)
	}
	pitch := 10.0
	e.Dispatch(ViewStateChange{Latitude: 51, Longitude: 7, Zoom: 12, Pitch: &pitch})
	if v := e.Viewport(); v.Pitch != 10 {
		t.Errorf("pitch = %v, want 10", v.Pitch)
	}
}

func TestDataLayers(t *testing.T) {
	e, _ := newTestEngine(t)
	e.Load(testDatasets())
	pumps := filter.Default()
	pumps.VisibleLayer = filter.LayerPumps
	e.SetFilters(pumps)

	layers := e.Layers()
	rain, pl := layers[0], layers[1]
	if rain.Visible || !pl.Visible {
		t.Errorf("visibility rain=%v pumps=%v", rain.Visible, pl.Visible)
	}
	if got, want := rain.Data.Features[0].Properties[FillColorProp], paint.RainRamp.At(60).Array(); got != want {
		t.Errorf("rain colour = %v, want %v", got, want)
	}
	if got, want := pl.Data.Features[0].Properties[FillColorProp], paint.PumpBrokenColor.Array(); got != want {
		t.Errorf("pump colour = %v, want %v", got, want)
	}
	if _, ok := e.Datasets().Rain.Features[0].Properties[FillColorProp]; ok {
		t.Error("source dataset was modified")
	}
}

func TestTreeColor(t *testing.T) {
	e, _ := newTestEngine(t)
	e.Load(testDatasets())
	a, _ := e.Tree("A")
	if got := e.TreeColor(a); got != paint.TreeRamp.At(600) {
		t.Errorf("TreeColor(A) = %v", got)
	}

	narrow := filter.Default()
	narrow.AgeRange = filter.AgeRange{5, 8}
	e.SetFilters(narrow)
	if got := e.TreeColor(a); got != paint.Transparent {
		t.Errorf("filtered tree colour = %v", got)
	}
}

func TestTreePoints(t *testing.T) {
	e, _ := newTestEngine(t)
	e.Load(testDatasets())
	layer := e.TreePoints()
	if !layer.Visible || len(layer.Data.Features) != 2 {
		t.Fatalf("layer = %+v", layer)
	}
	colors := map[string]any{}
	for _, f := range layer.Data.Features {
		colors[f.Properties.MustString("id")] = f.Properties[FillColorProp]
	}
	if colors["A"] != paint.TreeRamp.At(600).Array() {
		t.Errorf("A = %v", colors["A"])
	}
	if colors["B"] != paint.Transparent.Array() {
		t.Errorf("B without rainfall = %v, want transparent", colors["B"])
	}
}

func TestRecorder(t *testing.T) {
	r := &countingRecorder{events: map[string]int{}}
	e, _ := newTestEngine(t, WithRecorder(r))
	e.Dispatch(Load{})
	e.Dispatch(DismissTooltip{})
	e.Dispatch(DismissTooltip{})

	adopted := filter.Default()
	adopted.ViewMode = filter.ViewAdopted
	e.SetFilters(adopted)

	if r.events["load"] != 1 || r.events["dismiss_tooltip"] != 2 {
		t.Errorf("events = %v", r.events)
	}
	if r.pushes != 1 {
		t.Errorf("pushes = %d, want 1", r.pushes)
	}
}

func mustJSON(t *testing.T, e expr.Expr) string {
	t.Helper()
	b, err := expr.JSON(e)
	if err != nil {
		t.Fatal(err)
	}
	return string(b)
}
