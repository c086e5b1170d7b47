package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"testing"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/humatest"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/joeblew999/plat-trees/internal/community"
	"github.com/joeblew999/plat-trees/internal/dataset"
	"github.com/joeblew999/plat-trees/internal/engine"
	"github.com/joeblew999/plat-trees/internal/filter"
	"github.com/joeblew999/plat-trees/internal/service"
	"github.com/joeblew999/plat-trees/internal/tooltip"
)

type staticLoader struct{ data dataset.Datasets }

func (l staticLoader) Load(context.Context) (dataset.Datasets, error) { return l.data, nil }

type staticCommunity community.Snapshot

func (c staticCommunity) Snapshot(context.Context) (community.Snapshot, error) {
	return community.Snapshot(c), nil
}

func testServices(t *testing.T) *Services {
	t.Helper()
	d := dataset.Empty()
	tree := geojson.NewFeature(orb.Point{13.4, 52.5})
	tree.Properties = geojson.Properties{"id": "A", "age": 12.0, "radolan_sum": 300.0}
	d.Trees.Append(tree)
	pump := geojson.NewFeature(orb.Point{13.41, 52.51})
	pump.Properties = geojson.Properties{"id": 7.0, "pump:status": "defekt", "addr:full": "Domplatz 1"}
	d.Pumps.Append(pump)

	data := service.NewDataService(staticLoader{data: d}, staticCommunity(community.FromIDs([]string{"A"}, nil)))
	if err := data.Reload(context.Background()); err != nil {
		t.Fatal(err)
	}
	return &Services{
		Data:     data,
		Sessions: service.NewSessionService(engine.Config{TreesSourceLayer: "original"}, data, service.NewEventBus()),
	}
}

func newTestAPI(t *testing.T, svc *Services) humatest.TestAPI {
	t.Helper()
	cfg := huma.DefaultConfig("plat-trees test", "1.0.0")
	cfg.Transformers = append(cfg.Transformers, LinkTransformer())
	_, api := humatest.New(t, cfg)
	RegisterRoutes(api, svc)
	return api
}

// sessionBody is the part of a session view the tests inspect.
type sessionBody struct {
	ID        string               `json:"id"`
	Selected  string               `json:"selected"`
	Filters   filter.State         `json:"filters"`
	Tooltip   *tooltip.PumpTooltip `json:"tooltip"`
	EditorURL string               `json:"editorUrl"`
}

func decodeBody[T any](t *testing.T, body []byte) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(body, &v); err != nil {
		t.Fatalf("decoding %s: %v", body, err)
	}
	return v
}

func TestHealthLinks(t *testing.T) {
	api := newTestAPI(t, nil)
	resp := api.Get("/health")
	if resp.Code != http.StatusOK {
		t.Fatalf("status = %d", resp.Code)
	}
	link := strings.Join(resp.Header().Values("Link"), ", ")
	if !strings.Contains(link, `</api/v1/sessions>; rel="sessions"`) {
		t.Errorf("links = %s", link)
	}
}

func TestInfo(t *testing.T) {
	api := newTestAPI(t, testServices(t))
	resp := api.Get("/api/v1/info")
	if resp.Code != http.StatusOK {
		t.Fatalf("status = %d", resp.Code)
	}
	info := decodeBody[InfoBody](t, resp.Body.Bytes())
	if !info.Loaded || info.Trees != 1 || info.Pumps != 1 || info.DB {
		t.Errorf("info = %+v", info)
	}
}

func TestComposeStyle(t *testing.T) {
	api := newTestAPI(t, testServices(t))

	resp := api.Post("/api/v1/style", map[string]any{
		"ageRange":     []int{0, 320},
		"viewMode":     "watered",
		"visibleLayer": "trees",
	})
	if resp.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", resp.Code, resp.Body.String())
	}
	got := decodeBody[map[string]any](t, resp.Body.Bytes())
	if got["visibility"] != "visible" {
		t.Errorf("visibility = %v", got["visibility"])
	}
	want := `["match",["get","id"],"A",true,false]`
	if filter, _ := json.Marshal(got["filter"]); string(filter) != want {
		t.Errorf("filter = %s, want %s", filter, want)
	}

	resp = api.Post("/api/v1/style", map[string]any{
		"ageRange":     []int{0, 320},
		"viewMode":     "thirsty",
		"visibleLayer": "trees",
	})
	if resp.Code != http.StatusUnprocessableEntity {
		t.Errorf("unknown view mode status = %d", resp.Code)
	}
}

func TestClassify(t *testing.T) {
	api := newTestAPI(t, nil)
	tests := []struct {
		query string
		want  string
		value int
	}{
		{"?age=12", "high", 3},
		{"?age=15", "medium", 2},
		{"?age=40", "low", 1},
		{"", "low", 1},
	}
	for _, tt := range tests {
		resp := api.Get("/api/v1/style/classify" + tt.query)
		if resp.Code != http.StatusOK {
			t.Fatalf("%s: status = %d", tt.query, resp.Code)
		}
		got := decodeBody[map[string]any](t, resp.Body.Bytes())
		if got["waterNeed"] != tt.want || got["value"] != float64(tt.value) {
			t.Errorf("%s: got %v", tt.query, got)
		}
	}

	if resp := api.Get("/api/v1/style/classify?age=old"); resp.Code != http.StatusUnprocessableEntity {
		t.Errorf("bad age status = %d", resp.Code)
	}
}

func TestLegend(t *testing.T) {
	api := newTestAPI(t, nil)
	resp := api.Get("/api/v1/style/legend")
	if resp.Code != http.StatusOK {
		t.Fatalf("status = %d", resp.Code)
	}
	if got := decodeBody[[]map[string]any](t, resp.Body.Bytes()); len(got) != 4 {
		t.Errorf("legend = %v", got)
	}
}

func TestSessionLifecycle(t *testing.T) {
	api := newTestAPI(t, testServices(t))

	resp := api.Post("/api/v1/sessions", map[string]any{})
	if resp.Code >= 300 {
		t.Fatalf("create status = %d: %s", resp.Code, resp.Body.String())
	}
	created := decodeBody[sessionBody](t, resp.Body.Bytes())
	base := "/api/v1/sessions/" + created.ID

	if resp := api.Get("/api/v1/sessions"); len(decodeBody[[]service.SessionInfo](t, resp.Body.Bytes())) != 1 {
		t.Errorf("list = %s", resp.Body.String())
	}

	resp = api.Get(base)
	if resp.Code != http.StatusOK {
		t.Fatalf("get status = %d", resp.Code)
	}
	if !strings.Contains(strings.Join(resp.Header().Values("Link"), ","), `rel="self"`) {
		t.Error("missing self link")
	}

	resp = api.Put(base+"/filters", map[string]any{
		"ageRange":     []int{10, 20},
		"visibleLayer": "trees",
	})
	if resp.Code != http.StatusOK {
		t.Fatalf("filters status = %d: %s", resp.Code, resp.Body.String())
	}
	if v := decodeBody[sessionBody](t, resp.Body.Bytes()); v.Filters.AgeRange != (filter.AgeRange{10, 20}) {
		t.Errorf("filters = %+v", v.Filters)
	}

	for _, ev := range []map[string]any{
		{"kind": "load"},
		{"kind": "tree_click", "payload": map[string]any{"features": []map[string]any{
			{"id": 17, "properties": map[string]any{"id": "A"}},
		}}},
	} {
		if resp := api.Post(base+"/events", ev); resp.Code != http.StatusOK {
			t.Fatalf("event %v status = %d: %s", ev["kind"], resp.Code, resp.Body.String())
		}
	}

	resp = api.Get(base + "/tree")
	if resp.Code != http.StatusOK {
		t.Fatalf("tree status = %d", resp.Code)
	}
	if tree := decodeBody[service.TreeDetail](t, resp.Body.Bytes()); tree.ID != "A" || !tree.Watered {
		t.Errorf("tree = %+v", tree)
	}

	resp = api.Get(base + "/surface")
	surface := decodeBody[map[string]any](t, resp.Body.Bytes())
	if layers, _ := surface["layers"].([]any); len(layers) != 2 {
		t.Errorf("surface layers = %v", surface["layers"])
	}

	resp = api.Get(base + "/layers")
	if layers := decodeBody[[]map[string]any](t, resp.Body.Bytes()); len(layers) != 3 {
		t.Errorf("layers = %d", len(layers))
	}

	if resp := api.Delete(base); resp.Code != http.StatusOK {
		t.Errorf("delete status = %d", resp.Code)
	}
	if resp := api.Get(base); resp.Code != http.StatusNotFound {
		t.Errorf("get after delete status = %d", resp.Code)
	}
}

func TestPumpEvents(t *testing.T) {
	api := newTestAPI(t, testServices(t))
	created := decodeBody[sessionBody](t, api.Post("/api/v1/sessions", map[string]any{}).Body.Bytes())
	base := "/api/v1/sessions/" + created.ID

	resp := api.Post(base+"/events", map[string]any{
		"kind": "pump_click",
		"payload": map[string]any{"pick": map[string]any{
			"x": 10, "y": 20,
			"object": map[string]any{"properties": map[string]any{"id": 7, "addr:full": "Domplatz 1"}},
		}},
	})
	if resp.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", resp.Code, resp.Body.String())
	}
	v := decodeBody[sessionBody](t, resp.Body.Bytes())
	if v.Tooltip == nil || v.Tooltip.ID != 7 || !strings.HasSuffix(v.EditorURL, "#node/7") {
		t.Errorf("tooltip = %+v, url = %q", v.Tooltip, v.EditorURL)
	}

	resp = api.Post(base+"/events", map[string]any{"kind": "dismiss_tooltip"})
	if v := decodeBody[sessionBody](t, resp.Body.Bytes()); v.Tooltip != nil {
		t.Errorf("tooltip after dismiss = %+v", v.Tooltip)
	}

	if resp := api.Post(base+"/events", map[string]any{"kind": "explode"}); resp.Code != http.StatusUnprocessableEntity {
		t.Errorf("unknown kind status = %d", resp.Code)
	}
	if resp := api.Post("/api/v1/sessions/missing/events", map[string]any{"kind": "load"}); resp.Code != http.StatusNotFound {
		t.Errorf("unknown session status = %d", resp.Code)
	}
}

func TestDecodeEvent(t *testing.T) {
	ev, err := DecodeEvent("focus", map[string]any{"id": "A", "point": []float64{13.4, 52.5}})
	if err != nil {
		t.Fatal(err)
	}
	focus, ok := ev.(engine.Focus)
	if !ok || focus.ID != "A" || focus.Point != (orb.Point{13.4, 52.5}) || focus.Zoom != nil {
		t.Errorf("event = %#v", ev)
	}

	ev, err = DecodeEvent("view_state_change", map[string]any{"latitude": 51.9, "longitude": 7.6, "zoom": 12})
	if err != nil {
		t.Fatal(err)
	}
	if vs, ok := ev.(engine.ViewStateChange); !ok || vs.Zoom != 12 || vs.Pitch != nil || vs.Bearing != nil {
		t.Errorf("view state = %#v", ev)
	}

	if ev, err := DecodeEvent("load", nil); err != nil || ev != (engine.Load{}) {
		t.Errorf("load = %#v, %v", ev, err)
	}
	if _, err := DecodeEvent("navigate", map[string]any{"zoom": "close"}); err == nil {
		t.Error("expected payload error")
	}
	if _, err := DecodeEvent("nope", nil); err == nil {
		t.Error("expected unknown kind error")
	}
}

func TestCommunityAndReload(t *testing.T) {
	api := newTestAPI(t, testServices(t))

	resp := api.Get("/api/v1/community")
	if got := decodeBody[CommunityBody](t, resp.Body.Bytes()); got.Watered != 1 {
		t.Errorf("community = %+v", got)
	}
	if resp := api.Post("/api/v1/reload"); resp.Code != http.StatusOK {
		t.Errorf("reload status = %d", resp.Code)
	}
	if resp := api.Get("/api/v1/tables"); resp.Code != http.StatusServiceUnavailable {
		t.Errorf("tables without store status = %d", resp.Code)
	}
}
