package filter

import (
	"testing"

	"github.com/joeblew999/plat-trees/internal/community"
	"github.com/joeblew999/plat-trees/internal/expr"
	"github.com/joeblew999/plat-trees/internal/paint"
	"github.com/joeblew999/plat-trees/internal/waterneed"
)

func props(id string, age any) expr.Context {
	p := map[string]any{"id": id}
	if age != nil {
		p["age"] = age
	}
	return expr.Context{Properties: p}
}

func TestOpacityDefaultRangeIsLiteral(t *testing.T) {
	got, _ := expr.JSON(Opacity(Default()))
	if string(got) != "1" {
		t.Fatalf("default opacity = %s", got)
	}
}

func TestOpacityAgeRange(t *testing.T) {
	s := Default()
	s.AgeRange = AgeRange{5, 20}
	op := Opacity(s)

	tests := []struct {
		age  any
		want any
	}{
		{float64(3), 0},
		{float64(5), 1},
		{float64(20), 1},
		{float64(21), 0},
		{nil, 0},
	}
	for _, tt := range tests {
		if got := op.Eval(props("t", tt.age)); got != tt.want {
			t.Errorf("age %v: opacity %v, want %v", tt.age, got, tt.want)
		}
	}

	want := `["case",[">=",["get","age"],5],["case",["<=",["get","age"],20],1,0],0]`
	if got, _ := expr.JSON(op); string(got) != want {
		t.Errorf("opacity = %s", got)
	}
}

func TestMembershipOmitsAbsentFilters(t *testing.T) {
	if f := Membership(Default(), community.Snapshot{}); f != nil {
		t.Fatalf("no filters should give nil, got %v", expr.Encode(f))
	}

	s := Default().WithWaterNeed(waterneed.High)
	f := Membership(s, community.Snapshot{})
	if _, ok := f.(expr.Match); !ok {
		t.Fatalf("single filter must be unwrapped, got %T", f)
	}

	s.ViewMode = ViewWatered
	f = Membership(s, community.FromIDs([]string{"a"}, nil))
	all, ok := f.(expr.All)
	if !ok || len(all.Args) != 2 {
		t.Fatalf("two filters must be combined with all, got %v", expr.Encode(f))
	}
}

func TestCommunityFilter(t *testing.T) {
	snap := community.FromIDs([]string{"w1", "w2"}, []string{"a1"})

	s := Default()
	s.ViewMode = ViewWatered
	f := Membership(s, snap)
	if !expr.Truthy(f, props("w2", nil)) {
		t.Error("watered tree filtered out")
	}
	if expr.Truthy(f, props("a1", nil)) {
		t.Error("adopted-only tree kept in watered view")
	}

	s.ViewMode = ViewAdopted
	f = Membership(s, snap)
	if !expr.Truthy(f, props("a1", nil)) || expr.Truthy(f, props("w1", nil)) {
		t.Error("adopted view mismatched")
	}
}

func TestCommunityFilterEmptySet(t *testing.T) {
	s := Default()
	s.ViewMode = ViewAdopted
	f := Membership(s, community.Snapshot{})
	if got, _ := expr.JSON(f); string(got) != "false" {
		t.Fatalf("empty adopted set = %s", got)
	}
}

func TestWaterNeedExprMatchesClassifier(t *testing.T) {
	e := WaterNeedExpr()
	for age := 0; age <= 100; age++ {
		got := e.Eval(props("t", float64(age)))
		want := int(waterneed.ClassifyAge(age))
		if got != want {
			t.Fatalf("age %d: expression %v, classifier %v", age, got, want)
		}
	}
	if got := e.Eval(props("t", nil)); got != int(waterneed.Classify(nil)) {
		t.Errorf("missing age: expression %v, classifier %v", got, waterneed.Classify(nil))
	}
}

func TestComposeIdempotent(t *testing.T) {
	s := Default().WithWaterNeed(waterneed.Medium)
	s.ViewMode = ViewWatered
	s.AgeRange = AgeRange{10, 60}
	snap := community.FromIDs([]string{"c", "a", "b"}, nil)

	a, _ := expr.JSON(expr.Literal{Value: Compose(s, snap)})
	b, _ := expr.JSON(expr.Literal{Value: Compose(s, snap)})
	if string(a) != string(b) {
		t.Fatalf("compose not idempotent:\n%s\n%s", a, b)
	}
}

func TestCircleColorHoverAndRamp(t *testing.T) {
	c := CircleColor(paint.TreeRamp)
	ctx := expr.Context{Properties: map[string]any{"radolan_sum": float64(600)}}
	if got := c.Eval(ctx); got != paint.TreeRamp.At(600) {
		t.Errorf("ramp colour = %v", got)
	}
	ctx.State = map[string]any{StateHover: true}
	if got := c.Eval(ctx); got != paint.HoverGrey {
		t.Errorf("hover colour = %v", got)
	}
}

func TestVisibility(t *testing.T) {
	s := Default()
	if Visibility(s) != "visible" {
		t.Error("trees hidden by default")
	}
	s.VisibleLayer = LayerRain
	if Visibility(s) != "none" {
		t.Error("trees visible on rain layer")
	}
}

func TestStateValidate(t *testing.T) {
	bad := []State{
		{AgeRange: AgeRange{30, 10}, VisibleLayer: LayerTrees},
		{AgeRange: DefaultAgeRange, VisibleLayer: "roads"},
		{AgeRange: DefaultAgeRange, VisibleLayer: LayerTrees, ViewMode: "felled"},
	}
	for _, s := range bad {
		if err := s.Validate(); err == nil {
			t.Errorf("expected error for %+v", s)
		}
	}
	if err := Default().Validate(); err != nil {
		t.Errorf("default state invalid: %v", err)
	}
}

func TestStateEqual(t *testing.T) {
	a := Default().WithWaterNeed(waterneed.Low)
	b := Default().WithWaterNeed(waterneed.Low)
	if !a.Equal(b) {
		t.Error("equal states differ")
	}
	if a.Equal(Default()) {
		t.Error("need filter ignored by Equal")
	}
}
