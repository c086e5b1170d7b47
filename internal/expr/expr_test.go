package expr

import (
	"encoding/json"
	"testing"
)

func TestEncodeCase(t *testing.T) {
	e := Case{
		Branches: []Branch{{
			When: Compare{Op: OpGe, Left: Get{"age"}, Right: Literal{5}},
			Then: Literal{1},
		}},
		Else: Literal{0},
	}
	got, err := JSON(e)
	if err != nil {
		t.Fatal(err)
	}
	want := `["case",[">=",["get","age"],5],1,0]`
	if string(got) != want {
		t.Fatalf("got %s, want %s", got, want)
	}
}

func TestEncodeMatchLabels(t *testing.T) {
	single := Match{Input: Get{"id"}, Labels: []any{3}, Then: Literal{true}, Else: Literal{false}}
	if got, _ := JSON(single); string(got) != `["match",["get","id"],3,true,false]` {
		t.Errorf("single label: %s", got)
	}
	many := Match{Input: Get{"id"}, Labels: []any{"a", "b"}, Then: Literal{true}, Else: Literal{false}}
	if got, _ := JSON(many); string(got) != `["match",["get","id"],["a","b"],true,false]` {
		t.Errorf("many labels: %s", got)
	}
}

func TestEncodeLiteralArray(t *testing.T) {
	got, _ := JSON(Literal{[]string{"a"}})
	if string(got) != `["literal",["a"]]` {
		t.Errorf("got %s", got)
	}
}

func TestEvalCompareMissingProperty(t *testing.T) {
	e := Compare{Op: OpLt, Left: Get{"age"}, Right: Literal{40}}
	if v := e.Eval(Context{}); v != false {
		t.Errorf("missing property compared true")
	}
	if v := e.Eval(Context{Properties: map[string]any{"age": float64(12)}}); v != true {
		t.Errorf("12 < 40 evaluated %v", v)
	}
}

func TestEvalMatchNormalizesNumbers(t *testing.T) {
	m := Match{Input: Get{"n"}, Labels: []any{2}, Then: Literal{"yes"}, Else: Literal{"no"}}
	if v := m.Eval(Context{Properties: map[string]any{"n": float64(2)}}); v != "yes" {
		t.Errorf("got %v", v)
	}
	if v := m.Eval(Context{Properties: map[string]any{"n": "2"}}); v != "no" {
		t.Errorf("string must not match number label, got %v", v)
	}
}

func TestEvalInterpolateClamps(t *testing.T) {
	ip := Interpolate{Input: Get{"x"}, Stops: []Stop{{0, 0.0}, {10, 100.0}, {20, 300.0}}}
	cases := map[float64]float64{-5: 0, 0: 0, 5: 50, 10: 100, 15: 200, 25: 300}
	for in, want := range cases {
		got := ip.Eval(Context{Properties: map[string]any{"x": in}})
		if got != want {
			t.Errorf("x=%v: got %v, want %v", in, got, want)
		}
	}
	if got := ip.Eval(Context{}); got != nil {
		t.Errorf("missing input: got %v", got)
	}
}

func TestAllAnyNot(t *testing.T) {
	tr, fa := Literal{true}, Literal{false}
	if (All{}).Eval(Context{}) != true {
		t.Error("empty all must be true")
	}
	if (All{Args: []Expr{tr, fa}}).Eval(Context{}) != false {
		t.Error("all(true,false)")
	}
	if (Any{Args: []Expr{fa, tr}}).Eval(Context{}) != true {
		t.Error("any(false,true)")
	}
	if (Not{Arg: fa}).Eval(Context{}) != true {
		t.Error("!false")
	}
}

func TestBooleanFallback(t *testing.T) {
	b := Boolean{Input: FeatureState{"hover"}, Fallback: false}
	if b.Eval(Context{}) != false {
		t.Error("missing state must fall back")
	}
	if b.Eval(Context{State: map[string]any{"hover": true}}) != true {
		t.Error("hover state ignored")
	}
}

func TestEqualAndTruthy(t *testing.T) {
	a := Compare{Op: OpEq, Left: Get{"a"}, Right: Literal{1}}
	b := Compare{Op: OpEq, Left: Get{"a"}, Right: Literal{1}}
	if !Equal(a, b) {
		t.Error("identical expressions not equal")
	}
	if Equal(a, nil) {
		t.Error("expression equal to nil")
	}
	if !Truthy(nil, Context{}) {
		t.Error("nil filter must match")
	}
}

func TestExponentialInterpolate(t *testing.T) {
	ip := Interpolate{Input: Zoom{}, Base: 1.75, Stops: []Stop{{11, 1.0}, {22, 100.0}}}
	got, _ := JSON(ip)
	if string(got) != `["interpolate",["exponential",1.75],["zoom"],11,1,22,100]` {
		t.Fatalf("got %s", got)
	}
	mid, _ := ip.Eval(Context{Zoom: 16.5}).(float64)
	linear := 1 + 99*0.5
	if mid >= linear {
		t.Errorf("exponential curve %v not below linear %v", mid, linear)
	}
}

func TestNodesMarshalAsArrays(t *testing.T) {
	type holder struct {
		Filter Expr `json:"filter"`
	}
	b, err := json.Marshal(holder{Filter: Not{Arg: Get{"x"}}})
	if err != nil {
		t.Fatal(err)
	}
	if string(b) != `{"filter":["!",["get","x"]]}` {
		t.Errorf("got %s", b)
	}
}
