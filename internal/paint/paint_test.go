package paint

import (
	"encoding/json"
	"testing"

	"github.com/joeblew999/plat-trees/internal/expr"
)

func TestTreeRampStopAt600(t *testing.T) {
	got := TreeRamp.At(600)
	want := MustHex("#c6dbef")
	if got != want {
		t.Fatalf("TreeRamp.At(600) = %v, want %v", got, want)
	}
	if got.IsTransparent() {
		t.Fatal("ramp colour is transparent")
	}
}

func TestRampInterpolatesAndClamps(t *testing.T) {
	r := Ramp{{0, RGBA{0, 0, 0, 255}}, {100, RGBA{200, 100, 50, 255}}}
	if got := r.At(50); got != (RGBA{100, 50, 25, 255}) {
		t.Errorf("midpoint = %v", got)
	}
	if got := r.At(-10); got != r[0].Color {
		t.Errorf("below range = %v", got)
	}
	if got := r.At(1e9); got != r[1].Color {
		t.Errorf("above range = %v", got)
	}
}

func TestRampExprMatchesAt(t *testing.T) {
	e := TreeRamp.Expr(expr.Get{Property: "radolan_sum"})
	for _, v := range []float64{0, 123, 600, 1750, 2999, 5000} {
		got := e.Eval(expr.Context{Properties: map[string]any{"radolan_sum": v}})
		if got != TreeRamp.At(v) {
			t.Errorf("v=%v: expression %v, ramp %v", v, got, TreeRamp.At(v))
		}
	}
}

func TestColorEncoding(t *testing.T) {
	b, err := json.Marshal(Blue)
	if err != nil {
		t.Fatal(err)
	}
	if string(b) != `"rgba(53,117,177,0.784)"` {
		t.Errorf("got %s", b)
	}
	if Red.Hex() != "#f76906" {
		t.Errorf("hex = %s", Red.Hex())
	}
	if _, err := ParseHex("#12"); err == nil {
		t.Error("expected error for short hex")
	}
	if c, _ := ParseHex("#fff"); c != White {
		t.Errorf("#fff = %v", c)
	}
}

func TestPumpColor(t *testing.T) {
	tests := map[string]RGBA{
		"working":        PumpWorkingColor,
		"funktionsfähig": PumpWorkingColor,
		"defekt":         PumpBrokenColor,
		"broken":         PumpBrokenColor,
		"verriegelt":     PumpLockedColor,
		"":               PumpDefaultColor,
		"unbekannt":      PumpDefaultColor,
	}
	for tag, want := range tests {
		if got := PumpColor(tag); got != want {
			t.Errorf("PumpColor(%q) = %v, want %v", tag, got, want)
		}
	}
	if len(PumpLegend()) != 4 {
		t.Error("legend must list four statuses")
	}
}
