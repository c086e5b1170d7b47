// Package expr models map style expressions as a small tagged tree.
//
// The compositor and the colour engine build trees of these nodes; a render
// adapter turns them into the array syntax of the GL style specification via
// [Encode] (or json.Marshal on [JSON]). Every node can also be evaluated for
// a single feature with Eval, which keeps server-side checks and tests in
// step with what the map renders.
package expr

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"sort"
)

// Expr is one node of a style expression.
type Expr interface {
	// Encode returns the GL style array form of the node.
	Encode() any
	// Eval evaluates the node for one feature.
	Eval(Context) any
}

// Context is the per-feature input to Eval.
type Context struct {
	Properties map[string]any
	State      map[string]any
	Zoom       float64
}

// Lerper is implemented by interpolation outputs that are not plain numbers,
// such as colours.
type Lerper interface {
	Lerp(to any, t float64) any
}

// Literal is a constant value. Slices and maps are wrapped in a "literal"
// operator so the renderer does not parse them as expressions.
type Literal struct {
	Value any
}

func (l Literal) Encode() any {
	switch l.Value.(type) {
	case []any, []string, []int, []float64, map[string]any:
		return []any{"literal", l.Value}
	}
	return l.Value
}

func (l Literal) Eval(Context) any { return l.Value }

// Get reads a feature property.
type Get struct {
	Property string
}

func (g Get) Encode() any { return []any{"get", g.Property} }

func (g Get) Eval(c Context) any { return c.Properties[g.Property] }

// FeatureState reads a per-feature flag held by the renderer.
type FeatureState struct {
	Key string
}

func (f FeatureState) Encode() any { return []any{"feature-state", f.Key} }

func (f FeatureState) Eval(c Context) any { return c.State[f.Key] }

// Zoom is the current camera zoom.
type Zoom struct{}

func (Zoom) Encode() any { return []any{"zoom"} }

func (Zoom) Eval(c Context) any { return c.Zoom }

// Boolean asserts a boolean input, falling back when the input is not one.
type Boolean struct {
	Input    Expr
	Fallback bool
}

func (b Boolean) Encode() any { return []any{"boolean", b.Input.Encode(), b.Fallback} }

func (b Boolean) Eval(c Context) any {
	if v, ok := b.Input.Eval(c).(bool); ok {
		return v
	}
	return b.Fallback
}

// Op is a comparison operator.
type Op string

const (
	OpEq Op = "=="
	OpNe Op = "!="
	OpLt Op = "<"
	OpLe Op = "<="
	OpGt Op = ">"
	OpGe Op = ">="
)

// Compare compares two operands.
type Compare struct {
	Op          Op
	Left, Right Expr
}

func (cmp Compare) Encode() any {
	return []any{string(cmp.Op), cmp.Left.Encode(), cmp.Right.Encode()}
}

func (cmp Compare) Eval(c Context) any {
	l, r := cmp.Left.Eval(c), cmp.Right.Eval(c)
	switch cmp.Op {
	case OpEq:
		return equal(l, r)
	case OpNe:
		return !equal(l, r)
	}
	lf, lok := Number(l)
	rf, rok := Number(r)
	if !lok || !rok {
		return false
	}
	switch cmp.Op {
	case OpLt:
		return lf < rf
	case OpLe:
		return lf <= rf
	case OpGt:
		return lf > rf
	case OpGe:
		return lf >= rf
	}
	return false
}

// All is true when every argument is true.
type All struct {
	Args []Expr
}

func (a All) Encode() any { return variadic("all", a.Args) }

func (a All) Eval(c Context) any {
	for _, arg := range a.Args {
		if v, _ := arg.Eval(c).(bool); !v {
			return false
		}
	}
	return true
}

// Any is true when at least one argument is true.
type Any struct {
	Args []Expr
}

func (a Any) Encode() any { return variadic("any", a.Args) }

func (a Any) Eval(c Context) any {
	for _, arg := range a.Args {
		if v, _ := arg.Eval(c).(bool); v {
			return true
		}
	}
	return false
}

// Not negates a boolean.
type Not struct {
	Arg Expr
}

func (n Not) Encode() any { return []any{"!", n.Arg.Encode()} }

func (n Not) Eval(c Context) any {
	v, _ := n.Arg.Eval(c).(bool)
	return !v
}

// Branch is one condition/output pair of a Case.
type Branch struct {
	When Expr
	Then Expr
}

// Case returns the output of the first branch whose condition holds.
type Case struct {
	Branches []Branch
	Else     Expr
}

func (cs Case) Encode() any {
	out := make([]any, 0, 2+2*len(cs.Branches))
	out = append(out, "case")
	for _, b := range cs.Branches {
		out = append(out, b.When.Encode(), b.Then.Encode())
	}
	return append(out, cs.Else.Encode())
}

func (cs Case) Eval(c Context) any {
	for _, b := range cs.Branches {
		if v, _ := b.When.Eval(c).(bool); v {
			return b.Then.Eval(c)
		}
	}
	return cs.Else.Eval(c)
}

// Match tests the input against a set of labels.
type Match struct {
	Input  Expr
	Labels []any
	Then   Expr
	Else   Expr
}

func (m Match) Encode() any {
	var labels any = m.Labels
	if len(m.Labels) == 1 {
		labels = m.Labels[0]
	}
	return []any{"match", m.Input.Encode(), labels, m.Then.Encode(), m.Else.Encode()}
}

func (m Match) Eval(c Context) any {
	in := m.Input.Eval(c)
	for _, l := range m.Labels {
		if equal(in, l) {
			return m.Then.Eval(c)
		}
	}
	return m.Else.Eval(c)
}

// Stop is one input/output pair of an Interpolate.
type Stop struct {
	Value  float64
	Output any
}

// Interpolate interpolates outputs between stops, clamping at both ends.
// A Base other than 0 or 1 selects exponential interpolation.
type Interpolate struct {
	Input Expr
	Stops []Stop
	Base  float64
}

func (ip Interpolate) exponential() bool {
	return ip.Base > 0 && ip.Base != 1
}

func (ip Interpolate) Encode() any {
	curve := []any{"linear"}
	if ip.exponential() {
		curve = []any{"exponential", ip.Base}
	}
	out := make([]any, 0, 3+2*len(ip.Stops))
	out = append(out, "interpolate", curve, ip.Input.Encode())
	for _, s := range ip.Stops {
		out = append(out, s.Value, encodeValue(s.Output))
	}
	return out
}

func (ip Interpolate) Eval(c Context) any {
	if len(ip.Stops) == 0 {
		return nil
	}
	x, ok := Number(ip.Input.Eval(c))
	if !ok {
		return nil
	}
	stops := ip.Stops
	if x <= stops[0].Value {
		return stops[0].Output
	}
	last := stops[len(stops)-1]
	if x >= last.Value {
		return last.Output
	}
	i := sort.Search(len(stops), func(i int) bool { return stops[i].Value >= x })
	lo, hi := stops[i-1], stops[i]
	t := (x - lo.Value) / (hi.Value - lo.Value)
	if ip.exponential() {
		t = (math.Pow(ip.Base, x-lo.Value) - 1) / (math.Pow(ip.Base, hi.Value-lo.Value) - 1)
	}
	return lerp(lo.Output, hi.Output, t)
}

// Encode returns the GL style form of e; a nil expression encodes as nil.
func Encode(e Expr) any {
	if e == nil {
		return nil
	}
	return e.Encode()
}

// JSON returns the marshalled GL style form of e.
func JSON(e Expr) ([]byte, error) {
	return json.Marshal(Encode(e))
}

// Equal reports whether two expressions encode identically.
func Equal(a, b Expr) bool {
	aj, aerr := JSON(a)
	bj, berr := JSON(b)
	if aerr != nil || berr != nil {
		return false
	}
	return bytes.Equal(aj, bj)
}

// Truthy evaluates a filter expression; a nil filter matches everything.
func Truthy(e Expr, c Context) bool {
	if e == nil {
		return true
	}
	v, _ := e.Eval(c).(bool)
	return v
}

// Number converts JSON-ish numeric values to float64.
func Number(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint8:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	}
	return 0, false
}

func variadic(op string, args []Expr) []any {
	out := make([]any, 0, 1+len(args))
	out = append(out, op)
	for _, a := range args {
		out = append(out, a.Encode())
	}
	return out
}

func encodeValue(v any) any {
	if e, ok := v.(Expr); ok {
		return e.Encode()
	}
	return v
}

func equal(a, b any) bool {
	af, aok := Number(a)
	bf, bok := Number(b)
	if aok && bok {
		return af == bf
	}
	if aok != bok {
		return false
	}
	return fmt.Sprint(a) == fmt.Sprint(b) && a != nil && b != nil
}

func lerp(from, to any, t float64) any {
	if l, ok := from.(Lerper); ok {
		return l.Lerp(to, t)
	}
	ff, fok := Number(from)
	tf, tok := Number(to)
	if fok && tok {
		return ff + (tf-ff)*t
	}
	return from
}
