// Package dataset loads the tree, pump and rain GeoJSON collections and
// reads typed values from their features.
package dataset

import (
	"math"
	"strconv"
	"strings"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// GeoJSON property names shared with the upstream data.
const (
	PropID         = "id"
	PropAge        = "age"
	PropRadolanSum = "radolan_sum"
	PropRainData   = "data"

	PropPumpStatus    = "pump:status"
	PropPumpAddress   = "addr:full"
	PropPumpCheckDate = "check_date"
	PropPumpStyle     = "pump:style"
)

// Tree is a street tree as seen by the map engine.
type Tree struct {
	ID      string
	Age     *int
	RainSum *float64
	Point   orb.Point
}

// Pump is a public street water pump.
type Pump struct {
	ID        int64
	Address   string
	Status    string
	CheckDate string
	Style     string
	Point     orb.Point
}

// TreeFromProperties reads a tree from raw feature properties.
func TreeFromProperties(props map[string]any) Tree {
	t := Tree{ID: StringProp(props, PropID)}
	if v, ok := NumberProp(props, PropAge); ok {
		age := int(math.Round(v))
		t.Age = &age
	}
	if v, ok := NumberProp(props, PropRadolanSum); ok {
		t.RainSum = &v
	}
	return t
}

// TreeFromFeature reads a tree from a GeoJSON feature. The feature id is
// used when the id property is missing.
func TreeFromFeature(f *geojson.Feature) Tree {
	t := TreeFromProperties(f.Properties)
	if t.ID == "" {
		t.ID = stringify(f.ID)
	}
	t.Point = pointOf(f.Geometry)
	return t
}

// PumpFromFeature reads a pump from a GeoJSON feature.
func PumpFromFeature(f *geojson.Feature) Pump {
	p := Pump{
		Address:   StringProp(f.Properties, PropPumpAddress),
		Status:    StringProp(f.Properties, PropPumpStatus),
		CheckDate: StringProp(f.Properties, PropPumpCheckDate),
		Style:     StringProp(f.Properties, PropPumpStyle),
		Point:     pointOf(f.Geometry),
	}
	if id, ok := NumberProp(f.Properties, PropID); ok {
		p.ID = int64(id)
	}
	return p
}

// RainMillimetres returns the precipitation of a rain cell in millimetres.
// The DWD value in data[0] is in tenths of a millimetre.
func RainMillimetres(f *geojson.Feature) (float64, bool) {
	data, ok := f.Properties[PropRainData].([]any)
	if !ok || len(data) == 0 {
		return 0, false
	}
	v, ok := toNumber(data[0])
	if !ok {
		return 0, false
	}
	return v / 10, true
}

// StringProp returns a property as a string. Numbers are formatted without
// a trailing fraction; anything else yields "".
func StringProp(props map[string]any, key string) string {
	if props == nil {
		return ""
	}
	return stringify(props[key])
}

// NumberProp returns a numeric property. Numeric strings are accepted.
func NumberProp(props map[string]any, key string) (float64, bool) {
	if props == nil {
		return 0, false
	}
	return toNumber(props[key])
}

func toNumber(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, !math.IsNaN(n)
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		return f, err == nil
	}
	return 0, false
}

func stringify(v any) string {
	switch s := v.(type) {
	case string:
		return s
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64)
	case int:
		return strconv.Itoa(s)
	case int64:
		return strconv.FormatInt(s, 10)
	}
	return ""
}

func pointOf(g orb.Geometry) orb.Point {
	if g == nil {
		return orb.Point{}
	}
	if p, ok := g.(orb.Point); ok {
		return p
	}
	return g.Bound().Center()
}
