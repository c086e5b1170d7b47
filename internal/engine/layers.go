package engine

import (
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/joeblew999/plat-trees/internal/dataset"
	"github.com/joeblew999/plat-trees/internal/expr"
	"github.com/joeblew999/plat-trees/internal/filter"
	"github.com/joeblew999/plat-trees/internal/paint"
)

// Layer and source ids.
const (
	TreesLayerID     = "trees"
	TreesSourceID    = "trees"
	BuildingsLayerID = "3d-buildings"
	RainLayerID      = "rain"
	PumpsLayerID     = "pumps"
)

// Paint property names pushed after load.
const (
	PaintOpacity     = "circle-opacity"
	PaintColor       = "circle-color"
	PaintStrokeWidth = "circle-stroke-width"
	LayoutVisibility = "visibility"
)

// FillColorProp is the feature property data layers carry their colour in.
const FillColorProp = "fillColor"

// Source is a vector tile source descriptor.
type Source struct {
	Type    string  `json:"type"`
	URL     string  `json:"url,omitempty"`
	MinZoom float64 `json:"minzoom,omitempty"`
	MaxZoom float64 `json:"maxzoom,omitempty"`
}

// Layer is a style layer descriptor.
type Layer struct {
	ID          string               `json:"id"`
	Type        string               `json:"type"`
	Source      string               `json:"source"`
	SourceLayer string               `json:"source-layer,omitempty"`
	MinZoom     float64              `json:"minzoom,omitempty"`
	Filter      expr.Expr            `json:"filter,omitempty"`
	Layout      map[string]any       `json:"layout,omitempty"`
	Paint       map[string]expr.Expr `json:"paint,omitempty"`
}

// TreesSource is the vector tile source of the tree layer.
func TreesSource(url string) Source {
	return Source{Type: "vector", URL: url, MinZoom: 11, MaxZoom: 20}
}

// TreesLayer is the tree circle layer drawn with x.
func TreesLayer(sourceLayer string, x filter.Expressions) Layer {
	return Layer{
		ID:          TreesLayerID,
		Type:        "circle",
		Source:      TreesSourceID,
		SourceLayer: sourceLayer,
		Filter:      x.Filter,
		Layout:      map[string]any{LayoutVisibility: x.Visibility},
		Paint: map[string]expr.Expr{
			"circle-radius":       filter.CircleRadius(),
			PaintOpacity:          x.Opacity,
			"circle-stroke-color": expr.Literal{Value: paint.Red},
			PaintColor:            x.Color,
			PaintStrokeWidth:      x.StrokeWidth,
		},
	}
}

// BuildingsLayer extrudes buildings of the base style from zoom 15 on.
func BuildingsLayer() Layer {
	extrude := func(prop string) expr.Expr {
		return expr.Interpolate{
			Input: expr.Zoom{},
			Stops: []expr.Stop{
				{Value: 15, Output: 0},
				{Value: 15.05, Output: expr.Get{Property: prop}},
			},
		}
	}
	return Layer{
		ID:          BuildingsLayerID,
		Type:        "fill-extrusion",
		Source:      "composite",
		SourceLayer: "building",
		Filter:      expr.Compare{Op: expr.OpEq, Left: expr.Get{Property: "extrude"}, Right: expr.Literal{Value: "true"}},
		Paint: map[string]expr.Expr{
			"fill-extrusion-color":   expr.Literal{Value: paint.White},
			"fill-extrusion-height":  extrude("height"),
			"fill-extrusion-base":    extrude("min_height"),
			"fill-extrusion-opacity": expr.Literal{Value: 0.3},
		},
	}
}

// DataLayer is a GeoJSON overlay whose features carry their resolved
// colour in FillColorProp.
type DataLayer struct {
	ID        string                     `json:"id"`
	Visible   bool                       `json:"visible"`
	Opacity   float64                    `json:"opacity"`
	Stroked   bool                       `json:"stroked"`
	LineColor *paint.RGBA                `json:"lineColor,omitempty"`
	Radius    float64                    `json:"radius,omitempty"`
	Data      *geojson.FeatureCollection `json:"data"`
}

// RainLayer colours each rain cell by its precipitation.
func RainLayer(fc *geojson.FeatureCollection, ramp paint.Ramp, visible bool) DataLayer {
	return DataLayer{
		ID:      RainLayerID,
		Visible: visible,
		Opacity: 0.95,
		Data: colorFeatures(fc, func(f *geojson.Feature) paint.RGBA {
			mm, ok := dataset.RainMillimetres(f)
			if !ok {
				return paint.Transparent
			}
			return ramp.At(mm)
		}),
	}
}

// PumpsLayer colours each pump by its status.
func PumpsLayer(fc *geojson.FeatureCollection, visible bool) DataLayer {
	outline := paint.OutlineDark
	return DataLayer{
		ID:        PumpsLayerID,
		Visible:   visible,
		Opacity:   1,
		Stroked:   true,
		LineColor: &outline,
		Radius:    9,
		Data: colorFeatures(fc, func(f *geojson.Feature) paint.RGBA {
			return paint.PumpColor(dataset.StringProp(f.Properties, dataset.PropPumpStatus))
		}),
	}
}

// colorFeatures copies fc with a colour property on every feature. The
// source collection is left untouched.
func colorFeatures(fc *geojson.FeatureCollection, color func(*geojson.Feature) paint.RGBA) *geojson.FeatureCollection {
	out := geojson.NewFeatureCollection()
	if fc == nil {
		return out
	}
	out.Features = make([]*geojson.Feature, 0, len(fc.Features))
	for _, f := range fc.Features {
		c := *f
		c.Properties = f.Properties.Clone()
		if c.Properties == nil {
			c.Properties = geojson.Properties{}
		}
		c.Properties[FillColorProp] = color(f).Array()
		out.Features = append(out.Features, &c)
	}
	return out
}

var zeroPoint = orb.Point{}

// TreePointsLayerID is the GeoJSON rendition of the tree layer.
const TreePointsLayerID = "tree-points"
