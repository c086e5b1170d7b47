// Package tooltip turns pump pick events into tooltip data.
package tooltip

import (
	"net/url"
	"strconv"

	"github.com/joeblew999/plat-trees/internal/dataset"
)

// PickInfo is a low-level pick event reported by the render surface.
// Object is nil when the pointer is not over a feature.
type PickInfo struct {
	X      float64       `json:"x"`
	Y      float64       `json:"y"`
	Object *PickedObject `json:"object,omitempty"`
}

// PickedObject is the feature under the pointer.
type PickedObject struct {
	Properties map[string]any `json:"properties,omitempty"`
}

// PumpTooltip is what the pump tooltip displays.
type PumpTooltip struct {
	ID        int64   `json:"id,omitempty" doc:"OSM node id"`
	Address   string  `json:"address" doc:"Street address"`
	Status    string  `json:"status" doc:"Pump status tag"`
	CheckDate string  `json:"check_date" doc:"Date of the last check"`
	Style     string  `json:"style" doc:"Pump style tag"`
	X         float64 `json:"x" doc:"Screen x of the pointer"`
	Y         float64 `json:"y" doc:"Screen y of the pointer"`
}

// Project converts a pick event into tooltip data. Events that do not carry
// feature properties yield nil; missing fields become empty strings.
func Project(info *PickInfo) *PumpTooltip {
	if info == nil || info.Object == nil || info.Object.Properties == nil {
		return nil
	}
	props := info.Object.Properties
	t := &PumpTooltip{
		Address:   dataset.StringProp(props, dataset.PropPumpAddress),
		Status:    dataset.StringProp(props, dataset.PropPumpStatus),
		CheckDate: dataset.StringProp(props, dataset.PropPumpCheckDate),
		Style:     dataset.StringProp(props, dataset.PropPumpStyle),
		X:         info.X,
		Y:         info.Y,
	}
	if id, ok := dataset.NumberProp(props, dataset.PropID); ok {
		t.ID = int64(id)
	}
	return t
}

// Placed reports whether the tooltip has a screen position to be drawn at.
func (t *PumpTooltip) Placed() bool {
	return t != nil && t.X != 0 && t.Y != 0
}

// HasEditorLink reports whether the tooltip can link to the OSM editor.
func (t *PumpTooltip) HasEditorLink() bool {
	return t != nil && t.ID != 0
}

// EditorURL returns the link to the pump in the OSM editor, or "" without id.
func (t *PumpTooltip) EditorURL() string {
	if !t.HasEditorLink() {
		return ""
	}
	return EditorURL(t.ID)
}

const (
	editorBaseURL = "https://mapcomplete.osm.be/theme"
	editorLayout  = "https://tordans.github.io/MapComplete-ThemeHelper/OSM-Berlin-Themes/man_made-walter_well-status-checker/theme.json"
)

// EditorURL links an OSM node id to the crowd-sourced pump status editor.
func EditorURL(nodeID int64) string {
	// userlayout stays first, as in the editor's own share links.
	query := "userlayout=" + url.QueryEscape(editorLayout) + "&language=de"
	return editorBaseURL + "?" + query + "#node/" + strconv.FormatInt(nodeID, 10)
}
