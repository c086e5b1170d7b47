package paint

import "strings"

// PumpStatus is the maintenance state of a street water pump.
type PumpStatus string

const (
	PumpWorking PumpStatus = "working"
	PumpDefault PumpStatus = "default"
	PumpBroken  PumpStatus = "broken"
	PumpLocked  PumpStatus = "locked"
)

// Pump status colours.
var (
	PumpWorkingColor = MustHex("#84bd6f")
	PumpDefaultColor = MustHex("#3a7ec1")
	PumpBrokenColor  = MustHex("#d64d4d")
	PumpLockedColor  = MustHex("#8c8c8c")
)

// NormalizePumpStatus maps the OSM pump:status tag (English or German) to
// a PumpStatus. Unknown values are PumpDefault.
func NormalizePumpStatus(tag string) PumpStatus {
	switch strings.ToLower(strings.TrimSpace(tag)) {
	case "working", "ok", "funktionsfähig":
		return PumpWorking
	case "broken", "defekt":
		return PumpBroken
	case "locked", "verriegelt":
		return PumpLocked
	default:
		return PumpDefault
	}
}

// PumpColor returns the fill colour for a pump:status tag.
func PumpColor(tag string) RGBA {
	switch NormalizePumpStatus(tag) {
	case PumpWorking:
		return PumpWorkingColor
	case PumpBroken:
		return PumpBrokenColor
	case PumpLocked:
		return PumpLockedColor
	default:
		return PumpDefaultColor
	}
}

// LegendEntry is one row of the pump legend.
type LegendEntry struct {
	Status PumpStatus `json:"status" doc:"Pump status" example:"working"`
	Color  string     `json:"color" doc:"Fill colour (hex)" example:"#84bd6f"`
}

// PumpLegend lists every status with its colour.
func PumpLegend() []LegendEntry {
	statuses := []PumpStatus{PumpWorking, PumpDefault, PumpBroken, PumpLocked}
	out := make([]LegendEntry, len(statuses))
	for i, s := range statuses {
		out[i] = LegendEntry{Status: s, Color: PumpColor(string(s)).Hex()}
	}
	return out
}
