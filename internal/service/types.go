// Package service contains the session, data and tileset services behind
// the HTTP API.
package service

import (
	"time"

	"github.com/joeblew999/plat-trees/internal/filter"
	"github.com/joeblew999/plat-trees/internal/pmtiles"
	"github.com/joeblew999/plat-trees/internal/tooltip"
	"github.com/joeblew999/plat-trees/internal/viewport"
	"github.com/joeblew999/plat-trees/internal/waterneed"
)

// SessionInfo summarises a session for listings.
type SessionInfo struct {
	ID       string    `json:"id" doc:"Session id" example:"5f0c6c1e-8f7a-4c47-9b3c-6a2a3c1f4e10"`
	Mobile   bool      `json:"mobile" doc:"Whether the session uses the mobile profile"`
	Created  time.Time `json:"created" doc:"Creation time"`
	Revision uint64    `json:"revision" doc:"Committed state changes"`
}

// SessionView is the derived UI state of one session.
type SessionView struct {
	ID          string               `json:"id" doc:"Session id"`
	Revision    uint64               `json:"revision" doc:"Committed state changes"`
	Loading     bool                 `json:"loading" doc:"Whether datasets are still awaited"`
	Ready       bool                 `json:"ready" doc:"Whether the render surface has loaded"`
	Filters     filter.State         `json:"filters" doc:"Committed filter state"`
	Viewport    viewport.State       `json:"viewport" doc:"Current camera"`
	Selected    string               `json:"selected,omitempty" doc:"Selected tree id"`
	Tooltip     *tooltip.PumpTooltip `json:"tooltip,omitempty" doc:"Pump tooltip to display"`
	EditorURL   string               `json:"editorUrl,omitempty" doc:"OSM editor link of the tooltip pump"`
	Cursor      string               `json:"cursor" doc:"Cursor hint" example:"grab"`
	Expressions filter.Expressions   `json:"expressions" doc:"Tree layer style expressions"`
}

// TreeDetail describes one tree as the session currently sees it.
type TreeDetail struct {
	ID        string         `json:"id" doc:"Tree id"`
	Age       *int           `json:"age,omitempty" doc:"Age in years"`
	RainSum   *float64       `json:"radolanSum,omitempty" doc:"Summed precipitation in 0.1 mm"`
	WaterNeed waterneed.Need `json:"waterNeed" doc:"Water-need category"`
	Color     string         `json:"color" doc:"Resolved fill colour (hex)"`
	Watered   bool           `json:"isWatered" doc:"Recently watered by the community"`
	Adopted   bool           `json:"isAdopted" doc:"Adopted by a community member"`
}

// SourceFile represents a source data file (GeoJSON, etc.).
type SourceFile struct {
	Name     string `json:"name" doc:"File name" example:"trees.geojson"`
	Size     string `json:"size" doc:"Human-readable file size" example:"1.2 MB"`
	FileType string `json:"fileType" doc:"File type" example:"GeoJSON"`
	Role     string `json:"role,omitempty" doc:"Dataset the file feeds" example:"trees"`
}

// TileFile represents a PMTiles tileset.
type TileFile struct {
	Name string        `json:"name" doc:"PMTiles file name" example:"trees.pmtiles"`
	Size string        `json:"size" doc:"Human-readable file size" example:"5.4 MB"`
	URL  string        `json:"url" doc:"Path the archive is served at" example:"/tiles/trees.pmtiles"`
	Info *pmtiles.Info `json:"info,omitempty" doc:"Header metadata; absent if the archive is unreadable"`
}
