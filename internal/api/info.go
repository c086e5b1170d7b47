package api

import (
	"context"
	"time"

	"github.com/danielgtaylor/huma/v2"
)

// RegisterInfo registers the service info route.
func (h *APIHandler) RegisterInfo(api huma.API) {
	huma.Get(api, "/api/v1/info", h.GetInfo, huma.OperationTags("health"))
}

type InfoBody struct {
	Name     string    `json:"name" doc:"Service name"`
	Version  string    `json:"version" doc:"Service version"`
	DB       bool      `json:"db" doc:"Whether the community database is available"`
	Loaded   bool      `json:"loaded" doc:"Whether datasets have been loaded"`
	LoadedAt time.Time `json:"loaded_at,omitzero" doc:"When datasets were last loaded"`
	Trees    int       `json:"trees" doc:"Trees in the GeoJSON dataset"`
	Pumps    int       `json:"pumps" doc:"Public pumps"`
	Rain     int       `json:"rain" doc:"Precipitation grid cells"`
	Sessions int       `json:"sessions" doc:"Open map sessions"`
	Features []string  `json:"features" doc:"Available features"`
}

func (h *APIHandler) GetInfo(ctx context.Context, input *struct{}) (*struct{ Body InfoBody }, error) {
	body := InfoBody{
		Name:     "plat-trees",
		Version:  "0.1.0",
		DB:       h.svc.Store != nil,
		Features: []string{"sessions", "style", "community", "pmtiles", "live"},
	}
	if h.svc.Data != nil {
		data, _, loaded := h.svc.Data.Current()
		body.Loaded = loaded
		body.LoadedAt = h.svc.Data.LoadedAt()
		body.Trees, body.Pumps, body.Rain = data.Counts()
	}
	if h.svc.Sessions != nil {
		body.Sessions = len(h.svc.Sessions.List())
	}
	return &struct{ Body InfoBody }{Body: body}, nil
}
