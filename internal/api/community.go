package api

import (
	"context"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/joeblew999/plat-trees/internal/community"
)

// RegisterCommunity registers community status and data reload routes.
func (h *APIHandler) RegisterCommunity(api huma.API) {
	huma.Get(api, "/api/v1/community", h.GetCommunity, huma.OperationTags("data"))
	huma.Get(api, "/api/v1/tables", h.ListTables, huma.OperationTags("data"))
	huma.Post(api, "/api/v1/reload", h.Reload, huma.OperationTags("data"))
}

type CommunityBody struct {
	community.Summary
	LoadedAt time.Time `json:"loaded_at,omitzero" doc:"When the snapshot was loaded"`
}

func (h *APIHandler) GetCommunity(ctx context.Context, input *struct{}) (*struct{ Body CommunityBody }, error) {
	if h.svc.Data == nil {
		return &struct{ Body CommunityBody }{}, nil
	}
	_, snap, _ := h.svc.Data.Current()
	return &struct{ Body CommunityBody }{Body: CommunityBody{
		Summary:  snap.Summary(),
		LoadedAt: h.svc.Data.LoadedAt(),
	}}, nil
}

// TablesOutput is the response for listing tables.
type TablesOutput struct {
	Body struct {
		Tables []string `json:"tables" doc:"List of table names"`
	}
}

// ListTables returns the DuckDB tables of the community store.
func (h *APIHandler) ListTables(ctx context.Context, input *struct{}) (*TablesOutput, error) {
	if h.svc.Store == nil {
		return nil, huma.Error503ServiceUnavailable("Database not available")
	}
	tables, err := h.svc.Store.Tables(ctx)
	if err != nil {
		return nil, huma.Error500InternalServerError("Failed to list tables", err)
	}
	out := &TablesOutput{}
	out.Body.Tables = tables
	if out.Body.Tables == nil {
		out.Body.Tables = []string{}
	}
	return out, nil
}

// Reload re-reads datasets and community status and pushes them to every
// open session.
func (h *APIHandler) Reload(ctx context.Context, input *struct{}) (*struct{ Body MessageBody }, error) {
	if h.svc.Data == nil {
		return nil, huma.Error503ServiceUnavailable("Data service not available")
	}
	if err := h.svc.Data.Reload(ctx); err != nil {
		return nil, huma.Error500InternalServerError("Reload failed", err)
	}
	if h.svc.Sessions != nil {
		h.svc.Sessions.Refresh()
	}
	return &struct{ Body MessageBody }{Body: MessageBody{Message: "Datasets reloaded"}}, nil
}
