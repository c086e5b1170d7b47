// Package api defines the Huma API routes and handlers.
package api

import (
	"context"
	"errors"

	"github.com/danielgtaylor/huma/v2"

	"github.com/joeblew999/plat-trees/internal/db"
	"github.com/joeblew999/plat-trees/internal/service"
)

// Services holds the service dependencies for API handlers.
// Any of them may be nil; the matching endpoints then degrade.
type Services struct {
	Sessions *service.SessionService
	Data     *service.DataService
	Tiles    *service.TileService
	Sources  *service.SourceService
	Store    *db.Store
}

// Types

type IDInput struct {
	ID string `path:"id" doc:"Session ID" example:"5f0c6c1e-8f7a-4c47-9b3c-6a2a3c1f4e10"`
}

type MessageBody struct {
	Message string `json:"message" doc:"Result message"`
}

type HealthBody struct {
	Status  string `json:"status" doc:"Health status" example:"ok"`
	Version string `json:"version" doc:"API version" example:"1.0.0"`
}

// APIHandler holds all REST API handlers. Methods named Register* are
// auto-discovered by huma.AutoRegister.
type APIHandler struct {
	svc *Services
}

func NewAPIHandler(svc *Services) *APIHandler {
	if svc == nil {
		svc = &Services{}
	}
	return &APIHandler{svc: svc}
}

// RegisterRoutes registers every REST route on api.
func RegisterRoutes(api huma.API, svc *Services) {
	huma.AutoRegister(api, NewAPIHandler(svc))
}

// RegisterHealth registers health check routes.
func (h *APIHandler) RegisterHealth(api huma.API) {
	huma.Get(api, "/health", h.GetHealth, huma.OperationTags("health"))
}

// RegisterSources registers source listing routes.
func (h *APIHandler) RegisterSources(api huma.API) {
	huma.Get(api, "/api/v1/sources", h.GetSources, huma.OperationTags("data"))
}

// RegisterTiles registers tile listing routes.
func (h *APIHandler) RegisterTiles(api huma.API) {
	huma.Get(api, "/api/v1/tiles", h.GetTiles, huma.OperationTags("data"))
}

// Handlers

func (h *APIHandler) GetHealth(ctx context.Context, input *struct{}) (*struct{ Body HealthBody }, error) {
	return &struct{ Body HealthBody }{Body: HealthBody{Status: "ok", Version: "1.0.0"}}, nil
}

func (h *APIHandler) GetSources(ctx context.Context, input *struct{}) (*struct{ Body []service.SourceFile }, error) {
	if h.svc.Sources == nil {
		return &struct{ Body []service.SourceFile }{Body: []service.SourceFile{}}, nil
	}
	sources, err := h.svc.Sources.List()
	if err != nil {
		return &struct{ Body []service.SourceFile }{Body: []service.SourceFile{}}, nil
	}
	return &struct{ Body []service.SourceFile }{Body: sources}, nil
}

func (h *APIHandler) GetTiles(ctx context.Context, input *struct{}) (*struct{ Body []service.TileFile }, error) {
	if h.svc.Tiles == nil {
		return &struct{ Body []service.TileFile }{Body: []service.TileFile{}}, nil
	}
	tiles, err := h.svc.Tiles.List()
	if err != nil {
		return &struct{ Body []service.TileFile }{Body: []service.TileFile{}}, nil
	}
	return &struct{ Body []service.TileFile }{Body: tiles}, nil
}

// sessionError maps service errors to HTTP errors.
func sessionError(err error) error {
	if errors.Is(err, service.ErrSessionNotFound) {
		return huma.Error404NotFound(err.Error())
	}
	return huma.Error422UnprocessableEntity(err.Error())
}
