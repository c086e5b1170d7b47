package api

import (
	"context"

	"github.com/danielgtaylor/huma/v2"

	"github.com/joeblew999/plat-trees/internal/engine"
	"github.com/joeblew999/plat-trees/internal/filter"
	"github.com/joeblew999/plat-trees/internal/service"
)

// RegisterSessions registers map session routes.
func (h *APIHandler) RegisterSessions(api huma.API) {
	huma.Get(api, "/api/v1/sessions", h.ListSessions, huma.OperationTags("sessions"))
	huma.Post(api, "/api/v1/sessions", h.CreateSession, huma.OperationTags("sessions"))
	huma.Get(api, "/api/v1/sessions/{id}", h.GetSession, huma.OperationTags("sessions"))
	huma.Delete(api, "/api/v1/sessions/{id}", h.DeleteSession, huma.OperationTags("sessions"))
	huma.Put(api, "/api/v1/sessions/{id}/filters", h.PutFilters, huma.OperationTags("sessions"))
	huma.Post(api, "/api/v1/sessions/{id}/events", h.PostEvent, huma.OperationTags("sessions"))
	huma.Get(api, "/api/v1/sessions/{id}/layers", h.GetLayers, huma.OperationTags("sessions"))
	huma.Get(api, "/api/v1/sessions/{id}/surface", h.GetSurface, huma.OperationTags("sessions"))
	huma.Get(api, "/api/v1/sessions/{id}/tree", h.GetSelectedTree, huma.OperationTags("sessions"))
}

type SessionOutput struct {
	Body service.SessionView
}

type CreateSessionInput struct {
	Body struct {
		Mobile bool `json:"mobile,omitempty" doc:"Use the mobile profile (no tree GeoJSON, closer zoom)"`
	}
}

type FiltersInput struct {
	IDInput
	Body filter.State
}

func (h *APIHandler) sessions() (*service.SessionService, error) {
	if h.svc.Sessions == nil {
		return nil, huma.Error503ServiceUnavailable("Session service not available")
	}
	return h.svc.Sessions, nil
}

func (h *APIHandler) ListSessions(ctx context.Context, input *struct{}) (*struct{ Body []service.SessionInfo }, error) {
	if h.svc.Sessions == nil {
		return &struct{ Body []service.SessionInfo }{Body: []service.SessionInfo{}}, nil
	}
	return &struct{ Body []service.SessionInfo }{Body: h.svc.Sessions.List()}, nil
}

func (h *APIHandler) CreateSession(ctx context.Context, input *CreateSessionInput) (*SessionOutput, error) {
	svc, err := h.sessions()
	if err != nil {
		return nil, err
	}
	return &SessionOutput{Body: svc.Create(input.Body.Mobile)}, nil
}

func (h *APIHandler) GetSession(ctx context.Context, input *IDInput) (*SessionOutput, error) {
	svc, err := h.sessions()
	if err != nil {
		return nil, err
	}
	v, err := svc.Get(input.ID)
	if err != nil {
		return nil, sessionError(err)
	}
	return &SessionOutput{Body: v}, nil
}

func (h *APIHandler) DeleteSession(ctx context.Context, input *IDInput) (*struct{ Body MessageBody }, error) {
	svc, err := h.sessions()
	if err != nil {
		return nil, err
	}
	if err := svc.Delete(input.ID); err != nil {
		return nil, sessionError(err)
	}
	return &struct{ Body MessageBody }{Body: MessageBody{Message: "Session closed"}}, nil
}

// PutFilters replaces the filter state of a session.
func (h *APIHandler) PutFilters(ctx context.Context, input *FiltersInput) (*SessionOutput, error) {
	svc, err := h.sessions()
	if err != nil {
		return nil, err
	}
	v, err := svc.SetFilters(input.ID, input.Body)
	if err != nil {
		return nil, sessionError(err)
	}
	return &SessionOutput{Body: v}, nil
}

func (h *APIHandler) GetLayers(ctx context.Context, input *IDInput) (*struct{ Body []engine.DataLayer }, error) {
	svc, err := h.sessions()
	if err != nil {
		return nil, err
	}
	layers, err := svc.Layers(input.ID)
	if err != nil {
		return nil, sessionError(err)
	}
	return &struct{ Body []engine.DataLayer }{Body: layers}, nil
}

func (h *APIHandler) GetSurface(ctx context.Context, input *IDInput) (*struct{ Body engine.SurfaceSnapshot }, error) {
	svc, err := h.sessions()
	if err != nil {
		return nil, err
	}
	snap, err := svc.Surface(input.ID)
	if err != nil {
		return nil, sessionError(err)
	}
	return &struct{ Body engine.SurfaceSnapshot }{Body: snap}, nil
}

func (h *APIHandler) GetSelectedTree(ctx context.Context, input *IDInput) (*struct{ Body service.TreeDetail }, error) {
	svc, err := h.sessions()
	if err != nil {
		return nil, err
	}
	detail, ok, err := svc.SelectedTree(input.ID)
	if err != nil {
		return nil, sessionError(err)
	}
	if !ok {
		return nil, huma.Error404NotFound("no selected tree with details")
	}
	return &struct{ Body service.TreeDetail }{Body: detail}, nil
}
