// Package live streams session state to the map page over Datastar SSE.
package live

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/danielgtaylor/huma/v2"

	"github.com/joeblew999/plat-trees/internal/api"
	"github.com/joeblew999/plat-trees/internal/filter"
	"github.com/joeblew999/plat-trees/internal/humastar"
	"github.com/joeblew999/plat-trees/internal/service"
	"github.com/joeblew999/plat-trees/internal/templates"
	"github.com/joeblew999/plat-trees/internal/waterneed"
)

const (
	// TooltipSelector is the element the pump tooltip fragment replaces.
	TooltipSelector = "#pump-tooltip"
	// LegendSelector is the container the pump legend is rendered into.
	LegendSelector = "#legend"
)

// Handler serves the live session stream and the Datastar actions that
// change a session.
type Handler struct {
	humastar.Handler
	sessions *service.SessionService
}

// NewHandler creates a live handler.
func NewHandler(sessions *service.SessionService, renderer *templates.Renderer) *Handler {
	return &Handler{
		Handler:  humastar.Handler{Renderer: renderer},
		sessions: sessions,
	}
}

func (h *Handler) RegisterRoutes(api huma.API) {
	huma.Get(api, "/api/v1/live/{id}", h.Events, huma.OperationTags("live"))
	huma.Post(api, "/api/v1/live/{id}/filters", h.Filters, huma.OperationTags("live"))
	huma.Post(api, "/api/v1/live/{id}/event", h.Event, huma.OperationTags("live"))
}

type SessionInput struct {
	ID string `path:"id" doc:"Session ID"`
}

type SignalsInput struct {
	ID      string `path:"id" doc:"Session ID"`
	RawBody []byte
}

func (i *SignalsInput) signals() (humastar.Signals, error) {
	in := humastar.SignalsInput{RawBody: i.RawBody}
	return in.MustParse()
}

// Events streams the session: the full state once, then again after every
// change until the client goes away or the session is closed.
func (h *Handler) Events(ctx context.Context, input *SessionInput) (*huma.StreamResponse, error) {
	if _, err := h.sessions.Get(input.ID); err != nil {
		return nil, huma.Error404NotFound(err.Error())
	}
	return h.Stream(func(sse humastar.SSE) {
		bus := h.sessions.Bus()
		ch := bus.Subscribe(input.ID)
		defer bus.Unsubscribe(ch)

		p := pusher{h: h, sse: sse, id: input.ID}
		if !p.push() {
			return
		}
		if legend, err := h.Renderer.Legend(); err == nil {
			sse.Patch(legend, LegendSelector)
		}
		for {
			select {
			case <-ctx.Done():
				return
			case ev := <-ch:
				if ev.Action == "deleted" {
					sse.Error("session closed")
					return
				}
				if !p.push() {
					return
				}
			}
		}
	}), nil
}

// pusher sends session state, skipping the tooltip fragment while it is
// unchanged.
type pusher struct {
	h       *Handler
	sse     humastar.SSE
	id      string
	tooltip string
	sent    bool
}

func (p *pusher) push() bool {
	v, err := p.h.sessions.Get(p.id)
	if err != nil {
		p.sse.Error(err.Error())
		return false
	}
	p.sse.Signals(map[string]any{
		"revision":    v.Revision,
		"loading":     v.Loading,
		"cursor":      v.Cursor,
		"selected":    v.Selected,
		"viewport":    v.Viewport,
		"filters":     v.Filters,
		"expressions": v.Expressions,
	})

	html, err := p.h.Renderer.Tooltip(v.Tooltip)
	if err != nil {
		slog.Error("rendering tooltip", "session", p.id, "error", err)
		return true
	}
	if !p.sent || html != p.tooltip {
		p.sse.Replace(html, TooltipSelector)
		p.tooltip, p.sent = html, true
	}
	return true
}

// Filters replaces the session's filters from the filter form signals.
func (h *Handler) Filters(ctx context.Context, input *SignalsInput) (*huma.StreamResponse, error) {
	signals, err := input.signals()
	if err != nil {
		return nil, err
	}
	state, err := FiltersFromSignals(signals)
	if err != nil {
		return nil, huma.Error422UnprocessableEntity(err.Error())
	}
	v, err := h.sessions.SetFilters(input.ID, state)
	if err != nil {
		return nil, huma.Error404NotFound(err.Error())
	}
	return h.Stream(func(sse humastar.SSE) {
		sse.Signals(map[string]any{"revision": v.Revision, "error": ""})
		sse.Success("filters applied")
	}), nil
}

// Event delivers a map event sent as {"kind": ..., "payload": {...}} signals.
func (h *Handler) Event(ctx context.Context, input *SignalsInput) (*huma.StreamResponse, error) {
	signals, err := input.signals()
	if err != nil {
		return nil, err
	}
	payload, _ := signals["payload"].(map[string]any)
	ev, err := api.DecodeEvent(signals.String("kind"), payload)
	if err != nil {
		return nil, huma.Error422UnprocessableEntity(err.Error())
	}
	v, err := h.sessions.Dispatch(input.ID, ev)
	if err != nil {
		return nil, huma.Error404NotFound(err.Error())
	}
	return h.Stream(func(sse humastar.SSE) {
		sse.Signals(map[string]any{"revision": v.Revision, "cursor": v.Cursor})
	}), nil
}

// FiltersFromSignals builds a filter state from the filter form. Missing
// age bounds fall back to the slider bounds, a missing layer to trees.
func FiltersFromSignals(s humastar.Signals) (filter.State, error) {
	state := filter.Default()
	if s.Has("ageMin") {
		state.AgeRange[0] = s.Int("ageMin")
	}
	if s.Has("ageMax") {
		state.AgeRange[1] = s.Int("ageMax")
	}
	state.ViewMode = filter.ViewMode(s.String("viewMode"))
	if layer := s.String("layer"); layer != "" {
		state.VisibleLayer = filter.Layer(layer)
	}
	if need := s.String("waterNeed"); need != "" {
		n, err := waterneed.ParseNeed(need)
		if err != nil {
			return filter.State{}, err
		}
		state = state.WithWaterNeed(n)
	}
	if err := state.Validate(); err != nil {
		return filter.State{}, fmt.Errorf("invalid filters: %w", err)
	}
	return state, nil
}
