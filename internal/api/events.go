package api

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/danielgtaylor/huma/v2"

	"github.com/joeblew999/plat-trees/internal/engine"
)

type EventInput struct {
	IDInput
	Body EventBody
}

// EventBody is a render-surface or host event. Payload holds the fields of
// the event kind, e.g. {"features": [{"id": "A"}]} for tree_click.
type EventBody struct {
	Kind    string         `json:"kind" enum:"load,hover,tree_click,select_tree,pump_hover,pump_click,dismiss_tooltip,view_state_change,geolocate,navigate,focus" doc:"Event kind"`
	Payload map[string]any `json:"payload,omitempty" doc:"Event fields"`
}

type eventDecoder func(payload map[string]any) (engine.Event, error)

func decode[T engine.Event](payload map[string]any) (engine.Event, error) {
	var ev T
	if len(payload) == 0 {
		return ev, nil
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(raw, &ev); err != nil {
		return nil, err
	}
	return ev, nil
}

var eventDecoders = map[string]eventDecoder{
	engine.Load{}.Kind():            decode[engine.Load],
	engine.Hover{}.Kind():           decode[engine.Hover],
	engine.TreeClick{}.Kind():       decode[engine.TreeClick],
	engine.SelectTree{}.Kind():      decode[engine.SelectTree],
	engine.PumpHover{}.Kind():       decode[engine.PumpHover],
	engine.PumpClick{}.Kind():       decode[engine.PumpClick],
	engine.DismissTooltip{}.Kind():  decode[engine.DismissTooltip],
	engine.ViewStateChange{}.Kind(): decode[engine.ViewStateChange],
	engine.Geolocate{}.Kind():       decode[engine.Geolocate],
	engine.Navigate{}.Kind():        decode[engine.Navigate],
	engine.Focus{}.Kind():           decode[engine.Focus],
}

// DecodeEvent turns a kind and its payload into an engine event.
func DecodeEvent(kind string, payload map[string]any) (engine.Event, error) {
	dec, ok := eventDecoders[kind]
	if !ok {
		return nil, fmt.Errorf("unknown event kind %q", kind)
	}
	ev, err := dec(payload)
	if err != nil {
		return nil, fmt.Errorf("decoding %s payload: %w", kind, err)
	}
	return ev, nil
}

// PostEvent delivers one event to a session and returns the resulting view.
func (h *APIHandler) PostEvent(ctx context.Context, input *EventInput) (*SessionOutput, error) {
	svc, err := h.sessions()
	if err != nil {
		return nil, err
	}
	ev, err := DecodeEvent(input.Body.Kind, input.Body.Payload)
	if err != nil {
		return nil, huma.Error422UnprocessableEntity(err.Error())
	}
	v, err := svc.Dispatch(input.ID, ev)
	if err != nil {
		return nil, sessionError(err)
	}
	return &SessionOutput{Body: v}, nil
}
