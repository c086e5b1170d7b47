package api

import (
	"context"
	"strconv"

	"github.com/danielgtaylor/huma/v2"

	"github.com/joeblew999/plat-trees/internal/community"
	"github.com/joeblew999/plat-trees/internal/filter"
	"github.com/joeblew999/plat-trees/internal/paint"
	"github.com/joeblew999/plat-trees/internal/waterneed"
)

// RegisterStyle registers the stateless style routes.
func (h *APIHandler) RegisterStyle(api huma.API) {
	huma.Post(api, "/api/v1/style", h.ComposeStyle, huma.OperationTags("style"))
	huma.Get(api, "/api/v1/style/classify", h.ClassifyAge, huma.OperationTags("style"))
	huma.Get(api, "/api/v1/style/legend", h.GetLegend, huma.OperationTags("style"))
}

type StyleInput struct {
	Body filter.State
}

type StyleOutput struct {
	Body filter.Expressions
}

// ComposeStyle returns the tree layer expressions for a filter state,
// resolved against the current community snapshot.
func (h *APIHandler) ComposeStyle(ctx context.Context, input *StyleInput) (*StyleOutput, error) {
	state := input.Body
	if state.VisibleLayer == "" {
		state.VisibleLayer = filter.LayerTrees
	}
	if err := state.Validate(); err != nil {
		return nil, huma.Error422UnprocessableEntity(err.Error())
	}
	snap := community.NewSnapshot(nil)
	if h.svc.Data != nil {
		_, snap, _ = h.svc.Data.Current()
	}
	return &StyleOutput{Body: filter.Compose(state, snap)}, nil
}

type ClassifyInput struct {
	Age string `query:"age" doc:"Tree age in years; empty for unknown" example:"12"`
}

type ClassifyBody struct {
	Age       *int           `json:"age,omitempty" doc:"Age in years"`
	WaterNeed waterneed.Need `json:"waterNeed" doc:"Water-need category"`
	Value     int            `json:"value" doc:"Numeric category as used in filters"`
}

func (h *APIHandler) ClassifyAge(ctx context.Context, input *ClassifyInput) (*struct{ Body ClassifyBody }, error) {
	var age *int
	if input.Age != "" {
		n, err := strconv.Atoi(input.Age)
		if err != nil {
			return nil, huma.Error422UnprocessableEntity("age must be an integer", err)
		}
		age = &n
	}
	need := waterneed.Classify(age)
	return &struct{ Body ClassifyBody }{Body: ClassifyBody{Age: age, WaterNeed: need, Value: int(need)}}, nil
}

func (h *APIHandler) GetLegend(ctx context.Context, input *struct{}) (*struct{ Body []paint.LegendEntry }, error) {
	return &struct{ Body []paint.LegendEntry }{Body: paint.PumpLegend()}, nil
}
