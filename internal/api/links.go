package api

import (
	"fmt"
	"strings"

	"github.com/danielgtaylor/huma/v2"
)

// links maps operation paths to their RFC 8288 Link header values.
// Enables restish hypermedia navigation via `restish links <url>`.
var links = map[string][]string{
	"/health": {
		`</api/v1/info>; rel="info"`,
		`</api/v1/sessions>; rel="sessions"`,
		`</api/v1/style>; rel="style"`,
		`</api/v1/tiles>; rel="tiles"`,
		`</openapi.json>; rel="service-desc"`,
		`</docs>; rel="service-doc"`,
	},
	"/api/v1/info": {
		`</health>; rel="up"`,
		`</api/v1/community>; rel="community"`,
	},
	"/api/v1/sessions": {
		`</health>; rel="up"`,
		`</api/v1/sessions>; rel="create-form"`,
	},
	"/api/v1/sessions/{id}": {
		`</api/v1/sessions>; rel="collection"`,
	},
	"/api/v1/sessions/{id}/filters": {
		`</api/v1/sessions>; rel="collection"`,
		`</api/v1/style/legend>; rel="legend"`,
	},
	"/api/v1/sessions/{id}/events": {
		`</api/v1/sessions>; rel="collection"`,
	},
	"/api/v1/sessions/{id}/layers": {
		`</api/v1/sessions>; rel="collection"`,
		`</api/v1/style/legend>; rel="legend"`,
	},
	"/api/v1/style": {
		`</api/v1/style/classify>; rel="classify"`,
		`</api/v1/style/legend>; rel="legend"`,
	},
	"/api/v1/community": {
		`</api/v1/tables>; rel="tables"`,
		`</api/v1/reload>; rel="reload"`,
	},
	"/api/v1/sources": {
		`</api/v1/tiles>; rel="tiles"`,
		`</api/v1/reload>; rel="reload"`,
	},
	"/api/v1/tiles": {
		`</api/v1/sources>; rel="sources"`,
	},
}

// LinkTransformer returns a Huma Transformer that injects RFC 8288 Link headers.
func LinkTransformer() huma.Transformer {
	return func(ctx huma.Context, status string, v any) (any, error) {
		op := ctx.Operation()
		if op == nil {
			return v, nil
		}

		for _, link := range links[op.Path] {
			ctx.AppendHeader("Link", link)
		}

		// Item endpoints get a self link
		if strings.Contains(op.Path, "{") {
			ctx.AppendHeader("Link", fmt.Sprintf(`<%s>; rel="self"`, ctx.URL().Path))
		}

		return v, nil
	}
}
