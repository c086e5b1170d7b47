// Package templates renders the HTML fragments pushed over SSE.
package templates

import (
	"bytes"
	"embed"
	"html/template"
	"io/fs"
	"sync"

	"github.com/joeblew999/plat-trees/internal/paint"
	"github.com/joeblew999/plat-trees/internal/tooltip"
)

//go:embed fragments/*.html
var fragments embed.FS

// funcMap provides common template functions.
var funcMap = template.FuncMap{
	"statusColor": func(status string) template.CSS {
		return template.CSS(paint.PumpColor(status).Hex())
	},
}

// Renderer manages HTML fragment templates.
type Renderer struct {
	templates *template.Template
	mu        sync.RWMutex
}

// New creates a renderer from the embedded fragments.
func New() (*Renderer, error) {
	return Parse(fragments, "fragments/*.html")
}

// Parse creates a renderer from the templates in fsys matching pattern.
func Parse(fsys fs.FS, pattern string) (*Renderer, error) {
	tmpl, err := template.New("").Funcs(funcMap).ParseFS(fsys, pattern)
	if err != nil {
		return nil, err
	}
	return &Renderer{templates: tmpl}, nil
}

// Render renders a named template to a string.
func (r *Renderer) Render(name string, data any) (string, error) {
	var buf bytes.Buffer
	if err := r.RenderToBuffer(&buf, name, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// RenderToBuffer renders a named template to a buffer.
func (r *Renderer) RenderToBuffer(buf *bytes.Buffer, name string, data any) error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.templates.ExecuteTemplate(buf, name, data)
}

type tooltipData struct {
	*tooltip.PumpTooltip
	EditorURL string
}

// Tooltip renders the pump tooltip, or a hidden placeholder when there is
// nothing placed to show.
func (r *Renderer) Tooltip(t *tooltip.PumpTooltip) (string, error) {
	if !t.Placed() {
		return r.Render("pump-tooltip-empty", nil)
	}
	return r.Render("pump-tooltip", tooltipData{PumpTooltip: t, EditorURL: t.EditorURL()})
}

// Legend renders the pump status legend.
func (r *Renderer) Legend() (string, error) {
	return r.Render("pump-legend", paint.PumpLegend())
}
