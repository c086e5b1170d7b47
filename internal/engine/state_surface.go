package engine

import (
	"sync"

	"github.com/joeblew999/plat-trees/internal/expr"
	"github.com/joeblew999/plat-trees/internal/selection"
	"github.com/joeblew999/plat-trees/internal/viewport"
)

// StateSurface is a headless Surface that keeps the latest command for
// every target. Remote clients render from a Snapshot of it.
type StateSurface struct {
	mu sync.RWMutex

	symbolLayer      string
	sources          map[string]Source
	layers           []Layer
	layout           map[string]map[string]any
	paint            map[string]map[string]expr.Expr
	filters          map[string]expr.Expr
	features         map[selection.FeatureRef]selection.Flags
	view             viewport.State
	cursor           string
	rotationDisabled bool
	pushes           map[string]int
}

// NewStateSurface creates an empty surface. symbolLayer is reported as
// the first symbol layer of the base style.
func NewStateSurface(symbolLayer string) *StateSurface {
	return &StateSurface{
		symbolLayer: symbolLayer,
		sources:     map[string]Source{},
		layout:      map[string]map[string]any{},
		paint:       map[string]map[string]expr.Expr{},
		filters:     map[string]expr.Expr{},
		features:    map[selection.FeatureRef]selection.Flags{},
		cursor:      selection.CursorGrab,
		pushes:      map[string]int{},
	}
}

func (s *StateSurface) FirstSymbolLayer() string { return s.symbolLayer }

func (s *StateSurface) AddSource(id string, src Source) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sources[id] = src
}

func (s *StateSurface) AddLayer(layer Layer, before string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	at := len(s.layers)
	for i, l := range s.layers {
		if l.ID == before {
			at = i
			break
		}
	}
	s.layers = append(s.layers, Layer{})
	copy(s.layers[at+1:], s.layers[at:])
	s.layers[at] = layer
	s.filters[layer.ID] = layer.Filter
}

func (s *StateSurface) SetLayoutProperty(layer, name string, value any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.layout[layer] == nil {
		s.layout[layer] = map[string]any{}
	}
	s.layout[layer][name] = value
	s.pushes["layout:"+name]++
}

func (s *StateSurface) SetPaintProperty(layer, name string, value expr.Expr) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.paint[layer] == nil {
		s.paint[layer] = map[string]expr.Expr{}
	}
	s.paint[layer][name] = value
	s.pushes["paint:"+name]++
}

func (s *StateSurface) SetFilter(layer string, filter expr.Expr) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.filters[layer] = filter
	s.pushes["filter"]++
}

func (s *StateSurface) SetFeatureState(ref selection.FeatureRef, flags selection.Flags) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur := s.features[ref]
	if cur == nil {
		cur = selection.Flags{}
	}
	for k, v := range flags {
		if v {
			cur[k] = true
		} else {
			delete(cur, k)
		}
	}
	if len(cur) == 0 {
		delete(s.features, ref)
		return
	}
	s.features[ref] = cur
}

func (s *StateSurface) SetViewport(v viewport.State) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.view = v
}

func (s *StateSurface) SetCursor(cursor string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cursor = cursor
}

func (s *StateSurface) DisableRotation() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rotationDisabled = true
}

// Pushes returns how often a property was pushed after load, keyed
// "paint:<name>", "layout:<name>" or "filter".
func (s *StateSurface) Pushes(key string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.pushes[key]
}

// FlaggedFeatures returns the ids holding flag.
func (s *StateSurface) FlaggedFeatures(flag string) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var ids []string
	for ref, flags := range s.features {
		if flags[flag] {
			ids = append(ids, ref.ID)
		}
	}
	return ids
}

// SurfaceSnapshot is the complete state of a StateSurface.
type SurfaceSnapshot struct {
	Layers           []Layer                         `json:"layers"`
	Sources          map[string]Source               `json:"sources"`
	Layout           map[string]map[string]any       `json:"layout"`
	Paint            map[string]map[string]expr.Expr `json:"paint"`
	Filters          map[string]expr.Expr            `json:"filters"`
	Viewport         viewport.State                  `json:"viewport"`
	Cursor           string                          `json:"cursor"`
	RotationDisabled bool                            `json:"rotationDisabled"`
}

// Snapshot copies the surface state. Expressions are shared; they are
// never mutated after construction.
func (s *StateSurface) Snapshot() SurfaceSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := SurfaceSnapshot{
		Layers:           append([]Layer(nil), s.layers...),
		Sources:          make(map[string]Source, len(s.sources)),
		Layout:           make(map[string]map[string]any, len(s.layout)),
		Paint:            make(map[string]map[string]expr.Expr, len(s.paint)),
		Filters:          make(map[string]expr.Expr, len(s.filters)),
		Viewport:         s.view,
		Cursor:           s.cursor,
		RotationDisabled: s.rotationDisabled,
	}
	for k, v := range s.sources {
		out.Sources[k] = v
	}
	for layer, props := range s.layout {
		m := make(map[string]any, len(props))
		for k, v := range props {
			m[k] = v
		}
		out.Layout[layer] = m
	}
	for layer, props := range s.paint {
		m := make(map[string]expr.Expr, len(props))
		for k, v := range props {
			m[k] = v
		}
		out.Paint[layer] = m
	}
	for k, v := range s.filters {
		out.Filters[k] = v
	}
	return out
}
