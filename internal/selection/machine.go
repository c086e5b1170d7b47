// Package selection tracks the selected tree, the pump tooltips and the
// cursor hint, and mirrors the selection into the render surface.
package selection

import (
	"fmt"
	"strconv"

	"github.com/joeblew999/plat-trees/internal/tooltip"
)

// Cursor hints.
const (
	CursorGrab    = "grab"
	CursorPointer = "pointer"
)

// Flag names in the per-feature state store.
const (
	FlagSelect = "select"
	FlagHover  = "hover"
)

// FeatureRef addresses one feature inside a render surface source.
type FeatureRef struct {
	Source      string `json:"source"`
	SourceLayer string `json:"sourceLayer,omitempty"`
	ID          string `json:"id"`
}

// Flags is the per-feature state written to the store.
type Flags map[string]bool

// FeatureStateStore is the render surface's per-feature flag store. It only
// supports explicit writes, so a selection change is a clear followed by a set.
type FeatureStateStore interface {
	SetFeatureState(ref FeatureRef, flags Flags)
}

// Change reports what a dispatched event altered.
type Change uint8

const (
	ChangedSelection Change = 1 << iota
	ChangedTooltip
	ChangedCursor
)

// Has reports whether c includes flag.
func (c Change) Has(flag Change) bool { return c&flag != 0 }

// Option configures a Machine.
type Option func(*Machine)

// WithTreeSource sets the source and source layer holding the trees.
func WithTreeSource(source, sourceLayer string) Option {
	return func(m *Machine) {
		m.source = source
		m.sourceLayer = sourceLayer
	}
}

// OnTreeSelect registers the sink called once per tree selection.
func OnTreeSelect(fn func(id string)) Option {
	return func(m *Machine) { m.onSelect = fn }
}

// Machine is the selection and hover state. It is not safe for concurrent use.
type Machine struct {
	store       FeatureStateStore
	source      string
	sourceLayer string
	onSelect    func(id string)

	selected    string
	selectedRef string
	hovered     *tooltip.PumpTooltip
	clicked     *tooltip.PumpTooltip
	pointer     string
}

// New creates an idle machine writing selection flags to store.
func New(store FeatureStateStore, opts ...Option) *Machine {
	m := &Machine{
		store:  store,
		source: "trees",
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Dispatch applies ev and reports what changed.
func (m *Machine) Dispatch(ev Event) Change {
	switch e := ev.(type) {
	case TreeClick:
		for _, f := range e.Features {
			if ref := FeatureID(f); ref != "" {
				return m.selectTree(ref, TreeID(f))
			}
		}
		return 0
	case SelectTree:
		if e.ID == "" {
			return 0
		}
		return m.selectTree(e.ID, e.ID)
	case PumpHover:
		before := m.Cursor()
		m.hovered = tooltip.Project(e.Info)
		return ChangedTooltip | m.cursorChange(before)
	case PumpClick:
		t := tooltip.Project(e.Info)
		if t == nil {
			return 0
		}
		m.clicked = t
		return ChangedTooltip
	case DismissTooltip:
		if m.clicked == nil {
			return 0
		}
		m.clicked = nil
		return ChangedTooltip
	case ViewportChanged:
		return m.clearTooltips()
	case LayerHover:
		before := m.Cursor()
		m.pointer = e.Layer
		return m.cursorChange(before)
	}
	return 0
}

// selectTree moves the select flag to the surface feature ref and records
// the tree id. The sink only hears about trees that carry an id.
func (m *Machine) selectTree(ref, id string) Change {
	var ch Change
	if ref != m.selectedRef {
		if m.store != nil {
			if m.selectedRef != "" {
				m.store.SetFeatureState(m.ref(m.selectedRef), Flags{FlagSelect: false})
			}
			m.store.SetFeatureState(m.ref(ref), Flags{FlagSelect: true})
		}
		m.selectedRef = ref
		ch = ChangedSelection
	}
	if id != m.selected {
		m.selected = id
		ch |= ChangedSelection
	}
	if id != "" && m.onSelect != nil {
		m.onSelect(id)
	}
	return ch
}

func (m *Machine) clearTooltips() Change {
	if m.hovered == nil && m.clicked == nil {
		return 0
	}
	before := m.Cursor()
	m.hovered, m.clicked = nil, nil
	return ChangedTooltip | m.cursorChange(before)
}

func (m *Machine) cursorChange(before string) Change {
	if m.Cursor() != before {
		return ChangedCursor
	}
	return 0
}

func (m *Machine) ref(id string) FeatureRef {
	return FeatureRef{Source: m.source, SourceLayer: m.sourceLayer, ID: id}
}

// Selected returns the selected tree id, or "" when idle.
func (m *Machine) Selected() string { return m.selected }

// SelectedFeature returns the surface feature id carrying the select flag.
func (m *Machine) SelectedFeature() string { return m.selectedRef }

// Hovered returns the hovered pump tooltip.
func (m *Machine) Hovered() *tooltip.PumpTooltip { return m.hovered }

// Clicked returns the clicked pump tooltip.
func (m *Machine) Clicked() *tooltip.PumpTooltip { return m.clicked }

// ActiveTooltip returns the tooltip to display; a click wins over a hover.
func (m *Machine) ActiveTooltip() *tooltip.PumpTooltip {
	if m.clicked != nil {
		return m.clicked
	}
	return m.hovered
}

// Cursor returns the cursor hint for the render surface.
func (m *Machine) Cursor() string {
	if m.pointer != "" || m.hovered != nil {
		return CursorPointer
	}
	return CursorGrab
}

// FeatureID is the id the render surface keys feature state by: the
// feature's own id, else its id property.
func FeatureID(f PickedFeature) string {
	if id := idString(f.ID); id != "" {
		return id
	}
	return TreeID(f)
}

// TreeID is the tree id in the data, the feature's id property. Tile
// features usually carry a different surface id.
func TreeID(f PickedFeature) string {
	return idString(f.Properties["id"])
}

func idString(v any) string {
	switch id := v.(type) {
	case nil:
		return ""
	case string:
		return id
	case float64:
		return strconv.FormatFloat(id, 'f', -1, 64)
	case int:
		return strconv.Itoa(id)
	case int64:
		return strconv.FormatInt(id, 10)
	case fmt.Stringer:
		return id.String()
	}
	return ""
}
