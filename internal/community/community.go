// Package community holds the watered/adopted status of trees as reported by
// volunteers.
package community

import "sort"

// Status is the community state of one tree.
type Status struct {
	Watered bool `json:"isWatered"`
	Adopted bool `json:"isAdopted"`
}

// Snapshot is an immutable view of the community status of all trees.
// It is replaced wholesale on refresh, never patched.
type Snapshot struct {
	flags   map[string]Status
	watered []string
	adopted []string
}

// NewSnapshot builds a snapshot from a status map. The map is copied.
func NewSnapshot(flags map[string]Status) Snapshot {
	s := Snapshot{flags: make(map[string]Status, len(flags))}
	for id, st := range flags {
		if id == "" {
			continue
		}
		s.flags[id] = st
		if st.Watered {
			s.watered = append(s.watered, id)
		}
		if st.Adopted {
			s.adopted = append(s.adopted, id)
		}
	}
	sort.Strings(s.watered)
	sort.Strings(s.adopted)
	return s
}

// FromIDs builds a snapshot from separate watered and adopted id lists.
func FromIDs(watered, adopted []string) Snapshot {
	flags := make(map[string]Status, len(watered)+len(adopted))
	for _, id := range watered {
		st := flags[id]
		st.Watered = true
		flags[id] = st
	}
	for _, id := range adopted {
		st := flags[id]
		st.Adopted = true
		flags[id] = st
	}
	return NewSnapshot(flags)
}

// Lookup returns the status of a tree and whether it is known.
func (s Snapshot) Lookup(id string) (Status, bool) {
	st, ok := s.flags[id]
	return st, ok
}

// WateredIDs returns the sorted ids of watered trees. Callers must not
// modify the slice.
func (s Snapshot) WateredIDs() []string { return s.watered }

// AdoptedIDs returns the sorted ids of adopted trees. Callers must not
// modify the slice.
func (s Snapshot) AdoptedIDs() []string { return s.adopted }

// Len returns the number of trees with a known status.
func (s Snapshot) Len() int { return len(s.flags) }

// Summary counts watered and adopted trees.
type Summary struct {
	Trees   int `json:"trees" doc:"Trees with a community status"`
	Watered int `json:"watered" doc:"Watered trees"`
	Adopted int `json:"adopted" doc:"Adopted trees"`
}

// Summary returns the counts of the snapshot.
func (s Snapshot) Summary() Summary {
	return Summary{Trees: len(s.flags), Watered: len(s.watered), Adopted: len(s.adopted)}
}
