// Package waterneed classifies street trees by how much extra water they need.
package waterneed

import (
	"fmt"
	"strings"
)

// Need is a water-need category. The numeric values are the ones emitted
// into map filter expressions.
type Need int

const (
	Low    Need = 1
	Medium Need = 2
	High   Need = 3
)

// Age thresholds in years.
const (
	YoungTreeMaxAge = 15
	OldTreeMinAge   = 40
)

// Classify maps a tree age to its water need.
// A missing age yields Low, the same result the inline map expression
// produces for a feature without an age property. Callers that filter by
// age must check for absence themselves.
func Classify(age *int) Need {
	if age == nil {
		return Low
	}
	return ClassifyAge(*age)
}

// ClassifyAge is Classify for a known age.
func ClassifyAge(age int) Need {
	switch {
	case age < YoungTreeMaxAge:
		return High
	case age < OldTreeMinAge:
		return Medium
	default:
		return Low
	}
}

// String returns the lowercase category name.
func (n Need) String() string {
	switch n {
	case Low:
		return "low"
	case Medium:
		return "medium"
	case High:
		return "high"
	default:
		return fmt.Sprintf("need(%d)", int(n))
	}
}

// Valid reports whether n is one of the three categories.
func (n Need) Valid() bool {
	return n >= Low && n <= High
}

// ParseNeed parses "low", "medium", "high" or their numeric values.
func ParseNeed(s string) (Need, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "low", "1":
		return Low, nil
	case "medium", "2":
		return Medium, nil
	case "high", "3":
		return High, nil
	}
	return 0, fmt.Errorf("unknown water need %q", s)
}

// MarshalText encodes the category name.
func (n Need) MarshalText() ([]byte, error) {
	if !n.Valid() {
		return nil, fmt.Errorf("invalid water need %d", int(n))
	}
	return []byte(n.String()), nil
}

// UnmarshalText accepts anything ParseNeed accepts.
func (n *Need) UnmarshalText(b []byte) error {
	v, err := ParseNeed(string(b))
	if err != nil {
		return err
	}
	*n = v
	return nil
}
