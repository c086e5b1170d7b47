// Package viewport owns the map camera and its transitions.
package viewport

import (
	"time"

	"github.com/paulmach/orb"
)

// Camera defaults.
const (
	ZoomedIn          = 19.0
	DefaultTransition = 1000 * time.Millisecond
	InitialTransition = 2000 * time.Millisecond
)

// DefaultCenter is where the map opens.
var DefaultCenter = orb.Point{13.419047, 52.500869}

// Easing names a transition timing curve.
type Easing string

const (
	EaseCubic  Easing = "cubic"
	EaseLinear Easing = "linear"
)

// At maps linear progress t in [0,1] to eased progress.
func (e Easing) At(t float64) float64 {
	if t <= 0 {
		return 0
	}
	if t >= 1 {
		return 1
	}
	if e == EaseLinear {
		return t
	}
	// cubic in-out
	t *= 2
	if t <= 1 {
		return t * t * t / 2
	}
	t -= 2
	return (t*t*t + 2) / 2
}

// State is an immutable camera snapshot.
type State struct {
	Latitude           float64 `json:"latitude"`
	Longitude          float64 `json:"longitude"`
	Zoom               float64 `json:"zoom"`
	MinZoom            float64 `json:"minZoom"`
	MaxZoom            float64 `json:"maxZoom"`
	Pitch              float64 `json:"pitch"`
	Bearing            float64 `json:"bearing"`
	TransitionDuration int64   `json:"transitionDuration" doc:"Transition duration in milliseconds"`
	Easing             Easing  `json:"transitionEasing,omitempty"`
}

// Center returns the camera centre as a lon/lat point.
func (s State) Center() orb.Point {
	return orb.Point{s.Longitude, s.Latitude}
}

// Transition returns the transition duration.
func (s State) Transition() time.Duration {
	return time.Duration(s.TransitionDuration) * time.Millisecond
}

// Defaults returns the opening camera for desktop or mobile clients.
func Defaults(mobile bool) State {
	s := State{
		Latitude:           DefaultCenter.Lat(),
		Longitude:          DefaultCenter.Lon(),
		Zoom:               11,
		MinZoom:            9,
		MaxZoom:            ZoomedIn,
		Pitch:              45,
		TransitionDuration: InitialTransition.Milliseconds(),
		Easing:             EaseCubic,
	}
	if mobile {
		s.Zoom = 13
		s.MinZoom = 11
		s.Pitch = 0
	}
	return s
}

// Partial holds the fields to change in a SetViewport call.
type Partial struct {
	Latitude   *float64       `json:"latitude,omitempty"`
	Longitude  *float64       `json:"longitude,omitempty"`
	Zoom       *float64       `json:"zoom,omitempty"`
	Pitch      *float64       `json:"pitch,omitempty"`
	Bearing    *float64       `json:"bearing,omitempty"`
	Transition *time.Duration `json:"-"`
	Easing     *Easing        `json:"transitionEasing,omitempty"`
}

func (p Partial) apply(s State) State {
	if p.Latitude != nil {
		s.Latitude = *p.Latitude
	}
	if p.Longitude != nil {
		s.Longitude = *p.Longitude
	}
	if p.Zoom != nil {
		s.Zoom = *p.Zoom
	}
	if p.Pitch != nil {
		s.Pitch = *p.Pitch
	}
	if p.Bearing != nil {
		s.Bearing = *p.Bearing
	}
	if p.Transition != nil {
		s.TransitionDuration = p.Transition.Milliseconds()
	}
	if p.Easing != nil {
		s.Easing = *p.Easing
	}
	return s
}
