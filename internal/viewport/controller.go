package viewport

import (
	"time"

	"github.com/paulmach/orb"
)

// Observer is notified after every camera change.
type Observer func(State)

// Controller holds the current camera. Each change replaces the snapshot
// and notifies observers; a new request supersedes any running transition.
type Controller struct {
	state     State
	observers []Observer
}

// NewController creates a controller starting at initial.
func NewController(initial State) *Controller {
	return &Controller{state: initial}
}

// Observe registers fn to run after every change.
func (c *Controller) Observe(fn Observer) {
	c.observers = append(c.observers, fn)
}

// State returns the current snapshot.
func (c *Controller) State() State {
	return c.state
}

// SetViewport shallow-merges p into the current snapshot.
func (c *Controller) SetViewport(p Partial) State {
	c.state = p.apply(c.state)
	for _, fn := range c.observers {
		fn(c.state)
	}
	return c.state
}

// FlyTo moves the camera to target with the cubic easing. A nil zoom flies
// to ZoomedIn; a zero duration uses DefaultTransition.
func (c *Controller) FlyTo(target orb.Point, zoom *float64, duration time.Duration) State {
	z := ZoomedIn
	if zoom != nil && *zoom > 0 {
		z = *zoom
	}
	if duration <= 0 {
		duration = DefaultTransition
	}
	lat, lon := target.Lat(), target.Lon()
	ease := EaseCubic
	return c.SetViewport(Partial{
		Latitude:   &lat,
		Longitude:  &lon,
		Zoom:       &z,
		Transition: &duration,
		Easing:     &ease,
	})
}

// UserChange applies a camera change made by a user gesture, without
// animation so the map does not fight the gesture.
func (c *Controller) UserChange(lat, lon, zoom float64) State {
	var none time.Duration
	return c.SetViewport(Partial{Latitude: &lat, Longitude: &lon, Zoom: &zoom, Transition: &none})
}

// Navigate applies a change requested by the navigation control buttons.
func (c *Controller) Navigate(lat, lon, zoom float64) State {
	d := DefaultTransition
	return c.SetViewport(Partial{Latitude: &lat, Longitude: &lon, Zoom: &zoom, Transition: &d})
}

// Geolocate flies to the user's position.
func (c *Controller) Geolocate(pos orb.Point) State {
	return c.FlyTo(pos, nil, DefaultTransition)
}
