// Package viewport owns map center, zoom and the one-shot fly-to target.
//
// The zoom used for clustering is tracked apart from the display zoom. Only
// zoom reports from the render layer move the clustering zoom, so an animated
// fly-to never re-triggers clustering mid-flight, and a user zoom never
// overwrites a pending fly-to.
package viewport

import (
	"math"
	"sync"

	"github.com/rotisserie/eris"

	"github.com/sells-group/canvass/internal/geo"
)

// State is the controller's navigation state.
type State int

// Controller states.
const (
	Idle State = iota
	ProgrammaticNavigation
	UserInteracting
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case ProgrammaticNavigation:
		return "programmatic_navigation"
	case UserInteracting:
		return "user_interacting"
	default:
		return "unknown"
	}
}

// MarshalText renders the state name in JSON payloads.
func (s State) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

// UnmarshalText parses a state name produced by MarshalText.
func (s *State) UnmarshalText(text []byte) error {
	for _, st := range []State{Idle, ProgrammaticNavigation, UserInteracting} {
		if st.String() == string(text) {
			*s = st
			return nil
		}
	}
	return eris.Errorf("viewport: unknown state %q", text)
}

// ZoomBounds is the zoom range supported by the map provider.
type ZoomBounds struct {
	Min int `json:"min"`
	Max int `json:"max"`
}

// DefaultZoomBounds matches common tile providers.
var DefaultZoomBounds = ZoomBounds{Min: 3, Max: 19}

// Clamp limits zoom to the bounds.
func (b ZoomBounds) Clamp(zoom int) int {
	if zoom < b.Min {
		return b.Min
	}
	if zoom > b.Max {
		return b.Max
	}
	return zoom
}

// RoundZoom converts a zoom reported by a tile map, which may be fractional,
// to the nearest whole level. Non-finite values become 0.
func RoundZoom(z float64) int {
	if math.IsNaN(z) || math.IsInf(z, 0) {
		return 0
	}
	return int(math.Round(z))
}

// FlyTo is a one-shot instruction to animate the viewport. A zero Zoom keeps
// the current zoom.
type FlyTo struct {
	Center geo.Coordinate `json:"center"`
	Zoom   int            `json:"zoom,omitempty"`
}

// View is a snapshot of the controller.
type View struct {
	Center         geo.Coordinate `json:"center"`
	Zoom           int            `json:"zoom"`
	ClusteringZoom int            `json:"clustering_zoom"`
	FlyTo          *FlyTo         `json:"fly_to,omitempty"`
	State          State          `json:"state"`
}

// Controller is safe for concurrent use. The fly-to target is consumed with
// an atomic read-and-clear.
type Controller struct {
	mu             sync.Mutex
	bounds         ZoomBounds
	center         geo.Coordinate
	zoom           int
	clusteringZoom int
	flyTo          *FlyTo
	state          State
}

// New creates a Controller centered on center at zoom.
func New(bounds ZoomBounds, center geo.Coordinate, zoom int) *Controller {
	if bounds.Min > bounds.Max {
		bounds = DefaultZoomBounds
	}
	c := &Controller{bounds: bounds}
	c.Initialize(center, zoom)
	return c
}

// Initialize resets center and both zooms, dropping any pending fly-to. Used
// once the initial location is known.
func (c *Controller) Initialize(center geo.Coordinate, zoom int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	zoom = c.bounds.Clamp(zoom)
	c.center = center
	c.zoom = zoom
	c.clusteringZoom = zoom
	c.flyTo = nil
	c.state = Idle
}

// FlyTo sets a pending fly-to and moves the display center and zoom to it.
// Zoom 0 keeps the current display zoom. The clustering zoom is untouched.
func (c *Controller) FlyTo(center geo.Coordinate, zoom int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.setFlyTo(center, zoom)
}

// Navigate replaces any pending fly-to with one for target.
func (c *Controller) Navigate(center geo.Coordinate, zoom int) FlyTo {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.setFlyTo(center, zoom)
	return *c.flyTo
}

func (c *Controller) setFlyTo(center geo.Coordinate, zoom int) {
	if zoom != 0 {
		zoom = c.bounds.Clamp(zoom)
		c.zoom = zoom
	}
	c.center = center
	c.flyTo = &FlyTo{Center: center, Zoom: zoom}
	c.state = ProgrammaticNavigation
}

// ConsumeFlyTo returns the pending fly-to and clears it. A second call
// without an intervening FlyTo reports false.
func (c *Controller) ConsumeFlyTo() (FlyTo, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.flyTo == nil {
		return FlyTo{}, false
	}
	f := *c.flyTo
	c.flyTo = nil
	c.state = Idle
	return f, true
}

// ZoomChanged records a zoom reported by the render layer and reports whether
// the clustering zoom moved. A pending fly-to is never cleared, and while one
// is pending the display zoom keeps the fly-to's zoom.
func (c *Controller) ZoomChanged(zoom int) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	zoom = c.bounds.Clamp(zoom)
	changed := zoom != c.clusteringZoom
	c.clusteringZoom = zoom
	if c.flyTo == nil {
		c.zoom = zoom
		c.state = UserInteracting
	}
	return changed
}

// EndInteraction returns a user-interacting controller to Idle.
func (c *Controller) EndInteraction() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == UserInteracting {
		c.state = Idle
	}
}

// ClusteringZoom returns the zoom clustering should run at.
func (c *Controller) ClusteringZoom() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.clusteringZoom
}

// DisplayZoom returns the zoom of the display viewport.
func (c *Controller) DisplayZoom() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.zoom
}

// State returns the current state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Bounds returns the zoom bounds.
func (c *Controller) Bounds() ZoomBounds { return c.bounds }

// View returns a snapshot without consuming the fly-to.
func (c *Controller) View() View {
	c.mu.Lock()
	defer c.mu.Unlock()
	v := View{
		Center:         c.center,
		Zoom:           c.zoom,
		ClusteringZoom: c.clusteringZoom,
		State:          c.state,
	}
	if c.flyTo != nil {
		f := *c.flyTo
		v.FlyTo = &f
	}
	return v
}
