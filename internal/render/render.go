// Package render defines the single capability the map screen needs from a
// map backend, and the adapters that turn a Frame into a backend scene.
package render

import (
	"context"

	"github.com/sells-group/canvass/internal/geo"
	"github.com/sells-group/canvass/internal/marker"
	"github.com/sells-group/canvass/internal/viewport"
)

// Frame is everything a backend needs to draw one pass.
type Frame struct {
	Markers    []marker.Descriptor `json:"markers"`
	Center     geo.Coordinate      `json:"center"`
	Zoom       int                 `json:"zoom"`
	FlyTo      *viewport.FlyTo     `json:"fly_to,omitempty"`
	SelectedID string              `json:"selected_id,omitempty"`
}

// Events receives interactions reported by a backend.
type Events interface {
	MarkerPressed(id string) bool
	MapPressed(ctx context.Context, at geo.Coordinate) error
	ZoomChanged(zoom int)
	InteractionEnded()
}

// MarkerSpec is one backend-ready marker.
type MarkerSpec struct {
	ID        string         `json:"id"`
	Position  geo.Coordinate `json:"position"`
	IconURL   string         `json:"icon_url,omitempty"`
	IconHTML  string         `json:"icon_html,omitempty"`
	Size      [2]int         `json:"size"`
	Anchor    [2]int         `json:"anchor"`
	Title     string         `json:"title"`
	IsCluster bool           `json:"is_cluster"`
	Count     int            `json:"count"`
}

// Scene is a Frame translated for one backend.
type Scene struct {
	Backend string          `json:"backend"`
	Center  geo.Coordinate  `json:"center"`
	Zoom    int             `json:"zoom"`
	FlyTo   *viewport.FlyTo `json:"fly_to,omitempty"`
	Markers []MarkerSpec    `json:"markers"`
}

// Adapter translates frames for a specific backend.
type Adapter interface {
	Name() string
	Render(f Frame) Scene
}

// ByName returns the adapter for name, defaulting to the web adapter.
func ByName(name string) Adapter {
	if name == NativeName {
		return Native{}
	}
	return Web{}
}

func renderWith(name string, f Frame, spec func(marker.Descriptor) MarkerSpec) Scene {
	s := Scene{
		Backend: name,
		Center:  f.Center,
		Zoom:    f.Zoom,
		FlyTo:   f.FlyTo,
		Markers: make([]MarkerSpec, 0, len(f.Markers)),
	}
	for _, d := range f.Markers {
		if !drawable(d) {
			continue
		}
		s.Markers = append(s.Markers, spec(d))
	}
	return s
}

// drawable drops markers without an id or a finite position.
func drawable(d marker.Descriptor) bool {
	return d.ID != "" && d.Position.Valid()
}
