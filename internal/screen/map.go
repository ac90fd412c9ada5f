// Package screen implements the map and list screen controllers.
package screen

import (
	"context"
	"fmt"
	"sync"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/canvass/internal/cluster"
	"github.com/sells-group/canvass/internal/geo"
	"github.com/sells-group/canvass/internal/geolocate"
	"github.com/sells-group/canvass/internal/marker"
	"github.com/sells-group/canvass/internal/model"
	"github.com/sells-group/canvass/internal/nav"
	"github.com/sells-group/canvass/internal/render"
	"github.com/sells-group/canvass/internal/store"
	"github.com/sells-group/canvass/internal/viewport"
)

// SelectZoom is the zoom used when focusing a single business.
const SelectZoom = cluster.NoClusteringZoom

var _ render.Events = (*MapScreen)(nil)

// MapScreen drives the map: it clusters the selected company's businesses,
// handles marker and map presses, and consumes navigation messages addressed
// to the map.
type MapScreen struct {
	mu        sync.Mutex
	state     *store.State
	view      *viewport.Controller
	bus       *nav.Bus
	projector *marker.Projector
	cache     *cluster.Cache
	selected  string
	index     map[string]cluster.Cluster
}

// NewMapScreen wires a map screen. cache may be nil.
func NewMapScreen(state *store.State, view *viewport.Controller, bus *nav.Bus, cache *cluster.Cache) *MapScreen {
	return &MapScreen{
		state:     state,
		view:      view,
		bus:       bus,
		projector: marker.NewProjector(state.Statuses(), state),
		cache:     cache,
		index:     map[string]cluster.Cluster{},
	}
}

// Viewport returns the screen's viewport controller.
func (m *MapScreen) Viewport() *viewport.Controller { return m.view }

// Locate centers the map on the device position, or on the fallback.
func (m *MapScreen) Locate(ctx context.Context, p geolocate.Provider, fb geolocate.Fallback) geolocate.Result {
	res := geolocate.Locate(ctx, p, fb)
	m.view.Initialize(res.Center, res.Zoom)
	return res
}

// Render consumes any pending navigation message and the pending fly-to, and
// returns the frame to draw.
func (m *MapScreen) Render() render.Frame {
	m.mu.Lock()
	defer m.mu.Unlock()

	if msg, ok := m.bus.Receive(nav.MapScreen); ok {
		if sel, ok := msg.(nav.SelectBusiness); ok {
			m.applySelect(sel)
		}
	}

	clusters := m.clusters()
	m.index = marker.Index(clusters)
	if m.selected != "" {
		if _, ok := m.state.FindByID(m.selected); !ok {
			m.selected = ""
		}
	}

	f := render.Frame{
		Markers:    m.projector.Project(clusters),
		SelectedID: m.selected,
	}
	if fly, ok := m.view.ConsumeFlyTo(); ok {
		f.FlyTo = &fly
	}
	v := m.view.View()
	f.Center = v.Center
	f.Zoom = v.Zoom
	return f
}

func (m *MapScreen) clusters() []cluster.Cluster {
	companyID := m.state.SelectedCompany()
	zoom := m.view.ClusteringZoom()
	rev := m.state.Revision()
	if m.cache != nil {
		if c, ok := m.cache.Get(companyID, zoom, rev); ok {
			return c
		}
	}
	c := cluster.Build(m.state.ListByCompany(companyID), zoom)
	if m.cache != nil {
		m.cache.Put(companyID, zoom, rev, c)
	}
	return c
}

func (m *MapScreen) applySelect(sel nav.SelectBusiness) {
	b, ok := m.state.FindByID(sel.BusinessID)
	if !ok {
		zap.L().Debug("screen: select target no longer exists", zap.String("business_id", sel.BusinessID))
		return
	}
	center, located := b.Coordinate()
	if sel.Center != nil && sel.Center.Valid() {
		center, located = *sel.Center, true
	}
	m.selected = b.ID
	if !located {
		return
	}
	zoom := sel.ForceZoom
	if zoom == 0 {
		zoom = SelectZoom
	}
	m.view.Navigate(center, zoom)
}

// MarkerPressed handles a press on marker id. The id is resolved against the
// clusters for the current store revision, so ids from an outdated frame are
// ignored. A cluster flies toward its densest pocket; a singleton is selected
// and focused. Unknown ids report false.
func (m *MapScreen) MarkerPressed(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.index = marker.Index(m.clusters())
	c, ok := m.index[id]
	if !ok {
		zap.L().Debug("screen: ignoring press on stale marker", zap.String("marker_id", id))
		return false
	}

	if c.IsSingleton() {
		m.selected = c.Members[0].ID
		m.view.Navigate(c.Centroid, SelectZoom)
		return true
	}

	m.view.FlyTo(c.Centroid, min(m.view.DisplayZoom()+2, cluster.NoClusteringZoom))
	if target, ok := cluster.Resolve(c); ok {
		m.view.Navigate(target.Center, target.Zoom)
	}
	return true
}

// MapPressed adds a pin for the selected company at the pressed coordinate.
// It is a no-op without a selected company. The viewport is not moved.
func (m *MapScreen) MapPressed(ctx context.Context, at geo.Coordinate) error {
	_, err := m.AddPin(ctx, at)
	return err
}

// AddPin creates a business named after the running business count. The zero
// Business is returned when no company is selected.
func (m *MapScreen) AddPin(ctx context.Context, at geo.Coordinate) (model.Business, error) {
	if !at.Valid() {
		return model.Business{}, eris.Wrap(store.ErrInvalidBusiness, "pressed coordinate is not finite")
	}
	companyID := m.state.SelectedCompany()
	if companyID == "" {
		return model.Business{}, nil
	}
	loc := at
	b, err := m.state.Add(ctx, model.Business{
		CompanyID: companyID,
		Name:      fmt.Sprintf("Business %d", m.state.Count()+1),
		Status:    m.state.Statuses().Default(),
		Location:  &loc,
	})
	if err != nil {
		return model.Business{}, eris.Wrap(err, "screen: add pin")
	}
	return b, nil
}

// ZoomChanged forwards a zoom report from the render layer.
func (m *MapScreen) ZoomChanged(zoom int) {
	m.view.ZoomChanged(zoom)
}

// InteractionEnded tells the viewport the user stopped panning or zooming.
func (m *MapScreen) InteractionEnded() {
	m.view.EndInteraction()
}

// Select marks id as the selected business without moving the viewport.
func (m *MapScreen) Select(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.state.FindByID(id); !ok {
		return false
	}
	m.selected = id
	return true
}

// Selected returns the selected business if it still exists.
func (m *MapScreen) Selected() (model.Business, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.selected == "" {
		return model.Business{}, false
	}
	b, ok := m.state.FindByID(m.selected)
	if !ok {
		m.selected = ""
	}
	return b, ok
}

// ClearSelection drops the selected business.
func (m *MapScreen) ClearSelection() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.selected = ""
}

// Edit hands id to the list screen's edit form and clears the selection.
func (m *MapScreen) Edit(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.bus.Send(nav.EditBusiness{BusinessID: id})
	m.selected = ""
}

// Delete removes the business and clears the selection when it was selected.
func (m *MapScreen) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.state.Remove(ctx, id); err != nil {
		return eris.Wrap(err, "screen: delete business")
	}
	if m.selected == id {
		m.selected = ""
	}
	return nil
}
