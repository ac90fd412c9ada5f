package nav

import (
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/canvass/internal/geo"
)

func TestBus_ReceiveClears(t *testing.T) {
	b := NewBus()
	center := geo.Coordinate{Latitude: 37.7, Longitude: -122.4}
	b.Send(SelectBusiness{BusinessID: "b1", Center: &center, ForceZoom: 18})

	_, ok := b.Receive(ListScreen)
	assert.False(t, ok, "message is addressed to the map only")

	m, ok := b.Receive(MapScreen)
	require.True(t, ok)
	sel, ok := m.(SelectBusiness)
	require.True(t, ok)
	assert.Equal(t, "b1", sel.BusinessID)
	assert.Equal(t, 18, sel.ForceZoom)

	_, ok = b.Receive(MapScreen)
	assert.False(t, ok)
}

func TestBus_RoutesByDestination(t *testing.T) {
	b := NewBus()
	b.Send(EditBusiness{BusinessID: "e1"})
	b.Send(SelectBusiness{BusinessID: "s1"})

	m, ok := b.Receive(ListScreen)
	require.True(t, ok)
	assert.Equal(t, EditBusiness{BusinessID: "e1"}, m)

	m, ok = b.Receive(MapScreen)
	require.True(t, ok)
	assert.Equal(t, "s1", m.(SelectBusiness).BusinessID)
}

func TestBus_NewerMessageReplacesUnread(t *testing.T) {
	b := NewBus()
	b.Send(EditBusiness{BusinessID: "old"})
	b.Send(EditBusiness{BusinessID: "new"})
	b.Send(nil)

	m, ok := b.Receive(ListScreen)
	require.True(t, ok)
	assert.Equal(t, "new", m.(EditBusiness).BusinessID)
}

func TestBus_ConcurrentReceiveDeliversOnce(t *testing.T) {
	b := NewBus()
	b.Send(SelectBusiness{BusinessID: "x"})

	var got atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, ok := b.Receive(MapScreen); ok {
				got.Add(1)
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), got.Load())
}
