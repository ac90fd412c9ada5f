package viewport

import (
	"math"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/canvass/internal/geo"
)

var sf = geo.Coordinate{Latitude: 37.78825, Longitude: -122.4324}

func TestZoomBounds_Clamp(t *testing.T) {
	b := ZoomBounds{Min: 3, Max: 19}
	assert.Equal(t, 3, b.Clamp(0))
	assert.Equal(t, 12, b.Clamp(12))
	assert.Equal(t, 19, b.Clamp(25))
}

func TestNew_InvalidBoundsFallBack(t *testing.T) {
	c := New(ZoomBounds{Min: 10, Max: 2}, sf, 40)
	assert.Equal(t, DefaultZoomBounds, c.Bounds())
	assert.Equal(t, 19, c.DisplayZoom())
}

func TestController_FlyToConsumedOnce(t *testing.T) {
	c := New(DefaultZoomBounds, sf, 17)
	target := geo.Coordinate{Latitude: 37.8, Longitude: -122.4}

	c.FlyTo(target, 18)
	assert.Equal(t, ProgrammaticNavigation, c.State())
	assert.Equal(t, 17, c.ClusteringZoom(), "fly-to must not move the clustering zoom")

	v := c.View()
	require.NotNil(t, v.FlyTo)
	assert.Equal(t, target, v.Center)
	assert.Equal(t, 18, v.Zoom)

	f, ok := c.ConsumeFlyTo()
	require.True(t, ok)
	assert.Equal(t, FlyTo{Center: target, Zoom: 18}, f)
	assert.Equal(t, Idle, c.State())

	_, ok = c.ConsumeFlyTo()
	assert.False(t, ok, "fly-to must never replay")
	assert.Nil(t, c.View().FlyTo)
}

func TestController_FlyToKeepsZoomWhenZero(t *testing.T) {
	c := New(DefaultZoomBounds, sf, 14)
	c.FlyTo(geo.Coordinate{Latitude: 1, Longitude: 1}, 0)
	assert.Equal(t, 14, c.DisplayZoom())
	f, ok := c.ConsumeFlyTo()
	require.True(t, ok)
	assert.Zero(t, f.Zoom)
}

func TestController_NavigateReplacesPending(t *testing.T) {
	c := New(DefaultZoomBounds, sf, 12)
	c.FlyTo(geo.Coordinate{Latitude: 1, Longitude: 1}, 14)
	got := c.Navigate(geo.Coordinate{Latitude: 2, Longitude: 2}, 25)
	assert.Equal(t, 19, got.Zoom)

	f, ok := c.ConsumeFlyTo()
	require.True(t, ok)
	assert.Equal(t, geo.Coordinate{Latitude: 2, Longitude: 2}, f.Center)
	_, ok = c.ConsumeFlyTo()
	assert.False(t, ok)
}

func TestController_ZoomChangedNeverClearsPendingFlyTo(t *testing.T) {
	c := New(DefaultZoomBounds, sf, 12)
	c.FlyTo(sf, 16)

	changed := c.ZoomChanged(13)
	assert.True(t, changed)
	assert.Equal(t, 13, c.ClusteringZoom())
	assert.Equal(t, 16, c.DisplayZoom(), "pending fly-to zoom wins for display")
	assert.Equal(t, ProgrammaticNavigation, c.State())

	_, ok := c.ConsumeFlyTo()
	assert.True(t, ok)
}

func TestController_UserInteraction(t *testing.T) {
	c := New(DefaultZoomBounds, sf, 12)

	assert.True(t, c.ZoomChanged(15))
	assert.False(t, c.ZoomChanged(15))
	assert.Equal(t, UserInteracting, c.State())
	assert.Equal(t, 15, c.DisplayZoom())

	c.EndInteraction()
	assert.Equal(t, Idle, c.State())

	assert.True(t, c.ZoomChanged(1))
	assert.Equal(t, 3, c.ClusteringZoom())
}

func TestController_EndInteractionKeepsFlyTo(t *testing.T) {
	c := New(DefaultZoomBounds, sf, 12)
	target := geo.Coordinate{Latitude: 40, Longitude: -100}
	c.FlyTo(target, 0)
	c.EndInteraction()
	assert.Equal(t, ProgrammaticNavigation, c.State())
	assert.Equal(t, target, c.View().Center)
}

func TestRoundZoom(t *testing.T) {
	tests := []struct {
		in   float64
		want int
	}{
		{14, 14},
		{14.4, 14},
		{14.5, 15},
		{15.73, 16},
		{math.NaN(), 0},
		{math.Inf(1), 0},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, RoundZoom(tt.in), "%v", tt.in)
	}
}

func TestController_Initialize(t *testing.T) {
	c := New(DefaultZoomBounds, sf, 17)
	c.FlyTo(sf, 18)
	c.Initialize(geo.Coordinate{Latitude: 10, Longitude: 10}, 15)

	v := c.View()
	assert.Equal(t, 15, v.Zoom)
	assert.Equal(t, 15, v.ClusteringZoom)
	assert.Nil(t, v.FlyTo)
	assert.Equal(t, Idle, v.State)
}

func TestController_ConcurrentConsumeIsAtMostOnce(t *testing.T) {
	c := New(DefaultZoomBounds, sf, 12)
	c.FlyTo(sf, 18)

	var consumed atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, ok := c.ConsumeFlyTo(); ok {
				consumed.Add(1)
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), consumed.Load())
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "idle", Idle.String())
	assert.Equal(t, "programmatic_navigation", ProgrammaticNavigation.String())
	assert.Equal(t, "user_interacting", UserInteracting.String())
	assert.Equal(t, "unknown", State(9).String())
}

func TestState_TextRoundTrip(t *testing.T) {
	var s State
	require.NoError(t, s.UnmarshalText([]byte("user_interacting")))
	assert.Equal(t, UserInteracting, s)
	assert.Error(t, s.UnmarshalText([]byte("flying")))
}
