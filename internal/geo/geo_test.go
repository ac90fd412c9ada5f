package geo

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDistance_SamePoint(t *testing.T) {
	c := Coordinate{Latitude: 37.78825, Longitude: -122.4324}
	assert.InDelta(t, 0, Distance(c, c), 1e-9)
}

func TestDistance_KnownPairs(t *testing.T) {
	tests := []struct {
		name  string
		a, b  Coordinate
		want  float64
		delta float64
	}{
		{
			name:  "nearby pins",
			a:     Coordinate{Latitude: 37.7882, Longitude: -122.4324},
			b:     Coordinate{Latitude: 37.7883, Longitude: -122.4325},
			want:  14.1,
			delta: 0.5,
		},
		{
			name:  "one degree of latitude",
			a:     Coordinate{Latitude: 0, Longitude: 0},
			b:     Coordinate{Latitude: 1, Longitude: 0},
			want:  111195,
			delta: 1,
		},
		{
			name:  "antipodal on equator",
			a:     Coordinate{Latitude: 0, Longitude: 0},
			b:     Coordinate{Latitude: 0, Longitude: 180},
			want:  math.Pi * EarthRadiusMeters,
			delta: 1e-3,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, Distance(tt.a, tt.b), tt.delta)
			assert.InDelta(t, Distance(tt.a, tt.b), Distance(tt.b, tt.a), 1e-9)
		})
	}
}

func TestDistance_NaN(t *testing.T) {
	d := Distance(Coordinate{Latitude: math.NaN()}, Coordinate{})
	assert.True(t, math.IsNaN(d))
}

func TestCoordinate_Valid(t *testing.T) {
	assert.True(t, Coordinate{Latitude: 1, Longitude: 2}.Valid())
	assert.False(t, Coordinate{Latitude: math.NaN(), Longitude: 2}.Valid())
	assert.False(t, Coordinate{Latitude: 1, Longitude: math.Inf(1)}.Valid())
}

func TestMean(t *testing.T) {
	assert.Equal(t, Coordinate{}, Mean(nil))

	m := Mean([]Coordinate{
		{Latitude: 1, Longitude: 10},
		{Latitude: 3, Longitude: 20},
	})
	assert.InDelta(t, 2, m.Latitude, 1e-9)
	assert.InDelta(t, 15, m.Longitude, 1e-9)
}

func TestExtent_AndSpan(t *testing.T) {
	b := Extent([]Coordinate{
		{Latitude: 37.0, Longitude: -122.0},
		{Latitude: 37.1, Longitude: -122.05},
		{Latitude: 37.05, Longitude: -121.98},
	})
	assert.InDelta(t, 37.0, b.MinLat, 1e-9)
	assert.InDelta(t, 37.1, b.MaxLat, 1e-9)
	assert.InDelta(t, -122.05, b.MinLng, 1e-9)
	assert.InDelta(t, -121.98, b.MaxLng, 1e-9)

	// Latitude range 0.1 dominates; 10% padding per side gives 0.12.
	assert.InDelta(t, 0.12, b.Span(0.1), 1e-9)
	assert.InDelta(t, 0.1, b.Span(0), 1e-9)

	assert.True(t, b.Contains(Coordinate{Latitude: 37.05, Longitude: -122.0}))
	assert.False(t, b.Contains(Coordinate{Latitude: 38, Longitude: -122.0}))
}

func TestExtent_Empty(t *testing.T) {
	assert.Equal(t, BBox{}, Extent(nil))
}

func TestEncodeDecodePoint(t *testing.T) {
	c := Coordinate{Latitude: 37.78825, Longitude: -122.4324}
	data, err := EncodePoint(c)
	require.NoError(t, err)
	require.NotEmpty(t, data)

	got, err := DecodePoint(data)
	require.NoError(t, err)
	assert.InDelta(t, c.Latitude, got.Latitude, 1e-12)
	assert.InDelta(t, c.Longitude, got.Longitude, 1e-12)
}

func TestEncodePoint_RejectsNaN(t *testing.T) {
	_, err := EncodePoint(Coordinate{Latitude: math.NaN()})
	require.Error(t, err)
}

func TestDecodePoint_Garbage(t *testing.T) {
	_, err := DecodePoint([]byte{0x01, 0x02})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode WKB")
}
