package geo

import (
	"math"

	"github.com/twpayne/go-geom"
)

// BBox represents a geographic bounding box.
type BBox struct {
	MinLng float64 `json:"min_lng"`
	MinLat float64 `json:"min_lat"`
	MaxLng float64 `json:"max_lng"`
	MaxLat float64 `json:"max_lat"`
}

// Extent returns the bounding box of coords. An empty input yields the zero BBox.
func Extent(coords []Coordinate) BBox {
	if len(coords) == 0 {
		return BBox{}
	}
	flat := make([]float64, 0, 2*len(coords))
	for _, c := range coords {
		flat = append(flat, c.Longitude, c.Latitude)
	}
	b := geom.NewMultiPointFlat(geom.XY, flat).Bounds()
	return BBox{
		MinLng: b.Min(0),
		MinLat: b.Min(1),
		MaxLng: b.Max(0),
		MaxLat: b.Max(1),
	}
}

// LatDelta returns the latitude range in degrees.
func (b BBox) LatDelta() float64 { return b.MaxLat - b.MinLat }

// LngDelta returns the longitude range in degrees.
func (b BBox) LngDelta() float64 { return b.MaxLng - b.MinLng }

// Span returns the larger of the latitude and longitude ranges after widening
// each by pad (a fraction of the range) on both sides.
func (b BBox) Span(pad float64) float64 {
	lat := b.LatDelta() + 2*b.LatDelta()*pad
	lng := b.LngDelta() + 2*b.LngDelta()*pad
	return math.Max(lat, lng)
}

// Contains reports whether c lies inside b, edges included.
func (b BBox) Contains(c Coordinate) bool {
	return c.Latitude >= b.MinLat && c.Latitude <= b.MaxLat &&
		c.Longitude >= b.MinLng && c.Longitude <= b.MaxLng
}
