// Package geo provides the coordinate primitives shared by clustering,
// viewport, and storage code.
package geo

import (
	"math"
)

// EarthRadiusMeters is the mean Earth radius used by Distance.
const EarthRadiusMeters = 6371000.0

// Coordinate is a WGS84 latitude/longitude pair in degrees.
type Coordinate struct {
	Latitude  float64 `json:"latitude" yaml:"latitude"`
	Longitude float64 `json:"longitude" yaml:"longitude"`
}

// Valid reports whether both components are finite numbers.
func (c Coordinate) Valid() bool {
	return isFinite(c.Latitude) && isFinite(c.Longitude)
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

// Distance returns the great-circle distance in meters between a and b using
// the haversine formula. NaN inputs yield NaN.
func Distance(a, b Coordinate) float64 {
	lat1 := toRadians(a.Latitude)
	lat2 := toRadians(b.Latitude)
	dLat := toRadians(b.Latitude - a.Latitude)
	dLng := toRadians(b.Longitude - a.Longitude)

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLng/2)*math.Sin(dLng/2)
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))

	return EarthRadiusMeters * c
}

// Mean returns the arithmetic mean of coords. The zero Coordinate is returned
// for an empty slice.
func Mean(coords []Coordinate) Coordinate {
	if len(coords) == 0 {
		return Coordinate{}
	}
	var sumLat, sumLng float64
	for _, c := range coords {
		sumLat += c.Latitude
		sumLng += c.Longitude
	}
	n := float64(len(coords))
	return Coordinate{Latitude: sumLat / n, Longitude: sumLng / n}
}

func toRadians(deg float64) float64 {
	return deg * math.Pi / 180
}
