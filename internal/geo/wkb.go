package geo

import (
	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/ewkb"
)

// SRID is the spatial reference used for stored geometries.
const SRID = 4326

// EncodePoint converts c to EWKB bytes with SRID 4326.
func EncodePoint(c Coordinate) ([]byte, error) {
	if !c.Valid() {
		return nil, eris.Errorf("geo: cannot encode non-finite coordinate %v", c)
	}
	p := geom.NewPointFlat(geom.XY, []float64{c.Longitude, c.Latitude}).SetSRID(SRID)
	data, err := ewkb.Marshal(p, ewkb.NDR)
	if err != nil {
		return nil, eris.Wrap(err, "geo: encode WKB")
	}
	return data, nil
}

// DecodePoint parses EWKB bytes produced by EncodePoint.
func DecodePoint(data []byte) (Coordinate, error) {
	g, err := ewkb.Unmarshal(data)
	if err != nil {
		return Coordinate{}, eris.Wrap(err, "geo: decode WKB")
	}
	p, ok := g.(*geom.Point)
	if !ok {
		return Coordinate{}, eris.Errorf("geo: expected point geometry, got %T", g)
	}
	return Coordinate{Latitude: p.Y(), Longitude: p.X()}, nil
}
