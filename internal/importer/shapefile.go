package importer

import (
	"github.com/jonas-p/go-shp"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/canvass/internal/geo"
	"github.com/sells-group/canvass/internal/model"
)

// ReadShapefile reads point records. X is longitude and Y latitude; the
// dbf attributes use the same column names as spreadsheets.
func ReadShapefile(path string) ([]model.Business, error) {
	reader, err := shp.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "importer: open shapefile %s", path)
	}
	defer func() { _ = reader.Close() }()

	fields := reader.Fields()
	header := make([]string, len(fields))
	for i, f := range fields {
		header[i] = f.String()
	}
	cols := mapColumns(header)

	var out []model.Business
	var skipped int
	for reader.Next() {
		_, shape := reader.Shape()

		cells := make([]string, len(fields))
		for i := range fields {
			cells[i] = reader.Attribute(i)
		}
		b, ok := cols.business(cells)
		if !ok {
			skipped++
			continue
		}
		if pt, ok := pointOf(shape); ok {
			b.Location = &pt
		}
		out = append(out, b)
	}

	if skipped > 0 {
		zap.L().Debug("importer: skipped shapefile records",
			zap.String("path", path),
			zap.Int("skipped", skipped),
		)
	}
	return out, nil
}

func pointOf(shape shp.Shape) (geo.Coordinate, bool) {
	switch p := shape.(type) {
	case *shp.Point:
		return geo.Coordinate{Latitude: p.Y, Longitude: p.X}, true
	case *shp.PointZ:
		return geo.Coordinate{Latitude: p.Y, Longitude: p.X}, true
	case *shp.PointM:
		return geo.Coordinate{Latitude: p.Y, Longitude: p.X}, true
	default:
		return geo.Coordinate{}, false
	}
}
