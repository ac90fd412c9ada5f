package importer

import (
	"strconv"
	"strings"

	"github.com/sells-group/canvass/internal/geo"
	"github.com/sells-group/canvass/internal/model"
)

// setter writes one tabular cell into a business.
type setter func(b *model.Business, v string)

var fieldAliases = map[string]setter{
	"id":             func(b *model.Business, v string) { b.ID = v },
	"name":           func(b *model.Business, v string) { b.Name = v },
	"status":         func(b *model.Business, v string) { b.Status = model.Status(strings.ToLower(v)) },
	"company":        func(b *model.Business, v string) { b.CompanyID = v },
	"company_id":     func(b *model.Business, v string) { b.CompanyID = v },
	"address":        func(b *model.Business, v string) { b.Address = v },
	"contact":        func(b *model.Business, v string) { b.ContactName = v },
	"contact_name":   func(b *model.Business, v string) { b.ContactName = v },
	"phone":          func(b *model.Business, v string) { b.ContactPhone = v },
	"contact_phone":  func(b *model.Business, v string) { b.ContactPhone = v },
	"email":          func(b *model.Business, v string) { b.ContactEmail = v },
	"contact_email":  func(b *model.Business, v string) { b.ContactEmail = v },
	"last_contacted": func(b *model.Business, v string) { b.LastContacted = v },
	"canvassed_by":   func(b *model.Business, v string) { b.CanvassedBy = v },
	"visit_outcome":  func(b *model.Business, v string) { b.VisitOutcome = v },
	"tags":           func(b *model.Business, v string) { b.Tags = model.ParseTags(v) },
	"notes":          func(b *model.Business, v string) { b.Notes = model.ParseNotes(v) },
}

var (
	latAliases = map[string]bool{"latitude": true, "lat": true}
	lngAliases = map[string]bool{"longitude": true, "lng": true, "lon": true, "long": true}
)

// columns resolves header positions to business fields.
type columns struct {
	fields map[int]setter
	lat    int
	lng    int
}

func normalizeHeader(h string) string {
	h = strings.ToLower(strings.TrimSpace(strings.TrimRight(h, "\x00")))
	return strings.NewReplacer(" ", "_", "-", "_").Replace(h)
}

func mapColumns(header []string) columns {
	c := columns{fields: make(map[int]setter, len(header)), lat: -1, lng: -1}
	for i, h := range header {
		n := normalizeHeader(h)
		switch {
		case latAliases[n]:
			c.lat = i
		case lngAliases[n]:
			c.lng = i
		default:
			if s, ok := fieldAliases[n]; ok {
				c.fields[i] = s
			}
		}
	}
	return c
}

// business builds a record from one row. Rows without a name are
// rejected. The location is set only when both axes parse.
func (c columns) business(cells []string) (model.Business, bool) {
	var b model.Business
	for i, v := range cells {
		s, ok := c.fields[i]
		if !ok {
			continue
		}
		if v = clean(v); v != "" {
			s(&b, v)
		}
	}
	lat, latOK := c.axis(cells, c.lat)
	lng, lngOK := c.axis(cells, c.lng)
	if latOK && lngOK {
		b.Location = &geo.Coordinate{Latitude: lat, Longitude: lng}
	}
	if strings.TrimSpace(b.Name) == "" {
		return model.Business{}, false
	}
	return b, true
}

func (c columns) axis(cells []string, idx int) (float64, bool) {
	if idx < 0 || idx >= len(cells) {
		return 0, false
	}
	f, err := strconv.ParseFloat(clean(cells[idx]), 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

func clean(v string) string {
	return strings.TrimSpace(strings.TrimRight(v, "\x00"))
}
