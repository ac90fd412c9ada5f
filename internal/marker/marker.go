// Package marker projects clusters into renderable marker descriptors.
package marker

import (
	"fmt"
	"slices"
	"strings"

	"github.com/sells-group/canvass/internal/cluster"
	"github.com/sells-group/canvass/internal/geo"
	"github.com/sells-group/canvass/internal/model"
)

// Logical marker sizes in pixels. Adapters may scale them per platform.
const (
	PinSize     = 32
	ClusterSize = 48
)

// IconSource records where a singleton's icon came from.
type IconSource string

// Icon sources in fallback order.
const (
	IconBusiness IconSource = "business"
	IconCompany  IconSource = "company"
	IconDefault  IconSource = "default"
)

// Descriptor is a platform-neutral marker ready for a render adapter.
type Descriptor struct {
	ID         string         `json:"id"`
	Position   geo.Coordinate `json:"position"`
	IsCluster  bool           `json:"is_cluster"`
	Count      int            `json:"count"`
	Size       int            `json:"size"`
	Icon       model.Icon     `json:"icon,omitempty"`
	IconSource IconSource     `json:"icon_source,omitempty"`
	Color      string         `json:"color"`
	Status     model.Status   `json:"status"`
	Label      string         `json:"label"`
}

// CompanyLookup resolves the owning company of a business.
type CompanyLookup interface {
	FindCompany(id string) (model.Company, bool)
}

// ClusterID derives a stable id for a multi-member cluster from its sorted
// member ids. Singletons use the business id; the store rejects business ids
// that could collide with the cluster form.
func ClusterID(c cluster.Cluster) string {
	if c.IsSingleton() {
		return c.Members[0].ID
	}
	ids := c.IDs()
	slices.Sort(ids)
	return model.ClusterIDPrefix + strings.Join(ids, model.ClusterIDSeparator)
}

// Projector turns clusters into descriptors using status colors and company
// icons.
type Projector struct {
	statuses  *model.StatusSet
	companies CompanyLookup
}

// NewProjector creates a Projector. A nil statuses uses the defaults; a nil
// companies disables the company icon fallback.
func NewProjector(statuses *model.StatusSet, companies CompanyLookup) *Projector {
	if statuses == nil {
		statuses = model.DefaultStatuses()
	}
	return &Projector{statuses: statuses, companies: companies}
}

// Project describes every non-empty cluster in order.
func (p *Projector) Project(clusters []cluster.Cluster) []Descriptor {
	out := make([]Descriptor, 0, len(clusters))
	for _, c := range clusters {
		if len(c.Members) == 0 {
			continue
		}
		out = append(out, p.Describe(c))
	}
	return out
}

// Describe builds the descriptor for one non-empty cluster.
func (p *Projector) Describe(c cluster.Cluster) Descriptor {
	d := Descriptor{
		ID:       ClusterID(c),
		Position: c.Centroid,
		Count:    len(c.Members),
		Status:   c.Status,
		Color:    p.statuses.Color(c.Status),
	}

	if !c.IsSingleton() {
		d.IsCluster = true
		d.Size = ClusterSize
		d.Label = fmt.Sprintf("%d businesses", d.Count)
		return d
	}

	b := c.Members[0]
	d.Size = PinSize
	d.Label = b.Name
	d.Icon, d.IconSource = p.icon(b)
	return d
}

func (p *Projector) icon(b model.Business) (model.Icon, IconSource) {
	if b.CustomIcon != "" {
		return b.CustomIcon, IconBusiness
	}
	if p.companies != nil {
		if co, ok := p.companies.FindCompany(b.CompanyID); ok && co.CustomIcon != "" {
			return co.CustomIcon, IconCompany
		}
	}
	return "", IconDefault
}

// Index maps descriptor ids back to their clusters for press handling.
func Index(clusters []cluster.Cluster) map[string]cluster.Cluster {
	out := make(map[string]cluster.Cluster, len(clusters))
	for _, c := range clusters {
		if len(c.Members) == 0 {
			continue
		}
		out[ClusterID(c)] = c
	}
	return out
}
