// Package cluster groups business pins for display at a zoom level and
// resolves cluster-click zoom targets.
//
// Grouping is greedy and seed-based: a candidate joins a group when it is
// within range of the group's first member, not of any member. The pass is
// O(n²) and sized for low hundreds of pins per company.
package cluster

import (
	"math"
	"time"

	"go.uber.org/zap"

	"github.com/sells-group/canvass/internal/geo"
	"github.com/sells-group/canvass/internal/metrics"
	"github.com/sells-group/canvass/internal/model"
)

// NoClusteringZoom is the zoom at and above which every pin stands alone.
const NoClusteringZoom = 18

// Cluster is a transient grouping of businesses valid for one zoom level and
// business set.
type Cluster struct {
	Members  []model.Business `json:"members"`
	Centroid geo.Coordinate   `json:"centroid"`
	Status   model.Status     `json:"status"`
}

// IsSingleton reports whether the cluster holds exactly one business.
func (c Cluster) IsSingleton() bool { return len(c.Members) == 1 }

// IDs returns member ids in member order.
func (c Cluster) IDs() []string {
	ids := make([]string, len(c.Members))
	for i, b := range c.Members {
		ids[i] = b.ID
	}
	return ids
}

// Coordinates returns member coordinates in member order. Members are always
// locatable because Build filters them first.
func (c Cluster) Coordinates() []geo.Coordinate {
	return coordinates(c.Members)
}

// Radius returns the grouping distance in meters for zoom: 1000m at zoom 10,
// halving with each zoom level.
func Radius(zoom int) float64 {
	return 1000 / math.Pow(2, float64(zoom-10))
}

// Build groups businesses for zoom. Businesses with a missing or non-finite
// coordinate are skipped. Output order follows the first member of each group
// in input order, and identical input yields identical output.
func Build(businesses []model.Business, zoom int) []Cluster {
	start := time.Now()
	defer func() {
		metrics.ClusterBuildsTotal.Inc()
		metrics.ClusterBuildDurationMs.Observe(float64(time.Since(start).Microseconds()) / 1000)
	}()

	items := Locatable(businesses)

	if zoom >= NoClusteringZoom {
		out := make([]Cluster, len(items))
		for i, b := range items {
			out[i] = Cluster{
				Members:  []model.Business{b},
				Centroid: *b.Location,
				Status:   b.Status,
			}
		}
		return out
	}

	groups := seedGroups(items, Radius(zoom))
	out := make([]Cluster, len(groups))
	for i, g := range groups {
		out[i] = newCluster(g)
	}
	return out
}

// Locatable returns the businesses that carry a finite coordinate, logging
// each one it drops.
func Locatable(businesses []model.Business) []model.Business {
	out := make([]model.Business, 0, len(businesses))
	for _, b := range businesses {
		if _, ok := b.Coordinate(); !ok {
			metrics.SkippedBusinessesTotal.Inc()
			zap.L().Warn("cluster: skipping business without usable coordinate",
				zap.String("business_id", b.ID),
				zap.Bool("has_location", b.Location != nil),
			)
			continue
		}
		out = append(out, b)
	}
	return out
}

func newCluster(members []model.Business) Cluster {
	return Cluster{
		Members:  members,
		Centroid: geo.Mean(coordinates(members)),
		Status:   RepresentativeStatus(members),
	}
}

// RepresentativeStatus returns the most frequent member status. Ties go to the
// status that appears first in member order.
func RepresentativeStatus(members []model.Business) model.Status {
	if len(members) == 0 {
		return ""
	}
	counts := make(map[model.Status]int)
	var order []model.Status
	for _, b := range members {
		if _, ok := counts[b.Status]; !ok {
			order = append(order, b.Status)
		}
		counts[b.Status]++
	}
	best := order[0]
	for _, s := range order[1:] {
		if counts[s] > counts[best] {
			best = s
		}
	}
	return best
}

// seedGroups partitions items in order. Each unassigned item seeds a group and
// absorbs every later unassigned item strictly closer than within meters to
// the seed.
func seedGroups(items []model.Business, within float64) [][]model.Business {
	used := make([]bool, len(items))
	var groups [][]model.Business
	for i := range items {
		if used[i] {
			continue
		}
		used[i] = true
		seed := *items[i].Location
		group := []model.Business{items[i]}
		for j := i + 1; j < len(items); j++ {
			if used[j] {
				continue
			}
			if geo.Distance(seed, *items[j].Location) < within {
				group = append(group, items[j])
				used[j] = true
			}
		}
		groups = append(groups, group)
	}
	return groups
}

func coordinates(members []model.Business) []geo.Coordinate {
	out := make([]geo.Coordinate, 0, len(members))
	for _, b := range members {
		if c, ok := b.Coordinate(); ok {
			out = append(out, c)
		}
	}
	return out
}
