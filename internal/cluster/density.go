package cluster

import (
	"github.com/sells-group/canvass/internal/geo"
)

const (
	// DensityRadiusMeters groups pins into dense pockets regardless of zoom.
	DensityRadiusMeters = 100

	// spanPadding widens the cluster extent on each side before picking a zoom.
	spanPadding = 0.1
)

// Target is a viewport destination computed for a cluster click.
type Target struct {
	Center geo.Coordinate `json:"center"`
	Zoom   int            `json:"zoom"`
}

// zoomBreakpoints map a padded span in degrees to a zoom, checked in order.
var zoomBreakpoints = []struct {
	minSpan float64
	zoom    int
}{
	{0.1, 10},
	{0.05, 12},
	{0.02, 14},
	{0.01, 16},
}

// Resolve picks a viewport for a multi-member cluster. The center is the mean
// of the densest 100m pocket; the zoom is chosen from the padded span of the
// whole cluster, so outlying members can fall outside the frame once the view
// is centered on the pocket. Resolve reports false for clusters with fewer than
// two members.
func Resolve(c Cluster) (Target, bool) {
	members := Locatable(c.Members)
	if len(members) < 2 {
		return Target{}, false
	}

	pockets := seedGroups(members, DensityRadiusMeters)
	densest := pockets[0]
	for _, p := range pockets[1:] {
		if len(p) > len(densest) {
			densest = p
		}
	}

	return Target{
		Center: geo.Mean(coordinates(densest)),
		Zoom:   ZoomForSpan(geo.Extent(coordinates(members)).Span(spanPadding)),
	}, true
}

// ZoomForSpan maps a span in degrees to a zoom level no greater than
// NoClusteringZoom.
func ZoomForSpan(span float64) int {
	for _, bp := range zoomBreakpoints {
		if span > bp.minSpan {
			return bp.zoom
		}
	}
	return NoClusteringZoom
}
