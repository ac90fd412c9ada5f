package render

import (
	"context"
	"encoding/base64"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/canvass/internal/geo"
	"github.com/sells-group/canvass/internal/marker"
	"github.com/sells-group/canvass/internal/model"
	"github.com/sells-group/canvass/internal/viewport"
)

func decodeSVG(t *testing.T, url string) string {
	t.Helper()
	require.True(t, strings.HasPrefix(url, svgDataPrefix), url)
	raw, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(url, svgDataPrefix))
	require.NoError(t, err)
	return string(raw)
}

func sampleFrame() Frame {
	pos := geo.Coordinate{Latitude: 37.7882, Longitude: -122.4324}
	return Frame{
		Center: pos,
		Zoom:   14,
		FlyTo:  &viewport.FlyTo{Center: pos, Zoom: 16},
		Markers: []marker.Descriptor{
			{ID: "b1", Position: pos, Count: 1, Color: "green", Label: "Cafe"},
			{ID: "cluster:b2,b3", Position: pos, IsCluster: true, Count: 2, Color: "red", Label: "2 businesses"},
			{ID: "", Position: pos, Color: "green"},
			{ID: "bad", Position: geo.Coordinate{Latitude: math.NaN()}, Color: "green"},
		},
	}
}

func TestWeb_Render(t *testing.T) {
	s := Web{}.Render(sampleFrame())
	assert.Equal(t, WebName, s.Backend)
	assert.Equal(t, 14, s.Zoom)
	require.NotNil(t, s.FlyTo)
	require.Len(t, s.Markers, 2, "markers without id or position are skipped")

	pin := s.Markers[0]
	assert.Equal(t, [2]int{32, 48}, pin.Size)
	assert.Equal(t, [2]int{16, 48}, pin.Anchor)
	assert.Contains(t, decodeSVG(t, pin.IconURL), "fill='green'")
	assert.Equal(t, "Cafe", pin.Title)

	badge := s.Markers[1]
	assert.True(t, badge.IsCluster)
	assert.Equal(t, [2]int{48, 48}, badge.Size)
	assert.Contains(t, badge.IconHTML, "background:red")
	assert.Contains(t, badge.IconHTML, ">2</div>")
}

func TestWeb_CustomIconSize(t *testing.T) {
	f := Frame{Markers: []marker.Descriptor{{
		ID:       "b1",
		Position: geo.Coordinate{Latitude: 1, Longitude: 1},
		Icon:     model.Icon(base64.StdEncoding.EncodeToString([]byte(`<svg><path d="M0"/></svg>`))),
		Color:    "orange",
	}}}
	s := Web{}.Render(f)
	require.Len(t, s.Markers, 1)
	assert.Equal(t, [2]int{36, 36}, s.Markers[0].Size)
	assert.Equal(t, `<svg><path fill="orange" d="M0"/></svg>`, decodeSVG(t, s.Markers[0].IconURL))
}

func TestRecolorSVG(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "attribute fills",
			in:   `<svg><path fill="#000" d="M0"/><circle fill='black'/></svg>`,
			want: `<svg><path fill="red" d="M0"/><circle fill="red"/></svg>`,
		},
		{
			name: "style fills",
			in:   `<svg><rect style="fill:#123456;stroke:none"/></svg>`,
			want: `<svg><rect fill="red" style="fill:red;stroke:none"/></svg>`,
		},
		{
			name: "no fill injects on first shape",
			in:   `<svg><g><circle r="3"/><rect/></g></svg>`,
			want: `<svg><g><circle fill="red" r="3"/><rect/></g></svg>`,
		},
		{
			name: "no shapes left alone",
			in:   `<svg><text>x</text></svg>`,
			want: `<svg><text>x</text></svg>`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, RecolorSVG(tt.in, "red"))
		})
	}
}

func TestCustomIconURL(t *testing.T) {
	png := "data:image/png;base64,iVBORw0KGgo="
	assert.Equal(t, png, CustomIconURL(model.Icon(png), "red"))

	svgURI := svgDataPrefix + base64.StdEncoding.EncodeToString([]byte(`<svg><path fill="blue"/></svg>`))
	assert.Equal(t, `<svg><path fill="green"/></svg>`, decodeSVG(t, CustomIconURL(model.Icon(svgURI), "green")))

	raw := base64.StdEncoding.EncodeToString([]byte{0x89, 'P', 'N', 'G'})
	assert.Equal(t, "data:image/png;base64,"+raw, CustomIconURL(model.Icon(raw), "green"))
}

func TestNative_Render(t *testing.T) {
	f := sampleFrame()
	f.Markers = append(f.Markers,
		marker.Descriptor{ID: "img", Position: f.Center, Icon: "data:image/png;base64,AAA", Color: "green"},
		marker.Descriptor{ID: "emoji", Position: f.Center, Icon: "<b>☕</b>", Color: "green"},
	)
	s := Native{}.Render(f)
	assert.Equal(t, NativeName, s.Backend)
	require.Len(t, s.Markers, 4)

	assert.Equal(t, [2]int{24, 24}, s.Markers[0].Size)
	assert.Contains(t, s.Markers[0].IconHTML, "background:green")

	assert.Equal(t, [2]int{48, 48}, s.Markers[1].Size)
	assert.Contains(t, s.Markers[1].IconHTML, ">2</span>")

	assert.True(t, strings.HasPrefix(s.Markers[2].IconHTML, "<img src='data:image/png;base64,AAA'"))
	assert.Contains(t, s.Markers[3].IconHTML, "&lt;b&gt;☕&lt;/b&gt;")
}

func TestByName(t *testing.T) {
	assert.Equal(t, NativeName, ByName("native").Name())
	assert.Equal(t, WebName, ByName("web").Name())
	assert.Equal(t, WebName, ByName("").Name())
}

type recorder struct {
	pressed []string
	mapped  []geo.Coordinate
	zooms   []int
	ended   int
}

func (r *recorder) MarkerPressed(id string) bool {
	r.pressed = append(r.pressed, id)
	return true
}

func (r *recorder) MapPressed(_ context.Context, at geo.Coordinate) error {
	r.mapped = append(r.mapped, at)
	return nil
}

func (r *recorder) ZoomChanged(zoom int) { r.zooms = append(r.zooms, zoom) }

func (r *recorder) InteractionEnded() { r.ended++ }

func TestDispatch(t *testing.T) {
	ctx := context.Background()
	r := &recorder{}

	msgs := []string{
		`{"event":"onMapMarkerClicked","payload":{"id":"b1"}}`,
		`{"event":"onMapMarkerClicked","payload":{"mapMarkerID":"b2"}}`,
		`{"event":"onMapMarkerClicked","payload":{}}`,
		`{"event":"onMapMarkerClicked"}`,
		`{"event":"onMapClicked","payload":{"coords":[37.1,-122.2],"type":"long"}}`,
		`{"event":"onMapClicked","payload":{"touchLatLng":{"lat":37.3,"lng":-122.4}}}`,
		`{"event":"onMapClicked","payload":{}}`,
		`{"event":"onZoomLevelsChange","zoom":13}`,
		`{"event":"onZoomLevelsChange","zoom":14.6}`,
		`{"event":"onZoomLevelsChange"}`,
		`{"event":"onMoveStart"}`,
		`{"event":"onMoveEnd"}`,
		`{"event":"onRegionDidChange"}`,
	}
	for _, m := range msgs {
		require.NoError(t, Dispatch(ctx, []byte(m), r), m)
	}

	assert.Equal(t, []string{"b1", "b2"}, r.pressed)
	assert.Equal(t, []geo.Coordinate{
		{Latitude: 37.1, Longitude: -122.2},
		{Latitude: 37.3, Longitude: -122.4},
	}, r.mapped)
	assert.Equal(t, []int{13, 15}, r.zooms)
	assert.Equal(t, 1, r.ended)

	assert.Error(t, Dispatch(ctx, []byte(`{`), r))
}
