package render

import (
	"fmt"
	"html"
	"strings"

	"github.com/sells-group/canvass/internal/marker"
)

// NativeName identifies the native map SDK backend.
const NativeName = "native"

const (
	nativePinSize = 24

	nativeImg     = `<img src='%s' style='width:24px;height:24px;border-radius:50%%;border:2px solid #fff;box-shadow:0 2px 4px rgba(0,0,0,0.2);background:#fff;' />`
	nativeText    = `<div style='font-size:24px;line-height:24px;'>%s</div>`
	nativeDot     = `<div style='background:%s;border-radius:50%%;width:24px;height:24px;display:flex;align-items:center;justify-content:center;border:2px solid #fff;box-shadow:0 2px 4px rgba(0,0,0,0.2);'></div>`
	nativeCluster = `<div style='background:%s;border-radius:24px;width:48px;height:48px;display:flex;align-items:center;justify-content:center;border:3px solid #fff;box-shadow:0 2px 4px rgba(0,0,0,0.2);'><span style='color:#fff;font-weight:bold;font-size:18px;'>%d</span></div>`
)

var nativeImagePrefixes = []string{
	"data:image/svg+xml;base64,",
	"data:image/png;base64,",
	"data:image/jpeg;base64,",
}

// Native renders HTML marker bodies for a native map SDK web view.
type Native struct{}

// Name implements Adapter.
func (Native) Name() string { return NativeName }

// Render implements Adapter.
func (Native) Render(f Frame) Scene {
	return renderWith(NativeName, f, nativeSpec)
}

func nativeSpec(d marker.Descriptor) MarkerSpec {
	s := MarkerSpec{
		ID:        d.ID,
		Position:  d.Position,
		Title:     d.Label,
		IsCluster: d.IsCluster,
		Count:     d.Count,
		Size:      [2]int{nativePinSize, nativePinSize},
		Anchor:    [2]int{nativePinSize / 2, nativePinSize / 2},
	}
	switch {
	case d.IsCluster:
		s.IconHTML = fmt.Sprintf(nativeCluster, d.Color, d.Count)
		s.Size = [2]int{marker.ClusterSize, marker.ClusterSize}
		s.Anchor = [2]int{marker.ClusterSize / 2, marker.ClusterSize / 2}
	case d.Icon != "" && isImageURI(string(d.Icon)):
		s.IconHTML = fmt.Sprintf(nativeImg, html.EscapeString(string(d.Icon)))
	case d.Icon != "":
		s.IconHTML = fmt.Sprintf(nativeText, html.EscapeString(string(d.Icon)))
	default:
		s.IconHTML = fmt.Sprintf(nativeDot, d.Color)
	}
	return s
}

func isImageURI(s string) bool {
	for _, p := range nativeImagePrefixes {
		if strings.HasPrefix(s, p) {
			return true
		}
	}
	return false
}
