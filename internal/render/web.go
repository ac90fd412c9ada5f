package render

import (
	"encoding/base64"
	"fmt"
	"regexp"
	"strings"

	"github.com/sells-group/canvass/internal/marker"
	"github.com/sells-group/canvass/internal/model"
)

// WebName identifies the browser tile-map backend.
const WebName = "web"

const (
	svgDataPrefix = "data:image/svg+xml;base64,"
	customSize    = 36
	pinHeight     = 48
)

const pinSVG = `<svg xmlns='http://www.w3.org/2000/svg' width='32' height='48' viewBox='0 0 32 48'>` +
	`<defs><filter id='shadow' x='-50%%' y='-50%%' width='200%%' height='200%%'>` +
	`<feDropShadow dx='0' dy='2' stdDeviation='2' flood-color='rgba(0,0,0,0.3)'/></filter></defs>` +
	`<path d='M16 0C7.2 0 0 7.2 0 16c0 9.6 16 32 16 32s16-22.4 16-32C32 7.2 24.8 0 16 0z' fill='%[1]s' filter='url(#shadow)'/>` +
	`<circle cx='16' cy='16' r='6' fill='white' opacity='0.9'/>` +
	`<circle cx='16' cy='16' r='3' fill='%[1]s'/></svg>`

const clusterHTML = `<div style="background:%s;border-radius:50%%;width:48px;height:48px;display:flex;` +
	`align-items:center;justify-content:center;border:3px solid #fff;box-shadow:0 2px 8px rgba(0,0,0,0.2);` +
	`font-size:18px;font-weight:bold;color:#fff;">%d</div>`

var (
	fillAttr    = regexp.MustCompile(`(?i)fill=["'](#[a-f0-9]{3,6}|[a-z]+)["']`)
	fillStyle   = regexp.MustCompile(`(?i)fill:\s*(#[a-f0-9]{3,6}|[a-z]+);?`)
	anyFill     = regexp.MustCompile(`fill=`)
	firstShape  = regexp.MustCompile(`(?i)<(path|circle|rect)(\s|>|/)`)
	svgOpenTag  = regexp.MustCompile(`(?i)<svg[\s>]`)
	dataURIHead = regexp.MustCompile(`^data:image/[a-z+]+;base64,`)
)

// Web renders for a browser tile map: SVG pins as data URIs and HTML cluster
// badges.
type Web struct{}

// Name implements Adapter.
func (Web) Name() string { return WebName }

// Render implements Adapter.
func (Web) Render(f Frame) Scene {
	return renderWith(WebName, f, webSpec)
}

func webSpec(d marker.Descriptor) MarkerSpec {
	s := MarkerSpec{
		ID:        d.ID,
		Position:  d.Position,
		Title:     d.Label,
		IsCluster: d.IsCluster,
		Count:     d.Count,
	}
	switch {
	case d.IsCluster:
		s.IconHTML = fmt.Sprintf(clusterHTML, d.Color, d.Count)
		s.Size = [2]int{marker.ClusterSize, marker.ClusterSize}
		s.Anchor = [2]int{marker.ClusterSize / 2, marker.ClusterSize}
	case d.Icon != "":
		s.IconURL = CustomIconURL(d.Icon, d.Color)
		s.Size = [2]int{customSize, customSize}
		s.Anchor = [2]int{customSize / 2, customSize}
	default:
		s.IconURL = PinURL(d.Color)
		s.Size = [2]int{marker.PinSize, pinHeight}
		s.Anchor = [2]int{marker.PinSize / 2, pinHeight}
	}
	return s
}

// PinURL returns the default teardrop pin filled with color.
func PinURL(color string) string {
	return svgDataPrefix + base64.StdEncoding.EncodeToString(fmt.Appendf(nil, pinSVG, color))
}

// CustomIconURL turns an icon payload into an image URL. SVG payloads, given
// as raw base64 or an SVG data URI, are recolored with color. Other data URIs
// pass through, and other base64 payloads are treated as PNG.
func CustomIconURL(icon model.Icon, color string) string {
	payload := string(icon)
	if strings.HasPrefix(payload, svgDataPrefix) {
		payload = strings.TrimPrefix(payload, svgDataPrefix)
	} else if dataURIHead.MatchString(payload) {
		return payload
	}

	raw, err := base64.StdEncoding.DecodeString(payload)
	if err != nil || !svgOpenTag.Match(raw) {
		return "data:image/png;base64," + payload
	}
	return svgDataPrefix + base64.StdEncoding.EncodeToString([]byte(RecolorSVG(string(raw), color)))
}

// RecolorSVG rewrites fill attributes and fill style declarations to color.
// An SVG without any fill gets one on its first path, circle or rect.
func RecolorSVG(svg, color string) string {
	out := fillAttr.ReplaceAllLiteralString(svg, `fill="`+color+`"`)
	out = fillStyle.ReplaceAllLiteralString(out, "fill:"+color+";")
	if !anyFill.MatchString(out) {
		if loc := firstShape.FindStringSubmatchIndex(out); loc != nil {
			// Insert after the tag name.
			at := loc[3]
			out = out[:at] + ` fill="` + color + `"` + out[at:]
		}
	}
	return out
}
