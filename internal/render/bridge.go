package render

import (
	"context"
	"encoding/json"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/canvass/internal/geo"
	"github.com/sells-group/canvass/internal/viewport"
)

// Native bridge event names.
const (
	EventMarkerClicked = "onMapMarkerClicked"
	EventMapClicked    = "onMapClicked"
	EventZoomChanged   = "onZoomLevelsChange"
	EventMoveStart     = "onMoveStart"
	EventMoveEnd       = "onMoveEnd"
)

type bridgeMessage struct {
	Event   string         `json:"event"`
	Zoom    float64        `json:"zoom"`
	Payload *bridgePayload `json:"payload"`
}

type bridgePayload struct {
	ID          string    `json:"id"`
	MapMarkerID string    `json:"mapMarkerID"`
	Coords      []float64 `json:"coords"`
	TouchLatLng *bridgeLL `json:"touchLatLng"`
}

type bridgeLL struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Dispatch decodes one message posted by the native web view and forwards it
// to ev. Unknown events and payloads missing their fields are ignored.
func Dispatch(ctx context.Context, raw []byte, ev Events) error {
	var msg bridgeMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		return eris.Wrap(err, "render: decode bridge message")
	}

	switch msg.Event {
	case EventMarkerClicked:
		if msg.Payload == nil {
			return nil
		}
		id := msg.Payload.ID
		if id == "" {
			id = msg.Payload.MapMarkerID
		}
		if id != "" {
			ev.MarkerPressed(id)
		}
	case EventMapClicked:
		at, ok := msg.Payload.coordinate()
		if !ok {
			return nil
		}
		return ev.MapPressed(ctx, at)
	case EventZoomChanged:
		if zoom := viewport.RoundZoom(msg.Zoom); zoom > 0 {
			ev.ZoomChanged(zoom)
		}
	case EventMoveEnd:
		ev.InteractionEnded()
	case EventMoveStart:
	default:
		zap.L().Debug("render: ignoring bridge event", zap.String("event", msg.Event))
	}
	return nil
}

func (p *bridgePayload) coordinate() (geo.Coordinate, bool) {
	if p == nil {
		return geo.Coordinate{}, false
	}
	var c geo.Coordinate
	switch {
	case len(p.Coords) >= 2:
		c = geo.Coordinate{Latitude: p.Coords[0], Longitude: p.Coords[1]}
	case p.TouchLatLng != nil:
		c = geo.Coordinate{Latitude: p.TouchLatLng.Lat, Longitude: p.TouchLatLng.Lng}
	default:
		return geo.Coordinate{}, false
	}
	return c, c.Valid()
}
