// Package nav passes one-shot messages between the map and list screens.
// Receive reads and clears in one step, so a message is delivered at most
// once.
package nav

import (
	"sync"

	"github.com/sells-group/canvass/internal/geo"
)

// Screen names a message destination.
type Screen string

// Screens.
const (
	MapScreen  Screen = "map"
	ListScreen Screen = "list"
)

// Message is a navigation intent addressed to one screen.
type Message interface {
	Destination() Screen
}

// SelectBusiness asks the map to select a business and fly to it. A nil
// Center means the map should look up the business location. ForceZoom 0
// means the map default.
type SelectBusiness struct {
	BusinessID string          `json:"business_id"`
	Center     *geo.Coordinate `json:"center,omitempty"`
	ForceZoom  int             `json:"force_zoom,omitempty"`
}

// Destination implements Message.
func (SelectBusiness) Destination() Screen { return MapScreen }

// EditBusiness asks the list to open the edit form for a business.
type EditBusiness struct {
	BusinessID string `json:"business_id"`
}

// Destination implements Message.
func (EditBusiness) Destination() Screen { return ListScreen }

// Bus holds at most one pending message per screen. A newer message replaces
// an unread one.
type Bus struct {
	mu      sync.Mutex
	pending map[Screen]Message
}

// NewBus creates an empty Bus.
func NewBus() *Bus {
	return &Bus{pending: make(map[Screen]Message)}
}

// Send queues m for its destination. A nil m is ignored.
func (b *Bus) Send(m Message) {
	if m == nil {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.pending[m.Destination()] = m
}

// Receive returns and clears the pending message for s.
func (b *Bus) Receive(s Screen) (Message, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	m, ok := b.pending[s]
	if ok {
		delete(b.pending, s)
	}
	return m, ok
}
