package model

// Status is a business visit status key.
type Status string

// Built-in status keys.
const (
	StatusOpen    Status = "open"
	StatusClosed  Status = "closed"
	StatusPending Status = "pending"
)

// UnknownStatusColor is used for statuses missing from the StatusSet.
const UnknownStatusColor = "#6c757d"

// StatusDef pairs a status key with its display color.
type StatusDef struct {
	Key   Status `json:"key" yaml:"key" mapstructure:"key"`
	Color string `json:"color" yaml:"color" mapstructure:"color"`
}

// StatusSet is an insertion-ordered set of statuses and their colors.
type StatusSet struct {
	order  []Status
	colors map[Status]string
}

// NewStatusSet builds a StatusSet. A repeated key keeps its first position and
// takes the latest color. Empty keys are ignored.
func NewStatusSet(defs ...StatusDef) *StatusSet {
	s := &StatusSet{colors: make(map[Status]string, len(defs))}
	for _, d := range defs {
		if d.Key == "" {
			continue
		}
		if _, ok := s.colors[d.Key]; !ok {
			s.order = append(s.order, d.Key)
		}
		s.colors[d.Key] = d.Color
	}
	return s
}

// DefaultStatuses returns open/closed/pending with their standard colors.
func DefaultStatuses() *StatusSet {
	return NewStatusSet(
		StatusDef{Key: StatusOpen, Color: "green"},
		StatusDef{Key: StatusClosed, Color: "red"},
		StatusDef{Key: StatusPending, Color: "orange"},
	)
}

// Keys returns the statuses in insertion order.
func (s *StatusSet) Keys() []Status {
	out := make([]Status, len(s.order))
	copy(out, s.order)
	return out
}

// Has reports whether st is registered.
func (s *StatusSet) Has(st Status) bool {
	_, ok := s.colors[st]
	return ok
}

// Color returns the display color for st, or UnknownStatusColor.
func (s *StatusSet) Color(st Status) string {
	if c, ok := s.colors[st]; ok && c != "" {
		return c
	}
	return UnknownStatusColor
}

// Default returns the first registered status, or StatusOpen for an empty set.
func (s *StatusSet) Default() Status {
	if len(s.order) == 0 {
		return StatusOpen
	}
	return s.order[0]
}
