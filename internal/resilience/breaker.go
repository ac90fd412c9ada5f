package resilience

import (
	"sync"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// State is a breaker state.
type State int

// Breaker states.
const (
	Closed State = iota
	Open
	HalfOpen
)

func (s State) String() string {
	switch s {
	case Closed:
		return "closed"
	case Open:
		return "open"
	case HalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// ErrOpen is returned by Allow while the breaker is open.
var ErrOpen = eris.New("resilience: circuit open")

// Breaker opens after Threshold consecutive failures and lets one probe
// through once Cooldown has passed since the last failure.
type Breaker struct {
	name      string
	threshold int
	cooldown  time.Duration
	now       func() time.Time

	mu          sync.Mutex
	state       State
	failures    int
	lastFailure time.Time
}

// NewBreaker creates a closed breaker. Non-positive arguments take defaults
// of 5 failures and 30s.
func NewBreaker(name string, threshold int, cooldown time.Duration) *Breaker {
	if threshold <= 0 {
		threshold = 5
	}
	if cooldown <= 0 {
		cooldown = 30 * time.Second
	}
	return &Breaker{name: name, threshold: threshold, cooldown: cooldown, now: time.Now}
}

// Allow reports whether a call may proceed.
func (b *Breaker) Allow() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.state != Open {
		return nil
	}
	if b.now().Sub(b.lastFailure) < b.cooldown {
		return eris.Wrapf(ErrOpen, "%s", b.name)
	}
	b.transition(HalfOpen)
	return nil
}

// Record feeds the outcome of an allowed call back into the breaker.
func (b *Breaker) Record(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err == nil {
		b.failures = 0
		if b.state != Closed {
			b.transition(Closed)
		}
		return
	}
	b.failures++
	b.lastFailure = b.now()
	if b.state == HalfOpen || b.failures >= b.threshold {
		b.transition(Open)
	}
}

// State returns the current state. An open breaker past its cooldown reports
// HalfOpen.
func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.state == Open && b.now().Sub(b.lastFailure) >= b.cooldown {
		return HalfOpen
	}
	return b.state
}

func (b *Breaker) transition(to State) {
	if b.state == to {
		return
	}
	zap.L().Info("resilience: breaker state change",
		zap.String("breaker", b.name),
		zap.Stringer("from", b.state),
		zap.Stringer("to", to),
	)
	b.state = to
}
