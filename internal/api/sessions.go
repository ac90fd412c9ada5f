package api

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"

	"github.com/sells-group/canvass/internal/cluster"
	"github.com/sells-group/canvass/internal/geolocate"
	"github.com/sells-group/canvass/internal/nav"
	"github.com/sells-group/canvass/internal/screen"
	"github.com/sells-group/canvass/internal/store"
	"github.com/sells-group/canvass/internal/viewport"
)

// DefaultSessionTTL is how long an untouched session is kept.
const DefaultSessionTTL = 30 * time.Minute

// Session is one client's map and list screen pair. Handlers hold mu while
// driving the screens so events for a session are applied one at a time.
type Session struct {
	ID   string
	mu   sync.Mutex
	Map  *screen.MapScreen
	List *screen.ListScreen

	touched time.Time // guarded by sessions.mu
}

// sessions expires a session once it goes ttl without a request. Expired
// entries are dropped on lookup and swept on every create.
type sessions struct {
	mu   sync.Mutex
	byID map[string]*Session
	ttl  time.Duration
	now  func() time.Time
}

func newSessions(ttl time.Duration) *sessions {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return &sessions{byID: make(map[string]*Session), ttl: ttl, now: time.Now}
}

func (s *sessions) expired(sess *Session, now time.Time) bool {
	return now.Sub(sess.touched) > s.ttl
}

// sweep removes expired sessions. Callers hold s.mu.
func (s *sessions) sweep(now time.Time) {
	for id, sess := range s.byID {
		if s.expired(sess, now) {
			delete(s.byID, id)
		}
	}
}

func (s *sessions) create(ctx context.Context, st *store.State, cache *cluster.Cache, bounds viewport.ZoomBounds, p geolocate.Provider, fb geolocate.Fallback) (*Session, geolocate.Result) {
	bus := nav.NewBus()
	view := viewport.New(bounds, fb.Center, fb.Zoom)
	sess := &Session{
		ID:   uuid.New().String(),
		Map:  screen.NewMapScreen(st, view, bus, cache),
		List: screen.NewListScreen(st, bus),
	}
	res := sess.Map.Locate(ctx, p, fb)

	s.mu.Lock()
	now := s.now()
	s.sweep(now)
	sess.touched = now
	s.byID[sess.ID] = sess
	s.mu.Unlock()
	return sess, res
}

// get returns the session and marks it as used.
func (s *sessions) get(id string) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.byID[id]
	if !ok {
		return nil, eris.Wrapf(errSessionNotFound, "session %s", id)
	}
	now := s.now()
	if s.expired(sess, now) {
		delete(s.byID, id)
		return nil, eris.Wrapf(errSessionNotFound, "session %s expired", id)
	}
	sess.touched = now
	return sess, nil
}

func (s *sessions) remove(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byID[id]; !ok {
		return false
	}
	delete(s.byID, id)
	return true
}

func (s *sessions) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.byID)
}
