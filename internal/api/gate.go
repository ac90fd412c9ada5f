package api

import (
	"net/http"

	"github.com/rotisserie/eris"
)

// Gate errors.
var (
	ErrUnauthenticated = eris.New("api: not authenticated")
	ErrNotApproved     = eris.New("api: account not approved")
)

// Gate decides whether a request may reach the application routes. It
// returns ErrUnauthenticated or ErrNotApproved to reject.
type Gate interface {
	Allow(r *http.Request) error
}

// GateFunc adapts a function to Gate.
type GateFunc func(r *http.Request) error

// Allow calls f.
func (f GateFunc) Allow(r *http.Request) error { return f(r) }

// AllowAll admits every request.
type AllowAll struct{}

// Allow always succeeds.
func (AllowAll) Allow(*http.Request) error { return nil }

func gateMiddleware(g Gate) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if err := g.Allow(r); err != nil {
				writeError(w, err)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
