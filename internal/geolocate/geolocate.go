// Package geolocate resolves the initial map center with a bounded wait and a
// fixed fallback.
package geolocate

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/canvass/internal/geo"
	"github.com/sells-group/canvass/internal/metrics"
)

// Failure reasons a Provider may return. Match with eris.Is.
var (
	ErrPermissionDenied = eris.New("geolocate: permission denied")
	ErrTimeout          = eris.New("geolocate: timed out")
	ErrUnavailable      = eris.New("geolocate: position unavailable")
)

// Provider reports the device's current position.
type Provider interface {
	CurrentPosition(ctx context.Context) (geo.Coordinate, error)
}

// ProviderFunc adapts a function to Provider.
type ProviderFunc func(ctx context.Context) (geo.Coordinate, error)

// CurrentPosition calls f.
func (f ProviderFunc) CurrentPosition(ctx context.Context) (geo.Coordinate, error) {
	return f(ctx)
}

// Fallback configures Locate.
type Fallback struct {
	Center      geo.Coordinate
	Zoom        int
	LocatedZoom int
	Timeout     time.Duration
}

// DefaultFallback centers on San Francisco and waits 15 seconds.
func DefaultFallback() Fallback {
	return Fallback{
		Center:      geo.Coordinate{Latitude: 37.78825, Longitude: -122.4324},
		Zoom:        17,
		LocatedZoom: 15,
		Timeout:     15 * time.Second,
	}
}

// Result is the resolved initial viewport.
type Result struct {
	Center  geo.Coordinate `json:"center"`
	Zoom    int            `json:"zoom"`
	Located bool           `json:"located"`
	Err     error          `json:"-"`
}

// Locate asks p for the current position, waiting at most fb.Timeout. Any
// failure yields the fallback center and zoom with Err set to one of the
// package sentinels. A nil p is treated as permission denied.
func Locate(ctx context.Context, p Provider, fb Fallback) Result {
	if p == nil {
		return fallback(fb, ErrPermissionDenied)
	}

	if fb.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, fb.Timeout)
		defer cancel()
	}

	type answer struct {
		pos geo.Coordinate
		err error
	}
	ch := make(chan answer, 1)
	go func() {
		pos, err := p.CurrentPosition(ctx)
		ch <- answer{pos, err}
	}()

	select {
	case <-ctx.Done():
		return fallback(fb, classify(ctx.Err()))
	case a := <-ch:
		if a.err != nil {
			return fallback(fb, classify(a.err))
		}
		if !a.pos.Valid() {
			return fallback(fb, ErrUnavailable)
		}
		return Result{Center: a.pos, Zoom: fb.LocatedZoom, Located: true}
	}
}

func classify(err error) error {
	switch {
	case eris.Is(err, ErrPermissionDenied), eris.Is(err, ErrTimeout), eris.Is(err, ErrUnavailable):
		return err
	case eris.Is(err, context.DeadlineExceeded):
		return ErrTimeout
	default:
		return eris.Wrap(ErrUnavailable, err.Error())
	}
}

func reason(err error) string {
	switch {
	case eris.Is(err, ErrPermissionDenied):
		return "permission_denied"
	case eris.Is(err, ErrTimeout):
		return "timeout"
	default:
		return "unavailable"
	}
}

func fallback(fb Fallback, err error) Result {
	r := reason(err)
	metrics.GeolocationFallbacksTotal.WithLabelValues(r).Inc()
	zap.L().Info("geolocate: using default center",
		zap.String("reason", r),
		zap.Float64("latitude", fb.Center.Latitude),
		zap.Float64("longitude", fb.Center.Longitude),
		zap.Error(err),
	)
	return Result{Center: fb.Center, Zoom: fb.Zoom, Err: err}
}

// Static always reports the same position.
type Static geo.Coordinate

// CurrentPosition returns the fixed position.
func (s Static) CurrentPosition(context.Context) (geo.Coordinate, error) {
	return geo.Coordinate(s), nil
}

// Denied always reports permission denied.
type Denied struct{}

// CurrentPosition returns ErrPermissionDenied.
func (Denied) CurrentPosition(context.Context) (geo.Coordinate, error) {
	return geo.Coordinate{}, ErrPermissionDenied
}
