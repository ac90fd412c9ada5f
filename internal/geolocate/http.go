package geolocate

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"

	"github.com/sells-group/canvass/internal/geo"
	"github.com/sells-group/canvass/internal/resilience"
)

// maxResponseBytes bounds a lookup response body.
const maxResponseBytes = 64 << 10

type clientIPKey struct{}

// WithClientIP returns a context carrying the IP of the user being located.
// HTTPProvider looks up that address instead of the server's own.
func WithClientIP(ctx context.Context, ip string) context.Context {
	return context.WithValue(ctx, clientIPKey{}, ip)
}

// ClientIP returns the IP stored by WithClientIP.
func ClientIP(ctx context.Context) string {
	ip, _ := ctx.Value(clientIPKey{}).(string)
	return ip
}

// ipLookupResponse is the JSON body of an ip-api style lookup.
type ipLookupResponse struct {
	Status  string  `json:"status"`
	Message string  `json:"message"`
	Lat     float64 `json:"lat"`
	Lon     float64 `json:"lon"`
}

// HTTPOption configures an HTTPProvider.
type HTTPOption func(*HTTPProvider)

// WithHTTPClient sets the HTTP client used for lookups.
func WithHTTPClient(hc *http.Client) HTTPOption {
	return func(p *HTTPProvider) {
		p.httpClient = hc
	}
}

// WithRateLimit sets the requests-per-second limit for lookups.
func WithRateLimit(rps float64) HTTPOption {
	return func(p *HTTPProvider) {
		burst := int(rps)
		if burst < 1 {
			burst = 1
		}
		p.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

// WithRetry retries transient lookup failures (5xx, 429, network errors)
// under policy. Retries share the caller's deadline.
func WithRetry(policy resilience.Policy) HTTPOption {
	return func(p *HTTPProvider) {
		p.retry = &policy
	}
}

// WithBreaker stops issuing lookups while b is open.
func WithBreaker(b *resilience.Breaker) HTTPOption {
	return func(p *HTTPProvider) {
		p.breaker = b
	}
}

// HTTPProvider locates the caller by IP through an ip-api compatible endpoint.
type HTTPProvider struct {
	url        string
	httpClient *http.Client
	limiter    *rate.Limiter
	retry      *resilience.Policy
	breaker    *resilience.Breaker
}

// NewHTTPProvider creates a provider querying endpoint, e.g.
// http://ip-api.com/json. When the context carries a client IP the request
// goes to endpoint/<ip>.
func NewHTTPProvider(endpoint string, opts ...HTTPOption) *HTTPProvider {
	p := &HTTPProvider{
		url:        endpoint,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		limiter:    rate.NewLimiter(1, 1),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// CurrentPosition looks up the caller's position. A 401/403 maps to
// ErrPermissionDenied; an open breaker, a failed status or a "fail" body map
// to ErrUnavailable.
func (p *HTTPProvider) CurrentPosition(ctx context.Context) (geo.Coordinate, error) {
	if p.breaker != nil {
		if err := p.breaker.Allow(); err != nil {
			return geo.Coordinate{}, eris.Wrap(ErrUnavailable, err.Error())
		}
	}

	var (
		c   geo.Coordinate
		err error
	)
	if p.retry != nil {
		c, err = resilience.Retry(ctx, *p.retry, "geolocate", p.lookup)
	} else {
		c, err = p.lookup(ctx)
	}

	if p.breaker != nil && !eris.Is(err, ErrPermissionDenied) {
		p.breaker.Record(err)
	}
	return c, err
}

func (p *HTTPProvider) lookup(ctx context.Context) (geo.Coordinate, error) {
	if err := p.limiter.Wait(ctx); err != nil {
		return geo.Coordinate{}, eris.Wrap(err, "geolocate: rate limit")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.lookupURL(ctx), nil)
	if err != nil {
		return geo.Coordinate{}, eris.Wrap(err, "geolocate: build request")
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return geo.Coordinate{}, resilience.Transient(eris.Wrap(err, "geolocate: request"), 0)
	}
	defer resp.Body.Close() //nolint:errcheck

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusUnauthorized, http.StatusForbidden:
		return geo.Coordinate{}, ErrPermissionDenied
	default:
		err := eris.Wrapf(ErrUnavailable, "geolocate: lookup returned status %d", resp.StatusCode)
		if resilience.TransientStatus(resp.StatusCode) {
			return geo.Coordinate{}, resilience.Transient(err, resp.StatusCode)
		}
		return geo.Coordinate{}, err
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return geo.Coordinate{}, eris.Wrap(err, "geolocate: read body")
	}

	var out ipLookupResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return geo.Coordinate{}, eris.Wrap(err, "geolocate: parse response")
	}
	if out.Status != "success" {
		return geo.Coordinate{}, eris.Wrapf(ErrUnavailable, "geolocate: lookup failed: %s", out.Message)
	}

	return geo.Coordinate{Latitude: out.Lat, Longitude: out.Lon}, nil
}

func (p *HTTPProvider) lookupURL(ctx context.Context) string {
	ip := ClientIP(ctx)
	if ip == "" {
		return p.url
	}
	return strings.TrimRight(p.url, "/") + "/" + url.PathEscape(ip)
}
