package main

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/canvass/internal/api"
	"github.com/sells-group/canvass/internal/geolocate"
	"github.com/sells-group/canvass/internal/resilience"
	"github.com/sells-group/canvass/internal/store"
)

const shutdownTimeout = 10 * time.Second

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the canvassing HTTP server",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate("serve"); err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		st, closeStore, err := initState(ctx)
		if err != nil {
			return err
		}
		defer closeStore()

		return startServer(ctx, buildHandler(st), resolvePort(servePort, cfg.Server.Port))
	},
}

func resolvePort(flag, configured int) int {
	if flag != 0 {
		return flag
	}
	return configured
}

// geolocationProvider returns nil when no lookup URL is configured, which
// sessions treat as permission denied.
func geolocationProvider() geolocate.Provider {
	if cfg.Geolocation.URL == "" {
		return nil
	}
	opts := []geolocate.HTTPOption{
		geolocate.WithRateLimit(cfg.Server.RateLimit),
		geolocate.WithBreaker(resilience.NewBreaker("geolocation", cfg.Geolocation.BreakerThreshold, 30*time.Second)),
	}
	if cfg.Geolocation.Retries > 0 {
		policy := resilience.DefaultPolicy()
		policy.Attempts = cfg.Geolocation.Retries + 1
		opts = append(opts, geolocate.WithRetry(policy))
	}
	return geolocate.NewHTTPProvider(cfg.Geolocation.URL, opts...)
}

func buildHandler(st *store.State) http.Handler {
	srv := api.New(st,
		api.WithGeolocation(geolocationProvider(), cfg.Fallback()),
		api.WithZoomBounds(cfg.Map.ZoomBounds()),
		api.WithRateLimit(cfg.Server.RateLimit),
		api.WithAllowedOrigins(cfg.Server.AllowedOrigins),
		api.WithSessionTTL(time.Duration(cfg.Server.SessionTTLMins)*time.Minute),
	)
	return srv.Handler()
}

// startServer serves h until ctx is cancelled, then shuts down gracefully.
func startServer(ctx context.Context, h http.Handler, port int) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		zap.L().Info("starting server", zap.Int("port", port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "server listen")
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		zap.L().Info("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return eris.Wrap(srv.Shutdown(shutdownCtx), "server shutdown")
	})
	return g.Wait()
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}
