package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/sells-group/canvass/internal/geo"
	"github.com/sells-group/canvass/internal/geolocate"
	"github.com/sells-group/canvass/internal/model"
	"github.com/sells-group/canvass/internal/viewport"
)

// Config holds the full application configuration.
type Config struct {
	Store       StoreConfig       `yaml:"store" mapstructure:"store"`
	Server      ServerConfig      `yaml:"server" mapstructure:"server"`
	Map         MapConfig         `yaml:"map" mapstructure:"map"`
	Geolocation GeolocationConfig `yaml:"geolocation" mapstructure:"geolocation"`
	Statuses    []model.StatusDef `yaml:"statuses" mapstructure:"statuses"`
	Log         LogConfig         `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the persistence backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Port           int      `yaml:"port" mapstructure:"port"`
	RateLimit      float64  `yaml:"rate_limit" mapstructure:"rate_limit"`
	AllowedOrigins []string `yaml:"allowed_origins" mapstructure:"allowed_origins"`
	// SessionTTLMins is how long an idle map session is kept.
	SessionTTLMins int `yaml:"session_ttl_mins" mapstructure:"session_ttl_mins"`
}

// MapConfig holds the initial viewport and zoom limits.
type MapConfig struct {
	DefaultLatitude  float64 `yaml:"default_latitude" mapstructure:"default_latitude"`
	DefaultLongitude float64 `yaml:"default_longitude" mapstructure:"default_longitude"`
	DefaultZoom      int     `yaml:"default_zoom" mapstructure:"default_zoom"`
	LocatedZoom      int     `yaml:"located_zoom" mapstructure:"located_zoom"`
	MinZoom          int     `yaml:"min_zoom" mapstructure:"min_zoom"`
	MaxZoom          int     `yaml:"max_zoom" mapstructure:"max_zoom"`
}

// GeolocationConfig configures the device location lookup. An empty URL
// disables it and every session starts at the fallback center.
type GeolocationConfig struct {
	URL              string `yaml:"url" mapstructure:"url"`
	TimeoutSecs      int    `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	Retries          int    `yaml:"retries" mapstructure:"retries"`
	BreakerThreshold int    `yaml:"breaker_threshold" mapstructure:"breaker_threshold"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("CANVASS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "memory")
	v.SetDefault("store.database_url", "")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.rate_limit", 20.0)
	v.SetDefault("server.allowed_origins", []string{"*"})
	v.SetDefault("server.session_ttl_mins", 30)
	v.SetDefault("map.default_latitude", 37.78825)
	v.SetDefault("map.default_longitude", -122.4324)
	v.SetDefault("map.default_zoom", 17)
	v.SetDefault("map.located_zoom", 15)
	v.SetDefault("map.min_zoom", viewport.DefaultZoomBounds.Min)
	v.SetDefault("map.max_zoom", viewport.DefaultZoomBounds.Max)
	v.SetDefault("geolocation.url", "")
	v.SetDefault("geolocation.timeout_secs", 15)
	v.SetDefault("geolocation.retries", 2)
	v.SetDefault("geolocation.breaker_threshold", 5)
	v.SetDefault("statuses", []map[string]any{
		{"key": "open", "color": "green"},
		{"key": "closed", "color": "red"},
		{"key": "pending", "color": "orange"},
	})

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// Validate checks the fields required by a command mode.
func (c *Config) Validate(mode string) error {
	var errs []string

	switch mode {
	case "serve":
		if c.Server.Port <= 0 {
			errs = append(errs, "server.port must be > 0")
		}
		if c.Server.RateLimit < 0 {
			errs = append(errs, "server.rate_limit must be >= 0")
		}
		errs = append(errs, c.validateStore()...)
		errs = append(errs, c.validateMap()...)
	case "import", "migrate":
		errs = append(errs, c.validateStore()...)
	case "cluster":
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	if len(c.Statuses) == 0 {
		errs = append(errs, "statuses must not be empty")
	}

	if len(errs) > 0 {
		return eris.New(fmt.Sprintf("config: %s", strings.Join(errs, "; ")))
	}
	return nil
}

func (c *Config) validateStore() []string {
	switch c.Store.Driver {
	case "memory":
		return nil
	case "sqlite", "postgres":
		if c.Store.DatabaseURL == "" {
			return []string{"store.database_url is required"}
		}
		return nil
	default:
		return []string{fmt.Sprintf("store.driver %q is not supported", c.Store.Driver)}
	}
}

func (c *Config) validateMap() []string {
	var errs []string
	if c.Map.MinZoom < 0 || c.Map.MinZoom > c.Map.MaxZoom {
		errs = append(errs, "map.min_zoom must be between 0 and map.max_zoom")
	}
	if !c.Map.Center().Valid() {
		errs = append(errs, "map default center must be finite")
	}
	return errs
}

// StatusSet builds the configured status registry.
func (c *Config) StatusSet() *model.StatusSet {
	if len(c.Statuses) == 0 {
		return model.DefaultStatuses()
	}
	return model.NewStatusSet(c.Statuses...)
}

// Center returns the default viewport center.
func (m MapConfig) Center() geo.Coordinate {
	return geo.Coordinate{Latitude: m.DefaultLatitude, Longitude: m.DefaultLongitude}
}

// ZoomBounds returns the configured zoom limits.
func (m MapConfig) ZoomBounds() viewport.ZoomBounds {
	return viewport.ZoomBounds{Min: m.MinZoom, Max: m.MaxZoom}
}

// Fallback returns the geolocation fallback derived from the map section.
func (c *Config) Fallback() geolocate.Fallback {
	fb := geolocate.DefaultFallback()
	fb.Center = c.Map.Center()
	if c.Map.DefaultZoom > 0 {
		fb.Zoom = c.Map.DefaultZoom
	}
	if c.Map.LocatedZoom > 0 {
		fb.LocatedZoom = c.Map.LocatedZoom
	}
	if c.Geolocation.TimeoutSecs > 0 {
		fb.Timeout = time.Duration(c.Geolocation.TimeoutSecs) * time.Second
	}
	return fb
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
