package config

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/jonwraymond/routecache/cache"
	"github.com/jonwraymond/routecache/observe"
	"github.com/jonwraymond/routecache/redisstore"
	"github.com/jonwraymond/routecache/resilience"
	"github.com/jonwraymond/routecache/secret"
)

// EnvPrefix prefixes every environment variable read by Load.
const EnvPrefix = "ROUTECACHE_"

// Store backends.
const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
	BackendSQLite = "sqlite"
)

// ValidBackends lists the accepted ROUTECACHE_STORE_BACKEND values.
var ValidBackends = []string{BackendMemory, BackendRedis, BackendSQLite}

// Value codecs.
const (
	CodecSniff  = "sniff"
	CodecTagged = "tagged"
)

var (
	ErrInvalidBackend = errors.New("config: invalid store backend")
	ErrInvalidCodec   = errors.New("config: invalid store codec")
	ErrInvalidValue   = errors.New("config: invalid value")
)

// Config is the routecached configuration.
type Config struct {
	ServiceName     string        `env:"SERVICE_NAME" envDefault:"routecached"`
	ListenAddr      string        `env:"LISTEN_ADDR" envDefault:":8080"`
	LogLevel        string        `env:"LOG_LEVEL" envDefault:"normal"`
	RoutesFile      string        `env:"ROUTES_FILE"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`

	Store     Store     `envPrefix:"STORE_"`
	Breaker   Breaker   `envPrefix:"BREAKER_"`
	Redis     Redis     `envPrefix:"REDIS_"`
	SQLite    SQLite    `envPrefix:"SQLITE_"`
	Telemetry Telemetry `envPrefix:"OTEL_"`
}

// Store selects and bounds the cache store.
type Store struct {
	Backend string `env:"BACKEND" envDefault:"memory"`

	// Codec is "sniff" to store bodies verbatim or "tagged" to record
	// whether a body was raw or structured.
	Codec string `env:"CODEC" envDefault:"sniff"`

	// Timeout bounds every store Get and Set.
	Timeout       time.Duration `env:"TIMEOUT" envDefault:"250ms"`
	MaxConcurrent int           `env:"MAX_CONCURRENT" envDefault:"256"`

	// Retries is the number of extra attempts after a failed store call.
	Retries int `env:"RETRIES" envDefault:"0"`
}

// Breaker configures the circuit breaker in front of the store.
type Breaker struct {
	MaxFailures  int           `env:"MAX_FAILURES" envDefault:"5"`
	ResetTimeout time.Duration `env:"RESET_TIMEOUT" envDefault:"10s"`
}

// Redis configures the redis backend.
type Redis struct {
	URL             string        `env:"URL" envDefault:"redis://localhost:6379/0"`
	Password        string        `env:"PASSWORD"`
	DialTimeout     time.Duration `env:"DIAL_TIMEOUT" envDefault:"2s"`
	PoolSize        int           `env:"POOL_SIZE"`
	ConnectAttempts int           `env:"CONNECT_ATTEMPTS" envDefault:"3"`
	HealthInterval  time.Duration `env:"HEALTH_INTERVAL" envDefault:"5s"`
}

// SQLite configures the sqlite backend.
type SQLite struct {
	Path string `env:"PATH" envDefault:"routecache.db"`
}

// Telemetry configures tracing and metrics export.
type Telemetry struct {
	TracesExporter  string  `env:"TRACES_EXPORTER" envDefault:"none"`
	MetricsExporter string  `env:"METRICS_EXPORTER" envDefault:"none"`
	SamplePct       float64 `env:"SAMPLE_PCT" envDefault:"1"`
}

// Load reads the configuration from the environment, resolves secret
// references through secret.DefaultRegistry and validates the result.
func Load(ctx context.Context) (*Config, error) {
	res, err := secret.DefaultRegistry.Resolver(true, nil)
	if err != nil {
		return nil, err
	}
	defer func() { _ = res.Close() }()

	return LoadWith(ctx, res, nil)
}

// LoadWith is Load with an explicit resolver. When environ is non-nil it is
// used instead of the process environment for ROUTECACHE_* variables.
func LoadWith(ctx context.Context, res *secret.Resolver, environ map[string]string) (*Config, error) {
	cfg, err := env.ParseAsWithOptions[Config](env.Options{
		Prefix:      EnvPrefix,
		Environment: environ,
	})
	if err != nil {
		return nil, fmt.Errorf("config: parse environment: %w", err)
	}

	if err := cfg.resolve(ctx, res); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) resolve(ctx context.Context, res *secret.Resolver) error {
	fields := []struct {
		name string
		dst  *string
	}{
		{"REDIS_URL", &c.Redis.URL},
		{"REDIS_PASSWORD", &c.Redis.Password},
		{"SQLITE_PATH", &c.SQLite.Path},
		{"ROUTES_FILE", &c.RoutesFile},
	}
	for _, f := range fields {
		v, err := res.ResolveValue(ctx, *f.dst)
		if err != nil {
			return fmt.Errorf("config: resolve %s%s: %w", EnvPrefix, f.name, err)
		}
		*f.dst = v
	}
	return nil
}

// Validate checks values that the store and observer constructors would
// otherwise reject at startup.
func (c *Config) Validate() error {
	if !slices.Contains(ValidBackends, c.Store.Backend) {
		return fmt.Errorf("%w: %q", ErrInvalidBackend, c.Store.Backend)
	}
	if c.Store.Codec != CodecSniff && c.Store.Codec != CodecTagged {
		return fmt.Errorf("%w: %q", ErrInvalidCodec, c.Store.Codec)
	}
	if c.Store.Timeout <= 0 {
		return fmt.Errorf("%w: store timeout must be positive", ErrInvalidValue)
	}
	if c.Store.MaxConcurrent <= 0 {
		return fmt.Errorf("%w: store max concurrent must be positive", ErrInvalidValue)
	}
	if c.Store.Retries < 0 {
		return fmt.Errorf("%w: store retries must not be negative", ErrInvalidValue)
	}
	if c.Breaker.MaxFailures <= 0 || c.Breaker.ResetTimeout <= 0 {
		return fmt.Errorf("%w: breaker thresholds must be positive", ErrInvalidValue)
	}
	if c.Store.Backend == BackendRedis && c.Redis.URL == "" {
		return fmt.Errorf("%w: redis url is required", ErrInvalidValue)
	}
	if c.Store.Backend == BackendSQLite && c.SQLite.Path == "" {
		return fmt.Errorf("%w: sqlite path is required", ErrInvalidValue)
	}

	oc := c.Observe("")
	return oc.Validate()
}

// Observe returns the observer configuration.
func (c *Config) Observe(version string) observe.Config {
	return observe.Config{
		ServiceName: c.ServiceName,
		Version:     version,
		Tracing: observe.TracingConfig{
			Enabled:   c.Telemetry.TracesExporter != "none",
			Exporter:  c.Telemetry.TracesExporter,
			SamplePct: c.Telemetry.SamplePct,
		},
		Metrics: observe.MetricsConfig{
			Enabled:  c.Telemetry.MetricsExporter != "none",
			Exporter: c.Telemetry.MetricsExporter,
		},
		Logging: observe.LoggingConfig{
			Enabled: true,
			Level:   c.LogLevel,
		},
	}
}

// Codec returns the configured value codec.
func (c *Config) Codec() cache.Codec {
	if c.Store.Codec == CodecTagged {
		return cache.TaggedCodec{}
	}
	return cache.SniffCodec{}
}

// RedisOptions returns the redisstore options.
func (c *Config) RedisOptions() redisstore.Options {
	return redisstore.Options{
		URL:             c.Redis.URL,
		Password:        c.Redis.Password,
		DialTimeout:     c.Redis.DialTimeout,
		PoolSize:        c.Redis.PoolSize,
		ConnectAttempts: c.Redis.ConnectAttempts,
		HealthInterval:  c.Redis.HealthInterval,
	}
}

// Executor builds the executor that guards store calls. onStateChange, if
// set, observes circuit breaker transitions.
func (c *Config) Executor(onStateChange func(from, to resilience.State)) *resilience.Executor {
	opts := []resilience.ExecutorOption{
		resilience.WithBulkhead(resilience.NewBulkhead(resilience.BulkheadConfig{
			MaxConcurrent: c.Store.MaxConcurrent,
		})),
		resilience.WithCircuitBreaker(resilience.NewCircuitBreaker(resilience.CircuitBreakerConfig{
			MaxFailures:   c.Breaker.MaxFailures,
			ResetTimeout:  c.Breaker.ResetTimeout,
			OnStateChange: onStateChange,
		})),
		resilience.WithTimeout(c.Store.Timeout),
	}
	if c.Store.Retries > 0 {
		opts = append(opts, resilience.WithRetry(resilience.NewRetry(resilience.RetryConfig{
			MaxAttempts:  c.Store.Retries + 1,
			InitialDelay: 10 * time.Millisecond,
			MaxDelay:     c.Store.Timeout,
			Jitter:       true,
		})))
	}
	return resilience.NewExecutor(opts...)
}
