// Package redisstore is a cache.Store backed by Redis.
//
// Initialize connects and returns a ready Store; Shutdown closes it. The
// store tracks connection health itself: failed dials mark it not ready and
// a background ping marks it ready again once Redis is reachable, so the
// cache middleware passes requests straight through while Redis is down.
package redisstore

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/jonwraymond/routecache/cache"
	"github.com/jonwraymond/routecache/observe"
	"github.com/jonwraymond/routecache/resilience"
)

// Defaults applied by Initialize.
const (
	DefaultAddr            = "localhost:6379"
	DefaultDialTimeout     = 2 * time.Second
	DefaultConnectAttempts = 3
	DefaultHealthInterval  = 5 * time.Second
)

// Sentinel errors.
var (
	ErrInvalidOptions = errors.New("redisstore: invalid options")
	ErrConnect        = errors.New("redisstore: could not connect")
)

// Options configures the Redis connection.
type Options struct {
	// URL is a redis:// or rediss:// URL. When set, it takes precedence over
	// Addr, Username and DB.
	URL string

	Addr     string
	Username string
	Password string
	DB       int

	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	PoolSize     int

	// ConnectAttempts bounds the pings made by Initialize.
	// Default: 3
	ConnectAttempts int

	// HealthInterval is how often connectivity is re-checked.
	// Default: 5s
	HealthInterval time.Duration
}

func (o Options) redisOptions() (*redis.Options, error) {
	var ro *redis.Options
	if o.URL != "" {
		parsed, err := redis.ParseURL(o.URL)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidOptions, err)
		}
		ro = parsed
		if o.Password != "" {
			ro.Password = o.Password
		}
	} else {
		ro = &redis.Options{
			Addr:     o.Addr,
			Username: o.Username,
			Password: o.Password,
			DB:       o.DB,
		}
		if ro.Addr == "" {
			ro.Addr = DefaultAddr
		}
	}

	ro.DialTimeout = o.DialTimeout
	if ro.DialTimeout <= 0 {
		ro.DialTimeout = DefaultDialTimeout
	}
	if o.ReadTimeout > 0 {
		ro.ReadTimeout = o.ReadTimeout
	}
	if o.WriteTimeout > 0 {
		ro.WriteTimeout = o.WriteTimeout
	}
	if o.PoolSize > 0 {
		ro.PoolSize = o.PoolSize
	}
	return ro, nil
}

// Store implements cache.Store.
type Store struct {
	client  *redis.Client
	logger  observe.Logger
	ready   atomic.Bool
	started atomic.Bool

	stop chan struct{}
	done sync.WaitGroup
	once sync.Once
}

// Initialize connects to Redis and returns a ready Store. It pings up to
// ConnectAttempts times with backoff and fails if none succeed.
func Initialize(ctx context.Context, opts Options, logger observe.Logger) (*Store, error) {
	if logger == nil {
		logger = observe.NopLogger()
	}

	ro, err := opts.redisOptions()
	if err != nil {
		return nil, err
	}

	s := &Store{logger: logger, stop: make(chan struct{})}
	ro.OnConnect = func(ctx context.Context, _ *redis.Conn) error {
		s.logger.Debug(ctx, "redis connection opened")
		return nil
	}

	s.client = redis.NewClient(ro)
	s.client.AddHook(hook{store: s})

	attempts := opts.ConnectAttempts
	if attempts <= 0 {
		attempts = DefaultConnectAttempts
	}
	retry := resilience.NewRetry(resilience.RetryConfig{
		MaxAttempts:  attempts,
		InitialDelay: 100 * time.Millisecond,
		MaxDelay:     2 * time.Second,
		Jitter:       true,
		OnRetry: func(attempt int, err error, delay time.Duration) {
			logger.Warn(ctx, "redis ping failed, retrying",
				observe.Field{Key: "attempt", Value: attempt},
				observe.Field{Key: "delay_ms", Value: delay.Milliseconds()},
				observe.Field{Key: "error", Value: err},
			)
		},
	})
	if err := retry.Execute(ctx, func(ctx context.Context) error {
		return s.client.Ping(ctx).Err()
	}); err != nil {
		_ = s.client.Close()
		return nil, fmt.Errorf("%w to %s: %w", ErrConnect, ro.Addr, err)
	}

	s.ready.Store(true)
	s.started.Store(true)
	logger.Info(ctx, "redis cache store ready", observe.Field{Key: "addr", Value: ro.Addr}, observe.Field{Key: "db", Value: ro.DB})

	interval := opts.HealthInterval
	if interval <= 0 {
		interval = DefaultHealthInterval
	}
	s.done.Add(1)
	go s.watch(interval)

	return s, nil
}

// Get returns the value at key, or "" when the key does not exist.
func (s *Store) Get(ctx context.Context, key string) (string, error) {
	v, err := s.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("redisstore: get: %w", err)
	}
	return v, nil
}

// Set writes value at key with ttl.
func (s *Store) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	if err := s.client.Set(ctx, key, value, ttl).Err(); err != nil {
		return fmt.Errorf("redisstore: set: %w", err)
	}
	return nil
}

// Ready reports whether Redis was reachable at the last dial or health check.
func (s *Store) Ready() bool {
	return s.ready.Load()
}

// Ping sends a PING to Redis.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redisstore: ping: %w", err)
	}
	return nil
}

// Client returns the underlying client.
func (s *Store) Client() *redis.Client {
	return s.client
}

// watch pings Redis every interval and keeps the ready flag current.
func (s *Store) watch(interval time.Duration) {
	defer s.done.Done()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), interval)
			err := s.client.Ping(ctx).Err()
			cancel()

			if err != nil {
				s.markDown(context.Background(), err)
				continue
			}
			s.markUp(context.Background())
		}
	}
}

// markUp and markDown only track health once Initialize has succeeded.
func (s *Store) markUp(ctx context.Context) {
	if s.started.Load() && !s.ready.Swap(true) {
		s.logger.Info(ctx, "redis connection restored")
	}
}

func (s *Store) markDown(ctx context.Context, err error) {
	if s.started.Load() && s.ready.Swap(false) {
		s.logger.Error(ctx, "redis unavailable, caching paused", observe.Field{Key: "error", Value: err})
	}
}

// Close stops health checks and closes the client. It is safe to call more
// than once.
func (s *Store) Close() error {
	var err error
	s.once.Do(func() {
		s.started.Store(false)
		close(s.stop)
		s.done.Wait()
		s.ready.Store(false)
		err = s.client.Close()
	})
	return err
}

// Shutdown closes store and logs completion. A nil store is a no-op.
func Shutdown(ctx context.Context, store *Store) error {
	if store == nil {
		return nil
	}

	closed := make(chan error, 1)
	go func() { closed <- store.Close() }()

	select {
	case err := <-closed:
		if err != nil && !errors.Is(err, redis.ErrClosed) {
			return fmt.Errorf("redisstore: shutdown: %w", err)
		}
		store.logger.Info(ctx, "redis cache store closed")
		return nil
	case <-ctx.Done():
		return fmt.Errorf("redisstore: shutdown: %w", ctx.Err())
	}
}

// hook reports connection events to the store.
type hook struct {
	store *Store
}

func (h hook) DialHook(next redis.DialHook) redis.DialHook {
	return func(ctx context.Context, network, addr string) (net.Conn, error) {
		conn, err := next(ctx, network, addr)
		if err != nil {
			h.store.markDown(ctx, err)
			return nil, err
		}
		h.store.markUp(ctx)
		return conn, nil
	}
}

func (h hook) ProcessHook(next redis.ProcessHook) redis.ProcessHook {
	return func(ctx context.Context, cmd redis.Cmder) error {
		err := next(ctx, cmd)
		if err != nil && !errors.Is(err, redis.Nil) {
			h.store.logger.Debug(ctx, "redis command failed",
				observe.Field{Key: "command", Value: cmd.Name()},
				observe.Field{Key: "error", Value: err},
			)
		}
		return err
	}
}

func (h hook) ProcessPipelineHook(next redis.ProcessPipelineHook) redis.ProcessPipelineHook {
	return func(ctx context.Context, cmds []redis.Cmder) error {
		err := next(ctx, cmds)
		if err != nil && !errors.Is(err, redis.Nil) {
			h.store.logger.Debug(ctx, "redis pipeline failed",
				observe.Field{Key: "commands", Value: len(cmds)},
				observe.Field{Key: "error", Value: err},
			)
		}
		return err
	}
}

var (
	_ cache.Store = (*Store)(nil)
	_ redis.Hook  = hook{}
)
