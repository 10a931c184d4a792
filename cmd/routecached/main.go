// Command routecached serves a set of declared routes behind the response
// cache, with health endpoints and OpenTelemetry instrumentation.
//
// Configuration is read from ROUTECACHE_* environment variables; see package
// config. Routes come from ROUTECACHE_ROUTES_FILE or a built-in demo set.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/jonwraymond/routecache/cache"
	"github.com/jonwraymond/routecache/config"
	"github.com/jonwraymond/routecache/health"
	"github.com/jonwraymond/routecache/observe"
	"github.com/jonwraymond/routecache/resilience"
)

var version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "routecached:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	cfg, err := config.Load(ctx)
	if err != nil {
		return err
	}

	zl := zerolog.New(os.Stderr).
		Level(observe.ParseLogLevel(cfg.LogLevel).ZerologLevel()).
		With().
		Timestamp().
		Str("service", cfg.ServiceName).
		Logger()
	logger := observe.NewLoggerFromZerolog(zl, cfg.LogLevel)

	obs, err := observe.NewObserver(ctx, cfg.Observe(version))
	if err != nil {
		return fmt.Errorf("observer: %w", err)
	}
	in, err := observe.NewInstruments(obs)
	if err != nil {
		return fmt.Errorf("instruments: %w", err)
	}
	in.Logger = logger

	routes, err := loadRoutes(cfg)
	if err != nil {
		return err
	}

	st, err := openStore(ctx, cfg, logger)
	if err != nil {
		return err
	}

	exec := cfg.Executor(func(from, to resilience.State) {
		logger.Warn(context.Background(), "store circuit state changed",
			observe.Field{Key: "from", Value: from.String()},
			observe.Field{Key: "to", Value: to.String()},
		)
	})
	engine := cache.New(st.store,
		cache.WithExecutor(exec),
		cache.WithCodec(cfg.Codec()),
		cache.WithInstruments(in),
	)

	agg := health.NewAggregator()
	agg.Register("cache_store", health.NewStoreChecker("cache_store", st.store,
		health.WithBackend(cfg.Store.Backend),
		health.WithBreaker(exec.CircuitBreaker()),
	))

	router := newRouter(zl, engine, observe.NewMiddleware(in.Tracer, in.Metrics, logger), routes, agg)
	if cfg.Telemetry.MetricsExporter == "prometheus" {
		router.Handle("/metrics", promhttp.Handler())
	}

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info(ctx, "routecached listening",
			observe.Field{Key: "addr", Value: cfg.ListenAddr},
			observe.Field{Key: "backend", Value: cfg.Store.Backend},
			observe.Field{Key: "routes", Value: len(routes)},
			observe.Field{Key: "version", Value: version},
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info(ctx, "routecached shutting down")

		sctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cfg.ShutdownTimeout)
		defer cancel()
		return errors.Join(
			srv.Shutdown(sctx),
			st.close(sctx),
			obs.Shutdown(sctx),
		)
	})
	return g.Wait()
}

func loadRoutes(cfg *config.Config) ([]cache.Route, error) {
	if cfg.RoutesFile == "" {
		return defaultRoutes(), nil
	}
	return config.LoadRoutes(cfg.RoutesFile)
}
