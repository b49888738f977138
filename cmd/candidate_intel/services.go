package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/jonathan/candidate-intel/internal/config"
	"github.com/jonathan/candidate-intel/internal/db"
	"github.com/jonathan/candidate-intel/internal/llm"
	"github.com/jonathan/candidate-intel/internal/logging"
	"github.com/jonathan/candidate-intel/internal/observability"
)

// services holds the process-wide dependencies built from configuration
type services struct {
	cfg      *config.Config
	logger   *zap.Logger
	registry *prometheus.Registry
	metrics  *observability.Metrics
	store    db.Store
	client   llm.Client

	closers []func() error
}

// newServices builds the logger, metrics registry and store. The client is built
// separately by withClient because only batch processing needs one.
func newServices(ctx context.Context, cfg *config.Config) (*services, error) {
	logger, err := logging.New(cfg.LoggingConfig())
	if err != nil {
		return nil, err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	rt := &services{
		cfg:      cfg,
		logger:   logger,
		registry: reg,
		metrics:  observability.NewMetrics(reg),
	}
	rt.closers = append(rt.closers, func() error {
		_ = logger.Sync()
		return nil
	})

	if cfg.Database.URL == "" {
		logger.Info("no database configured, candidates are kept in memory")
		rt.store = db.NewMemory()
		return rt, nil
	}
	database, err := db.Connect(ctx, cfg.Database.URL, cfg.Database.MaxConns)
	if err != nil {
		_ = rt.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	rt.store = database
	rt.closers = append(rt.closers, func() error {
		database.Close()
		return nil
	})
	return rt, nil
}

// withClient builds the provider client wrapped in the retry, concurrency,
// cache and metrics decorators
func (rt *services) withClient(ctx context.Context) error {
	llmCfg := rt.cfg.LLMConfig()
	if err := llmCfg.Validate(); err != nil {
		return fmt.Errorf("invalid llm configuration: %w", err)
	}
	base, err := llm.NewClient(ctx, llmCfg)
	if err != nil {
		return err
	}
	rt.closers = append(rt.closers, base.Close)

	stack := llm.DefaultStack()
	stack.Retry = rt.cfg.RetryPolicy()
	stack.MaxConcurrency = rt.cfg.LLM.MaxConcurrency
	stack.Recorder = rt.metrics
	stack.Logger = rt.logger

	if addr := rt.cfg.Redis.Addr; addr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: rt.cfg.Redis.Password,
			DB:       rt.cfg.Redis.DB,
		})
		rt.closers = append(rt.closers, rdb.Close)
		if err := rdb.Ping(ctx).Err(); err != nil {
			// The cache is optional; calls go straight to the provider
			rt.logger.Warn("redis unavailable, completion cache disabled", zap.String("addr", addr), zap.Error(err))
		} else {
			stack.Redis = rdb
			stack.CacheTTL = rt.cfg.Redis.CacheTTL
		}
	}

	rt.client = llm.Build(base, stack)
	rt.logger.Info("llm client ready",
		zap.String(logging.FieldProvider, string(llmCfg.Provider)),
		zap.String(logging.FieldModel, rt.client.Model()))
	return nil
}

// Close releases everything in reverse order of acquisition
func (rt *services) Close() error {
	var errs []error
	for i := len(rt.closers) - 1; i >= 0; i-- {
		if err := rt.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	rt.closers = nil
	return errors.Join(errs...)
}

// loadConfig reads configuration with the given flag bindings applied
func loadConfig(bind func(*config.Loader) error) (*config.Config, error) {
	loader := config.NewLoader()
	if bind != nil {
		if err := bind(loader); err != nil {
			return nil, err
		}
	}
	return loader.Load(configPath)
}
