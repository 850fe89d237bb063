// Package di provides dependency injection container
package di

import (
	"errors"

	"github.com/cockroachdb/pebble"
	pkgerrors "github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/ssargent/arraydb/pkg/cache"
	"github.com/ssargent/arraydb/pkg/codec"
	"github.com/ssargent/arraydb/pkg/config"
	"github.com/ssargent/arraydb/pkg/storage"
	"github.com/ssargent/arraydb/pkg/store"
)

// Container holds all the dependencies for the application
type Container struct {
	config   *config.Config
	logger   *zap.Logger
	registry *prometheus.Registry
	metrics  *store.Metrics
	closers  []func() error
}

// NewContainer creates a new dependency injection container for cfg
func NewContainer(cfg *config.Config) (*Container, error) {
	if err := cfg.Validate(); err != nil {
		return nil, pkgerrors.WithMessage(err, "invalid configuration")
	}

	logger, err := NewLogger(cfg.Logging.Level)
	if err != nil {
		return nil, pkgerrors.WithMessage(err, "failed to create logger")
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return &Container{
		config:   cfg,
		logger:   logger,
		registry: registry,
		metrics:  store.NewMetrics(registry),
	}, nil
}

// NewLogger creates a console logger writing to stderr at level
func NewLogger(level string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, err
	}

	cfg := zap.NewDevelopmentConfig()
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	cfg.Development = false
	cfg.DisableStacktrace = true
	return cfg.Build()
}

// Config returns the configuration the container was built from
func (c *Container) Config() *config.Config {
	return c.config
}

// Logger returns the application logger
func (c *Container) Logger() *zap.Logger {
	return c.logger
}

// Registry returns the Prometheus registry every metric is registered with
func (c *Container) Registry() *prometheus.Registry {
	return c.registry
}

// Metrics returns the record store metrics
func (c *Container) Metrics() *store.Metrics {
	return c.metrics
}

// SetLogger allows overriding the logger (for testing)
func (c *Container) SetLogger(logger *zap.Logger) {
	c.logger = logger
}

// OpenStore builds the int64 record store described by the configuration
func (c *Container) OpenStore() (*store.RecordStore[int64], error) {
	cfg := c.config

	element, err := c.elementCodec()
	if err != nil {
		return nil, err
	}

	recordCache, err := c.cache()
	if err != nil {
		return nil, err
	}

	var backend storage.Backend[int64]
	switch cfg.Backend {
	case config.BackendBinary:
		backend = storage.NewBinaryBackend[int64](c.fileConfig(), element, storage.BinaryCodecConfig{
			MaxExtent:           cfg.Storage.MaxExtent,
			GrowthWarnThreshold: cfg.Storage.GrowthWarnThreshold,
			Logger:              c.logger,
		})
	case config.BackendJSON:
		backend = storage.NewJSONBackend[int64](c.fileConfig())
	case config.BackendYAML:
		backend = storage.NewYAMLBackend[int64](c.fileConfig())
	case config.BackendPebble:
		db, err := storage.NewPebbleBackend[int64](storage.PebbleBackendConfig{
			Dir:       cfg.DataDir,
			Options:   &pebble.Options{},
			Sync:      cfg.Storage.Sync,
			MaxExtent: cfg.Storage.MaxExtent,
			Logger:    c.logger,
		}, element)
		if err != nil {
			return nil, pkgerrors.WithMessagef(err, "failed to open pebble database in %s", cfg.DataDir)
		}
		c.closers = append(c.closers, db.Close)
		backend = db
	default:
		return nil, pkgerrors.Errorf("unknown backend %q", cfg.Backend)
	}

	c.logger.Debug("record store opened",
		zap.String("backend", cfg.Backend),
		zap.String("data_dir", cfg.DataDir),
		zap.String("file", cfg.FileName()),
		zap.String("cache", cfg.Cache.Kind))

	return store.New[int64](backend, recordCache, cfg.FileName(),
		store.WithLogger(c.logger),
		store.WithMetrics(c.metrics),
	), nil
}

func (c *Container) fileConfig() storage.FileBackendConfig {
	return storage.FileBackendConfig{Root: c.config.DataDir, Logger: c.logger}
}

func (c *Container) elementCodec() (codec.ElementCodec[int64], error) {
	fixed, err := codec.NewFixedCodec[int64]()
	if err != nil {
		return nil, err
	}
	if c.config.Storage.Checksum {
		return codec.NewChecksumCodec[int64](fixed), nil
	}
	return fixed, nil
}

func (c *Container) cache() (cache.Cache[int64], error) {
	switch c.config.Cache.Kind {
	case config.CacheSlot:
		return cache.NewSlotCache[int64](c.config.Cache.Size), nil
	case config.CacheLRU:
		lru, err := cache.NewLRUCache[int64](c.config.Cache.Size)
		if err != nil {
			return nil, pkgerrors.WithMessage(err, "failed to create lru cache")
		}
		return lru, nil
	case config.CacheNone:
		return cache.Nop[int64](), nil
	}
	return nil, pkgerrors.Errorf("unknown cache kind %q", c.config.Cache.Kind)
}

// Close releases everything the container opened
func (c *Container) Close() error {
	var errs []error
	for i := len(c.closers) - 1; i >= 0; i-- {
		errs = append(errs, c.closers[i]())
	}
	c.closers = nil

	_ = c.logger.Sync()
	return errors.Join(errs...)
}
