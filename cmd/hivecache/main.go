package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/charmbracelet/log"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	httpadapter "github.com/hivedesk/hivecache/internal/adapter/http"
	"github.com/hivedesk/hivecache/internal/cache"
	"github.com/hivedesk/hivecache/internal/invalidation"
	"github.com/hivedesk/hivecache/internal/metrics"
)

const serviceName = "hivecache"

// Config is filled from the environment (a .env file is honored when
// present). Budgets come from the deployment, never from code.
type Config struct {
	HTTPPort string `env:"HIVECACHE_HTTP_PORT" envDefault:"8080"`

	MaxEntries    int           `env:"HIVECACHE_MAX_ENTRIES" envDefault:"10000"`
	MaxMemoryMB   int64         `env:"HIVECACHE_MAX_MEMORY_MB" envDefault:"256"`
	SweepInterval time.Duration `env:"HIVECACHE_SWEEP_INTERVAL" envDefault:"60s"`

	SearchMaxEntries  int   `env:"HIVECACHE_SEARCH_MAX_ENTRIES" envDefault:"2000"`
	SearchMaxMemoryMB int64 `env:"HIVECACHE_SEARCH_MAX_MEMORY_MB" envDefault:"64"`
	LookupMaxEntries  int   `env:"HIVECACHE_LOOKUP_MAX_ENTRIES" envDefault:"50000"`
	LookupMaxMemoryMB int64 `env:"HIVECACHE_LOOKUP_MAX_MEMORY_MB" envDefault:"512"`

	HTTPReadTimeout  time.Duration `env:"HIVECACHE_HTTP_READ_TIMEOUT" envDefault:"10s"`
	HTTPWriteTimeout time.Duration `env:"HIVECACHE_HTTP_WRITE_TIMEOUT" envDefault:"30s"`
	ShutdownTimeout  time.Duration `env:"HIVECACHE_SHUTDOWN_TIMEOUT" envDefault:"10s"`

	Debug bool `env:"HIVECACHE_DEBUG"`
}

// namespaceTable builds the fixed namespace configuration. One table,
// applied once at startup; namespaces are never created at runtime.
func namespaceTable(cfg Config, logger *log.Logger) map[string]cache.Config {
	return map[string]cache.Config{
		cache.DefaultNamespace: {
			MaxEntries:     cfg.MaxEntries,
			MaxMemoryBytes: cfg.MaxMemoryMB << 20,
			SweepInterval:  cfg.SweepInterval,
			Logger:         logger,
		},
		"search-results": {
			MaxEntries:     cfg.SearchMaxEntries,
			MaxMemoryBytes: cfg.SearchMaxMemoryMB << 20,
			SweepInterval:  cfg.SweepInterval,
			Logger:         logger,
		},
		"lookup-tables": {
			MaxEntries:     cfg.LookupMaxEntries,
			MaxMemoryBytes: cfg.LookupMaxMemoryMB << 20,
			SweepInterval:  cfg.SweepInterval,
			Logger:         logger,
		},
	}
}

func main() {
	_ = godotenv.Load()

	cfg, err := env.ParseAs[Config]()
	if err != nil {
		log.Fatal("configuration error", "err", err)
	}

	logger := log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
		Prefix:          serviceName,
	})
	if cfg.Debug {
		logger.SetLevel(log.DebugLevel)
	}

	registry := cache.NewRegistry(namespaceTable(cfg, logger), logger)
	defer registry.Close()

	prometheus.MustRegister(metrics.NewCollector(registry))

	invalidator := invalidation.New(registry, invalidation.DefaultRules(), logger)

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      httpadapter.NewServer(registry, invalidator, logger).Router(),
		ReadTimeout:  cfg.HTTPReadTimeout,
		WriteTimeout: cfg.HTTPWriteTimeout,
	}

	go func() {
		logger.Info("ops server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("http server failed", "err", err)
		}
	}()

	logger.Info("ready",
		"namespaces", registry.Namespaces(),
		"sweep_interval", cfg.SweepInterval)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("shutdown incomplete", "err", err)
	}
}
