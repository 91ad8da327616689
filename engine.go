// Package sitemapengine is the process-boundary wiring point for the web
// cartography engine: it owns the concrete Map Cache, Registry, and Watch
// Engine instances, and sets up the same logger+metrics construction the
// teacher's cmd/middleware/main.go performs for its own domain. Everything
// below this package (sitemap, query, compiler, wql, ...) stays usable
// standalone; Engine exists only so an embedder (RPC transport, CLI,
// agent-plugin host — all out of this module's scope) has one call that
// wires the ambient stack consistently instead of reinventing it.
package sitemapengine

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/webcortex/sitemap-engine/internal/cache"
	"github.com/webcortex/sitemap-engine/internal/core/config"
	"github.com/webcortex/sitemap-engine/internal/core/observability"
	"github.com/webcortex/sitemap-engine/internal/logger"
	"github.com/webcortex/sitemap-engine/internal/metrics"
	"github.com/webcortex/sitemap-engine/internal/registry"
	"github.com/webcortex/sitemap-engine/internal/watch"
)

// Engine bundles the stateful components an embedder needs to drive the
// core end to end: a Map Cache for hot SiteMaps, a Registry for durable
// snapshot+delta history, and a Watch Engine for alerting. The Schema
// Compiler, Code Generator, Cross-Site Unifier, and WQL Parser/Planner/
// Executor are pure functions over these and are called directly by the
// embedder (see their package docs), not wrapped here.
type Engine struct {
	Cache    *cache.Cache
	Registry *registry.Registry
	Watch    *watch.Engine
	Log      zerolog.Logger
	metrics  *metrics.Provider
}

// New constructs an Engine from cfg, creating the cache and registry
// directories under cfg.StoreDir if they don't already exist. Metrics
// registration mirrors the teacher's metrics.Init + observability.Init
// pairing; when cfg.MetricsEnabled is false, observability is initialized
// disabled so every Observe* call in cache/registry/wql/watch is a no-op.
func New(cfg config.Config, buildVersion string) (*Engine, error) {
	log := logger.Build(logger.Config{
		Level:     cfg.LogLevel,
		Component: "sitemap-engine",
	}, os.Stdout)

	var provider *metrics.Provider
	if cfg.MetricsEnabled {
		provider = metrics.Init(metrics.Config{
			Enabled: true,
			Addr:    cfg.MetricsAddr,
			Path:    "/metrics",
			Build:   metrics.BuildInfo{Version: buildVersion},
		})
		observability.Init(provider.Registerer(), true)
	} else {
		observability.Init(nil, false)
	}

	c, err := cache.New(cache.Config{
		Dir:        filepath.Join(cfg.StoreDir, "cache"),
		Capacity:   cfg.CacheCapacity,
		DefaultTTL: cfg.CacheTTLDefault,
		Logger:     log,
	})
	if err != nil {
		return nil, fmt.Errorf("sitemapengine: building cache: %w", err)
	}

	reg, err := registry.Open(filepath.Join(cfg.StoreDir, "registry"))
	if err != nil {
		return nil, fmt.Errorf("sitemapengine: opening registry: %w", err)
	}

	return &Engine{
		Cache:    c,
		Registry: reg,
		Watch:    watch.NewEngine(),
		Log:      log,
		metrics:  provider,
	}, nil
}

// MetricsHandler exposes the Prometheus scrape handler for an embedder to
// mount on its own HTTP surface. The bool is false when metrics were
// disabled at construction, matching the teacher's "no listener unless
// explicitly wired" posture: the core never binds a socket itself.
func (e *Engine) MetricsHandler() (http.Handler, bool) {
	if e.metrics == nil {
		return nil, false
	}
	return e.metrics.Handler(), true
}
