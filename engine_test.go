package sitemapengine_test

import (
	"testing"

	sitemapengine "github.com/webcortex/sitemap-engine"
	"github.com/webcortex/sitemap-engine/internal/core/config"
)

func TestNewWiresCacheAndRegistry(t *testing.T) {
	cfg := config.FromEnv()
	cfg.StoreDir = t.TempDir()
	cfg.MetricsEnabled = false

	eng, err := sitemapengine.New(cfg, "test")
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if eng.Cache == nil {
		t.Fatal("expected non-nil Cache")
	}
	if eng.Registry == nil {
		t.Fatal("expected non-nil Registry")
	}
	if eng.Watch == nil {
		t.Fatal("expected non-nil Watch engine")
	}

	if _, ok := eng.MetricsHandler(); ok {
		t.Fatal("expected metrics handler disabled")
	}
}

func TestNewWithMetricsEnabled(t *testing.T) {
	cfg := config.FromEnv()
	cfg.StoreDir = t.TempDir()
	cfg.MetricsEnabled = true
	cfg.MetricsAddr = ":0"

	eng, err := sitemapengine.New(cfg, "test")
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	h, ok := eng.MetricsHandler()
	if !ok || h == nil {
		t.Fatal("expected enabled metrics handler")
	}
}
