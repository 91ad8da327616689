// Package config centralizes the engine's environment-driven
// configuration, following the FromEnv() pattern used throughout this
// service: every setting has a hardcoded default and an optional
// environment variable override.
package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	Addr     string
	LogLevel string

	// StoreDir is the filesystem root under which the Map Cache and the
	// Registry persist their data (cache/<domain>.ctx files, and
	// registry/index.json plus registry/<domain>/snapshot.ctx and
	// delta_*.bin files, with "." in the domain replaced by "_").
	StoreDir string

	CacheCapacity    int
	CacheTTLDefault  time.Duration
	CacheOpTimeout   time.Duration
	CacheFillWorkers int
	CacheFillQueue   int

	RegistryGCMaxDeltas int
	RegistryGCMaxAge    time.Duration

	WatchPollInterval time.Duration

	MetricsEnabled bool
	MetricsAddr    string
}

func FromEnv() Config {
	return Config{
		Addr:     getenv("ADDR", ":8090"),
		LogLevel: getenv("LOG_LEVEL", "info"),

		StoreDir: getenv("STORE_DIR", "./data"),

		CacheCapacity:    getint("CACHE_CAPACITY", 256),
		CacheTTLDefault:  getduration("CACHE_TTL_DEFAULT", 10*time.Minute),
		CacheOpTimeout:   getduration("CACHE_OP_TIMEOUT", 250*time.Millisecond),
		CacheFillWorkers: getint("CACHE_FILL_WORKERS", 8),
		CacheFillQueue:   getint("CACHE_FILL_QUEUE", 64),

		RegistryGCMaxDeltas: getint("REGISTRY_GC_MAX_DELTAS", 50),
		RegistryGCMaxAge:    getduration("REGISTRY_GC_MAX_AGE", 30*24*time.Hour),

		WatchPollInterval: getduration("WATCH_POLL_INTERVAL", time.Minute),

		MetricsEnabled: getbool("METRICS_ENABLED", true),
		MetricsAddr:    getenv("METRICS_ADDR", ":9090"),
	}
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func getint(k string, def int) int {
	if v := os.Getenv(k); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func getbool(k string, def bool) bool {
	if v := os.Getenv(k); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return def
}

func getduration(k string, def time.Duration) time.Duration {
	if v := os.Getenv(k); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}
