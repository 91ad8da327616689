// Package observability defines the engine's domain-specific Prometheus
// collectors: SiteMap build outcomes, Map Cache hit/miss rates, registry
// push/pull traffic, WQL query latency, and watch rule evaluations. It
// layers on top of metrics.Provider's base registry the same way the
// original service's observability package did for its own domain.
package observability

import (
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	xx "github.com/cespare/xxhash/v2"
	"github.com/prometheus/client_golang/prometheus"
)

var (
	enabled atomic.Bool
	domainV atomic.Value
)

func Init(r prometheus.Registerer, isEnabled bool) {
	enabled.Store(isEnabled)
	if domainV.Load() == nil {
		domainV.Store("unknown")
	}
	if !isEnabled || r == nil {
		return
	}
	initCollectors(r)
}

func Enabled() bool { return enabled.Load() }

// SetDomain stores the active domain. No Observe* function in this package
// reads it; each one that labels by domain takes the domain as an argument.
func SetDomain(d string) {
	if d == "" {
		d = "unknown"
	}
	domainV.Store(d)
}

func getDomain() string {
	v := domainV.Load()
	if v == nil {
		return "unknown"
	}
	if s, ok := v.(string); ok && s != "" {
		return s
	}
	return "unknown"
}

var (
	buildTotal            *prometheus.CounterVec
	buildDurationSeconds  *prometheus.HistogramVec
	buildNodeCount        *prometheus.GaugeVec
	buildEdgeCount        *prometheus.GaugeVec
	cacheHitsTotal        *prometheus.CounterVec
	cacheMissesTotal      *prometheus.CounterVec
	cacheEvictionsTotal   *prometheus.CounterVec
	registryPushTotal     *prometheus.CounterVec
	registryPullTotal     *prometheus.CounterVec
	registryGCDeleted     *prometheus.CounterVec
	deltaSizeBytes        *prometheus.HistogramVec
	wqlQueriesTotal       *prometheus.CounterVec
	wqlQueryDurationSecs  *prometheus.HistogramVec
	wqlRowsReturned       *prometheus.HistogramVec
	watchEvaluationsTotal *prometheus.CounterVec
	watchAlertsTotal      *prometheus.CounterVec
	watchDomainSample     *prometheus.GaugeVec
	schemaCompileTotal    *prometheus.CounterVec
	schemaCompileDuration *prometheus.HistogramVec
)

var lastRegistryPullTS sync.Map

func initCollectors(r prometheus.Registerer) {
	buildTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "sitemap_builds_total", Help: "Count of SiteMap builds by outcome."},
		[]string{"domain", "outcome"},
	)
	buildDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{Name: "sitemap_build_duration_seconds", Help: "Duration of a SiteMap build, in seconds.", Buckets: prometheus.ExponentialBuckets(0.05, 2, 12)},
		[]string{"domain"},
	)
	buildNodeCount = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{Name: "sitemap_node_count", Help: "Node count of the most recently completed build."},
		[]string{"domain"},
	)
	buildEdgeCount = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{Name: "sitemap_edge_count", Help: "Edge count of the most recently completed build."},
		[]string{"domain"},
	)

	cacheHitsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "mapcache_hits_total", Help: "Count of Map Cache hits."},
		[]string{"domain"},
	)
	cacheMissesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "mapcache_misses_total", Help: "Count of Map Cache misses."},
		[]string{"domain"},
	)
	cacheEvictionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "mapcache_evictions_total", Help: "Count of Map Cache evictions by reason."},
		[]string{"reason"},
	)

	registryPushTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "registry_push_total", Help: "Count of registry push operations by kind (snapshot|delta)."},
		[]string{"domain", "kind"},
	)
	registryPullTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "registry_pull_total", Help: "Count of registry pull operations."},
		[]string{"domain"},
	)
	registryGCDeleted = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "registry_gc_deleted_total", Help: "Count of snapshots/deltas removed by registry GC."},
		[]string{"domain"},
	)
	deltaSizeBytes = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{Name: "registry_delta_size_bytes", Help: "Serialized size of a pushed delta, in bytes.", Buckets: prometheus.ExponentialBuckets(64, 4, 12)},
		[]string{"domain"},
	)

	wqlQueriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "wql_queries_total", Help: "Count of executed WQL queries by outcome."},
		[]string{"outcome"},
	)
	wqlQueryDurationSecs = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{Name: "wql_query_duration_seconds", Help: "End-to-end WQL query execution time, in seconds.", Buckets: prometheus.ExponentialBuckets(0.001, 2, 14)},
		[]string{"domain"},
	)
	wqlRowsReturned = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{Name: "wql_rows_returned", Help: "Row count returned by an executed WQL query.", Buckets: prometheus.ExponentialBuckets(1, 4, 10)},
		[]string{"domain"},
	)

	watchEvaluationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "watch_evaluations_total", Help: "Count of watch rule evaluations by result."},
		[]string{"rule", "result"},
	)
	watchAlertsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "watch_alerts_total", Help: "Count of watch alerts fired by condition kind."},
		[]string{"domain", "condition"},
	)
	watchDomainSample = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{Name: "watch_condition_value", Help: "Sampled observed value for a watch condition (hashed rule id to limit cardinality)."},
		[]string{"rule_hash"},
	)

	schemaCompileTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "schema_compiles_total", Help: "Count of schema compiler runs by outcome."},
		[]string{"domain", "outcome"},
	)
	schemaCompileDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{Name: "schema_compile_duration_seconds", Help: "Duration of a schema compile pass, in seconds.", Buckets: prometheus.ExponentialBuckets(0.01, 2, 10)},
		[]string{"domain"},
	)

	r.MustRegister(
		buildTotal, buildDurationSeconds, buildNodeCount, buildEdgeCount,
		cacheHitsTotal, cacheMissesTotal, cacheEvictionsTotal,
		registryPushTotal, registryPullTotal, registryGCDeleted, deltaSizeBytes,
		wqlQueriesTotal, wqlQueryDurationSecs, wqlRowsReturned,
		watchEvaluationsTotal, watchAlertsTotal, watchDomainSample,
		schemaCompileTotal, schemaCompileDuration,
	)
}

func ObserveBuild(domain string, nodeCount, edgeCount int, dur time.Duration, err error) {
	if !enabled.Load() || buildTotal == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	buildTotal.WithLabelValues(domain, outcome).Inc()
	buildDurationSeconds.WithLabelValues(domain).Observe(dur.Seconds())
	if err == nil {
		buildNodeCount.WithLabelValues(domain).Set(float64(nodeCount))
		buildEdgeCount.WithLabelValues(domain).Set(float64(edgeCount))
	}
}

func AddCacheHits(domain string, n int) {
	if !enabled.Load() || cacheHitsTotal == nil || n <= 0 {
		return
	}
	cacheHitsTotal.WithLabelValues(domain).Add(float64(n))
}

func AddCacheMisses(domain string, n int) {
	if !enabled.Load() || cacheMissesTotal == nil || n <= 0 {
		return
	}
	cacheMissesTotal.WithLabelValues(domain).Add(float64(n))
}

func IncCacheEviction(reason string) {
	if !enabled.Load() || cacheEvictionsTotal == nil {
		return
	}
	if reason == "" {
		reason = "unknown"
	}
	cacheEvictionsTotal.WithLabelValues(reason).Inc()
}

func ObserveRegistryPush(domain, kind string, deltaBytes int) {
	if !enabled.Load() || registryPushTotal == nil {
		return
	}
	if kind != "snapshot" && kind != "delta" {
		kind = "delta"
	}
	registryPushTotal.WithLabelValues(domain, kind).Inc()
	if deltaBytes > 0 {
		deltaSizeBytes.WithLabelValues(domain).Observe(float64(deltaBytes))
	}
}

func ObserveRegistryPull(domain string) {
	if !enabled.Load() || registryPullTotal == nil {
		return
	}
	registryPullTotal.WithLabelValues(domain).Inc()
	lastRegistryPullTS.Store(domain, time.Now().Unix())
}

func LastRegistryPullUnix(domain string) int64 {
	if v, ok := lastRegistryPullTS.Load(domain); ok {
		if n, ok2 := v.(int64); ok2 {
			return n
		}
	}
	return 0
}

func AddRegistryGCDeleted(domain string, n int) {
	if !enabled.Load() || registryGCDeleted == nil || n <= 0 {
		return
	}
	registryGCDeleted.WithLabelValues(domain).Add(float64(n))
}

func ObserveWQLQuery(domain string, rows int, dur time.Duration, err error) {
	if !enabled.Load() || wqlQueriesTotal == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	wqlQueriesTotal.WithLabelValues(outcome).Inc()
	wqlQueryDurationSecs.WithLabelValues(domain).Observe(dur.Seconds())
	if err == nil {
		wqlRowsReturned.WithLabelValues(domain).Observe(float64(rows))
	}
}

func ObserveWatchEvaluation(rule, result string) {
	if !enabled.Load() || watchEvaluationsTotal == nil {
		return
	}
	if result == "" {
		result = "unknown"
	}
	watchEvaluationsTotal.WithLabelValues(rule, result).Inc()
}

func IncWatchAlert(domain, condition string) {
	if !enabled.Load() || watchAlertsTotal == nil {
		return
	}
	if condition == "" {
		condition = "unknown"
	}
	watchAlertsTotal.WithLabelValues(domain, condition).Inc()
}

// ObserveWatchConditionSample records a 1-in-10 deterministic sample of a
// watch condition's observed value, hashing the rule id to keep gauge
// cardinality bounded regardless of how many rules are registered.
func ObserveWatchConditionSample(ruleID string, value float64) {
	if !enabled.Load() || watchDomainSample == nil || ruleID == "" {
		return
	}
	const denom = uint64(10)
	h := xx.Sum64String(ruleID)
	if (h % denom) != 0 {
		return
	}
	watchDomainSample.WithLabelValues(toShortHash(h)).Set(value)
}

func ObserveSchemaCompile(domain string, dur time.Duration, err error) {
	if !enabled.Load() || schemaCompileTotal == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	schemaCompileTotal.WithLabelValues(domain, outcome).Inc()
	schemaCompileDuration.WithLabelValues(domain).Observe(dur.Seconds())
}

func toShortHash(h uint64) string {
	const width = 8
	x := h >> 32
	s := strconv.FormatUint(x, 16)

	if len(s) >= width {
		return s[len(s)-width:]
	}

	var b [width]byte
	pad := width - len(s)
	for i := range pad {
		b[i] = '0'
	}
	copy(b[pad:], s)
	return string(b[:])
}
