package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/webcortex/sitemap-engine/internal/core/observability"
)

func Test_AppMetrics_CustomRegistry_Smoke(t *testing.T) {
	p := Init(Config{Build: BuildInfo{Version: "test"}})
	observability.Init(p.Registerer(), true)
	observability.SetDomain("example.com")

	observability.ObserveBuild("example.com", 50, 90, 20*time.Millisecond, nil)
	observability.AddCacheHits("example.com", 3)
	observability.AddCacheMisses("example.com", 1)
	observability.ObserveWQLQuery("example.com", 7, time.Millisecond, nil)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rr := httptest.NewRecorder()
	p.Handler().ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("status=%d", rr.Code)
	}
	body := rr.Body.String()
	mustContain := []string{
		`sitemap_build_duration_seconds_bucket`,
		`mapcache_hits_total{domain="example.com"} 3`,
		`mapcache_misses_total{domain="example.com"} 1`,
		`wql_queries_total{outcome="ok"} 1`,
		`app_build_info{`,
	}
	for _, s := range mustContain {
		if !strings.Contains(body, s) {
			t.Fatalf("expected metrics to contain %q;\n---\n%s", s, body)
		}
	}
}
