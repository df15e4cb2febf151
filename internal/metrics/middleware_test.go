package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func newRouter() *chi.Mux {
	r := chi.NewRouter()
	r.Use(Middleware())
	r.Get("/api/smallgiants", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"count":0,"items":[]}`))
	})
	r.Get("/api/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})
	r.Get("/upstream", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte("Upstream request failed: page 1: HTTP 500"))
	})
	return r
}

func serve(h http.Handler, method, path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, http.NoBody)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func TestMiddleware_RecordsDurationAndCount(t *testing.T) {
	r := newRouter()
	before := testutil.ToFloat64(httpRequestsTotal.WithLabelValues("GET", "/api/smallgiants", "200"))

	if rr := serve(r, "GET", "/api/smallgiants?company=acme"); rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}

	after := testutil.ToFloat64(httpRequestsTotal.WithLabelValues("GET", "/api/smallgiants", "200"))
	if after-before != 1 {
		t.Errorf("expected http_requests_total to grow by 1, got %f", after-before)
	}
	if testutil.CollectAndCount(httpRequestDuration) == 0 {
		t.Error("expected http_request_duration_seconds to have observations")
	}
	if testutil.CollectAndCount(httpResponseBytes) == 0 {
		t.Error("expected http_response_size_bytes to have observations")
	}
}

func TestMiddleware_StatusCodes(t *testing.T) {
	r := newRouter()

	tests := []struct {
		path           string
		route          string
		expectedStatus string
	}{
		{"/api/smallgiants", "/api/smallgiants", "200"},
		{"/api/health", "/api/health", "503"},
		{"/upstream", "/upstream", "502"},
		{"/missing/path/123", "unknown", "404"},
	}

	for _, tc := range tests {
		t.Run(tc.path, func(t *testing.T) {
			serve(r, "GET", tc.path)

			val := testutil.ToFloat64(httpRequestsTotal.WithLabelValues("GET", tc.route, tc.expectedStatus))
			if val < 1 {
				t.Errorf("expected requests_total for %s with status %s >= 1, got %f", tc.route, tc.expectedStatus, val)
			}
		})
	}
}

func TestMiddleware_InFlightReturnsToZero(t *testing.T) {
	r := newRouter()
	serve(r, "GET", "/api/smallgiants")

	if v := testutil.ToFloat64(httpInFlight); v != 0 {
		t.Errorf("expected in-flight 0 after request, got %f", v)
	}
}

func TestRouteLabel_NoRouteContext(t *testing.T) {
	req := httptest.NewRequest("GET", "/raw/path", http.NoBody)
	if got := routeLabel(req); got != "unknown" {
		t.Errorf("routeLabel() = %q, want unknown", got)
	}
}

func TestUpstreamMetrics_Names(t *testing.T) {
	RegisterUpstreamMetrics()
	RegisterHTTPMetrics()
	RegisterUpstreamMetrics() // idempotent

	PagesFetchedTotal.Inc()
	expected := `
# HELP smallgiants_pages_fetched_total Total number of upstream pages fetched and parsed
# TYPE smallgiants_pages_fetched_total counter
`
	if err := testutil.CollectAndCompare(PagesFetchedTotal, strings.NewReader(expected+"smallgiants_pages_fetched_total 1\n")); err != nil {
		t.Errorf("unexpected metric output: %v", err)
	}
}
