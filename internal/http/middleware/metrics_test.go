package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/tbourn/go-order-backend/internal/observability"
)

func TestMetrics_RouteLabels_Skip_Inflight(t *testing.T) {
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.Use(Metrics("/health"))
	r.GET("/orders/:id", func(c *gin.Context) { c.String(http.StatusOK, "hello") })
	r.PUT("/orders/:id/status", func(c *gin.Context) { c.Status(http.StatusNoContent) })
	r.GET("/health", func(c *gin.Context) { c.Status(http.StatusOK) })

	reqs := observability.HTTPRequests
	baseGet := testutil.ToFloat64(reqs.WithLabelValues("GET", "/orders/:id", "200"))
	basePut := testutil.ToFloat64(reqs.WithLabelValues("PUT", "/orders/:id/status", "204"))
	base404 := testutil.ToFloat64(reqs.WithLabelValues("GET", observability.RouteUnmatched, "404"))
	baseHealth := testutil.ToFloat64(reqs.WithLabelValues("GET", "/health", "200"))

	for _, tc := range []struct {
		method, path string
		want         int
	}{
		{http.MethodGet, "/orders/A1", http.StatusOK},
		{http.MethodGet, "/orders/B2", http.StatusOK},
		{http.MethodPut, "/orders/A1/status", http.StatusNoContent},
		{http.MethodGet, "/orders-by-phone/9876543210", http.StatusNotFound},
		{http.MethodGet, "/health", http.StatusOK},
	} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(tc.method, tc.path, nil))
		if w.Code != tc.want {
			t.Fatalf("%s %s -> %d; want %d", tc.method, tc.path, w.Code, tc.want)
		}
	}

	if got := testutil.ToFloat64(reqs.WithLabelValues("GET", "/orders/:id", "200")); got != baseGet+2 {
		t.Fatalf("GET /orders/:id = %v; want %v", got, baseGet+2)
	}
	if got := testutil.ToFloat64(reqs.WithLabelValues("PUT", "/orders/:id/status", "204")); got != basePut+1 {
		t.Fatalf("PUT status = %v; want %v", got, basePut+1)
	}
	if got := testutil.ToFloat64(reqs.WithLabelValues("GET", observability.RouteUnmatched, "404")); got != base404+1 {
		t.Fatalf("unmatched = %v; want %v", got, base404+1)
	}
	if got := testutil.ToFloat64(reqs.WithLabelValues("GET", "/health", "200")); got != baseHealth {
		t.Fatalf("skipped route was recorded: %v", got)
	}
	if got := testutil.ToFloat64(observability.HTTPInflight); got != 0 {
		t.Fatalf("inflight = %v; want 0", got)
	}
}
