package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMiddleware_RecordsRoutePattern(t *testing.T) {
	m := New()
	r := chi.NewRouter()
	r.Use(m.Middleware)
	r.Get("/store/{store}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	for _, code := range []string{"acme", "bolt"} {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/store/"+code, nil))
	}

	got := testutil.ToFloat64(m.RequestsTotal.WithLabelValues("/store/{store}", "GET", "404"))
	if got != 2 {
		t.Errorf("requests_total{route=/store/{store}} = %v, want 2", got)
	}
	if n := testutil.CollectAndCount(m.RequestDuration); n != 1 {
		t.Errorf("duration series = %d, want 1", n)
	}
}

func TestMiddleware_DefaultStatusOK(t *testing.T) {
	m := New()
	r := chi.NewRouter()
	r.Use(m.Middleware)
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/health", nil))

	if got := testutil.ToFloat64(m.RequestsTotal.WithLabelValues("/health", "GET", "200")); got != 1 {
		t.Errorf("requests_total{status=200} = %v, want 1", got)
	}
}

func TestRecordStoreOperation(t *testing.T) {
	m := New()
	m.RecordStoreOperation("create")
	m.RecordStoreOperation("create")
	m.RecordStoreOperation("delete")

	if got := testutil.ToFloat64(m.StoreOperations.WithLabelValues("create")); got != 2 {
		t.Errorf("store_operations{create} = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.StoreOperations.WithLabelValues("delete")); got != 1 {
		t.Errorf("store_operations{delete} = %v, want 1", got)
	}
}

func TestHandler_ExposesCollectors(t *testing.T) {
	m := New()
	m.RecordEventFailure("store.created")

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	body := rec.Body.String()
	for _, name := range []string{
		"shopkeep_event_publish_failures_total",
		"go_goroutines",
	} {
		if !strings.Contains(body, name) {
			t.Errorf("metrics output missing %s", name)
		}
	}
}
