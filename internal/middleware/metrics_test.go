package middleware

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/BradenHooton/breachwatch/internal/metrics"
	pkghttp "github.com/BradenHooton/breachwatch/pkg/http"
)

type recordedRequest struct {
	route  string
	status int
}

type fakeRecorder struct {
	metrics.Noop
	mu       sync.Mutex
	requests []recordedRequest
	observed []string
}

func (f *fakeRecorder) IncRequestsTotal(route string, status int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, recordedRequest{route, status})
}

func (f *fakeRecorder) ObserveRequestDuration(route string, _ time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.observed = append(f.observed, route)
}

func TestMetrics_UsesRoutePattern(t *testing.T) {
	rec := &fakeRecorder{}

	r := chi.NewRouter()
	r.Use(Metrics(rec))
	r.Delete("/api/monitor/delete/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	req := httptest.NewRequest(http.MethodDelete, "/api/monitor/delete/0b7f3c1e", nil)
	r.ServeHTTP(httptest.NewRecorder(), req)

	if len(rec.requests) != 1 {
		t.Fatalf("expected 1 recorded request, got %d", len(rec.requests))
	}
	if rec.requests[0].route != "/api/monitor/delete/{id}" {
		t.Errorf("expected route pattern, got %q", rec.requests[0].route)
	}
	if rec.requests[0].status != http.StatusNoContent {
		t.Errorf("expected status 204, got %d", rec.requests[0].status)
	}
	if len(rec.observed) != 1 {
		t.Errorf("expected 1 duration observation, got %d", len(rec.observed))
	}
}

func TestMetrics_ImplicitOK(t *testing.T) {
	rec := &fakeRecorder{}

	r := chi.NewRouter()
	r.Use(Metrics(rec))
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/health", nil))

	if len(rec.requests) != 1 || rec.requests[0].status != http.StatusOK {
		t.Errorf("expected one 200 observation, got %+v", rec.requests)
	}
}

func TestSecureLogger_RedactsSensitiveQuery(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	handler := SecureLogger(logger, &pkghttp.IPConfig{})(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/api/usage?token=secret-value", nil)
	req.RemoteAddr = "198.51.100.3:1234"
	handler.ServeHTTP(httptest.NewRecorder(), req)

	out := buf.String()
	if strings.Contains(out, "secret-value") {
		t.Errorf("log line leaked query value: %s", out)
	}
	if !strings.Contains(out, "[REDACTED]") {
		t.Errorf("expected redaction marker in log line: %s", out)
	}
	if !strings.Contains(out, `"client_ip":"198.51.100.3"`) {
		t.Errorf("expected client ip in log line: %s", out)
	}
}
