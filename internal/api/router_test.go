package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"

	"github.com/eugenenazirov/carton-planner/internal/catalog"
	"github.com/eugenenazirov/carton-planner/internal/packing"
)

func TestLoggingMiddlewareRecordsOutcome(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	handler := requestIDMiddleware(loggingMiddleware(zap.New(core), http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
	})))

	req := httptest.NewRequest(http.MethodPost, "/api/optimize", nil)
	req.Header.Set("X-Request-ID", "plan-42")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected status 422, got %d", rec.Code)
	}
	entries := logs.FilterMessage("request completed").All()
	if len(entries) != 1 {
		t.Fatalf("expected one access log entry, got %d", len(entries))
	}
	fields := entries[0].ContextMap()
	if fields["path"] != "/api/optimize" || fields["request_id"] != "plan-42" || fields["status"] != int64(http.StatusUnprocessableEntity) {
		t.Fatalf("unexpected log fields: %v", fields)
	}
}

func TestRecoveryMiddlewareWritesJSONError(t *testing.T) {
	logger := zaptest.NewLogger(t)
	handler := recoveryMiddleware(logger, http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic(errors.New("optimizer exploded"))
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/recommend", nil))

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500 after panic, got %d", rec.Code)
	}
	var body errorResponse
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if body.Error != "Internal error" {
		t.Fatalf("expected Internal error, got %q", body.Error)
	}
}

func TestWithRateLimiterOptionAppliesLimiter(t *testing.T) {
	router := newTestRouter(t, WithLogging(false), WithRateLimiter(&staticLimiter{allow: false}))

	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected rate limiter to block request, got %d", rec.Code)
	}
}

func TestWithRateLimitDisablesLimiterWhenZero(t *testing.T) {
	router := newTestRouter(t, WithLogging(false), WithRateLimiter(&staticLimiter{allow: false}), WithRateLimit(0, 0))

	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected limiter to be disabled, got %d", rec.Code)
	}
}

func TestWithRateLimitChargesRecommendationsMore(t *testing.T) {
	router := newTestRouter(t, WithLogging(false), WithRateLimit(0.001, recommendRequestCost+1))

	recommend := func() int {
		req := httptest.NewRequest(http.MethodPost, "/api/recommend",
			strings.NewReader(`{"product":{"length":120,"width":80,"height":50}}`))
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		return rec.Code
	}
	health := func() int {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/health", nil))
		return rec.Code
	}

	if code := recommend(); code != http.StatusOK {
		t.Fatalf("expected first recommendation to succeed, got %d", code)
	}
	if code := recommend(); code != http.StatusTooManyRequests {
		t.Fatalf("expected second recommendation to be limited, got %d", code)
	}
	if code := health(); code != http.StatusOK {
		t.Fatalf("expected the remaining token to admit a health check, got %d", code)
	}
	if code := health(); code != http.StatusTooManyRequests {
		t.Fatalf("expected the bucket to be empty, got %d", code)
	}
}

func TestWithMetricsDisabledHidesEndpoint(t *testing.T) {
	router := newTestRouter(t, WithLogging(false), WithRateLimit(0, 0), WithMetrics(false))

	req := httptest.NewRequest(http.MethodGet, "/api/metrics", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected metrics endpoint to be absent, got %d", rec.Code)
	}
}

func newTestRouter(t *testing.T, opts ...RouterOption) http.Handler {
	t.Helper()

	handler := NewHandler(packing.New(), catalog.NewMemoryStorage())
	logger := zaptest.NewLogger(t)
	return NewRouter(handler, logger, opts...)
}
