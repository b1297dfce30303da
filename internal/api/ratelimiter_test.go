package api

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

type staticLimiter struct {
	allow bool
	costs []int
}

func (s *staticLimiter) AllowN(n int) bool {
	s.costs = append(s.costs, n)
	return s.allow
}

// frozenLimiter returns a bucket whose clock never moves, so tokens only
// come back when the test says so.
func frozenLimiter(rps float64, burst int) (*limiterAdapter, *time.Time) {
	l := newTokenBucketLimiter(rps, burst)
	now := time.Date(2024, 11, 1, 12, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return now }
	return l, &now
}

func TestRequestCost(t *testing.T) {
	tests := []struct {
		method string
		path   string
		want   int
	}{
		{http.MethodGet, "/api/health", defaultRequestCost},
		{http.MethodPost, "/api/optimize", defaultRequestCost},
		{http.MethodPost, "/api/diagram", diagramRequestCost},
		{http.MethodPost, "/api/recommend", recommendRequestCost},
		{http.MethodPost, "/api/shipment", shipmentRequestCost},
		{http.MethodGet, "/api/shipment", defaultRequestCost},
	}

	for _, tt := range tests {
		req := httptest.NewRequest(tt.method, tt.path, nil)
		if got := requestCost(req); got != tt.want {
			t.Fatalf("%s %s: expected cost %d, got %d", tt.method, tt.path, tt.want, got)
		}
	}
}

func TestRateLimitMiddlewareChargesRouteCost(t *testing.T) {
	limiter := &staticLimiter{allow: true}
	middleware := rateLimitMiddleware(limiter, http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))

	for _, path := range []string{"/api/optimize", "/api/recommend", "/api/shipment"} {
		middleware.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, path, nil))
	}

	want := []int{defaultRequestCost, recommendRequestCost, shipmentRequestCost}
	if len(limiter.costs) != len(want) {
		t.Fatalf("expected %d charges, got %v", len(want), limiter.costs)
	}
	for i := range want {
		if limiter.costs[i] != want[i] {
			t.Fatalf("expected charges %v, got %v", want, limiter.costs)
		}
	}
}

func TestRateLimitMiddlewareBlocksWhenLimiterDenies(t *testing.T) {
	middleware := rateLimitMiddleware(&staticLimiter{allow: false}, http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		t.Fatalf("handler should not execute when rate limited")
	}))

	rec := httptest.NewRecorder()
	middleware.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/recommend", nil))

	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", rec.Code)
	}
}

func TestShipmentDrainsBucketFasterThanOptimize(t *testing.T) {
	limiter, _ := frozenLimiter(1, 10)

	if !limiter.AllowN(shipmentRequestCost) {
		t.Fatalf("expected first shipment to pass with a full bucket")
	}
	if limiter.AllowN(shipmentRequestCost) {
		t.Fatalf("expected second shipment to be refused with %d tokens left", 10-shipmentRequestCost)
	}
	for i := 0; i < 10-shipmentRequestCost; i++ {
		if !limiter.AllowN(defaultRequestCost) {
			t.Fatalf("expected optimize %d to use the remaining tokens", i+1)
		}
	}
	if limiter.AllowN(defaultRequestCost) {
		t.Fatalf("expected bucket to be empty")
	}
}

func TestCostAboveBurstTakesWholeBucket(t *testing.T) {
	limiter, now := frozenLimiter(1, 3)

	if !limiter.AllowN(shipmentRequestCost) {
		t.Fatalf("expected a shipment to pass even though its cost exceeds the burst")
	}
	if limiter.AllowN(defaultRequestCost) {
		t.Fatalf("expected the shipment to have emptied the bucket")
	}

	*now = now.Add(time.Second)
	if !limiter.AllowN(defaultRequestCost) {
		t.Fatalf("expected one token to refill after a second")
	}
}

func TestNewTokenBucketLimiterUsesDefaults(t *testing.T) {
	limiter := newTokenBucketLimiter(0, 0)
	if limiter.limiter.Burst() != 1 {
		t.Fatalf("expected burst of 1, got %d", limiter.limiter.Burst())
	}
	if !limiter.AllowN(recommendRequestCost) {
		t.Fatalf("expected first request to be allowed")
	}
}
