package api

import (
	"net/http"
	"time"

	"golang.org/x/time/rate"
)

// Token costs per request. Recommendations run the optimizer once per catalog
// carton and shipments add a DP over the order on top of that.
const (
	defaultRequestCost   = 1
	diagramRequestCost   = 2
	recommendRequestCost = 4
	shipmentRequestCost  = 8
)

var requestCosts = map[string]int{
	http.MethodPost + " /api/diagram":   diagramRequestCost,
	http.MethodPost + " /api/recommend": recommendRequestCost,
	http.MethodPost + " /api/shipment":  shipmentRequestCost,
}

// requestCost returns how many tokens r takes from the bucket.
func requestCost(r *http.Request) int {
	if cost, ok := requestCosts[r.Method+" "+r.URL.Path]; ok {
		return cost
	}
	return defaultRequestCost
}

type rateLimiter interface {
	AllowN(n int) bool
}

type limiterAdapter struct {
	limiter *rate.Limiter
	now     func() time.Time
}

func newTokenBucketLimiter(ratePerSecond float64, burst int) *limiterAdapter {
	if ratePerSecond <= 0 {
		ratePerSecond = 1
	}
	if burst <= 0 {
		burst = 1
	}

	return &limiterAdapter{
		limiter: rate.NewLimiter(rate.Limit(ratePerSecond), burst),
		now:     time.Now,
	}
}

// AllowN takes n tokens. A cost above the burst is charged as the full burst,
// otherwise the request could never pass.
func (l *limiterAdapter) AllowN(n int) bool {
	if l == nil || l.limiter == nil {
		return true
	}
	if burst := l.limiter.Burst(); n > burst {
		n = burst
	}
	return l.limiter.AllowN(l.now(), n)
}

func rateLimitMiddleware(limiter rateLimiter, next http.Handler) http.Handler {
	if limiter == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if limiter.AllowN(requestCost(r)) {
			next.ServeHTTP(w, r)
			return
		}
		writeError(w, http.StatusTooManyRequests, "Too many requests", "rate limit exceeded, please retry shortly")
	})
}
