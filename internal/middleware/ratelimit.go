package middleware

import (
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/prephub/prephub-api/internal/utils"
	"golang.org/x/time/rate"
)

// LimitRecorder is told about every rejected request.
type LimitRecorder interface {
	LimitHit()
}

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter is a per-client token bucket keyed by remote IP.
type RateLimiter struct {
	mu       sync.Mutex
	visitors map[string]*visitor
	limit    rate.Limit
	burst    int
	idle     time.Duration
	now      func() time.Time
	recorder LimitRecorder
}

// NewRateLimiter allows perMinute requests per client with the given burst.
func NewRateLimiter(perMinute, burst int, recorder LimitRecorder) *RateLimiter {
	return &RateLimiter{
		visitors: make(map[string]*visitor),
		limit:    rate.Every(time.Minute / time.Duration(perMinute)),
		burst:    burst,
		idle:     10 * time.Minute,
		now:      time.Now,
		recorder: recorder,
	}
}

// Allow reports whether the client at key may proceed now.
func (l *RateLimiter) Allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	v, ok := l.visitors[key]
	if !ok {
		l.sweep(now)
		v = &visitor{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.visitors[key] = v
	}
	v.lastSeen = now
	return v.limiter.AllowN(now, 1)
}

// sweep drops clients idle for longer than l.idle. Caller holds l.mu.
func (l *RateLimiter) sweep(now time.Time) {
	for k, v := range l.visitors {
		if now.Sub(v.lastSeen) > l.idle {
			delete(l.visitors, k)
		}
	}
}

func (l *RateLimiter) retryAfter() int {
	secs := int(time.Duration(float64(time.Second) / float64(l.limit)).Seconds())
	if secs < 1 {
		secs = 1
	}
	return secs
}

// Middleware rejects requests over the limit with 429.
func (l *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !l.Allow(clientIP(r)) {
			if l.recorder != nil {
				l.recorder.LimitHit()
			}
			w.Header().Set("Retry-After", strconv.Itoa(l.retryAfter()))
			utils.WriteMessage(w, http.StatusTooManyRequests, "Too many login attempts, try again later")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// clientIP strips the port from RemoteAddr. That is the TCP peer unless the
// server was configured to trust proxy headers and chi's RealIP rewrote it.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
