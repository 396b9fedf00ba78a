// internal/app/system/ratelimit/ratelimit.go
package ratelimit

import (
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/dalemusser/onboardhub/internal/app/system/auth"
	"github.com/dalemusser/onboardhub/internal/app/system/respond"
	"golang.org/x/time/rate"
)

// idleTTL is how long an unused key's bucket is kept.
const idleTTL = 10 * time.Minute

// Limiter keeps one token bucket per key. It is safe for concurrent use.
type Limiter struct {
	mu        sync.Mutex
	buckets   map[string]*bucket
	every     rate.Limit
	burst     int
	lastSweep time.Time
	now       func() time.Time
}

type bucket struct {
	lim      *rate.Limiter
	lastSeen time.Time
}

// New creates a limiter refilling one token per interval, holding at most
// burst tokens.
func New(interval time.Duration, burst int) *Limiter {
	return &Limiter{
		buckets: make(map[string]*bucket),
		every:   rate.Every(interval),
		burst:   burst,
		now:     time.Now,
	}
}

// Allow reports whether key may proceed now, consuming a token if so.
func (l *Limiter) Allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	l.sweep(now)

	b, ok := l.buckets[key]
	if !ok {
		b = &bucket{lim: rate.NewLimiter(l.every, l.burst)}
		l.buckets[key] = b
	}
	b.lastSeen = now
	return b.lim.AllowN(now, 1)
}

// sweep drops idle buckets at most once per idleTTL. Caller holds mu.
func (l *Limiter) sweep(now time.Time) {
	if now.Sub(l.lastSweep) < idleTTL {
		return
	}
	l.lastSweep = now
	for k, b := range l.buckets {
		if now.Sub(b.lastSeen) > idleTTL {
			delete(l.buckets, k)
		}
	}
}

// Middleware answers 429 when keyFn's key is out of tokens. An empty key
// is not limited.
func (l *Limiter) Middleware(keyFn func(*http.Request) string) func(http.Handler) http.Handler {
	retry := strconv.Itoa(int(time.Duration(float64(time.Second)/float64(l.every)).Seconds()) + 1)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if key := keyFn(r); key != "" && !l.Allow(key) {
				w.Header().Set("Retry-After", retry)
				respond.Fail(w, http.StatusTooManyRequests, "too many requests; slow down")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// ByIP limits per client address.
func (l *Limiter) ByIP() func(http.Handler) http.Handler {
	return l.Middleware(ClientIP)
}

// ByUser limits per signed-in user. Anonymous requests pass through to the
// auth gate.
func (l *Limiter) ByUser() func(http.Handler) http.Handler {
	return l.Middleware(func(r *http.Request) string {
		if u, ok := auth.CurrentUser(r); ok {
			return u.ID
		}
		return ""
	})
}

// ClientIP returns the host part of RemoteAddr. Forwarding headers are not
// read here; behind a trusted proxy the router rewrites RemoteAddr first
// (chi's RealIP), so a client cannot pick its own key.
func ClientIP(r *http.Request) string {
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}
