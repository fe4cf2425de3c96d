package kit

import (
	"math"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"
)

// IPRateLimiter is a sliding-window limiter keyed by the peer IP.
type IPRateLimiter struct {
	mu     sync.Mutex
	limit  int
	window time.Duration
	hits   map[string][]time.Time
	now    func() time.Time
}

func NewIPRateLimiter(limit int, window time.Duration) *IPRateLimiter {
	return &IPRateLimiter{
		limit:  limit,
		window: window,
		hits:   make(map[string][]time.Time),
		now:    time.Now,
	}
}

func (l *IPRateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if retry, ok := l.Allow(clientIP(r)); !ok {
			w.Header().Set("Retry-After", strconv.Itoa(int(math.Ceil(retry.Seconds()))))
			WriteError(w, r, http.StatusTooManyRequests, "too many requests", nil)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Allow records a hit for key. When the window is full it reports how long
// until the oldest hit expires.
func (l *IPRateLimiter) Allow(key string) (time.Duration, bool) {
	if l.limit <= 0 {
		return 0, true
	}

	now := l.now()
	cutoff := now.Add(-l.window)

	l.mu.Lock()
	defer l.mu.Unlock()

	ts := prune(l.hits[key], cutoff)
	if len(ts) >= l.limit {
		l.hits[key] = ts
		return ts[0].Sub(cutoff), false
	}

	l.hits[key] = append(ts, now)
	return 0, true
}

func prune(ts []time.Time, cutoff time.Time) []time.Time {
	n := 0
	for _, t := range ts {
		if t.After(cutoff) {
			ts[n] = t
			n++
		}
	}
	return ts[:n]
}

// clientIP keys on the peer address. Forwarding headers are honoured only
// through TrustedRealIP, which rewrites RemoteAddr upstream of the limiter.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err == nil && host != "" {
		return host
	}

	return r.RemoteAddr
}
