package httpmiddleware

import (
	"context"
	"math"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"
)

// RateLimitConfig configures a Limiter.
type RateLimitConfig struct {
	// Max is the number of requests a key may make per Window.
	Max int
	// Window is the length of one counting window.
	Window time.Duration
	// KeyFunc extracts the rate limit key. Defaults to the client host from
	// RemoteAddr, which chi's RealIP middleware rewrites behind proxies.
	KeyFunc func(*http.Request) string
}

type counter struct {
	start time.Time
	prev  int
	curr  int
}

// Limiter enforces a per-key sliding window estimate: the previous window's
// count is weighted by how much of it still overlaps the sliding window.
type Limiter struct {
	max    int
	window time.Duration
	key    func(*http.Request) string
	now    func() time.Time

	mu       sync.Mutex
	counters map[string]*counter
}

// NewLimiter creates a Limiter.
func NewLimiter(cfg RateLimitConfig) *Limiter {
	if cfg.KeyFunc == nil {
		cfg.KeyFunc = remoteHost
	}
	return &Limiter{
		max:      cfg.Max,
		window:   cfg.Window,
		key:      cfg.KeyFunc,
		now:      time.Now,
		counters: make(map[string]*counter),
	}
}

func (l *Limiter) take(key string) (remaining int, reset time.Time, ok bool) {
	now := l.now()
	start := now.Truncate(l.window)

	l.mu.Lock()
	defer l.mu.Unlock()

	c, found := l.counters[key]
	switch {
	case !found:
		c = &counter{start: start}
		l.counters[key] = c
	case start.Equal(c.start):
	case start.Sub(c.start) == l.window:
		c.start, c.prev, c.curr = start, c.curr, 0
	default:
		c.start, c.prev, c.curr = start, 0, 0
	}

	overlap := 1 - float64(now.Sub(start))/float64(l.window)
	estimate := float64(c.prev)*overlap + float64(c.curr)
	reset = start.Add(l.window)

	if estimate+1 > float64(l.max) {
		return 0, reset, false
	}
	c.curr++
	return max(0, int(float64(l.max)-estimate-1)), reset, true
}

// Evict drops counters that cannot influence any future decision and
// reports how many were removed.
func (l *Limiter) Evict() int {
	cutoff := l.now().Truncate(l.window).Add(-l.window)

	l.mu.Lock()
	defer l.mu.Unlock()

	n := 0
	for key, c := range l.counters {
		if c.start.Before(cutoff) {
			delete(l.counters, key)
			n++
		}
	}
	return n
}

// Run evicts stale counters once per window until ctx is done.
func (l *Limiter) Run(ctx context.Context) error {
	ticker := time.NewTicker(l.window)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			l.Evict()
		}
	}
}

// Middleware rejects requests over the limit with 429. Every response carries
// X-RateLimit-Limit, X-RateLimit-Remaining and X-RateLimit-Reset.
func (l *Limiter) Middleware() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			remaining, reset, ok := l.take(l.key(r))

			h := w.Header()
			h.Set("X-RateLimit-Limit", strconv.Itoa(l.max))
			h.Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
			h.Set("X-RateLimit-Reset", strconv.FormatInt(reset.Unix(), 10))

			if !ok {
				wait := max(0, reset.Sub(l.now()).Seconds())
				h.Set("Retry-After", strconv.Itoa(int(math.Ceil(wait))))
				writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func remoteHost(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
