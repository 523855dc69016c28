package shield

import (
	"encoding/json"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"
)

type bucket struct {
	count   int
	resetAt time.Time
}

// RateLimiter enforces a fixed-window per-IP request limit. Every endpoint
// shares one budget: the API has a single expensive operation behind it, so
// per-endpoint rules would buy nothing.
type RateLimiter struct {
	maxPerMinute int
	buckets      sync.Map
	stopGC       chan struct{}
	gcOnce       sync.Once
}

// NewRateLimiter creates a limiter allowing maxPerMinute requests per client
// IP per minute. Expired buckets are garbage collected in the background.
func NewRateLimiter(maxPerMinute int) *RateLimiter {
	rl := &RateLimiter{
		maxPerMinute: maxPerMinute,
		stopGC:       make(chan struct{}),
	}
	go rl.gcLoop()
	return rl
}

// Close stops the GC goroutine.
func (rl *RateLimiter) Close() {
	rl.gcOnce.Do(func() { close(rl.stopGC) })
}

func (rl *RateLimiter) gcLoop() {
	tick := time.NewTicker(5 * time.Minute)
	defer tick.Stop()
	for {
		select {
		case <-rl.stopGC:
			return
		case <-tick.C:
			now := time.Now()
			rl.buckets.Range(func(key, value any) bool {
				if now.After(value.(*bucket).resetAt) {
					rl.buckets.Delete(key)
				}
				return true
			})
		}
	}
}

func (rl *RateLimiter) allow(ip string) bool {
	now := time.Now()

	val, loaded := rl.buckets.LoadOrStore(ip, &bucket{
		count:   1,
		resetAt: now.Add(time.Minute),
	})
	if !loaded {
		return true
	}

	b := val.(*bucket)
	if now.After(b.resetAt) {
		b.count = 1
		b.resetAt = now.Add(time.Minute)
		return true
	}

	b.count++
	return b.count <= rl.maxPerMinute
}

// Middleware rejects over-limit requests with a 429 JSON body.
func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := ExtractIP(r)
		if rl.allow(ip) {
			next.ServeHTTP(w, r)
			return
		}

		GetLogger(r.Context()).Warn("ratelimit: request blocked", "ip", ip, "path", r.URL.Path)

		w.Header().Set("Retry-After", "60")
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		json.NewEncoder(w).Encode(map[string]string{
			"error": "rate limit exceeded",
		})
	})
}

// ExtractIP returns the client IP from X-Forwarded-For or RemoteAddr.
func ExtractIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		if i := strings.IndexByte(xff, ','); i >= 0 {
			return strings.TrimSpace(xff[:i])
		}
		return strings.TrimSpace(xff)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
