package api

import (
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// RateLimitConfig throttles the JSON API per client address.
type RateLimitConfig struct {
	RequestsPerSecond float64
	Burst             int
	// IdleTimeout is how long an address keeps its bucket without requests.
	IdleTimeout time.Duration
}

// DefaultRateLimitConfig allows a dashboard polling /api/state every tick
// plus scoreboard and config fetches.
var DefaultRateLimitConfig = RateLimitConfig{
	RequestsPerSecond: 20,
	Burst:             40,
	IdleTimeout:       10 * time.Minute,
}

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// IPRateLimiter hands each client address a token bucket. Idle buckets are
// swept while serving requests, so there is no background goroutine.
type IPRateLimiter struct {
	cfg RateLimitConfig
	now func() time.Time

	mu        sync.Mutex
	visitors  map[string]*visitor
	lastSweep time.Time
}

// NewIPRateLimiter creates a limiter with cfg, filling zero fields from
// DefaultRateLimitConfig.
func NewIPRateLimiter(cfg RateLimitConfig) *IPRateLimiter {
	if cfg.RequestsPerSecond <= 0 {
		cfg.RequestsPerSecond = DefaultRateLimitConfig.RequestsPerSecond
	}
	if cfg.Burst <= 0 {
		cfg.Burst = DefaultRateLimitConfig.Burst
	}
	if cfg.IdleTimeout <= 0 {
		cfg.IdleTimeout = DefaultRateLimitConfig.IdleTimeout
	}
	return &IPRateLimiter{
		cfg:       cfg,
		now:       time.Now,
		visitors:  make(map[string]*visitor),
		lastSweep: time.Now(),
	}
}

// Allow takes a token for ip. When the bucket is empty it returns false
// and how long until the next token.
func (rl *IPRateLimiter) Allow(ip string) (bool, time.Duration) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	if now.Sub(rl.lastSweep) >= rl.cfg.IdleTimeout {
		rl.sweep(now)
	}

	v, ok := rl.visitors[ip]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(rate.Limit(rl.cfg.RequestsPerSecond), rl.cfg.Burst)}
		rl.visitors[ip] = v
	}
	v.lastSeen = now

	r := v.limiter.ReserveN(now, 1)
	if delay := r.DelayFrom(now); delay > 0 {
		r.CancelAt(now)
		return false, delay
	}
	return true, 0
}

// sweep drops buckets unused for IdleTimeout. Caller holds mu.
func (rl *IPRateLimiter) sweep(now time.Time) {
	for ip, v := range rl.visitors {
		if now.Sub(v.lastSeen) >= rl.cfg.IdleTimeout {
			delete(rl.visitors, ip)
		}
	}
	rl.lastSweep = now
}

// Visitors returns the number of tracked addresses.
func (rl *IPRateLimiter) Visitors() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.visitors)
}

// Middleware answers 429 with a Retry-After in whole seconds.
func (rl *IPRateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ok, wait := rl.Allow(GetClientIP(r))
		if !ok {
			RecordConnectionRejected("rate_limit")
			w.Header().Set("Retry-After", strconv.Itoa(retryAfterSeconds(wait)))
			writeError(w, "Too Many Requests", http.StatusTooManyRequests)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func retryAfterSeconds(wait time.Duration) int {
	secs := int(math.Ceil(wait.Seconds()))
	if secs < 1 {
		return 1
	}
	return secs
}

// GetClientIP extracts the client IP from an HTTP request.
// X-Forwarded-For can be spoofed when not behind a trusted proxy.
func GetClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		if idx := strings.Index(xff, ","); idx >= 0 {
			return strings.TrimSpace(xff[:idx])
		}
		return strings.TrimSpace(xff)
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}

	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}

// ConnLimiter caps concurrent websocket connections per IP.
type ConnLimiter struct {
	mu       sync.Mutex
	counts   map[string]int
	maxPerIP int
}

// NewConnLimiter creates a per-IP connection cap.
func NewConnLimiter(maxPerIP int) *ConnLimiter {
	return &ConnLimiter{
		counts:   make(map[string]int),
		maxPerIP: maxPerIP,
	}
}

// Acquire reserves a slot for ip.
func (c *ConnLimiter) Acquire(ip string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.counts[ip] >= c.maxPerIP {
		return false
	}
	c.counts[ip]++
	return true
}

// Release frees a slot reserved by Acquire.
func (c *ConnLimiter) Release(ip string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.counts[ip] <= 1 {
		delete(c.counts, ip)
		return
	}
	c.counts[ip]--
}

// Count returns the open connections for ip.
func (c *ConnLimiter) Count(ip string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.counts[ip]
}

// OriginMatcher checks browser origins against allow patterns.
// Patterns are exact origins, "scheme://host:*" for any port, or
// "scheme://*.domain" for any subdomain.
type OriginMatcher struct {
	patterns []string
}

// NewOriginMatcher builds a matcher over patterns.
func NewOriginMatcher(patterns []string) *OriginMatcher {
	return &OriginMatcher{patterns: patterns}
}

// Allowed reports whether a websocket upgrade from origin is accepted.
// Non-browser clients send no Origin and are allowed.
func (m *OriginMatcher) Allowed(origin string) bool {
	if origin == "" {
		return true
	}
	for _, p := range m.patterns {
		switch {
		case p == "*" || p == origin:
			return true
		case strings.HasSuffix(p, ":*"):
			if strings.HasPrefix(origin, strings.TrimSuffix(p, "*")) {
				return true
			}
		case strings.Contains(p, "://*."):
			scheme := p[:strings.Index(p, "://")+3]
			suffix := p[len(scheme)+1:] // ".domain"
			if strings.HasPrefix(origin, scheme) && strings.HasSuffix(origin, suffix) {
				return true
			}
		}
	}
	return false
}
