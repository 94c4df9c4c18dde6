// Package ratelimit throttles clients with one token bucket per client key.
package ratelimit

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Config holds rate limiter configuration
type Config struct {
	// RequestsPerSecond is the steady refill rate of each bucket.
	RequestsPerSecond float64
	// Burst is the bucket size.
	Burst int
	// IdleTimeout is how long an unused bucket is kept.
	IdleTimeout     time.Duration
	CleanupInterval time.Duration
}

// DefaultConfig allows 5 requests per second with bursts of 10.
func DefaultConfig() Config {
	return Config{
		RequestsPerSecond: 5,
		Burst:             10,
		IdleTimeout:       10 * time.Minute,
		CleanupInterval:   5 * time.Minute,
	}
}

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// Limiter tracks a token bucket per client.
type Limiter struct {
	mu       sync.Mutex
	visitors map[string]*visitor
	config   Config

	stopCleanup  chan struct{}
	shutdownOnce sync.Once
}

// NewLimiter starts a limiter and its cleanup goroutine. Call Stop to release it.
func NewLimiter(config Config) *Limiter {
	defaults := DefaultConfig()
	if config.RequestsPerSecond <= 0 {
		config.RequestsPerSecond = defaults.RequestsPerSecond
	}
	if config.Burst <= 0 {
		config.Burst = defaults.Burst
	}
	if config.IdleTimeout <= 0 {
		config.IdleTimeout = defaults.IdleTimeout
	}
	if config.CleanupInterval <= 0 {
		config.CleanupInterval = defaults.CleanupInterval
	}

	l := &Limiter{
		visitors:    make(map[string]*visitor),
		config:      config,
		stopCleanup: make(chan struct{}),
	}
	go l.startCleanup()
	return l
}

// Allow reports whether the client may make a request now, consuming a token if so.
func (l *Limiter) Allow(clientKey string) bool {
	return l.visitor(clientKey).Allow()
}

func (l *Limiter) visitor(clientKey string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	v, ok := l.visitors[clientKey]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(rate.Limit(l.config.RequestsPerSecond), l.config.Burst)}
		l.visitors[clientKey] = v
	}
	v.lastSeen = time.Now()
	return v.limiter
}

func (l *Limiter) startCleanup() {
	ticker := time.NewTicker(l.config.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			l.cleanup(time.Now().Add(-l.config.IdleTimeout))
		case <-l.stopCleanup:
			return
		}
	}
}

// cleanup forgets clients not seen since cutoff.
func (l *Limiter) cleanup(cutoff time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()

	for key, v := range l.visitors {
		if v.lastSeen.Before(cutoff) {
			delete(l.visitors, key)
		}
	}
}

// ActiveClients returns the number of currently tracked clients
func (l *Limiter) ActiveClients() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.visitors)
}

// Stop shuts down the cleanup goroutine. It is safe to call more than once.
func (l *Limiter) Stop() {
	l.shutdownOnce.Do(func() {
		close(l.stopCleanup)
	})
}

// retryAfterSeconds is how long a client should wait for one token.
func (l *Limiter) retryAfterSeconds() int {
	secs := int(1/l.config.RequestsPerSecond + 0.999)
	return max(secs, 1)
}

// Middleware limits requests accepted by applies (all requests when nil).
// onLimit writes the rejection; a plain 429 is sent when it is nil.
func (l *Limiter) Middleware(extractKey func(*http.Request) string, applies func(*http.Request) bool, onLimit func(http.ResponseWriter, *http.Request)) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if applies != nil && !applies(r) {
				next.ServeHTTP(w, r)
				return
			}

			if !l.Allow(extractKey(r)) {
				w.Header().Set("Retry-After", strconv.Itoa(l.retryAfterSeconds()))
				if onLimit != nil {
					onLimit(w, r)
				} else {
					http.Error(w, "Rate limit exceeded. Please try again later.", http.StatusTooManyRequests)
				}
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// WritesOnly applies limiting to state-changing methods.
func WritesOnly(r *http.Request) bool {
	switch r.Method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return false
	default:
		return true
	}
}
