// Package api implements the HTTP read API external collaborator (spec
// §6.4): a thin, read-only JSON view over validator history. The
// middleware stack -- buffering, rate limiting, timeout, load shedding --
// is a hand-rolled chain rather than a router library, composing plain
// http.Handler wrappers in the house style used across this codebase.
package api

import (
	"net/http"
	"strings"
	"sync"
	"time"
)

// Middleware wraps an http.Handler.
type Middleware func(http.Handler) http.Handler

// Chain composes middleware in order: the first entry is outermost.
func Chain(handler http.Handler, middlewares ...Middleware) http.Handler {
	for i := len(middlewares) - 1; i >= 0; i-- {
		handler = middlewares[i](handler)
	}
	return handler
}

// RateLimitConfig configures the per-IP request limiter.
type RateLimitConfig struct {
	RequestsPerSecond int
}

type rateLimiterState struct {
	mu       sync.Mutex
	requests map[string][]time.Time
}

// RateLimitMiddleware limits requests per client IP to
// config.RequestsPerSecond, responding 429 once exceeded (spec §6.4:
// default 10,000/s).
func RateLimitMiddleware(config RateLimitConfig) Middleware {
	state := &rateLimiterState{requests: make(map[string][]time.Time)}

	rps := config.RequestsPerSecond
	if rps <= 0 {
		rps = 10_000
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := extractClientIP(r)
			now := time.Now()
			windowStart := now.Add(-time.Second)

			state.mu.Lock()
			times := state.requests[ip]
			cleaned := times[:0]
			for _, t := range times {
				if t.After(windowStart) {
					cleaned = append(cleaned, t)
				}
			}
			if len(cleaned) >= rps {
				state.mu.Unlock()
				writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
				return
			}
			state.requests[ip] = append(cleaned, now)
			state.mu.Unlock()

			next.ServeHTTP(w, r)
		})
	}
}

func extractClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		parts := strings.SplitN(xff, ",", 2)
		return strings.TrimSpace(parts[0])
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}
	addr := r.RemoteAddr
	if idx := strings.LastIndex(addr, ":"); idx > 0 {
		return addr[:idx]
	}
	return addr
}

// TimeoutMiddleware bounds request handling to d, responding 408 if the
// handler doesn't finish in time (spec §6.4: 408 on timeout).
func TimeoutMiddleware(d time.Duration) Middleware {
	return func(next http.Handler) http.Handler {
		h := http.TimeoutHandler(next, d, "")
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rec := &timeoutRecorder{ResponseWriter: w}
			h.ServeHTTP(rec, r)
			if rec.timedOut {
				writeError(w, http.StatusRequestTimeout, "request timed out")
			}
		})
	}
}

// timeoutRecorder detects http.TimeoutHandler's default 503 body so the
// caller can translate it into this API's sanitized {"error": ...} shape
// and spec-mandated 408 status instead.
type timeoutRecorder struct {
	http.ResponseWriter
	timedOut bool
}

func (t *timeoutRecorder) WriteHeader(code int) {
	if code == http.StatusServiceUnavailable {
		t.timedOut = true
		return
	}
	t.ResponseWriter.WriteHeader(code)
}

func (t *timeoutRecorder) Write(b []byte) (int, error) {
	if t.timedOut {
		return len(b), nil
	}
	return t.ResponseWriter.Write(b)
}

// LoadShedMiddleware bounds in-flight requests to maxConcurrent, rejecting
// with 503 once the buffer is full (spec §6.4, §9's "buffer + rate-limit +
// load-shed stack").
func LoadShedMiddleware(maxConcurrent int) Middleware {
	slots := make(chan struct{}, maxConcurrent)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			select {
			case slots <- struct{}{}:
				defer func() { <-slots }()
				next.ServeHTTP(w, r)
			default:
				writeError(w, http.StatusServiceUnavailable, "server overloaded")
			}
		})
	}
}
