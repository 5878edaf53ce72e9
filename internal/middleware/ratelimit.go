package middleware

import (
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"
)

type window struct {
	count   int
	resetAt time.Time
}

type rateLimiter struct {
	mu      sync.Mutex
	windows map[string]*window
	limit   int
	per     time.Duration
}

// RateLimit caps requests per client IP to limit per window. Windows are
// fixed, not sliding; good enough for abuse protection on a small API.
// Rejected requests get a 429 with Retry-After and the usual error envelope.
func RateLimit(limit int, per time.Duration) func(http.Handler) http.Handler {
	rl := &rateLimiter{windows: make(map[string]*window), limit: limit, per: per}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if retryAfter, ok := rl.take(clientIPForRateLimit(r)); !ok {
				w.Header().Set("Retry-After", strconv.Itoa(int(retryAfter.Seconds())+1))
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusTooManyRequests)
				fmt.Fprint(w, `{"error":{"kind":"rate_limited","message":"too many requests"}}`)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func (rl *rateLimiter) take(ip string) (time.Duration, bool) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	win, ok := rl.windows[ip]
	if !ok || now.After(win.resetAt) {
		// Drop expired windows once in a while so the map does not keep one
		// entry per client forever.
		if len(rl.windows) > 1024 {
			for k, v := range rl.windows {
				if now.After(v.resetAt) {
					delete(rl.windows, k)
				}
			}
		}
		win = &window{resetAt: now.Add(rl.per)}
		rl.windows[ip] = win
	}
	if win.count >= rl.limit {
		return time.Until(win.resetAt), false
	}
	win.count++
	return 0, true
}

func clientIPForRateLimit(r *http.Request) string {
	if xf := r.Header.Get("X-Forwarded-For"); xf != "" {
		for _, part := range strings.Split(xf, ",") {
			ip := strings.TrimSpace(part)
			if ip == "" {
				continue
			}
			if net.ParseIP(ip) != nil {
				return ip
			}
		}
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err == nil {
		if net.ParseIP(host) != nil {
			return host
		}
	} else if net.ParseIP(r.RemoteAddr) != nil {
		return r.RemoteAddr
	}

	return r.RemoteAddr
}
