package web

import (
	"net"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// clientLimiter keeps one token bucket per client IP.
type clientLimiter struct {
	mu        sync.Mutex
	clients   map[string]*client
	limit     rate.Limit
	burst     int
	lastSweep time.Time
}

type client struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// staleClientAge is how long an idle client keeps its bucket.
const staleClientAge = 3 * time.Minute

func newClientLimiter(perMinute int) *clientLimiter {
	return &clientLimiter{
		clients:   make(map[string]*client),
		limit:     rate.Every(time.Minute / time.Duration(perMinute)),
		burst:     perMinute,
		lastSweep: time.Now(),
	}
}

func (cl *clientLimiter) allow(ip string) bool {
	cl.mu.Lock()
	defer cl.mu.Unlock()

	now := time.Now()
	if now.Sub(cl.lastSweep) > time.Minute {
		for k, c := range cl.clients {
			if now.Sub(c.lastSeen) > staleClientAge {
				delete(cl.clients, k)
			}
		}
		cl.lastSweep = now
	}

	c, ok := cl.clients[ip]
	if !ok {
		c = &client{limiter: rate.NewLimiter(cl.limit, cl.burst)}
		cl.clients[ip] = c
	}
	c.lastSeen = now
	return c.limiter.AllowN(now, 1)
}

// middleware rejects clients over budget with 429.
func (cl *clientLimiter) middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := r.RemoteAddr
		if host, _, err := net.SplitHostPort(ip); err == nil {
			ip = host
		}

		if !cl.allow(ip) {
			w.Header().Set("Retry-After", "60")
			writeJSON(w, http.StatusTooManyRequests, ErrorResponse{
				Error:   "rate limit exceeded",
				Message: "Too many requests",
				Action:  "Wait a minute and try again",
				Code:    "RATE001",
			})
			return
		}

		next.ServeHTTP(w, r)
	})
}
