package server

import (
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/dataveil/dataveil/internal/config"
)

// rateLimiter keeps a token bucket per client IP
type rateLimiter struct {
	cfg     config.RateLimit
	mu      sync.Mutex
	clients map[string]*clientLimiter
	done    chan struct{}
}

type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

func newRateLimiter(cfg config.RateLimit) *rateLimiter {
	return &rateLimiter{
		cfg:     cfg,
		clients: make(map[string]*clientLimiter),
		done:    make(chan struct{}),
	}
}

// Allow reports whether a request from the client IP fits in its bucket
func (rl *rateLimiter) Allow(clientIP string) bool {
	if !rl.cfg.Enabled {
		return true
	}

	rl.mu.Lock()
	defer rl.mu.Unlock()

	client, ok := rl.clients[clientIP]
	if !ok {
		client = &clientLimiter{
			limiter: rate.NewLimiter(rate.Limit(rl.cfg.RequestsPerSec), rl.cfg.Burst),
		}
		rl.clients[clientIP] = client
	}
	client.lastSeen = time.Now()
	return client.limiter.Allow()
}

// cleanup removes buckets idle for longer than an hour
func (rl *rateLimiter) cleanup() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	cutoff := time.Now().Add(-time.Hour)
	for ip, client := range rl.clients {
		if client.lastSeen.Before(cutoff) {
			delete(rl.clients, ip)
		}
	}
}

// startCleanupRoutine prunes idle buckets in the background until stop
func (rl *rateLimiter) startCleanupRoutine() {
	go func() {
		ticker := time.NewTicker(30 * time.Minute)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				rl.cleanup()
			case <-rl.done:
				return
			}
		}
	}()
}

// stop ends the cleanup routine; safe to call more than once
func (rl *rateLimiter) stop() {
	select {
	case <-rl.done:
	default:
		close(rl.done)
	}
}
