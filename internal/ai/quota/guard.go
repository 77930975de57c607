// Package quota smooths bursts of calls to the text generation provider.
//
// A Guard keeps a process-wide ledger of recent call timestamps in a ring
// buffer. It is not persisted and is not a hard billing ceiling.
package quota

import (
	"fmt"
	"sync"
	"time"
)

const (
	DefaultMinInterval = 500 * time.Millisecond
	DefaultWindow      = time.Minute
	DefaultMaxCalls    = 60
)

// Config describes the spacing and rolling quota.
type Config struct {
	// MinInterval is the minimum spacing between two dispatched calls.
	MinInterval time.Duration
	// Window is the rolling window MaxCalls applies to.
	Window time.Duration
	// MaxCalls per Window. Zero or negative disables the quota and keeps only spacing.
	MaxCalls int
}

// RateLimitedError tells the caller to back off for RetryAfter.
type RateLimitedError struct {
	RetryAfter time.Duration
}

func (e *RateLimitedError) Error() string {
	return fmt.Sprintf("rate limited: retry after %s", e.RetryAfter.Round(time.Millisecond))
}

// Stats is a snapshot of the ledger.
type Stats struct {
	Total      int           `json:"total"`
	Remaining  int           `json:"remaining"`
	Window     time.Duration `json:"-"`
	RetryAfter time.Duration `json:"-"`
}

// Guard is safe for concurrent use.
type Guard struct {
	mu  sync.Mutex
	now func() time.Time

	minInterval time.Duration
	window      time.Duration
	maxCalls    int

	// ring holds call timestamps in clock order starting at head.
	ring []time.Time
	head int
	size int
}

// NewGuard creates a guard. A nil clock means time.Now.
func NewGuard(cfg Config, now func() time.Time) *Guard {
	if now == nil {
		now = time.Now
	}
	if cfg.MinInterval < 0 {
		cfg.MinInterval = 0
	}
	if cfg.Window <= 0 {
		cfg.Window = DefaultWindow
	}

	capacity := cfg.MaxCalls
	if capacity <= 0 {
		capacity = 1
	}

	return &Guard{
		now:         now,
		minInterval: cfg.MinInterval,
		window:      cfg.Window,
		maxCalls:    cfg.MaxCalls,
		ring:        make([]time.Time, capacity),
	}
}

// Check reports how long the caller should wait before a call may proceed.
// It never records anything.
func (g *Guard) Check() (time.Duration, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()

	wait := g.waitLocked(g.now())
	return wait, wait <= 0
}

// Reserve records a call timestamp when the call may proceed, otherwise it
// returns a *RateLimitedError and leaves the ledger untouched.
func (g *Guard) Reserve() error {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.now()
	if wait := g.waitLocked(now); wait > 0 {
		return &RateLimitedError{RetryAfter: wait}
	}

	g.recordLocked(now)
	return nil
}

// Stats returns the computed remaining quota for the current window.
func (g *Guard) Stats() Stats {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.now()
	stats := Stats{
		Window:     g.window,
		RetryAfter: g.waitLocked(now),
	}

	if g.maxCalls > 0 {
		stats.Total = g.maxCalls
		stats.Remaining = g.maxCalls - g.inWindowLocked(now)
		if stats.Remaining < 0 {
			stats.Remaining = 0
		}
	}

	return stats
}

func (g *Guard) waitLocked(now time.Time) time.Duration {
	if g.size == 0 {
		return 0
	}

	var wait time.Duration

	if g.minInterval > 0 {
		if since := now.Sub(g.at(g.size - 1)); since < g.minInterval {
			wait = g.minInterval - since
		}
	}

	if g.maxCalls > 0 && g.inWindowLocked(now) >= g.maxCalls {
		oldest := g.at(g.size - g.maxCalls)
		if quotaWait := oldest.Add(g.window).Sub(now); quotaWait > wait {
			wait = quotaWait
		}
	}

	return wait
}

func (g *Guard) inWindowLocked(now time.Time) int {
	cutoff := now.Add(-g.window)
	count := 0
	for i := g.size - 1; i >= 0; i-- {
		if !g.at(i).After(cutoff) {
			break
		}
		count++
	}
	return count
}

func (g *Guard) recordLocked(now time.Time) {
	if g.size < len(g.ring) {
		g.ring[(g.head+g.size)%len(g.ring)] = now
		g.size++
		return
	}
	// full: overwrite the oldest entry
	g.ring[g.head] = now
	g.head = (g.head + 1) % len(g.ring)
}

// at returns the i-th timestamp counting from the oldest.
func (g *Guard) at(i int) time.Time {
	return g.ring[(g.head+i)%len(g.ring)]
}
