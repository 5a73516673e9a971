// Package breaker gates repeatedly failing providers out of the failover
// rotation for a cooldown period, so one dead backend does not add its full
// timeout to every request.
package breaker

import (
	"sync"
	"time"
)

// Defaults used when a Gate is built with zero values.
const (
	DefaultThreshold = 3
	DefaultCooldown  = 60 * time.Second
)

// Gate tracks consecutive failures for one provider. After threshold
// consecutive failures the gate blocks until the cooldown elapses; any
// success resets it.
type Gate struct {
	mu           sync.Mutex
	threshold    int
	cooldown     time.Duration
	failures     int
	blockedUntil time.Time

	now func() time.Time // test hook
}

// NewGate creates a gate. Non-positive threshold or cooldown fall back to the
// package defaults.
func NewGate(threshold int, cooldown time.Duration) *Gate {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	if cooldown <= 0 {
		cooldown = DefaultCooldown
	}
	return &Gate{threshold: threshold, cooldown: cooldown, now: time.Now}
}

// Allow reports whether the provider may be tried. A blocked gate unblocks
// itself once the cooldown has elapsed.
func (g *Gate) Allow() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.blockedUntil.IsZero() {
		return true
	}
	if g.now().After(g.blockedUntil) {
		// Cooldown over: permit one attempt. The counter stays at threshold
		// so a single failure re-blocks immediately.
		g.blockedUntil = time.Time{}
		g.failures = g.threshold - 1
		return true
	}
	return false
}

// Success resets the failure count and unblocks the gate.
func (g *Gate) Success() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.failures = 0
	g.blockedUntil = time.Time{}
}

// Failure records one failure, blocking the gate when the threshold is hit.
func (g *Gate) Failure() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.failures++
	if g.failures >= g.threshold {
		g.blockedUntil = g.now().Add(g.cooldown)
	}
}
