// Package ratelimit implements fixed-window request gates keyed by caller.
package ratelimit

import (
	"context"
	"time"

	"github.com/patrickmn/go-cache"
)

// WindowGate counts requests per key in process memory. A key's window
// starts at its first request and lasts for the configured duration.
type WindowGate struct {
	counts *cache.Cache
	window time.Duration
	max    int
}

func NewWindowGate(window time.Duration, max int) *WindowGate {
	return &WindowGate{
		counts: cache.New(window, window),
		window: window,
		max:    max,
	}
}

func (g *WindowGate) Admit(ctx context.Context, key string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	for {
		if err := g.counts.Add(key, 1, g.window); err == nil {
			return g.decide(1), nil
		}
		n, err := g.counts.IncrementInt(key, 1)
		if err == nil {
			return g.decide(n), nil
		}
		// expired between Add and IncrementInt; open a fresh window
		g.counts.Delete(key)
	}
}

func (g *WindowGate) decide(n int) bool {
	if n > g.max {
		rejected.WithLabelValues("memory").Inc()
		return false
	}
	return true
}
