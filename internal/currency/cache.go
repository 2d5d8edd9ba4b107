// Copyright (c) 2026 Comiket Bot. All rights reserved.

package currency

import (
	"context"
	"sync"
	"time"
)

// Quote is one cached exchange rate observation.
type Quote struct {
	Rate      float64   `json:"rate"`
	FetchedAt time.Time `json:"fetched_at"`
}

// RateCache holds the most recent quote. A miss means no quote has been
// stored since the last reset; staleness is the converter's call, not the
// cache's.
type RateCache interface {
	// Get returns the stored quote. ok is false when nothing is stored.
	Get(ctx context.Context) (quote Quote, ok bool, err error)

	// Set overwrites the stored quote.
	Set(ctx context.Context, quote Quote) error

	// Reset clears the stored quote so the next Rate call fetches again.
	Reset(ctx context.Context) error
}

// MemoryCache is a process-local [RateCache]. Used in tests and as a
// fallback when no Redis is configured.
type MemoryCache struct {
	mu    sync.Mutex
	quote Quote
	set   bool
}

func NewMemoryCache() *MemoryCache {
	return &MemoryCache{}
}

func (c *MemoryCache) Get(_ context.Context) (Quote, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.quote, c.set, nil
}

func (c *MemoryCache) Set(_ context.Context, quote Quote) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.quote = quote
	c.set = true
	return nil
}

func (c *MemoryCache) Reset(_ context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.quote = Quote{}
	c.set = false
	return nil
}
