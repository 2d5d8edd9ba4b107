// Copyright (c) 2026 Comiket Bot. All rights reserved.

/*
Package currency converts catalogue prices between the shop currency and a
target currency using a live exchange rate API.

The rate is fetched lazily, cached with a staleness window, and shared
between processes through Redis. A fetch failure degrades to a sentinel
rather than blocking the caller; the arithmetic helpers turn that sentinel
into an explicit error so callers can tell a zero amount from a dead API.
*/
package currency

import (
	"context"
	"log/slog"
	"time"

	"github.com/comiketbot/comiket/internal/platform/apperr"
	"github.com/comiketbot/comiket/internal/platform/constants"
)

// ErrRateUnavailable is returned by the arithmetic helpers when no usable
// exchange rate could be obtained.
var ErrRateUnavailable = apperr.Upstream("Exchange rate is currently unavailable", nil)

// Converter serves the exchange rate for one currency pair.
type Converter struct {
	source RateSource
	cache  RateCache
	ttl    time.Duration
	logger *slog.Logger
}

// NewConverter wires a live source to a cache. ttl is the staleness window
// after which a cached quote is refetched ([constants.RateTTL] in
// production).
func NewConverter(source RateSource, cache RateCache, ttl time.Duration, logger *slog.Logger) *Converter {
	return &Converter{
		source: source,
		cache:  cache,
		ttl:    ttl,
		logger: logger,
	}
}

// Rate returns the current exchange rate, fetching only when the cached
// quote is missing, stale, non-positive, or force is set.
//
// On fetch failure it logs, resets the cache so the next call retries, and
// returns [constants.RateUnavailable]. Callers doing arithmetic should use
// [Converter.ToTarget] or [Converter.FromTarget] instead of inspecting the
// sentinel.
func (c *Converter) Rate(ctx context.Context, force bool) float64 {
	quote, ok, err := c.cache.Get(ctx)
	if err != nil {
		// A broken cache degrades to a refetch, not a failure.
		c.logger.Warn("currency: cache unavailable", "error", err)
		ok = false
	}

	if !force && ok && quote.Rate > 0 && time.Since(quote.FetchedAt) < c.ttl {
		return quote.Rate
	}

	rate, err := c.source.FetchRate(ctx)
	if err != nil {
		c.logger.Error("currency: rate fetch failed", "error", err)
		if resetErr := c.cache.Reset(ctx); resetErr != nil {
			c.logger.Warn("currency: cache reset failed", "error", resetErr)
		}
		return constants.RateUnavailable
	}

	fresh := Quote{Rate: rate, FetchedAt: time.Now().UTC()}
	if err := c.cache.Set(ctx, fresh); err != nil {
		// The rate is still good for this call.
		c.logger.Warn("currency: cache write failed", "error", err)
	}

	c.logger.Info("currency: rate refreshed", "rate", rate)
	return rate
}

// ToTarget converts an amount in the source currency to the target
// currency. Returns [ErrRateUnavailable] when no usable rate exists, so a
// zero result always means a zero amount.
func (c *Converter) ToTarget(ctx context.Context, amount float64) (float64, error) {
	rate := c.Rate(ctx, false)
	if rate <= 0 {
		return 0, ErrRateUnavailable
	}
	return amount * rate, nil
}

// FromTarget converts an amount in the target currency back to the source
// currency.
func (c *Converter) FromTarget(ctx context.Context, amount float64) (float64, error) {
	rate := c.Rate(ctx, false)
	if rate <= 0 {
		return 0, ErrRateUnavailable
	}
	return amount / rate, nil
}
