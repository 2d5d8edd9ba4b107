// Copyright (c) 2026 Comiket Bot. All rights reserved.

package currency_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/comiketbot/comiket/internal/currency"
	"github.com/comiketbot/comiket/internal/platform/constants"
)

// scriptedSource serves queued results in order and repeats the last one.
type scriptedSource struct {
	rates []float64
	errs  []error
	calls int
}

func (s *scriptedSource) FetchRate(_ context.Context) (float64, error) {
	index := s.calls
	if index >= len(s.rates) {
		index = len(s.rates) - 1
	}
	s.calls++
	return s.rates[index], s.errs[index]
}

func newTestConverter(source currency.RateSource, cache currency.RateCache) *currency.Converter {
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
	return currency.NewConverter(source, cache, constants.RateTTL, logger)
}

/*
TestConverter_Rate_CachedWithinTTL verifies that two Rate calls inside the
staleness window hit the live source exactly once.
*/
func TestConverter_Rate_CachedWithinTTL(t *testing.T) {
	source := &scriptedSource{rates: []float64{0.0067}, errs: []error{nil}}
	converter := newTestConverter(source, currency.NewMemoryCache())

	first := converter.Rate(context.Background(), false)
	second := converter.Rate(context.Background(), false)

	assert.InDelta(t, 0.0067, first, 1e-9)
	assert.InDelta(t, 0.0067, second, 1e-9)
	assert.Equal(t, 1, source.calls)
}

/*
TestConverter_Rate_StaleQuoteRefetches verifies that a quote older than the
staleness window is replaced by a fresh fetch.
*/
func TestConverter_Rate_StaleQuoteRefetches(t *testing.T) {
	source := &scriptedSource{rates: []float64{0.0070}, errs: []error{nil}}
	cache := currency.NewMemoryCache()
	require.NoError(t, cache.Set(context.Background(), currency.Quote{
		Rate:      0.0067,
		FetchedAt: time.Now().UTC().Add(-constants.RateTTL - time.Minute),
	}))
	converter := newTestConverter(source, cache)

	rate := converter.Rate(context.Background(), false)

	assert.InDelta(t, 0.0070, rate, 1e-9)
	assert.Equal(t, 1, source.calls)
}

/*
TestConverter_Rate_ForceBypassesCache verifies that force refetches even
when a fresh quote is cached.
*/
func TestConverter_Rate_ForceBypassesCache(t *testing.T) {
	source := &scriptedSource{rates: []float64{0.0067, 0.0070}, errs: []error{nil, nil}}
	converter := newTestConverter(source, currency.NewMemoryCache())

	converter.Rate(context.Background(), false)
	rate := converter.Rate(context.Background(), true)

	assert.InDelta(t, 0.0070, rate, 1e-9)
	assert.Equal(t, 2, source.calls)
}

/*
TestConverter_Rate_FetchFailure verifies the degradation path: a failed
fetch returns the sentinel and resets the cache, so the next call retries
the source instead of serving the sentinel for a full window.
*/
func TestConverter_Rate_FetchFailure(t *testing.T) {
	source := &scriptedSource{
		rates: []float64{0, 0.0067},
		errs:  []error{errors.New("api down"), nil},
	}
	cache := currency.NewMemoryCache()
	converter := newTestConverter(source, cache)

	// 1. Failure returns the sentinel
	assert.Equal(t, constants.RateUnavailable, converter.Rate(context.Background(), false))

	// 2. The cache was reset, so this call retries and succeeds
	assert.InDelta(t, 0.0067, converter.Rate(context.Background(), false), 1e-9)
	assert.Equal(t, 2, source.calls)
}

/*
TestConverter_ToTarget verifies the arithmetic helpers, in particular that
a zero amount under a valid rate is distinguishable from an unavailable
rate.
*/
func TestConverter_ToTarget(t *testing.T) {
	t.Run("zero amount converts to zero", func(t *testing.T) {
		source := &scriptedSource{rates: []float64{0.0067}, errs: []error{nil}}
		converter := newTestConverter(source, currency.NewMemoryCache())

		amount, err := converter.ToTarget(context.Background(), 0)
		require.NoError(t, err)
		assert.Zero(t, amount)
	})

	t.Run("converts yen to target", func(t *testing.T) {
		source := &scriptedSource{rates: []float64{0.0067}, errs: []error{nil}}
		converter := newTestConverter(source, currency.NewMemoryCache())

		amount, err := converter.ToTarget(context.Background(), 1000)
		require.NoError(t, err)
		assert.InDelta(t, 6.7, amount, 1e-9)
	})

	t.Run("unavailable rate is an error, not zero", func(t *testing.T) {
		source := &scriptedSource{rates: []float64{0}, errs: []error{errors.New("api down")}}
		converter := newTestConverter(source, currency.NewMemoryCache())

		_, err := converter.ToTarget(context.Background(), 1000)
		assert.ErrorIs(t, err, currency.ErrRateUnavailable)
	})
}

/*
TestConverter_FromTarget verifies the reverse conversion.
*/
func TestConverter_FromTarget(t *testing.T) {
	source := &scriptedSource{rates: []float64{0.0067}, errs: []error{nil}}
	converter := newTestConverter(source, currency.NewMemoryCache())

	amount, err := converter.FromTarget(context.Background(), 6.7)
	require.NoError(t, err)
	assert.InDelta(t, 1000, amount, 1e-9)
}
