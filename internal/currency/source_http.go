// Copyright (c) 2026 Comiket Bot. All rights reserved.

package currency

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/comiketbot/comiket/internal/platform/apperr"
)

const (
	apiBaseURL     = "https://api.getgeoapi.com/v2/currency"
	requestTimeout = 10 * time.Second
)

// RateSource fetches a live exchange rate for the configured pair.
type RateSource interface {
	FetchRate(ctx context.Context) (float64, error)
}

// HTTPSource fetches rates from the getgeoapi currency API.
type HTTPSource struct {
	client *resty.Client
	apiKey string
	from   string
	to     string
}

func NewHTTPSource(apiKey, from, to string) *HTTPSource {
	client := resty.New().
		SetBaseURL(apiBaseURL).
		SetTimeout(requestTimeout).
		SetRetryCount(2).
		SetRetryWaitTime(500 * time.Millisecond)

	return &HTTPSource{
		client: client,
		apiKey: apiKey,
		from:   from,
		to:     to,
	}
}

// convertResponse mirrors the API's convert endpoint payload. Rates are
// keyed by target currency and arrive as strings.
type convertResponse struct {
	Status string `json:"status"`
	Rates  map[string]struct {
		Rate string `json:"rate"`
	} `json:"rates"`
}

func (s *HTTPSource) FetchRate(ctx context.Context) (float64, error) {
	var payload convertResponse

	response, err := s.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"api_key": s.apiKey,
			"format":  "json",
			"from":    s.from,
			"to":      s.to,
		}).
		SetResult(&payload).
		Get("/convert")
	if err != nil {
		return 0, apperr.Upstream("Currency API is unreachable", err)
	}
	if response.IsError() {
		return 0, apperr.Upstream("Currency API request failed",
			fmt.Errorf("status %s", response.Status()))
	}
	if payload.Status != "success" {
		return 0, apperr.Upstream("Currency API reported failure",
			fmt.Errorf("status %q", payload.Status))
	}

	entry, ok := payload.Rates[s.to]
	if !ok {
		return 0, apperr.Upstream("Currency API response is missing the requested rate",
			fmt.Errorf("no %s entry in rates", s.to))
	}

	rate, err := strconv.ParseFloat(entry.Rate, 64)
	if err != nil {
		return 0, apperr.Upstream("Currency API returned an unusable rate", err)
	}
	if rate <= 0 {
		return 0, apperr.Upstream("Currency API returned an unusable rate",
			fmt.Errorf("non-positive rate %q", entry.Rate))
	}

	return rate, nil
}
