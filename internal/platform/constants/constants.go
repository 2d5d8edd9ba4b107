// Copyright (c) 2026 Comiket Bot. All rights reserved.

/*
Package constants provides centralized, immutable values for the entire bot.

It defines default timeouts, cache windows, and scraping limits that are
shared between different layers of the system, keeping magic numbers out of
the business logic.
*/
package constants

import "time"

// # Metadata

const (
	AppName    = "comiket-bot"
	AppVersion = "0.1.0-dev"
)

// # Command Handling

const (
	// CommandTimeout is the deadline for a single chat command, covering
	// every store, scraper, and currency call it makes.
	CommandTimeout = 30 * time.Second

	// ShutdownTimeout is how long we wait for in-flight work during shutdown.
	ShutdownTimeout = 30 * time.Second
)

// # Health Probe Server Timing

const (
	// DefaultReadTimeout is the maximum duration for reading the entire request.
	DefaultReadTimeout = 5 * time.Second

	// DefaultWriteTimeout is the maximum duration before timing out writes of the response.
	DefaultWriteTimeout = 10 * time.Second

	// DefaultIdleTimeout is the maximum amount of time to wait for the next request.
	DefaultIdleTimeout = 120 * time.Second

	// DefaultReadHeaderTimeout is the amount of time allowed to read request headers.
	DefaultReadHeaderTimeout = 2 * time.Second
)

// # Currency

const (
	// RateTTL is the validity window of a cached exchange-rate quote.
	RateTTL = 2 * time.Hour

	// RateUnavailable is the sentinel returned while no valid quote exists.
	RateUnavailable = -1.0
)

// # Scraping

const (
	// ScrapeRatePerSecond limits how many product pages we fetch per second.
	ScrapeRatePerSecond = 1.0

	// ScrapeBurst is the maximum burst allowed against the shop.
	ScrapeBurst = 2

	// ScrapeTimeout is the per-page fetch deadline.
	ScrapeTimeout = 20 * time.Second
)
