// Copyright (c) 2026 Comiket Bot. All rights reserved.

/*
Package config handles application-wide settings and environment parsing.

It leverages 'caarlos0/env' to map OS environment variables into a strongly-typed
Go struct, providing early validation and default values.

Usage:

	cfg, err := config.Load()
	if err != nil {
	    log.Fatal(err)
	}

Architecture:

  - Immutability: Once loaded, configuration is read-only.
  - DI-Friendly: Passed to core components (DB, Redis, Discord) via constructors.
  - Zero Hidden State: No global variables are used to store config.
*/
package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// Config holds all runtime configuration for the Comiket bot process.
type Config struct {

	// Process settings
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	Debug       bool   `env:"DEBUG"       envDefault:"false"`

	// HealthPort is where the liveness/readiness probes are served.
	HealthPort string `env:"HEALTH_PORT" envDefault:"8080"`

	// Discord
	DiscordToken string `env:"DISCORD_TOKEN,required"`
	// CommandPrefix is the character(s) that mark a message as a bot command.
	CommandPrefix string `env:"COMMAND_PREFIX" envDefault:"!"`

	// Relational Database (PostgreSQL)
	DatabaseURL string `env:"DATABASE_URL,required"`

	// MigrationPath is the filesystem path to the SQL migrations directory.
	MigrationPath string `env:"MIGRATION_PATH" envDefault:"./data/migrations"`

	// Key-Value Cache (Redis) — backs the shared exchange-rate quote.
	RedisURL string `env:"REDIS_URL,required"`

	// Currency conversion API (api.getgeoapi.com)
	CurrencyAPIKey string `env:"CURRENCY_API_KEY,required"`
	CurrencyFrom   string `env:"CURRENCY_FROM" envDefault:"JPY"`
	CurrencyTo     string `env:"CURRENCY_TO"   envDefault:"USD"`
}

// Load parses environment variables into a [Config] struct.
func Load() (*Config, error) {

	cfg := &Config{}

	// Use the 'env' package to map environment variables to struct fields.
	// This will fail if any field marked with 'required' is missing.
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("config: failed to parse environment variables: %w", err)
	}

	return cfg, nil
}

// IsDevelopment reports whether the bot is running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// IsProduction reports whether the bot is running in production mode.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}
