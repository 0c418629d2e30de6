package config

import "github.com/caarlos0/env/v6"

type Config struct {
	// HTTP server configuration
	Server struct {
		Port string `env:"SERVER_PORT" envDefault:"5250"`

		// Allowed CORS origins, comma separated
		CORSOrigins []string `env:"CORS_ORIGINS" envSeparator:"," envDefault:"*"`
	}

	// Database configuration
	Database struct {
		Path string `env:"DATABASE_PATH" envDefault:"database/stayspot.db"`
	}

	// Booking lifecycle configuration
	Booking struct {
		// Days before start_date within which a confirmed booking can no longer be cancelled
		CancellationWindowDays int `env:"CANCELLATION_WINDOW_DAYS" envDefault:"3"`

		// When true, pending bookings also block new bookings for overlapping dates
		PendingConflictCheck bool `env:"PENDING_CONFLICT_CHECK" envDefault:"false"`
	}

	// Review configuration
	Review struct {
		// Booking statuses eligible for review: "completed" or "confirmed_or_completed"
		Eligibility string `env:"REVIEW_ELIGIBILITY" envDefault:"completed"`
	}

	// Pagination bounds for list endpoints
	Pagination struct {
		DefaultPageSize int `env:"PAGE_SIZE_DEFAULT" envDefault:"20"`
		MaxPageSize     int `env:"PAGE_SIZE_MAX" envDefault:"100"`
	}

	// Background sweep configuration
	Sweep struct {
		// Interval between sweep runs (in minutes)
		IntervalMinutes int `env:"SWEEP_INTERVAL_MINUTES" envDefault:"60"`
	}

	// Listing view counting configuration
	Views struct {
		// Minimum seconds between counted views from the same viewer
		ThrottleSeconds int `env:"VIEW_THROTTLE_SECONDS" envDefault:"10"`
	}
}

func LoadConfig() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
