package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "5250", cfg.Server.Port)
	assert.Equal(t, []string{"*"}, cfg.Server.CORSOrigins)
	assert.Equal(t, "database/stayspot.db", cfg.Database.Path)
	assert.Equal(t, 3, cfg.Booking.CancellationWindowDays)
	assert.False(t, cfg.Booking.PendingConflictCheck)
	assert.Equal(t, "completed", cfg.Review.Eligibility)
	assert.Equal(t, 20, cfg.Pagination.DefaultPageSize)
	assert.Equal(t, 100, cfg.Pagination.MaxPageSize)
	assert.Equal(t, 60, cfg.Sweep.IntervalMinutes)
	assert.Equal(t, 10, cfg.Views.ThrottleSeconds)
}

func TestLoadConfigOverrides(t *testing.T) {
	t.Setenv("SERVER_PORT", "8080")
	t.Setenv("CORS_ORIGINS", "https://app.example.com,https://admin.example.com")
	t.Setenv("CANCELLATION_WINDOW_DAYS", "7")
	t.Setenv("PENDING_CONFLICT_CHECK", "true")
	t.Setenv("REVIEW_ELIGIBILITY", "confirmed_or_completed")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, []string{"https://app.example.com", "https://admin.example.com"}, cfg.Server.CORSOrigins)
	assert.Equal(t, 7, cfg.Booking.CancellationWindowDays)
	assert.True(t, cfg.Booking.PendingConflictCheck)
	assert.Equal(t, "confirmed_or_completed", cfg.Review.Eligibility)
}
