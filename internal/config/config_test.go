package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoad_Defaults(t *testing.T) {
	cfg := Load()

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "development", cfg.Env)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, 8*time.Second, cfg.CalendarSyncTimeout)
	assert.Equal(t, "/reservation", cfg.ReservationFormURL)
	assert.Empty(t, cfg.CORSAllowedOrigins)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("DATABASE_URL", "postgres://localhost/warmglow")
	t.Setenv("CALENDAR_SYNC_TIMEOUT", "3s")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example ,")

	cfg := Load()

	assert.Equal(t, "9000", cfg.Port)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "postgres://localhost/warmglow", cfg.DatabaseURL)
	assert.Equal(t, 3*time.Second, cfg.CalendarSyncTimeout)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSAllowedOrigins)
}

func TestLoad_BadDurationFallsBack(t *testing.T) {
	t.Setenv("CALENDAR_SYNC_TIMEOUT", "soon")
	cfg := Load()
	assert.Equal(t, 8*time.Second, cfg.CalendarSyncTimeout)
}
