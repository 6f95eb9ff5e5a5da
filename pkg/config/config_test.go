package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	assert.Equal(t, 5*time.Minute, cfg.OTP.TTL)
	assert.Equal(t, 3, cfg.OTP.MaxAttempts)
	assert.Equal(t, "memory", cfg.OTP.Store)
	assert.Equal(t, 15*time.Minute, cfg.Auth.AccessTokenTTL)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("OTP_TTL", "90s")
	t.Setenv("OTP_STORE", "redis")
	t.Setenv("SMTP_PORT", "2525")
	t.Setenv("SMTP_USE_TLS", "true")
	t.Setenv("OTP_REQUEST_RATE", "1.5")

	cfg := Load()

	assert.Equal(t, 90*time.Second, cfg.OTP.TTL)
	assert.Equal(t, "redis", cfg.OTP.Store)
	assert.Equal(t, 2525, cfg.Email.SMTPPort)
	assert.True(t, cfg.Email.SMTPUseTLS)
	assert.InDelta(t, 1.5, cfg.OTP.RequestRate, 0.0001)
}

func TestLoadIgnoresMalformedValues(t *testing.T) {
	t.Setenv("OTP_MAX_ATTEMPTS", "three")
	t.Setenv("ACCESS_TOKEN_TTL", "soon")

	cfg := Load()

	assert.Equal(t, 3, cfg.OTP.MaxAttempts)
	assert.Equal(t, 15*time.Minute, cfg.Auth.AccessTokenTTL)
}

func TestPortFor(t *testing.T) {
	cfg := Load()
	assert.Equal(t, "8082", cfg.Server.PortFor("bookings", "8082"))

	t.Setenv("PORT", "9000")
	cfg = Load()
	assert.Equal(t, "9000", cfg.Server.PortFor("bookings", "8082"))

	t.Setenv("BOOKINGS_PORT", "9100")
	assert.Equal(t, "9100", cfg.Server.PortFor("bookings", "8082"))
}

func TestAllowedOrigins(t *testing.T) {
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example,")
	cfg := Load()
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.Server.AllowedOrigins)
}
