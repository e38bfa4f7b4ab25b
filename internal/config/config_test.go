package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("JWT_ACCESS_TTL", "")
	t.Setenv("JWT_REFRESH_TTL", "")
	t.Setenv("REDIS_HOST", "")

	cfg := Load()

	assert.Equal(t, "HS256", cfg.JWTAlgorithm)
	assert.Equal(t, 10*time.Minute, cfg.JWTAccessTTL)
	assert.Equal(t, 7*24*time.Hour, cfg.JWTRefreshTTL)
	assert.Equal(t, "", cfg.RedisAddr())
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("JWT_ACCESS_TTL", "5m")
	t.Setenv("JWT_REFRESH_TTL", "48h")
	t.Setenv("REDIS_HOST", "cache")
	t.Setenv("REDIS_PORT", "6380")
	t.Setenv("LOGIN_RATE_LIMIT", "3")
	t.Setenv("OTEL_TRACES_SAMPLER_ARG", "0.25")

	cfg := Load()

	assert.Equal(t, 5*time.Minute, cfg.JWTAccessTTL)
	assert.Equal(t, 48*time.Hour, cfg.JWTRefreshTTL)
	assert.Equal(t, "cache:6380", cfg.RedisAddr())
	assert.Equal(t, 3, cfg.LoginRateLimit)
	assert.Equal(t, 0.25, cfg.OTelSampleRatio)
}

func TestLoad_InvalidValuesFallBack(t *testing.T) {
	t.Setenv("JWT_ACCESS_TTL", "soon")
	t.Setenv("LOGIN_RATE_LIMIT", "many")
	t.Setenv("OTEL_TRACES_SAMPLER_ARG", "half")

	cfg := Load()

	assert.Equal(t, 10*time.Minute, cfg.JWTAccessTTL)
	assert.Equal(t, 10, cfg.LoginRateLimit)
	assert.Equal(t, 1.0, cfg.OTelSampleRatio)
}
