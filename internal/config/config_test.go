package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("LLM_PROVIDER", "")
	t.Setenv("LLM_MODEL", "")
	t.Setenv("QDRANT_URL", "")

	cfg := Load()

	assert.Equal(t, "openai", cfg.LLM.Provider)
	assert.Equal(t, "gpt-4o-mini", cfg.LLMModel())
	assert.InDelta(t, 0.2, cfg.LLM.Temperature, 0.0001)
	assert.Equal(t, int64(10485760), cfg.Storage.MaxFileSize)
	assert.False(t, cfg.SearchEnabled())
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("LLM_PROVIDER", "Gemini")
	t.Setenv("LLM_TEMPERATURE", "0.1")
	t.Setenv("JWT_TTL", "30m")
	t.Setenv("SESSION_BACKEND", "REDIS")
	t.Setenv("QDRANT_URL", "http://localhost:6334")
	t.Setenv("GEMINI_API_KEY", "key")
	t.Setenv("LLM_MODEL", "")

	cfg := Load()

	assert.Equal(t, "gemini", cfg.LLM.Provider)
	assert.Equal(t, cfg.Gemini.Model, cfg.LLMModel())
	assert.InDelta(t, 0.1, cfg.LLM.Temperature, 0.0001)
	assert.Equal(t, 30*time.Minute, cfg.Auth.TokenTTL)
	assert.Equal(t, "redis", cfg.Session.Backend)
	assert.True(t, cfg.SearchEnabled())
}

func TestValidateRejectsDefaultSecretOutsideDevelopment(t *testing.T) {
	t.Setenv("JWT_SECRET", "")

	t.Setenv("ENV", "development")
	assert.NoError(t, Load().Validate())

	t.Setenv("ENV", "production")
	cfg := Load()
	assert.Equal(t, DefaultJWTSecret, cfg.Auth.JWTSecret)
	assert.ErrorContains(t, cfg.Validate(), "JWT_SECRET")

	t.Setenv("JWT_SECRET", "a-real-secret")
	assert.NoError(t, Load().Validate())
}

func TestDurationFallsBackOnGarbage(t *testing.T) {
	t.Setenv("SESSION_TTL", "soon")
	assert.Equal(t, 12*time.Hour, getEnvAsDuration("SESSION_TTL", "12h"))
}

func TestDatabaseDSN(t *testing.T) {
	cfg := &Config{Database: DatabaseConfig{
		Host: "db", Port: "5432", User: "u", Password: "p", DBName: "n", SSLMode: "disable",
	}}
	assert.Equal(t, "host=db port=5432 user=u password=p dbname=n sslmode=disable", cfg.GetDatabaseDSN())
}
