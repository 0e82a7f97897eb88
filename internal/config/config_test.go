package config

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequired(t *testing.T) {
	t.Setenv("PG_HOST", "localhost")
	t.Setenv("PG_USER", "finlit")
	t.Setenv("PG_PASSWORD", "secret")
	t.Setenv("PG_DATABASE", "finlit")
	t.Setenv("REDIS_ADDR", "localhost:6379")
	t.Setenv("JWT_SECRET", "jwt-secret")
}

func TestLoad_Defaults(t *testing.T) {
	setRequired(t)

	cfg, err := Load(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "finlit-quiz", cfg.Name)
	assert.Equal(t, "@micamail.in", cfg.Auth.AllowedEmailDomain)
	assert.Equal(t, 10*time.Minute, cfg.Auth.OTPTTL)
	assert.Equal(t, 5, cfg.Auth.OTPMaxAttempts)
	assert.Empty(t, cfg.Auth.TrustedProxies)
	assert.Equal(t, 10, cfg.Game.ItemsPerSession)
	assert.Equal(t, "best_effort", cfg.Game.SavePolicy)
	assert.False(t, cfg.Game.AllowReplay)
	assert.Equal(t, 45*time.Second, cfg.AI.AnalysisTimeout)
	assert.Equal(t, "gemini-2.5-flash", cfg.AI.GeminiModel)
	assert.Empty(t, cfg.AI.GeminiAPIKey)
	assert.Empty(t, cfg.Report.Recipient)
	assert.Equal(t, 587, cfg.SMTP.Port)
	assert.Equal(t, []string{"http://localhost:3000", "http://127.0.0.1:3000"}, cfg.CORS.AllowedOrigins)
	assert.Equal(t, "host=localhost port=5432 user=finlit password=secret dbname=finlit sslmode=disable", cfg.Postgres.DSN())
}

func TestLoad_Overrides(t *testing.T) {
	setRequired(t)
	t.Setenv("GAME_SAVE_POLICY", "strict")
	t.Setenv("GAME_ALLOW_REPLAY", "true")
	t.Setenv("AI_ANALYSIS_TIMEOUT", "5s")
	t.Setenv("REPORT_RECIPIENT", "reports@example.com")
	t.Setenv("AUTH_TRUSTED_PROXIES", "10.0.0.1,192.168.0.0/16")

	cfg, err := Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "strict", cfg.Game.SavePolicy)
	assert.True(t, cfg.Game.AllowReplay)
	assert.Equal(t, 5*time.Second, cfg.AI.AnalysisTimeout)
	assert.Equal(t, "reports@example.com", cfg.Report.Recipient)
	assert.Equal(t, []string{"10.0.0.1", "192.168.0.0/16"}, cfg.Auth.TrustedProxies)
}

func TestLoad_MissingRequired(t *testing.T) {
	setRequired(t)
	t.Setenv("JWT_SECRET", "")

	_, err := Load(context.Background())
	assert.Error(t, err)
}
