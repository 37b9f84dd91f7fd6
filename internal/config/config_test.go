package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"PORT", "AUTH_TOKENS", "DATABASE_PATH", "ARK_MODEL", "ARK_API_KEY", "GEMINI_API_KEY", "RATE_LIMIT_RPS"} {
		t.Setenv(key, "")
	}

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":8000", cfg.Server.Addr)
	assert.Equal(t, "/api/v1", cfg.Server.APIPrefix)
	assert.Equal(t, 5000, cfg.Server.MaxInputLength)
	assert.False(t, cfg.AI.Enabled())
	assert.False(t, cfg.AI.GeminiEnabled())
	assert.Equal(t, 30*time.Second, cfg.AI.GenerateTimeout)
	assert.Empty(t, cfg.Auth.Tokens)
	assert.True(t, cfg.RateLimit.Enabled)
	assert.Equal(t, 1.0, cfg.RateLimit.RPS)
}

func TestLoadServerAddrVariants(t *testing.T) {
	t.Setenv("PORT", "127.0.0.1:9000")
	server, err := loadServerConfig()
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:9000", server.Addr)

	t.Setenv("PORT", "80 80")
	_, err = loadServerConfig()
	assert.Error(t, err)
}

func TestLoadAuthTokens(t *testing.T) {
	t.Setenv("AUTH_TOKENS", "tok-1:alice, tok-2:bob")
	auth, err := loadAuthConfig()
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"tok-1": "alice", "tok-2": "bob"}, auth.Tokens)

	t.Setenv("AUTH_TOKENS", "broken")
	_, err = loadAuthConfig()
	assert.Error(t, err)
}

func TestAIConfigEnabled(t *testing.T) {
	assert.True(t, AIConfig{Model: "m", APIKey: "k"}.Enabled())
	assert.True(t, AIConfig{Model: "m", AccessKey: "a", SecretKey: "s"}.Enabled())
	assert.False(t, AIConfig{APIKey: "k"}.Enabled())
}

func TestParseBoolEnvInvalid(t *testing.T) {
	t.Setenv("RATE_LIMIT_ENABLED", "sometimes")
	_, err := loadRateLimitConfig()
	assert.Error(t, err)
}
