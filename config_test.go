package main

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("OPERATOR_KEY", "key")
	t.Setenv("JWT_SECRET", "secret")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "3000", cfg.Port)
	assert.Equal(t, ":3000", cfg.Addr())
	assert.Equal(t, 60*time.Second, cfg.SessionTTL)
	assert.Equal(t, []string{"*"}, cfg.AllowedOrigins)
	assert.Empty(t, cfg.StateFile)
}

func TestLoadConfigRequiresSecrets(t *testing.T) {
	t.Setenv("OPERATOR_KEY", "")
	t.Setenv("JWT_SECRET", "secret")
	_, err := LoadConfig()
	assert.Error(t, err)
	assert.Panics(t, func() { MustLoadConfig() })
}

func TestLoadConfigRejectsNonPositiveTTL(t *testing.T) {
	t.Setenv("OPERATOR_KEY", "key")
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("SESSION_TTL", "0s")
	_, err := LoadConfig()
	assert.Error(t, err)
}
