package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("FALLBACK_CONTACT", "")
	t.Setenv("DISPATCH_STAGGER", "")

	cfg := LoadConfig()

	assert.Equal(t, "8080", cfg.AppPort)
	assert.Equal(t, "919753239303", cfg.FallbackContact)
	assert.Equal(t, "91", cfg.CountryCode)
	assert.Equal(t, "https://wa.me", cfg.MessagingBaseURL)
	assert.Equal(t, 100*time.Millisecond, cfg.DispatchStagger)
	assert.Equal(t, []string{"*"}, cfg.CORSAllowedOrigins)
}

func TestLoadConfigOverrides(t *testing.T) {
	t.Setenv("DISPATCH_STAGGER", "250ms")
	t.Setenv("MESSAGING_BASE_URL", "https://chat.example.com/")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example")
	t.Setenv("MAX_UPLOAD_BYTES", "not-a-number")

	cfg := LoadConfig()

	assert.Equal(t, 250*time.Millisecond, cfg.DispatchStagger)
	assert.Equal(t, "https://chat.example.com", cfg.MessagingBaseURL)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSAllowedOrigins)
	assert.Equal(t, int64(10<<20), cfg.MaxUploadBytes)
}

func TestValidate(t *testing.T) {
	t.Run("development gets a local secret", func(t *testing.T) {
		cfg := &Config{Environment: "development", FallbackContact: "1"}
		require.NoError(t, cfg.Validate())
		assert.NotEmpty(t, cfg.JWTSecret)
	})

	t.Run("production requires a secret", func(t *testing.T) {
		cfg := &Config{Environment: "production", FallbackContact: "1"}
		assert.Error(t, cfg.Validate())
	})

	t.Run("user id header refused outside development", func(t *testing.T) {
		cfg := &Config{Environment: "production", JWTSecret: "s", AllowUserIDHeader: true, FallbackContact: "1"}
		assert.Error(t, cfg.Validate())
	})
}
