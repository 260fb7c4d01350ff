package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoad_Defaults(t *testing.T) {
	for _, k := range []string{"OPENAI_MODEL", "CACHE_TTL", "HTTP_PORT", "MAX_UPLOAD_MB", "ALLOWED_EMAILS", "RATE_LIMIT_PER_MINUTE"} {
		t.Setenv(k, "")
	}

	cfg := Load()

	assert.Equal(t, "gpt-4o-mini", cfg.OpenAIModel)
	assert.Equal(t, 24*time.Hour, cfg.CacheTTL)
	assert.Equal(t, "8080", cfg.HTTPPort)
	assert.Equal(t, int64(10), cfg.MaxUploadMB)
	assert.Empty(t, cfg.AllowedEmails)
	assert.Equal(t, 30, cfg.RateLimitPerMinute)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("OPENAI_MODEL", "gpt-4o")
	t.Setenv("CACHE_TTL", "30m")
	t.Setenv("MAX_UPLOAD_MB", "25")
	t.Setenv("ALLOWED_EMAILS", "ana@empresa.com.br, bob@empresa.com.br;@parceiro.com")
	t.Setenv("RATE_LIMIT_PER_MINUTE", "0")

	cfg := Load()

	assert.Equal(t, "gpt-4o", cfg.OpenAIModel)
	assert.Equal(t, 30*time.Minute, cfg.CacheTTL)
	assert.Equal(t, int64(25), cfg.MaxUploadMB)
	assert.Equal(t, []string{"ana@empresa.com.br", "bob@empresa.com.br", "@parceiro.com"}, cfg.AllowedEmails)
	assert.Equal(t, 0, cfg.RateLimitPerMinute)
}

func TestLoad_InvalidValuesFallBack(t *testing.T) {
	t.Setenv("CACHE_TTL", "amanhã")
	t.Setenv("MAX_UPLOAD_MB", "-3")

	cfg := Load()

	assert.Equal(t, 24*time.Hour, cfg.CacheTTL)
	assert.Equal(t, int64(10), cfg.MaxUploadMB)
}
