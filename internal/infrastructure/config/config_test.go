package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("APIP_ENV_FILE", filepath.Join(t.TempDir(), "missing.env"))

	cfg := LoadConfig()

	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, "8080", cfg.Server.Port)
	assert.False(t, cfg.OTLP.Enabled)
	assert.Equal(t, "apip-render", cfg.OTLP.ServiceName)
	assert.Empty(t, cfg.Upstream.EmbedEndpoint)
	assert.Equal(t, 10*time.Second, cfg.Upstream.Timeout)
	assert.Equal(t, 512, cfg.Images.DimensionCacheSize)
	assert.True(t, cfg.Render.Prefetch)
	assert.Equal(t, 4, cfg.Render.PrefetchLimit)
}

func TestLoadConfigEnvOverrides(t *testing.T) {
	t.Setenv("APIP_ENV_FILE", filepath.Join(t.TempDir(), "missing.env"))
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("APIP_EMBED_ENDPOINT", "http://embed.internal/element")
	t.Setenv("APIP_EMBED_TIMEOUT", "2s")
	t.Setenv("APIP_PREFETCH", "false")
	t.Setenv("APIP_PREFETCH_LIMIT", "not-a-number")
	t.Setenv("OTEL_ENABLED", "true")

	cfg := LoadConfig()

	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, "http://embed.internal/element", cfg.Upstream.EmbedEndpoint)
	assert.Equal(t, 2*time.Second, cfg.Upstream.Timeout)
	assert.False(t, cfg.Render.Prefetch)
	assert.Equal(t, 4, cfg.Render.PrefetchLimit)
	assert.True(t, cfg.OTLP.Enabled)
}

func TestLoadConfigReadsEnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.env")
	err := os.WriteFile(path, []byte("APIP_DEFAULT_PARTNER_ID=site-20\nSERVER_HOST=127.0.0.1\n"), 0o600)
	assert.NoError(t, err)

	t.Setenv("APIP_ENV_FILE", path)
	t.Setenv("SERVER_HOST", "10.0.0.1")
	// godotenv only fills variables that are not already set
	_ = os.Unsetenv("APIP_DEFAULT_PARTNER_ID")
	t.Cleanup(func() { _ = os.Unsetenv("APIP_DEFAULT_PARTNER_ID") })

	cfg := LoadConfig()

	assert.Equal(t, "site-20", cfg.Upstream.DefaultPartnerID)
	assert.Equal(t, "10.0.0.1", cfg.Server.Host, "environment wins over the file")
}
