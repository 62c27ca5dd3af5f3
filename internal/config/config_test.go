package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phimkappa/phimkappa/internal/constants"
	apperrors "github.com/phimkappa/phimkappa/internal/errors"
)

func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("ENV_FILE", filepath.Join(dir, "missing.env"))
	t.Setenv("CONFIG_FILE", filepath.Join(dir, "missing.json"))
	return dir
}

func TestLoadDefaults(t *testing.T) {
	isolate(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, constants.DefaultPort, cfg.Port)
	assert.Equal(t, constants.ProbeStrategyRace, cfg.ProbeStrategy)
	assert.Equal(t, constants.CacheBackendMemory, cfg.CacheBackend)
	assert.Equal(t, constants.DefaultResolverHosts, cfg.ResolverHosts)
	assert.Equal(t, constants.ProbeTimeout, cfg.ProbeTimeout)
	assert.False(t, cfg.AcceptUnverified)
	assert.True(t, cfg.MetricsEnabled)
}

func TestLoadFromEnv(t *testing.T) {
	isolate(t)
	t.Setenv("PORT", "8080")
	t.Setenv("RESOLVER_HOSTS", "s2, s3 ,,cdn.example.net")
	t.Setenv("PROBE_STRATEGY", "Sequential")
	t.Setenv("PROBE_TIMEOUT", "5s")
	t.Setenv("ACCEPT_UNVERIFIED", "true")
	t.Setenv("PUBLIC_BASE_URL", "https://kappa.example.com/")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, []string{"s2", "s3", "cdn.example.net"}, cfg.ResolverHosts)
	assert.Equal(t, constants.ProbeStrategySequential, cfg.ProbeStrategy)
	assert.Equal(t, 5*time.Second, cfg.ProbeTimeout)
	assert.True(t, cfg.AcceptUnverified)
	assert.Equal(t, "https://kappa.example.com", cfg.PublicBaseURL)
}

func TestEnvOverridesFile(t *testing.T) {
	dir := isolate(t)
	file := filepath.Join(dir, "config.json")
	require.NoError(t, os.WriteFile(file, []byte(`{
		"PORT": "9000",
		"RESOLVE_CONCURRENCY": 3,
		"DROP_UNRESOLVED": true,
		"RESOLVER_HOSTS": ["s4", "s5"]
	}`), 0o600))
	t.Setenv("CONFIG_FILE", file)
	t.Setenv("PORT", "9100")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9100", cfg.Port)
	assert.Equal(t, 3, cfg.ResolveConcurrency)
	assert.True(t, cfg.DropUnresolved)
	assert.Equal(t, []string{"s4", "s5"}, cfg.ResolverHosts)
}

func TestLoadRejectsBadValues(t *testing.T) {
	isolate(t)
	t.Setenv("PROBE_TIMEOUT", "soon")

	_, err := Load()
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeConfigurationInvalid))
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"unknown strategy", func(c *Config) { c.ProbeStrategy = "parallel" }},
		{"unknown backend", func(c *Config) { c.CacheBackend = "memcached" }},
		{"no hosts", func(c *Config) { c.ResolverHosts = nil }},
		{"pattern without group", func(c *Config) { c.ResolverHostPattern = `^https://s\d+\.` }},
		{"pattern with two groups", func(c *Config) { c.ResolverHostPattern = `^(https)://(s\d+)\.` }},
		{"bad pattern", func(c *Config) { c.ResolverHostPattern = `^(` }},
		{"probe timeout too short", func(c *Config) { c.ProbeTimeout = 100 * time.Millisecond }},
		{"probe timeout too long", func(c *Config) { c.ProbeTimeout = time.Minute }},
		{"zero ttl", func(c *Config) { c.ResolveCacheTTL = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}

	assert.NoError(t, Default().Validate())
}
