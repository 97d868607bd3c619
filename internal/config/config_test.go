package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing-is-not-used.toml"))
	require.Error(t, err)
	assert.Nil(t, cfg)

	t.Chdir(t.TempDir())
	cfg, err = Load("")
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, 10*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, 60, cfg.RateLimit.PerMinute)
	assert.Equal(t, []string{"*"}, cfg.CORS.Origins)
}

func TestLoadFileThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "showtalk.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
[server]
port = "9000"

[auth]
jwt_secret = "from-file"
issuer = "https://id.example.com"
`), 0o644))
	t.Setenv("SHOWTALK_AUTH_JWT_SECRET", "from-env")
	t.Setenv("SHOWTALK_LOG_LEVEL", "debug")

	cfg, err := Load(path)

	require.NoError(t, err)
	assert.Equal(t, "9000", cfg.Server.Port)
	assert.Equal(t, "from-env", cfg.Auth.JWTSecret)
	assert.Equal(t, "https://id.example.com", cfg.Auth.Issuer)
	assert.Equal(t, "debug", cfg.Log.Level)
	require.NoError(t, Validate(cfg))
}

func TestValidate(t *testing.T) {
	cfg := &Config{}
	cfg.Database.URL = "postgres://x"
	cfg.RateLimit.PerMinute = 1
	assert.EqualError(t, Validate(cfg), "auth jwt_secret is required")

	cfg.Auth.JWTSecret = "s"
	assert.NoError(t, Validate(cfg))
}

func TestEnvKey(t *testing.T) {
	assert.Equal(t, "database.url", envKey("SHOWTALK_DATABASE_URL"))
	assert.Equal(t, "auth.jwt_secret", envKey("SHOWTALK_AUTH_JWT_SECRET"))
	assert.Equal(t, "ratelimit.per_minute", envKey("SHOWTALK_RATELIMIT_PER_MINUTE"))
}
