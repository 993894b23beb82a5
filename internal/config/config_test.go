package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfig(t, `
database:
  path: /tmp/bezero.db
api:
  jwt:
    secret: unit-test-secret
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "bezero", cfg.App.Name)
	assert.Equal(t, 8080, cfg.API.Port)
	assert.Equal(t, "24h", cfg.API.JWT.TTL)
	assert.Equal(t, float64(10), cfg.API.RateLimit.RPS)
	assert.Equal(t, 20, cfg.API.RateLimit.Burst)
	assert.Equal(t, 50, cfg.Chat.HistorySize)
	assert.Equal(t, 2000, cfg.Chat.MaxBodyLength)
	assert.Equal(t, int64(500), cfg.Points.SignupBonus)
	assert.Equal(t, "configs/catalog.yaml", cfg.CatalogPath)
	assert.Equal(t, 2*time.Second, cfg.Worker.Poll())
	assert.Equal(t, time.Minute, cfg.Worker.Sweep())
}

func TestLoadExpandsEnv(t *testing.T) {
	t.Setenv("TEST_DB_PATH", "/tmp/from-env.db")
	t.Setenv("TEST_JWT_SECRET", "env-secret")

	path := writeConfig(t, `
database:
  path: ${TEST_DB_PATH}
api:
  jwt:
    secret: ${TEST_JWT_SECRET}
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/tmp/from-env.db", cfg.Database.Path)
	assert.Equal(t, "env-secret", cfg.API.JWT.Secret)
}

func TestLoadValidation(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{
			name: "missing database path",
			content: `
api:
  jwt:
    secret: s
`,
		},
		{
			name: "missing jwt secret",
			content: `
database:
  path: /tmp/x.db
`,
		},
		{
			name: "placeholder jwt secret",
			content: `
database:
  path: /tmp/x.db
api:
  jwt:
    secret: CHANGE_ME
`,
		},
		{
			name: "telegram enabled without token",
			content: `
database:
  path: /tmp/x.db
api:
  jwt:
    secret: s
telegram:
  enabled: true
`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.content))
			assert.Error(t, err)
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestJWTTokenTTL(t *testing.T) {
	assert.Equal(t, time.Hour, JWTConfig{TTL: "1h"}.TokenTTL())
	assert.Equal(t, 24*time.Hour, JWTConfig{TTL: "garbage"}.TokenTTL())
	assert.Equal(t, 24*time.Hour, JWTConfig{}.TokenTTL())
}
