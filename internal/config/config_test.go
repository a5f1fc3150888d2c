package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	assert := assert.New(t)

	cfg, err := LoadFromEnv()
	require.NoError(t, err)

	assert.Equal("jazzband", cfg.OrgID)
	assert.Equal([]string{"read:org", "user:email"}, cfg.Scopes)
	assert.Equal(int64(0), cfg.TeamID)
	assert.Equal("dev key", cfg.SecretKey)
	assert.False(cfg.Debug)
	assert.True(cfg.CookieSecure())
	assert.Equal("redis://127.0.0.1:6379/0", cfg.RedisURL)
	assert.True(cfg.SessionUseSigner)
	assert.Equal([]byte("dev key"), cfg.SessionSigningKey())
	assert.Equal(":5000", cfg.ListenAddr)
	assert.NotEmpty(cfg.Warnings())
}

func TestFromEnv(t *testing.T) {
	assert := assert.New(t)

	t.Setenv("GITHUB_CLIENT_ID", "id")
	t.Setenv("GITHUB_CLIENT_SECRET", "secret")
	t.Setenv("GITHUB_ORG_ID", "acme")
	t.Setenv("GITHUB_SCOPE", "read:org, user:email,")
	t.Setenv("GITHUB_TEAM_ID", "1234")
	t.Setenv("GITHUB_ADMIN_TOKEN", "admin")
	t.Setenv("SECRET_KEY", "s3cret")
	t.Setenv("DEBUG", "True")
	t.Setenv("SESSION_USE_SIGNER", "false")

	cfg, err := LoadFromEnv()
	require.NoError(t, err)

	assert.Equal("acme", cfg.OrgID)
	assert.Equal([]string{"read:org", "user:email"}, cfg.Scopes)
	assert.Equal(int64(1234), cfg.TeamID)
	assert.True(cfg.Debug)
	assert.False(cfg.CookieSecure())
	assert.Nil(cfg.SessionSigningKey())
	assert.Empty(cfg.Warnings())
}

func TestInvalidValues(t *testing.T) {
	for name, env := range map[string][2]string{
		"team id":    {"GITHUB_TEAM_ID", "not-a-number"},
		"redis url":  {"REDIS_URL", "http://localhost"},
		"debug":      {"DEBUG", "maybe"},
	} {
		t.Run(name, func(t *testing.T) {
			t.Setenv(env[0], env[1])

			_, err := LoadFromEnv()
			assert.Error(t, err)
		})
	}
}

func TestLoadEnvFile(t *testing.T) {
	assert := assert.New(t)

	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("GITHUB_ORG_ID=from-file\nGITHUB_TEAM_ID=7\n"), 0o600))

	// godotenv leaves variables that are already set alone
	t.Setenv("GITHUB_TEAM_ID", "9")
	t.Cleanup(func() { os.Unsetenv("GITHUB_ORG_ID") })

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal("from-file", cfg.OrgID)
	assert.Equal(int64(9), cfg.TeamID)
}

func TestLoadMissingEnvFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	assert.NoError(t, err)
}

func TestValidateRejectsEmptySecret(t *testing.T) {
	cfg := &Config{RedisURL: "redis://127.0.0.1:6379/0"}
	assert.Error(t, cfg.Validate())

	cfg.SecretKey = "k"
	assert.NoError(t, cfg.Validate())
}
