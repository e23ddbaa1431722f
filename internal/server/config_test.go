package server

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.toml"), []byte(body), 0o600))
	return dir
}

func TestLoadConfig_Defaults(t *testing.T) {
	t.Setenv("APP_ENV", EnvTesting)
	t.Setenv("AIRDROP_AUTH_JWT_SECRET", "from-env")

	cfg, err := loadConfig(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, EnvTesting, cfg.Env)
	assert.Equal(t, "from-env", cfg.Auth.JWTSecret)
	assert.Equal(t, 7*24*time.Hour, cfg.Auth.TokenExpiration)
	assert.Equal(t, 12, cfg.Auth.BcryptCost)
	assert.Equal(t, 5, cfg.Auth.Lockout.Threshold)
	assert.Equal(t, 2*time.Hour, cfg.Auth.Lockout.Duration)
	assert.Equal(t, 10*time.Minute, cfg.Auth.Tokens.PasswordResetTTL)
	assert.Equal(t, 24*time.Hour, cfg.Auth.Tokens.EmailVerificationTTL)
	assert.Equal(t, "memory", cfg.RateLimit.Store)

	login, ok := cfg.RateLimit.Rules["login"]
	require.True(t, ok)
	assert.Equal(t, 15*time.Minute, login.Window)
	assert.Equal(t, 5, login.Max)
}

func TestLoadConfig_FileAndEnvOverrides(t *testing.T) {
	t.Setenv("APP_ENV", EnvProduction)
	t.Setenv("AIRDROP_DATABASE_HOST", "db.internal")

	dir := writeConfig(t, `
[server]
port = "9000"

[server.production]
port = "443"

[database]
host = "localhost"
name = "journal"

[auth]
jwt_secret = "file-secret"
bcrypt_cost = 10
`)

	cfg, err := loadConfig(dir)
	require.NoError(t, err)

	assert.Equal(t, "443", cfg.Server.Port)
	assert.Equal(t, "db.internal", cfg.Database.Host)
	assert.Equal(t, "journal", cfg.Database.Name)
	assert.Equal(t, "file-secret", cfg.Auth.JWTSecret)
	assert.Equal(t, 10, cfg.Auth.BcryptCost)
}

func TestLoadConfig_MissingSecretIsFatal(t *testing.T) {
	t.Setenv("APP_ENV", EnvTesting)

	_, err := loadConfig(t.TempDir())
	assert.ErrorIs(t, err, ErrMissingJWTSecret)
}

func TestValidate_MailDriver(t *testing.T) {
	t.Setenv("APP_ENV", EnvTesting)
	t.Setenv("AIRDROP_AUTH_JWT_SECRET", "secret")
	t.Setenv("AIRDROP_MAIL_DRIVER", "kafka")

	_, err := loadConfig(t.TempDir())
	assert.Error(t, err)
}
