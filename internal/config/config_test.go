package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "localhost", cfg.Database.Host)
	assert.Equal(t, "5432", cfg.Database.Port)
	assert.Equal(t, "public", cfg.Database.SearchPath)
	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, 15*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, 24*time.Hour, cfg.JWT.ExpiryPeriod)
	assert.Equal(t, "sendgrid", cfg.Email.Provider)
	assert.Empty(t, cfg.Invitation.SweepSchedule)
}

func TestLoad_Environment(t *testing.T) {
	t.Setenv("DB_HOST", "db.internal")
	t.Setenv("DB_SSLMODE", "require")
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("SMTP_PORT", "2525")
	t.Setenv("EMAIL_PROVIDER", "smtp")
	t.Setenv("INVITATION_SWEEP_SCHEDULE", "@every 1h")
	t.Setenv("BASE_URL", "https://app.example.com")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "db.internal", cfg.Database.Host)
	assert.Equal(t, "require", cfg.Database.SSLMode)
	assert.Equal(t, "s3cret", cfg.JWT.Secret)
	assert.Equal(t, 2525, cfg.SMTP.Port)
	assert.Equal(t, "smtp", cfg.Email.Provider)
	assert.Equal(t, "@every 1h", cfg.Invitation.SweepSchedule)
	assert.Equal(t, "https://app.example.com", cfg.BaseURL)
}

func TestLoad_ConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "orgaccess.yaml")
	require.NoError(t, os.WriteFile(path, []byte("db:\n  name: fromfile\nserver:\n  port: \"9000\"\n"), 0o600))

	t.Setenv("CONFIG_FILE", path)
	t.Setenv("SERVER_PORT", "9100")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "fromfile", cfg.Database.Name)
	// Environment wins over the file.
	assert.Equal(t, "9100", cfg.Server.Port)
}

func TestLoad_MissingConfigFile(t *testing.T) {
	t.Setenv("CONFIG_FILE", filepath.Join(t.TempDir(), "missing.yaml"))

	_, err := Load()
	assert.Error(t, err)
}

func TestDSN(t *testing.T) {
	cfg := &Config{}
	cfg.Database.Host = "h"
	cfg.Database.Port = "1"
	cfg.Database.User = "u"
	cfg.Database.Password = "p"
	cfg.Database.Name = "n"
	cfg.Database.SSLMode = "disable"
	cfg.Database.SearchPath = "public"

	assert.Equal(t, "host=h port=1 user=u password=p dbname=n sslmode=disable search_path=public", cfg.DSN())
}
