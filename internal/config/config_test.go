package config

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
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_AppliesDefaults(t *testing.T) {
	path := writeConfig(t, `
[reminders]
trigger_secret = "s3cret"
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.HTTPPort)
	assert.Equal(t, 5*time.Minute, cfg.Reminders.Period())
	assert.Equal(t, time.Minute, cfg.Reminders.Budget())
	require.Len(t, cfg.Reminders.Offsets, 3)
	assert.Equal(t, ReminderOffset{Type: "1h", Minutes: 60}, cfg.Reminders.Offsets[1])
	assert.Equal(t, "noop", cfg.Notifications.Provider)
	assert.Equal(t, 30, cfg.Notifications.SMTP.Timeout)
}

func TestLoad_OverridesOffsets(t *testing.T) {
	path := writeConfig(t, `
[reminders]
trigger_secret = "s3cret"
period_minutes = 10

[[reminders.offsets]]
type = "2h"
minutes = 120
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, []ReminderOffset{{Type: "2h", Minutes: 120}}, cfg.Reminders.Offsets)
	assert.Equal(t, 10*time.Minute, cfg.Reminders.Period())
}

func TestLoad_EnvOverridesSecrets(t *testing.T) {
	t.Setenv("TRIGGER_SECRET", "from-env")
	t.Setenv("DB_PASSWORD", "db-pass")

	path := writeConfig(t, `
[database]
password = "file-pass"
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.Reminders.TriggerSecret)
	assert.Equal(t, "db-pass", cfg.Database.Password)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
	assert.ErrorIs(t, err, ErrReadConfig)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"no secret", func(c *Config) { c.Reminders.TriggerSecret = "" }},
		{"zero period", func(c *Config) { c.Reminders.PeriodMinutes = 0 }},
		{"duplicate offset", func(c *Config) {
			c.Reminders.Offsets = []ReminderOffset{{Type: "1h", Minutes: 60}, {Type: "1h", Minutes: 30}}
		}},
		{"unknown channel", func(c *Config) { c.Reminders.Channel = "pigeon" }},
		{"smtp without host", func(c *Config) { c.Notifications.Provider = "smtp" }},
		{"rate limit without redis", func(c *Config) { c.RateLimit.Enabled = true }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			cfg.Reminders.TriggerSecret = "x"
			tt.mutate(cfg)
			assert.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)
		})
	}
}
