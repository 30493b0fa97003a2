package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg := LoadConfig()

	assert.Equal(t, 8002, cfg.Server.Port)
	assert.Equal(t, 587, cfg.SMTP.Port)
	assert.Equal(t, time.Hour, cfg.Scheduler.Interval)
	assert.Equal(t, "http://entries-service:80", cfg.Services.Entries)
	assert.Equal(t, "http://user-service:80", cfg.Services.Users)
	assert.Equal(t, "http://pdf-service:80", cfg.Services.PDF)
}

func TestLoadConfigEnvOverride(t *testing.T) {
	t.Setenv("TRACKIFY_MAIL_SERVER_PORT", "9100")
	t.Setenv("TRACKIFY_MAIL_SCHEDULER_INTERVAL", "30m")

	cfg := LoadConfig()

	assert.Equal(t, 9100, cfg.Server.Port)
	assert.Equal(t, 30*time.Minute, cfg.Scheduler.Interval)
}

func TestLoadConfigEnvOverrideSecrets(t *testing.T) {
	// Secret-bearing keys have no config-file value in a container
	// deployment; they must still be reachable through the env.
	t.Setenv("TRACKIFY_MAIL_JWT_SECRET", "super-secret")
	t.Setenv("TRACKIFY_MAIL_SMTP_HOST", "smtp.example.com")
	t.Setenv("TRACKIFY_MAIL_SMTP_SENDER", "reports@trackify.app")
	t.Setenv("TRACKIFY_MAIL_SMTP_PASSWORD", "smtp-pass")
	t.Setenv("TRACKIFY_MAIL_SLACK_WEBHOOKURL", "https://hooks.slack.example/T000")
	t.Setenv("TRACKIFY_MAIL_SLACK_CHANNEL", "#mailer-ops")

	cfg := LoadConfig()

	assert.Equal(t, "super-secret", cfg.JWT.Secret)
	assert.Equal(t, "smtp.example.com", cfg.SMTP.Host)
	assert.Equal(t, "reports@trackify.app", cfg.SMTP.Sender)
	assert.Equal(t, "smtp-pass", cfg.SMTP.Password)
	assert.Equal(t, "https://hooks.slack.example/T000", cfg.Slack.WebhookURL)
	assert.Equal(t, "#mailer-ops", cfg.Slack.Channel)
}
