package config

import (
	"os"
	"path/filepath"
	"testing"

	apperrors "synctask-notifications/internal/common/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const baseYAML = `
camunda:
  broker_address: localhost:26500
database:
  postgres:
    host: localhost
    database: synctask
    user: synctask
auth:
  jwt_secret: test-secret
mail:
  from_address: noreply@synctask.app
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadFromFile_Defaults(t *testing.T) {
	cfg, err := LoadFromFile(writeConfig(t, baseYAML))
	require.NoError(t, err)

	assert.Equal(t, "synctask-notifications", cfg.App.Name)
	assert.Equal(t, MailProviderSMTP, cfg.Mail.Provider)
	assert.Equal(t, "SyncTask", cfg.Mail.FromName)
	assert.Equal(t, "smtp.gmail.com", cfg.Mail.SMTP.Host)
	assert.Equal(t, 587, cfg.Mail.SMTP.Port)
	assert.Equal(t, "noreply@synctask.app", cfg.Mail.SMTP.Username)
	assert.Equal(t, TriggerSourceZeebe, cfg.Triggers.Source)
	assert.Equal(t, "record_changes", cfg.Triggers.Channel)
	assert.Equal(t, 5432, cfg.Database.Postgres.Port)
	assert.Equal(t, "disable", cfg.Database.Postgres.SSLMode)
	assert.Equal(t, ":8081", cfg.Server.Address)
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestLoadFromFile_Validation(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		errMsg  string
		wantErr bool
	}{
		{
			name: "missing from address",
			yaml: `
camunda: {broker_address: "localhost:26500"}
database: {postgres: {host: localhost, database: synctask, user: synctask}}
auth: {jwt_secret: s}
`,
			wantErr: true,
			errMsg:  "mail.from_address is required",
		},
		{
			name:    "unknown provider",
			yaml:    baseYAML + "\n  provider: carrier-pigeon\n",
			wantErr: true,
			errMsg:  "mail.provider must be smtp or ses",
		},
		{
			name: "zeebe source without broker",
			yaml: `
database: {postgres: {host: localhost, database: synctask, user: synctask}}
auth: {jwt_secret: s}
mail: {from_address: noreply@synctask.app}
`,
			wantErr: true,
			errMsg:  "camunda.broker_address is required",
		},
		{
			name: "postgres source without broker",
			yaml: `
triggers: {source: postgres}
database: {postgres: {host: localhost, database: synctask, user: synctask}}
auth: {jwt_secret: s}
mail: {from_address: noreply@synctask.app}
`,
		},
		{
			name:    "unknown trigger source",
			yaml:    baseYAML + "triggers:\n  source: kafka\n",
			wantErr: true,
			errMsg:  "triggers.source must be one of",
		},
		{
			name: "revocation check without redis",
			yaml: `
camunda: {broker_address: "localhost:26500"}
database: {postgres: {host: localhost, database: synctask, user: synctask}}
auth: {jwt_secret: s, revocation_check: true}
mail: {from_address: noreply@synctask.app}
`,
			wantErr: true,
			errMsg:  "database.redis.address is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadFromFile(writeConfig(t, tt.yaml))
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errMsg)
				assert.Equal(t, apperrors.ErrCodeConfigInvalid, apperrors.GetErrorCode(err))
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestLoadFromFile_EnvOverrides(t *testing.T) {
	t.Setenv("JWT_SECRET", "from-env")
	t.Setenv("SYNCTASK_SMTP_PASSWORD", "app-password")

	cfg, err := LoadFromFile(writeConfig(t, `
camunda: {broker_address: "localhost:26500"}
database: {postgres: {host: localhost, database: synctask, user: synctask}}
mail:
  from_address: noreply@synctask.app
  smtp:
    password: ${SYNCTASK_SMTP_PASSWORD}
`))
	require.NoError(t, err)

	assert.Equal(t, "from-env", cfg.Auth.JWTSecret)
	assert.Equal(t, "app-password", cfg.Mail.SMTP.Password)
}

func TestGetWorkerConfig(t *testing.T) {
	cfg, err := LoadFromFile(writeConfig(t, baseYAML+`
workers:
  send-welcome-email:
    enabled: false
`))
	require.NoError(t, err)

	assert.False(t, IsWorkerEnabled(cfg, "send-welcome-email"))
	assert.True(t, IsWorkerEnabled(cfg, "send-friend-request-email"))

	wc := GetWorkerConfig(cfg, "send-welcome-email")
	assert.Equal(t, cfg.Camunda.MaxJobsActive, wc.MaxJobsActive)
	assert.Equal(t, cfg.Camunda.Timeout, wc.Timeout)

	fallback := GetWorkerConfig(cfg, "send-friend-request-email")
	assert.True(t, fallback.Enabled)
}

func TestTriggersConfig_Sources(t *testing.T) {
	assert.True(t, TriggersConfig{Source: TriggerSourceBoth}.UsesZeebe())
	assert.True(t, TriggersConfig{Source: TriggerSourceBoth}.UsesPostgres())
	assert.False(t, TriggersConfig{Source: TriggerSourceZeebe}.UsesPostgres())
	assert.False(t, TriggersConfig{Source: TriggerSourcePostgres}.UsesZeebe())
}

func TestIsWorkerEnabled_CamelCaseCallable(t *testing.T) {
	cfg, err := LoadFromFile(writeConfig(t, baseYAML+`
workers:
  sendGroupInvitationEmail:
    enabled: false
`))
	require.NoError(t, err)

	assert.False(t, IsWorkerEnabled(cfg, "sendGroupInvitationEmail"))
	assert.True(t, IsWorkerEnabled(cfg, "sendTaskDeadlineReminderEmail"))
}
