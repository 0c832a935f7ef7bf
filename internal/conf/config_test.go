package conf

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

// setRequiredEnv sets the four required secrets for a Load call.
func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("DRUGFINDER_CODA_APIKEY", "test-api-key")
	t.Setenv("DRUGFINDER_CODA_DOCID", "doc-123")
	t.Setenv("DRUGFINDER_MAIL_ACCOUNT", "clinic.bot@example.com")
	t.Setenv("DRUGFINDER_MAIL_PASSWORD", "app-password")
}

func resetViper(t *testing.T) {
	t.Helper()
	viper.Reset()
	t.Cleanup(viper.Reset)
}

func TestLoadDefaults(t *testing.T) {
	resetViper(t)
	setRequiredEnv(t)

	settings, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "test-api-key", settings.Coda.APIKey)
	assert.Equal(t, "doc-123", settings.Coda.DocID)
	assert.Equal(t, "https://coda.io/apis/v1", settings.Coda.BaseURL)
	assert.Equal(t, DefaultTableInventory, settings.Coda.Tables.Inventory)
	assert.Equal(t, DefaultTableWishlist, settings.Coda.Tables.Wishlist)

	assert.Equal(t, "smtp.gmail.com", settings.Mail.Host)
	assert.Equal(t, 587, settings.Mail.Port)

	assert.Equal(t, time.Hour, settings.Cache.Cities)
	assert.Equal(t, 60*time.Second, settings.Cache.Drugs)
	assert.Equal(t, 30*time.Second, settings.Cache.Inventory)
	assert.Equal(t, 10*time.Second, settings.Cache.Requests)
	assert.Equal(t, 5*time.Second, settings.Cache.Feedback)
	assert.Equal(t, 2*time.Second, settings.Cache.WriteSettle)

	assert.Zero(t, settings.Verification.MaxCodeAge, "codes do not expire by default")
	assert.Equal(t, 2*time.Hour, settings.Server.SessionTTL)
	assert.Same(t, settings, GetSettings())
}

func TestLoadLegacySecretNames(t *testing.T) {
	resetViper(t)
	t.Setenv("CODA_API_KEY", "legacy-key")
	t.Setenv("DOC_ID", "legacy-doc")
	t.Setenv("MAIL_ACCOUNT", "legacy@example.com")
	t.Setenv("MAIL_PASSWORD", "legacy-pw")

	settings, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "legacy-key", settings.Coda.APIKey)
	assert.Equal(t, "legacy-doc", settings.Coda.DocID)
}

func TestLoadSecretFromFile(t *testing.T) {
	resetViper(t)
	setRequiredEnv(t)

	path := filepath.Join(t.TempDir(), "mail_password")
	require.NoError(t, os.WriteFile(path, []byte("from-file\n"), 0o600))
	t.Setenv("DRUGFINDER_MAIL_PASSWORD_FILE", path)

	settings, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "from-file", settings.Mail.Password)
}

func TestLoadMissingSecretsAborts(t *testing.T) {
	resetViper(t)
	t.Setenv("DRUGFINDER_CODA_APIKEY", "only-this-one")
	for _, name := range []string{"CODA_API_KEY", "DOC_ID", "MAIL_ACCOUNT", "MAIL_PASSWORD",
		"DRUGFINDER_CODA_DOCID", "DRUGFINDER_MAIL_ACCOUNT", "DRUGFINDER_MAIL_PASSWORD"} {
		t.Setenv(name, "")
	}

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "coda.docid")
	assert.Contains(t, err.Error(), "mail.account")
	assert.Contains(t, err.Error(), "mail.password")
	assert.NotContains(t, err.Error(), "coda.apikey")
}

func TestLoadRejectsInvalidEnv(t *testing.T) {
	resetViper(t)
	setRequiredEnv(t)
	t.Setenv("DRUGFINDER_MAIL_PORT", "smtp")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DRUGFINDER_MAIL_PORT")
}

func TestValidateSettings(t *testing.T) {
	resetViper(t)
	setRequiredEnv(t)
	settings, err := Load()
	require.NoError(t, err)

	tests := []struct {
		name    string
		mutate  func(s *Settings)
		wantErr string
	}{
		{"valid", func(s *Settings) {}, ""},
		{"zero ttl", func(s *Settings) { s.Cache.Feedback = 0 }, "cache.feedback"},
		{"empty table", func(s *Settings) { s.Coda.Tables.Cities = " " }, "coda.tables.cities"},
		{"bad base url", func(s *Settings) { s.Coda.BaseURL = "coda.io" }, "coda.baseurl"},
		{"negative code age", func(s *Settings) { s.Verification.MaxCodeAge = -time.Second }, "maxcodeage"},
		{"journal driver", func(s *Settings) { s.Journal.Enabled = true; s.Journal.Driver = "oracle" }, "journal.driver"},
		{"postgres needs dsn", func(s *Settings) { s.Journal.Enabled = true; s.Journal.Driver = "postgres" }, "journal.dsn"},
		{"sentry needs dsn", func(s *Settings) { s.Sentry.Enabled = true }, "sentry.dsn"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := *settings
			tt.mutate(&s)
			err := ValidateSettings(&s)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			var ve ValidationError
			require.ErrorAs(t, err, &ve)
			assert.Contains(t, ve.Error(), tt.wantErr)
		})
	}
}

func TestWriteDefaultConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	require.NoError(t, WriteDefaultConfig(path))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "DB_Supply_Inbox")

	var raw map[string]any
	require.NoError(t, yaml.Unmarshal(data, &raw))
	assert.Contains(t, raw, "coda")
	assert.Contains(t, raw, "cache")

	require.Error(t, WriteDefaultConfig(path), "existing files are not overwritten")
}

func TestRedacted(t *testing.T) {
	s := &Settings{}
	s.Coda.APIKey = "secret"
	s.Mail.Password = "pw"
	s.Mail.Account = "bot@example.com"
	s.Notification.Reviewers = []string{"telegram://token@telegram?chats=1"}

	r := s.Redacted()
	assert.Equal(t, "[REDACTED]", r.Coda.APIKey)
	assert.Equal(t, "[REDACTED]", r.Mail.Password)
	assert.Equal(t, "bot@example.com", r.Mail.Account)
	assert.Equal(t, []string{"[1 URLs REDACTED]"}, r.Notification.Reviewers)
	assert.Equal(t, "secret", s.Coda.APIKey, "original untouched")
}
