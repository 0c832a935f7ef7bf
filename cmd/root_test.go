package cmd

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/twdrugfinder/drugfinder/internal/buildinfo"
	"github.com/twdrugfinder/drugfinder/internal/conf"
)

func execute(t *testing.T, args ...string) (*conf.Settings, string, error) {
	t.Helper()
	settings := &conf.Settings{}
	root := RootCommand(settings, buildinfo.NewContext("1.4.0", "2025-06-01"))
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.ExecuteContext(t.Context())
	return settings, out.String(), err
}

func clearSecrets(t *testing.T) {
	t.Helper()
	for _, name := range []string{
		"DRUGFINDER_CODA_APIKEY", "CODA_API_KEY",
		"DRUGFINDER_CODA_DOCID", "DOC_ID",
		"DRUGFINDER_MAIL_ACCOUNT", "MAIL_ACCOUNT",
		"DRUGFINDER_MAIL_PASSWORD", "MAIL_PASSWORD",
	} {
		t.Setenv(name, "")
	}
}

func writeConfig(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, conf.WriteDefaultConfig(path))
	return path
}

func TestVersionNeedsNoConfig(t *testing.T) {
	clearSecrets(t)

	_, out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "drugfinder 1.4.0")
	assert.Contains(t, out, "2025-06-01")
}

func TestConfigInit(t *testing.T) {
	clearSecrets(t)
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	_, out, err := execute(t, "config", "init", path)
	require.NoError(t, err)
	assert.Contains(t, out, path)
	assert.FileExists(t, path)

	_, _, err = execute(t, "config", "init", path)
	require.Error(t, err, "existing file is never overwritten")
}

func TestConfigShowRedactsSecrets(t *testing.T) {
	clearSecrets(t)
	t.Setenv("DRUGFINDER_CODA_APIKEY", "coda-secret-key")
	t.Setenv("DRUGFINDER_CODA_DOCID", "doc-abc")
	t.Setenv("DRUGFINDER_MAIL_ACCOUNT", "clinic.bot@example.com")
	t.Setenv("DRUGFINDER_MAIL_PASSWORD", "app-password")

	settings, out, err := execute(t, "--config", writeConfig(t), "config", "show")
	require.NoError(t, err)

	assert.Equal(t, "doc-abc", settings.Coda.DocID)
	assert.Equal(t, "coda-secret-key", settings.Coda.APIKey, "settings keep the real value")
	assert.NotContains(t, out, "coda-secret-key")
	assert.NotContains(t, out, "app-password")
	assert.Contains(t, out, "[REDACTED]")
	assert.Contains(t, out, "DB_Inventory")
}

func TestMissingSecretsAbort(t *testing.T) {
	clearSecrets(t)

	_, _, err := execute(t, "--config", writeConfig(t), "config", "show")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "coda.apikey")
	assert.Contains(t, err.Error(), "mail.password")
}

func TestDebugFlagOverridesConfig(t *testing.T) {
	clearSecrets(t)
	t.Setenv("DRUGFINDER_CODA_APIKEY", "k")
	t.Setenv("DRUGFINDER_CODA_DOCID", "d")
	t.Setenv("DRUGFINDER_MAIL_ACCOUNT", "a@example.com")
	t.Setenv("DRUGFINDER_MAIL_PASSWORD", "p")

	settings, _, err := execute(t, "--config", writeConfig(t), "--debug", "config", "show")
	require.NoError(t, err)
	assert.True(t, settings.Debug)
}
