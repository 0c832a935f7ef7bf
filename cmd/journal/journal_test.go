package journal

import (
	"bytes"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/twdrugfinder/drugfinder/internal/conf"
	"github.com/twdrugfinder/drugfinder/internal/datastore"
)

func journalSettings(t *testing.T) *conf.Settings {
	t.Helper()
	return &conf.Settings{Journal: conf.JournalSettings{
		Enabled: true,
		Driver:  "sqlite",
		Path:    filepath.Join(t.TempDir(), "journal.db"),
	}}
}

func seed(t *testing.T, settings *conf.Settings, entries ...*datastore.Submission) {
	t.Helper()
	store, err := open(settings)
	require.NoError(t, err)
	defer store.Close()
	for _, e := range entries {
		require.NoError(t, store.Record(t.Context(), e))
	}
}

func run(t *testing.T, settings *conf.Settings, args ...string) (string, error) {
	t.Helper()
	cmd := Command(settings)
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(t.Context())
	return out.String(), err
}

func TestListAndPrune(t *testing.T) {
	settings := journalSettings(t)
	now := time.Now()
	seed(t, settings,
		&datastore.Submission{Kind: "wish", Table: "DB_Requests", Success: true, RequestID: "mutate:1", CreatedAt: now.Add(-72 * time.Hour)},
		&datastore.Submission{Kind: "supply", Table: "DB_Supply_Inbox", Success: false, Error: "status 503", CreatedAt: now.Add(-time.Hour)},
	)

	out, err := run(t, settings, "list")
	require.NoError(t, err)
	assert.Contains(t, out, "mutate:1")
	assert.Contains(t, out, "status 503")

	out, err = run(t, settings, "list", "--failed")
	require.NoError(t, err)
	assert.NotContains(t, out, "mutate:1")
	assert.Contains(t, out, "DB_Supply_Inbox")

	out, err = run(t, settings, "prune", "--older-than", "24h")
	require.NoError(t, err)
	assert.Contains(t, out, "Deleted 1 journal entries")

	out, err = run(t, settings, "list")
	require.NoError(t, err)
	assert.NotContains(t, out, "mutate:1")
}

func TestPruneNeedsWindow(t *testing.T) {
	_, err := run(t, journalSettings(t), "prune")
	require.Error(t, err)
}

func TestDisabledJournal(t *testing.T) {
	settings := journalSettings(t)
	settings.Journal.Enabled = false

	_, err := run(t, settings, "list")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "journal.enabled")
}

func TestPrintEmpty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Print(&buf, nil))
	assert.Equal(t, "No journal entries.\n", buf.String())
}
