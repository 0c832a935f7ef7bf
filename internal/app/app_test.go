package app

import (
	"context"
	"net/http"
	"path/filepath"
	"testing"
	"time"

	"github.com/jarcoal/httpmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/twdrugfinder/drugfinder/internal/buildinfo"
	"github.com/twdrugfinder/drugfinder/internal/conf"
	"github.com/twdrugfinder/drugfinder/internal/datastore"
	"github.com/twdrugfinder/drugfinder/internal/directory"
	"github.com/twdrugfinder/drugfinder/internal/errors"
	"github.com/twdrugfinder/drugfinder/internal/records"
)

const requestsURL = "https://coda.io/apis/v1/docs/doc1/tables/DB_Requests/rows"

type nopMailer struct{}

func (nopMailer) SendCode(context.Context, string, string) error { return nil }

func testSettings(t *testing.T) *conf.Settings {
	t.Helper()
	return &conf.Settings{
		Coda: conf.CodaSettings{
			APIKey: "key",
			DocID:  "doc1",
			Tables: conf.TableSettings{
				Drugs:     "DB_Drugs",
				Requests:  "DB_Requests",
				Cities:    "DB_Cities",
				Inbox:     "DB_Supply_Inbox",
				Inventory: "DB_Inventory",
				Feedback:  "DB_Feedback",
				Wishlist:  "DB_Wishlist",
			},
		},
		Journal: conf.JournalSettings{
			Enabled:   true,
			Driver:    "sqlite",
			Path:      filepath.Join(t.TempDir(), "journal.db"),
			Retention: 24 * time.Hour,
		},
	}
}

func TestNewRequiresSettings(t *testing.T) {
	_, err := New(t.Context(), nil)
	require.Error(t, err)
	assert.True(t, errors.IsCategory(err, errors.CategoryConfiguration))
}

func TestNewRequiresCodaCredentials(t *testing.T) {
	settings := testSettings(t)
	settings.Coda.APIKey = ""

	_, err := New(t.Context(), settings)
	require.Error(t, err)
}

func TestNewWithoutMailSettingsDisablesVerification(t *testing.T) {
	a, err := New(t.Context(), testSettings(t))
	require.NoError(t, err)
	t.Cleanup(a.Close)

	assert.Nil(t, a.Verifier)
	assert.NotNil(t, a.Journal)
	assert.False(t, a.Notifier.Enabled())
	assert.Len(t, a.ServerOptions(buildinfo.NewContext("1.0.0", "")), 2)
}

func TestNewWithMailer(t *testing.T) {
	a, err := New(t.Context(), testSettings(t), WithMailer(nopMailer{}), WithoutJournal())
	require.NoError(t, err)
	t.Cleanup(a.Close)

	assert.NotNil(t, a.Verifier)
	assert.Nil(t, a.Journal)
	assert.Len(t, a.ServerOptions(nil), 3)
}

func TestNewRejectsUnknownJournalDriver(t *testing.T) {
	settings := testSettings(t)
	settings.Journal.Driver = "oracle"

	_, err := New(t.Context(), settings)
	require.Error(t, err)
	assert.True(t, errors.IsCategory(err, errors.CategoryConfiguration))
}

func TestWishIsJournaled(t *testing.T) {
	hc := &http.Client{}
	httpmock.ActivateNonDefault(hc)
	t.Cleanup(httpmock.DeactivateAndReset)

	httpmock.RegisterResponder(http.MethodPost, requestsURL,
		httpmock.NewStringResponder(http.StatusAccepted, `{"requestId":"mutate:1","addedRowIds":["i-1"]}`))
	httpmock.RegisterResponder(http.MethodGet, `=~^`+requestsURL,
		httpmock.NewStringResponder(http.StatusOK, `{"items":[{"id":"i-1","values":{"想要藥品":"Ritalin","所在縣市":"臺北市"}}]}`))

	a, err := New(t.Context(), testSettings(t), WithHTTPClient(hc))
	require.NoError(t, err)
	t.Cleanup(a.Close)

	require.NoError(t, a.Directory.SubmitWish(t.Context(), records.WishRequest{
		Email: "someone@example.com",
		City:  "臺北市",
		Drug:  "Ritalin",
	}))

	entries, err := a.Journal.List(t.Context(), datastore.Filter{})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "wish", entries[0].Kind)
	assert.True(t, entries[0].Success)
	assert.Equal(t, "mutate:1", entries[0].RequestID)
	assert.NotContains(t, string(entries[0].Cells), "someone@example.com")

	rank, _ := a.Directory.Ranking(t.Context(), directory.RankingOptions{})
	require.Len(t, rank, 1)
	assert.Equal(t, "Ritalin", rank[0].Drug)
}
