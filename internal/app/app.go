// Package app assembles the drugfinder runtime from loaded settings: the remote
// table client, the read cache, the directory facade and its optional collaborators.
package app

import (
	"context"
	"net/http"
	"time"

	"github.com/twdrugfinder/drugfinder/internal/api"
	"github.com/twdrugfinder/drugfinder/internal/buildinfo"
	"github.com/twdrugfinder/drugfinder/internal/coda"
	"github.com/twdrugfinder/drugfinder/internal/conf"
	"github.com/twdrugfinder/drugfinder/internal/datastore"
	"github.com/twdrugfinder/drugfinder/internal/directory"
	"github.com/twdrugfinder/drugfinder/internal/errors"
	"github.com/twdrugfinder/drugfinder/internal/logger"
	"github.com/twdrugfinder/drugfinder/internal/notification"
	"github.com/twdrugfinder/drugfinder/internal/observability"
	"github.com/twdrugfinder/drugfinder/internal/readcache"
	"github.com/twdrugfinder/drugfinder/internal/verification"
)

// taipeiOffset is used when the zone database is not installed.
const taipeiOffset = 8 * 60 * 60

// App holds the wired components. Journal, Notifier and Verifier are nil when the
// corresponding feature is not configured.
type App struct {
	Settings  *conf.Settings
	Metrics   *observability.Metrics
	Client    *coda.Client
	Cache     *readcache.Cache
	Directory *directory.Directory
	Journal   datastore.Interface
	Notifier  *notification.Service
	Verifier  *verification.Service

	log logger.Logger
}

// Option customizes New.
type Option func(*options)

type options struct {
	mailer     verification.Mailer
	httpClient *http.Client
	journal    bool
}

// WithMailer replaces the SMTP mailer built from the mail settings.
func WithMailer(m verification.Mailer) Option {
	return func(o *options) { o.mailer = m }
}

// WithHTTPClient sets the HTTP client used for the remote table store.
func WithHTTPClient(hc *http.Client) Option {
	return func(o *options) { o.httpClient = hc }
}

// WithoutJournal skips the journal even when it is enabled in the settings.
func WithoutJournal() Option {
	return func(o *options) { o.journal = false }
}

// New wires every component. On error anything already opened is closed.
func New(ctx context.Context, settings *conf.Settings, opts ...Option) (*App, error) {
	if settings == nil {
		return nil, errors.Newf("settings are required").
			Category(errors.CategoryConfiguration).
			Component("app").
			Build()
	}
	o := options{journal: settings.Journal.Enabled}
	for _, opt := range opts {
		opt(&o)
	}

	a := &App{
		Settings: settings,
		log:      logger.Global().Module("app"),
	}

	m, err := observability.NewMetrics()
	if err != nil {
		return nil, err
	}
	a.Metrics = m

	a.Client, err = coda.NewClient(coda.Config{
		APIKey:    settings.Coda.APIKey,
		DocID:     settings.Coda.DocID,
		BaseURL:   settings.Coda.BaseURL,
		Timeout:   settings.Coda.Timeout,
		RateLimit: settings.Coda.RateLimit,
		Burst:     settings.Coda.Burst,
		UserAgent: settings.Coda.UserAgent,
	}, coda.WithMetrics(m.Coda), coda.WithHTTPClient(o.httpClient))
	if err != nil {
		return nil, err
	}

	a.Cache = readcache.New(readcache.WithMetrics(m.Cache))

	dirOpts := []directory.Option{
		directory.WithMetrics(m.Directory),
		directory.WithLocation(taipei()),
	}

	if o.journal {
		if err := a.openJournal(ctx); err != nil {
			return nil, err
		}
		dirOpts = append(dirOpts, directory.WithJournal(a.Journal))
	}

	a.Notifier, err = notification.NewService(settings.Notification, notification.WithMetrics(m.Directory))
	if err != nil {
		a.Close()
		return nil, err
	}
	if a.Notifier.Enabled() {
		a.Notifier.Start()
		dirOpts = append(dirOpts, directory.WithNotifier(a.Notifier))
	}

	a.Directory = directory.New(a.Client, settings.Coda.Tables, settings.Cache, a.Cache, dirOpts...)

	mailer := o.mailer
	if mailer == nil {
		smtp, err := verification.NewSMTPMailer(settings.Mail)
		if err != nil {
			a.log.Warn("email verification disabled", logger.Error(err))
		} else {
			mailer = smtp
		}
	}
	if mailer != nil {
		a.Verifier = verification.NewService(mailer, verification.WithMetrics(m.Directory))
	}

	return a, nil
}

// openJournal opens the journal and applies the retention window.
func (a *App) openJournal(ctx context.Context) error {
	store, err := datastore.New(&a.Settings.Journal)
	if err != nil {
		return err
	}
	if err := store.Open(); err != nil {
		return err
	}
	a.Journal = store

	if ret := a.Settings.Journal.Retention; ret > 0 {
		if _, err := store.Prune(ctx, time.Now().Add(-ret)); err != nil {
			a.log.Warn("journal prune failed", logger.Error(err))
		}
	}
	return nil
}

// ServerOptions returns the API server options for the wired components.
func (a *App) ServerOptions(build *buildinfo.Context) []api.ServerOption {
	opts := []api.ServerOption{
		api.WithMetrics(a.Metrics),
		api.WithBuildInfo(build),
	}
	// a nil *Service must not become a non-nil interface
	if a.Verifier != nil {
		opts = append(opts, api.WithVerifier(a.Verifier))
	}
	return opts
}

// Close drains queued alerts and closes the journal.
func (a *App) Close() {
	if a.Notifier != nil {
		a.Notifier.Close()
	}
	if a.Journal != nil {
		if err := a.Journal.Close(); err != nil {
			a.log.Warn("failed to close journal", logger.Error(err))
		}
		a.Journal = nil
	}
}

func taipei() *time.Location {
	loc, err := time.LoadLocation("Asia/Taipei")
	if err != nil {
		return time.FixedZone("CST", taipeiOffset)
	}
	return loc
}
