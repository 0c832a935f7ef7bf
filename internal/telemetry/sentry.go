// Package telemetry initializes optional Sentry error reporting.
package telemetry

import (
	"fmt"
	"time"

	"github.com/getsentry/sentry-go"

	"github.com/twdrugfinder/drugfinder/internal/conf"
	"github.com/twdrugfinder/drugfinder/internal/errors"
	"github.com/twdrugfinder/drugfinder/internal/logger"
)

// flushTimeout bounds how long Flush waits for queued events on shutdown.
const flushTimeout = 2 * time.Second

// InitSentry initializes the Sentry SDK and installs the error reporter. Sentry is
// opt-in; with telemetry disabled this only clears any previous reporter.
func InitSentry(settings *conf.Settings, version string) error {
	log := logger.Global().Module("telemetry")

	if !settings.Sentry.Enabled {
		errors.SetTelemetryReporter(nil)
		log.Debug("sentry telemetry disabled")
		return nil
	}

	err := sentry.Init(sentry.ClientOptions{
		Dsn:              settings.Sentry.DSN,
		SampleRate:       settings.Sentry.SampleRate,
		Environment:      settings.Sentry.Environment,
		Release:          fmt.Sprintf("drugfinder@%s", version),
		AttachStacktrace: false,
		ServerName:       "",
		BeforeSend:       applyPrivacyFilters,
	})
	if err != nil {
		return errors.New(fmt.Errorf("sentry initialization failed: %w", err)).
			Component("telemetry").
			Category(errors.CategoryConfiguration).
			Build()
	}

	errors.SetTelemetryReporter(errors.NewSentryReporter(true))
	log.Info("sentry telemetry initialized", logger.String("environment", settings.Sentry.Environment))
	return nil
}

// Flush waits for queued events. Safe to call when Sentry was never initialized.
func Flush() {
	sentry.Flush(flushTimeout)
}

// applyPrivacyFilters removes host and user identifying data and scrubs free text.
func applyPrivacyFilters(event *sentry.Event, _ *sentry.EventHint) *sentry.Event {
	if event == nil {
		return nil
	}

	event.User = sentry.User{}
	event.ServerName = ""
	event.Request = nil

	if event.Contexts != nil {
		delete(event.Contexts, "device")
		delete(event.Contexts, "os")
	}
	if event.Tags != nil {
		delete(event.Tags, "server_name")
		delete(event.Tags, "hostname")
	}

	event.Message = errors.ScrubMessage(event.Message)
	for i := range event.Exception {
		event.Exception[i].Value = errors.ScrubMessage(event.Exception[i].Value)
	}
	return event
}
