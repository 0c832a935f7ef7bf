package errors

import (
	"fmt"
	"regexp"
	"strings"
	"sync/atomic"

	"github.com/getsentry/sentry-go"
)

// TelemetryReporter receives every EnhancedError built while it is enabled.
type TelemetryReporter interface {
	ReportError(err *EnhancedError)
	IsEnabled() bool
}

var (
	activeReporter     atomic.Pointer[TelemetryReporter]
	hasActiveReporting atomic.Bool
)

// SetTelemetryReporter installs reporter for the whole process; nil disables reporting.
func SetTelemetryReporter(reporter TelemetryReporter) {
	if reporter == nil {
		activeReporter.Store(nil)
		hasActiveReporting.Store(false)
		return
	}
	activeReporter.Store(&reporter)
	hasActiveReporting.Store(reporter.IsEnabled())
}

// GetTelemetryReporter returns the installed reporter, or nil.
func GetTelemetryReporter() TelemetryReporter {
	if p := activeReporter.Load(); p != nil {
		return *p
	}
	return nil
}

func reportToTelemetry(ee *EnhancedError) {
	if r := GetTelemetryReporter(); r != nil && r.IsEnabled() {
		r.ReportError(ee)
	}
}

// SentryReporter sends scrubbed errors to Sentry, each at most once.
type SentryReporter struct {
	enabled bool
}

func NewSentryReporter(enabled bool) *SentryReporter {
	return &SentryReporter{enabled: enabled}
}

func (sr *SentryReporter) IsEnabled() bool { return sr.enabled }

// ReportError captures ee with its message and string context scrubbed. Events are
// fingerprinted by title, component and category so that differing row ids or
// addresses do not split an issue.
func (sr *SentryReporter) ReportError(ee *EnhancedError) {
	if !sr.enabled || ee.IsReported() {
		return
	}

	title := errorTitle(ee)
	message := ScrubMessage(fmt.Sprintf("[%s] %s", ee.Category, ee.Err.Error()))
	level := sentryLevel(ee.Category)

	sentry.WithScope(func(scope *sentry.Scope) {
		scope.SetTag("error_title", title)
		scope.SetTag("component", ee.Component)
		scope.SetTag("category", string(ee.Category))
		scope.SetLevel(level)
		scope.SetFingerprint([]string{title, ee.Component, string(ee.Category)})

		for key, value := range ee.GetContext() {
			if s, ok := value.(string); ok {
				value = ScrubMessage(s)
			}
			scope.SetContext(key, map[string]any{"value": value})
		}

		event := sentry.NewEvent()
		event.Level = level
		event.Message = message
		event.Exception = []sentry.Exception{{Type: title, Value: message}}
		sentry.CaptureEvent(event)
	})

	ee.MarkReported()
}

var categoryTitles = map[ErrorCategory]string{
	CategoryValidation:    "Validation Error",
	CategoryNetwork:       "Network Error",
	CategoryRemoteFetch:   "Remote Fetch Error",
	CategoryRemoteWrite:   "Remote Write Error",
	CategoryRemoteAuth:    "Remote Auth Error",
	CategoryMail:          "Mail Delivery Error",
	CategoryDatabase:      "Database Error",
	CategoryConfiguration: "Configuration Error",
}

// errorTitle reads like "Coda Remote Write Error Insert Rows".
func errorTitle(ee *EnhancedError) string {
	var parts []string
	if ee.Component != "" && ee.Component != ComponentUnknown {
		parts = append(parts, capitalize(ee.Component))
	}
	if t, ok := categoryTitles[ee.Category]; ok {
		parts = append(parts, t)
	} else if ee.Category != "" {
		parts = append(parts, string(ee.Category))
	}
	if op, ok := ee.GetContext()["operation"].(string); ok && op != "" {
		for word := range strings.FieldsSeq(strings.ReplaceAll(op, "_", " ")) {
			parts = append(parts, capitalize(word))
		}
	}
	if len(parts) == 0 {
		return fmt.Sprintf("%T", ee.Err)
	}
	return strings.Join(parts, " ")
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func sentryLevel(category ErrorCategory) sentry.Level {
	switch category {
	case CategoryNetwork, CategoryRemoteFetch, CategoryMail, CategoryNotification:
		return sentry.LevelWarning
	case CategoryValidation, CategoryVerification:
		return sentry.LevelInfo
	default:
		return sentry.LevelError
	}
}

var scrubbers = []struct {
	re   *regexp.Regexp
	repl string
}{
	{regexp.MustCompile(`(?i)([a-z][a-z0-9+.\-]*://)[^/@\s]+@`), "${1}[REDACTED]@"},
	{regexp.MustCompile(`(https?://[^?\s]+)\?\S*`), "$1?[REDACTED]"},
	{regexp.MustCompile(`[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}`), "[EMAIL]"},
	{regexp.MustCompile(`(?i)bearer\s+[A-Za-z0-9._\-]+`), "Bearer [REDACTED]"},
	{regexp.MustCompile(`(?i)(api_key|apikey|token|password|auth)=[^&\s]+`), "$1=[REDACTED]"},
}

// ScrubMessage removes URL credentials and query strings, e-mail addresses, bearer
// tokens and key=value secrets from a message before it leaves the process.
func ScrubMessage(message string) string {
	for _, s := range scrubbers {
		message = s.re.ReplaceAllString(message, s.repl)
	}
	return message
}
