// Package errors wraps errors with the component, category and context needed to
// log them, map them to HTTP statuses and, when enabled, report them to Sentry.
package errors

import (
	"cmp"
	stderrors "errors"
	"fmt"
	"maps"
	"strings"
	"sync"
	"time"
)

// ErrorCategory groups errors by how callers react to them.
type ErrorCategory string

const (
	CategoryGeneric       ErrorCategory = "generic"
	CategoryValidation    ErrorCategory = "validation" // bad user input, 400
	CategoryConfiguration ErrorCategory = "configuration"
	CategoryNotFound      ErrorCategory = "not-found"
	CategoryState         ErrorCategory = "state" // operation not valid in the current state
	CategoryLimit         ErrorCategory = "limit"
	CategoryNetwork       ErrorCategory = "network"
	CategoryDatabase      ErrorCategory = "database" // local journal
	CategoryFileIO        ErrorCategory = "file-io"

	CategoryRemoteFetch ErrorCategory = "remote-fetch" // list rows failed or returned garbage
	CategoryRemoteWrite ErrorCategory = "remote-write" // insert rows rejected
	CategoryRemoteAuth  ErrorCategory = "remote-auth"  // bearer token refused

	CategoryVerification ErrorCategory = "verification"
	CategoryMail         ErrorCategory = "mail"
	CategoryNotification ErrorCategory = "notification"
)

// ComponentUnknown is the component of errors built without one.
const ComponentUnknown = "unknown"

// EnhancedError is an error annotated for logging and telemetry.
type EnhancedError struct {
	Err       error
	Component string
	Category  ErrorCategory
	Context   map[string]any
	Timestamp time.Time

	mu       sync.RWMutex
	reported bool
}

func (ee *EnhancedError) Error() string { return ee.Err.Error() }

func (ee *EnhancedError) Unwrap() error { return ee.Err }

// Is matches another EnhancedError by category, otherwise defers to the wrapped error.
// Use plain sentinels from NewStd when errors of one category must be told apart.
func (ee *EnhancedError) Is(target error) bool {
	if other, ok := target.(*EnhancedError); ok {
		return ee.Category == other.Category
	}
	return stderrors.Is(ee.Err, target)
}

// GetContext returns a copy of the context map, or nil.
func (ee *EnhancedError) GetContext() map[string]any {
	ee.mu.RLock()
	defer ee.mu.RUnlock()
	if ee.Context == nil {
		return nil
	}
	return maps.Clone(ee.Context)
}

// MarkReported records that the error reached telemetry.
func (ee *EnhancedError) MarkReported() {
	ee.mu.Lock()
	ee.reported = true
	ee.mu.Unlock()
}

// IsReported reports whether MarkReported was called.
func (ee *EnhancedError) IsReported() bool {
	ee.mu.RLock()
	defer ee.mu.RUnlock()
	return ee.reported
}

// ErrorBuilder assembles an EnhancedError:
//
//	errors.New(err).Component("coda").Category(errors.CategoryRemoteFetch).Table(t).Build()
type ErrorBuilder struct {
	err       error
	component string
	category  ErrorCategory
	context   map[string]any
}

// New starts a builder around err.
func New(err error) *ErrorBuilder {
	return &ErrorBuilder{err: err}
}

// Newf starts a builder around a formatted error; %w wraps as in fmt.Errorf.
func Newf(format string, args ...any) *ErrorBuilder {
	return &ErrorBuilder{err: fmt.Errorf(format, args...)}
}

func (eb *ErrorBuilder) Component(component string) *ErrorBuilder {
	eb.component = component
	return eb
}

func (eb *ErrorBuilder) Category(category ErrorCategory) *ErrorBuilder {
	eb.category = category
	return eb
}

// Context adds one key to the error context. Values must not hold secrets; strings
// are scrubbed before they reach telemetry but not before they are logged.
func (eb *ErrorBuilder) Context(key string, value any) *ErrorBuilder {
	if eb.context == nil {
		eb.context = make(map[string]any, 4)
	}
	eb.context[key] = value
	return eb
}

// Table records which remote table the failing operation addressed.
func (eb *ErrorBuilder) Table(table string) *ErrorBuilder {
	if table == "" {
		return eb
	}
	return eb.Context("table", table)
}

// Build finalizes the error and hands it to the telemetry reporter when one is active.
// A missing category is inherited from a wrapped EnhancedError or guessed.
func (eb *ErrorBuilder) Build() *EnhancedError {
	err := eb.err
	if err == nil {
		err = stderrors.New("unspecified error")
	}

	ee := &EnhancedError{
		Err:       err,
		Component: cmp.Or(eb.component, ComponentUnknown),
		Category:  eb.category,
		Context:   eb.context,
		Timestamp: time.Now(),
	}
	if ee.Category == "" {
		ee.Category = detectCategory(err)
	}

	if hasActiveReporting.Load() {
		reportToTelemetry(ee)
	}
	return ee
}

func detectCategory(err error) ErrorCategory {
	var inner *EnhancedError
	if stderrors.As(err, &inner) && inner.Category != "" {
		return inner.Category
	}

	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "timeout"), strings.Contains(msg, "connection"):
		return CategoryNetwork
	case strings.Contains(msg, "invalid"), strings.Contains(msg, "required"):
		return CategoryValidation
	default:
		return CategoryGeneric
	}
}

// NewStd returns a plain error, for sentinels compared with Is.
func NewStd(text string) error {
	return stderrors.New(text)
}

// Passthroughs so callers only import this package.
var (
	Is     = stderrors.Is
	As     = stderrors.As
	Unwrap = stderrors.Unwrap
	Join   = stderrors.Join
)

// IsCategory reports whether err wraps an EnhancedError of category.
func IsCategory(err error, category ErrorCategory) bool {
	var ee *EnhancedError
	return stderrors.As(err, &ee) && ee.Category == category
}

// IsNotFound is IsCategory(err, CategoryNotFound).
func IsNotFound(err error) bool {
	return IsCategory(err, CategoryNotFound)
}
