package conf

import (
	"fmt"
	"net/url"
	"strings"
)

// ValidationError represents a collection of validation errors
type ValidationError struct {
	Errors []string
}

// Error returns a string representation of the validation errors
func (ve ValidationError) Error() string {
	return fmt.Sprintf("Validation errors: %s", strings.Join(ve.Errors, "; "))
}

// ValidateSettings validates the entire Settings struct
func ValidateSettings(settings *Settings) error {
	ve := ValidationError{}

	ve.Errors = append(ve.Errors, validateCodaSettings(&settings.Coda)...)
	ve.Errors = append(ve.Errors, validateMailSettings(&settings.Mail)...)
	ve.Errors = append(ve.Errors, validateCacheSettings(&settings.Cache)...)
	ve.Errors = append(ve.Errors, validateJournalSettings(&settings.Journal)...)

	if settings.Verification.MaxCodeAge < 0 {
		ve.Errors = append(ve.Errors, "verification.maxcodeage must not be negative")
	}
	if settings.Server.SessionTTL <= 0 {
		ve.Errors = append(ve.Errors, "server.sessionttl must be positive")
	}
	if settings.Sentry.Enabled && settings.Sentry.DSN == "" {
		ve.Errors = append(ve.Errors, "sentry.dsn is required when sentry is enabled")
	}

	if len(ve.Errors) > 0 {
		return ve
	}
	return nil
}

func validateCodaSettings(c *CodaSettings) []string {
	var errs []string
	if c.APIKey == "" {
		errs = append(errs, "coda.apikey is required")
	}
	if c.DocID == "" {
		errs = append(errs, "coda.docid is required")
	}
	if u, err := url.Parse(c.BaseURL); err != nil || u.Scheme == "" || u.Host == "" {
		errs = append(errs, fmt.Sprintf("coda.baseurl %q is not an absolute URL", c.BaseURL))
	}
	if c.RateLimit <= 0 {
		errs = append(errs, "coda.ratelimit must be positive")
	}
	if c.Burst < 1 {
		errs = append(errs, "coda.burst must be at least 1")
	}

	tables := map[string]string{
		"drugs": c.Tables.Drugs, "requests": c.Tables.Requests, "cities": c.Tables.Cities,
		"inbox": c.Tables.Inbox, "inventory": c.Tables.Inventory, "feedback": c.Tables.Feedback,
		"wishlist": c.Tables.Wishlist,
	}
	for _, name := range []string{"drugs", "requests", "cities", "inbox", "inventory", "feedback", "wishlist"} {
		if strings.TrimSpace(tables[name]) == "" {
			errs = append(errs, fmt.Sprintf("coda.tables.%s must not be empty", name))
		}
	}
	return errs
}

func validateMailSettings(m *MailSettings) []string {
	var errs []string
	if m.Account == "" {
		errs = append(errs, "mail.account is required")
	}
	if m.Password == "" {
		errs = append(errs, "mail.password is required")
	}
	if m.Host == "" {
		errs = append(errs, "mail.host is required")
	}
	if m.Port < 1 || m.Port > 65535 {
		errs = append(errs, fmt.Sprintf("mail.port %d is out of range", m.Port))
	}
	return errs
}

func validateCacheSettings(c *CacheSettings) []string {
	var errs []string
	ttls := []struct {
		key string
		ttl int64
	}{
		{"cities", int64(c.Cities)}, {"drugs", int64(c.Drugs)}, {"inventory", int64(c.Inventory)},
		{"requests", int64(c.Requests)}, {"feedback", int64(c.Feedback)}, {"pending", int64(c.Pending)},
	}
	for _, t := range ttls {
		if t.ttl <= 0 {
			errs = append(errs, fmt.Sprintf("cache.%s must be a positive duration", t.key))
		}
	}
	if c.WriteSettle < 0 {
		errs = append(errs, "cache.writesettle must not be negative")
	}
	return errs
}

func validateJournalSettings(j *JournalSettings) []string {
	if !j.Enabled {
		return nil
	}
	switch j.Driver {
	case "sqlite":
		if j.Path == "" {
			return []string{"journal.path is required for the sqlite journal"}
		}
	case "mysql", "postgres":
		if j.DSN == "" {
			return []string{fmt.Sprintf("journal.dsn is required for the %s journal", j.Driver)}
		}
	default:
		return []string{fmt.Sprintf("journal.driver %q is not one of sqlite, mysql, postgres", j.Driver)}
	}
	return nil
}
