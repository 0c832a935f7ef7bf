package conf

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// envBinding holds metadata for environment variable bindings
type envBinding struct {
	ConfigKey string             // Viper config key
	EnvVars   []string           // Environment variable names, first set wins
	Validate  func(string) error // Optional validation function
}

// getEnvBindings returns all environment variable bindings. The bare CODA_API_KEY,
// DOC_ID, MAIL_ACCOUNT and MAIL_PASSWORD names are accepted for existing deployments.
func getEnvBindings() []envBinding {
	return []envBinding{
		// Required secrets
		{"coda.apikey", []string{"DRUGFINDER_CODA_APIKEY", "CODA_API_KEY"}, nil},
		{"coda.apikeyfile", []string{"DRUGFINDER_CODA_APIKEY_FILE"}, validateEnvFile},
		{"coda.docid", []string{"DRUGFINDER_CODA_DOCID", "DOC_ID"}, nil},
		{"coda.docidfile", []string{"DRUGFINDER_CODA_DOCID_FILE"}, validateEnvFile},
		{"mail.account", []string{"DRUGFINDER_MAIL_ACCOUNT", "MAIL_ACCOUNT"}, nil},
		{"mail.accountfile", []string{"DRUGFINDER_MAIL_ACCOUNT_FILE"}, validateEnvFile},
		{"mail.password", []string{"DRUGFINDER_MAIL_PASSWORD", "MAIL_PASSWORD"}, nil},
		{"mail.passwordfile", []string{"DRUGFINDER_MAIL_PASSWORD_FILE"}, validateEnvFile},

		// Remote table store
		{"coda.baseurl", []string{"DRUGFINDER_CODA_BASEURL"}, validateEnvURL},
		{"coda.ratelimit", []string{"DRUGFINDER_CODA_RATELIMIT"}, validateEnvPositiveFloat},

		// Mail
		{"mail.host", []string{"DRUGFINDER_MAIL_HOST"}, nil},
		{"mail.port", []string{"DRUGFINDER_MAIL_PORT"}, validateEnvPort},

		// Server
		{"server.port", []string{"DRUGFINDER_PORT", "PORT"}, validateEnvPort},
		{"server.sessionttl", []string{"DRUGFINDER_SESSION_TTL"}, validateEnvDuration},

		{"verification.maxcodeage", []string{"DRUGFINDER_CODE_MAX_AGE"}, validateEnvDuration},

		{"logging.defaultlevel", []string{"DRUGFINDER_LOG_LEVEL"}, validateEnvLogLevel},
		{"sentry.enabled", []string{"DRUGFINDER_SENTRY_ENABLED"}, validateEnvBool},
		{"sentry.dsn", []string{"DRUGFINDER_SENTRY_DSN", "SENTRY_DSN"}, nil},
		{"journal.dsn", []string{"DRUGFINDER_JOURNAL_DSN"}, nil},
	}
}

// bindEnvVars binds environment variables and validates the ones that are set.
func bindEnvVars() error {
	var warnings []string

	for _, binding := range getEnvBindings() {
		args := append([]string{binding.ConfigKey}, binding.EnvVars...)
		if err := viper.BindEnv(args...); err != nil {
			warnings = append(warnings, fmt.Sprintf("failed to bind %s: %v", binding.ConfigKey, err))
			continue
		}
		if binding.Validate == nil {
			continue
		}
		for _, name := range binding.EnvVars {
			value := os.Getenv(name)
			if value == "" {
				continue
			}
			if err := binding.Validate(value); err != nil {
				warnings = append(warnings, fmt.Sprintf("invalid %s value: %v", name, err))
			}
			break
		}
	}

	if len(warnings) > 0 {
		return fmt.Errorf("environment variable issues:\n  - %s", strings.Join(warnings, "\n  - "))
	}
	return nil
}

func validateEnvBool(value string) error {
	if _, err := strconv.ParseBool(value); err != nil {
		return fmt.Errorf("must be true or false")
	}
	return nil
}

func validateEnvPort(value string) error {
	port, err := strconv.Atoi(value)
	if err != nil || port < 1 || port > 65535 {
		return fmt.Errorf("must be a port number between 1 and 65535")
	}
	return nil
}

func validateEnvDuration(value string) error {
	d, err := time.ParseDuration(value)
	if err != nil {
		return fmt.Errorf("must be a duration such as 30s or 2h")
	}
	if d < 0 {
		return fmt.Errorf("must not be negative")
	}
	return nil
}

func validateEnvPositiveFloat(value string) error {
	f, err := strconv.ParseFloat(value, 64)
	if err != nil || f <= 0 {
		return fmt.Errorf("must be a positive number")
	}
	return nil
}

func validateEnvURL(value string) error {
	u, err := url.Parse(value)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("must be an absolute URL")
	}
	return nil
}

func validateEnvFile(value string) error {
	info, err := os.Stat(value)
	if err != nil {
		return fmt.Errorf("file not accessible")
	}
	if info.IsDir() {
		return fmt.Errorf("is a directory")
	}
	return nil
}

func validateEnvLogLevel(value string) error {
	switch strings.ToLower(value) {
	case "trace", "debug", "info", "warn", "error":
		return nil
	}
	return fmt.Errorf("must be one of trace, debug, info, warn, error")
}
