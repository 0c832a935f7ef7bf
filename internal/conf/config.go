// Package conf loads drugfinder settings from the embedded defaults, an optional
// config.yaml, .env files, the environment and command-line flags.
package conf

import (
	"bytes"
	"embed"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/spf13/viper"

	"github.com/twdrugfinder/drugfinder/internal/errors"
	"github.com/twdrugfinder/drugfinder/internal/logger"
	"github.com/twdrugfinder/drugfinder/internal/secrets"
)

//go:embed config.yaml
var configFiles embed.FS

// TableSettings names the remote tables inside the Coda document.
type TableSettings struct {
	Drugs     string `yaml:"drugs" mapstructure:"drugs"`
	Requests  string `yaml:"requests" mapstructure:"requests"`
	Cities    string `yaml:"cities" mapstructure:"cities"`
	Inbox     string `yaml:"inbox" mapstructure:"inbox"`
	Inventory string `yaml:"inventory" mapstructure:"inventory"`
	Feedback  string `yaml:"feedback" mapstructure:"feedback"`
	Wishlist  string `yaml:"wishlist" mapstructure:"wishlist"`
}

// CodaSettings configures the remote table store client.
type CodaSettings struct {
	APIKey     string        `yaml:"apikey" mapstructure:"apikey"`
	APIKeyFile string        `yaml:"apikeyfile" mapstructure:"apikeyfile"`
	DocID      string        `yaml:"docid" mapstructure:"docid"`
	DocIDFile  string        `yaml:"docidfile" mapstructure:"docidfile"`
	BaseURL    string        `yaml:"baseurl" mapstructure:"baseurl"`
	Timeout    time.Duration `yaml:"timeout" mapstructure:"timeout"`     // 0 = http.Client default
	RateLimit  float64       `yaml:"ratelimit" mapstructure:"ratelimit"` // requests per second
	Burst      int           `yaml:"burst" mapstructure:"burst"`
	UserAgent  string        `yaml:"useragent" mapstructure:"useragent"`
	Tables     TableSettings `yaml:"tables" mapstructure:"tables"`
}

// MailSettings configures SMTP delivery of verification codes.
type MailSettings struct {
	Host         string        `yaml:"host" mapstructure:"host"`
	Port         int           `yaml:"port" mapstructure:"port"`
	Account      string        `yaml:"account" mapstructure:"account"`
	AccountFile  string        `yaml:"accountfile" mapstructure:"accountfile"`
	Password     string        `yaml:"password" mapstructure:"password"`
	PasswordFile string        `yaml:"passwordfile" mapstructure:"passwordfile"`
	FromName     string        `yaml:"fromname" mapstructure:"fromname"`
	Subject      string        `yaml:"subject" mapstructure:"subject"`
	Timeout      time.Duration `yaml:"timeout" mapstructure:"timeout"`
}

// VerificationSettings configures the emailed code gate.
type VerificationSettings struct {
	MaxCodeAge time.Duration `yaml:"maxcodeage" mapstructure:"maxcodeage"` // 0 = codes never expire
}

// CacheSettings holds the freshness window of each cached read.
type CacheSettings struct {
	Cities      time.Duration `yaml:"cities" mapstructure:"cities"`
	Drugs       time.Duration `yaml:"drugs" mapstructure:"drugs"`
	Inventory   time.Duration `yaml:"inventory" mapstructure:"inventory"`
	Requests    time.Duration `yaml:"requests" mapstructure:"requests"`
	Feedback    time.Duration `yaml:"feedback" mapstructure:"feedback"`
	Pending     time.Duration `yaml:"pending" mapstructure:"pending"`
	WriteSettle time.Duration `yaml:"writesettle" mapstructure:"writesettle"` // pause before invalidating after a write
}

// ServerSettings configures the HTTP API.
type ServerSettings struct {
	Host         string        `yaml:"host" mapstructure:"host"`
	Port         string        `yaml:"port" mapstructure:"port"`
	BodyLimit    string        `yaml:"bodylimit" mapstructure:"bodylimit"`
	AllowOrigins []string      `yaml:"alloworigins" mapstructure:"alloworigins"`
	SessionTTL   time.Duration `yaml:"sessionttl" mapstructure:"sessionttl"`
	SecureCookie bool          `yaml:"securecookie" mapstructure:"securecookie"`
	Metrics      bool          `yaml:"metrics" mapstructure:"metrics"`
}

// SentrySettings configures optional error telemetry.
type SentrySettings struct {
	Enabled     bool    `yaml:"enabled" mapstructure:"enabled"`
	DSN         string  `yaml:"dsn" mapstructure:"dsn"`
	Environment string  `yaml:"environment" mapstructure:"environment"`
	SampleRate  float64 `yaml:"samplerate" mapstructure:"samplerate"`
}

// JournalSettings configures the local submission journal.
type JournalSettings struct {
	Enabled bool   `yaml:"enabled" mapstructure:"enabled"`
	Driver  string `yaml:"driver" mapstructure:"driver"` // sqlite, mysql or postgres
	Path    string `yaml:"path" mapstructure:"path"`     // sqlite file
	DSN     string `yaml:"dsn" mapstructure:"dsn"`       // mysql / postgres

	// Retention bounds how long journal entries are kept; 0 keeps them forever.
	Retention time.Duration `yaml:"retention" mapstructure:"retention"`
}

// NotificationSettings lists shoutrrr URLs alerted when a report awaits review.
type NotificationSettings struct {
	Reviewers []string      `yaml:"reviewers" mapstructure:"reviewers"`
	Timeout   time.Duration `yaml:"timeout" mapstructure:"timeout"`
}

// Settings is the root configuration.
type Settings struct {
	Debug        bool                 `yaml:"debug" mapstructure:"debug"`
	Coda         CodaSettings         `yaml:"coda" mapstructure:"coda"`
	Mail         MailSettings         `yaml:"mail" mapstructure:"mail"`
	Verification VerificationSettings `yaml:"verification" mapstructure:"verification"`
	Cache        CacheSettings        `yaml:"cache" mapstructure:"cache"`
	Server       ServerSettings       `yaml:"server" mapstructure:"server"`
	Logging      logger.LoggingConfig `yaml:"logging" mapstructure:"logging"`
	Sentry       SentrySettings       `yaml:"sentry" mapstructure:"sentry"`
	Journal      JournalSettings      `yaml:"journal" mapstructure:"journal"`
	Notification NotificationSettings `yaml:"notification" mapstructure:"notification"`
}

var (
	settingsInstance *Settings
	settingsMutex    sync.RWMutex
	configFile       string
)

// SetConfigFile makes Load read path instead of searching the default locations.
// A missing file is then an error rather than a fallback to the defaults.
func SetConfigFile(path string) {
	settingsMutex.Lock()
	defer settingsMutex.Unlock()
	configFile = path
}

// Load reads the configuration into a Settings instance and resolves the four
// required secrets. Missing secrets abort with a ValidationError naming them.
func Load() (*Settings, error) {
	settingsMutex.Lock()
	defer settingsMutex.Unlock()

	if _, err := secrets.LoadDotEnv(dotEnvPaths()...); err != nil {
		return nil, err
	}

	if err := initViper(); err != nil {
		return nil, errors.New(err).
			Component("conf").
			Category(errors.CategoryConfiguration).
			Context("operation", "init_viper").
			Build()
	}

	settings := &Settings{}
	if err := viper.Unmarshal(settings); err != nil {
		return nil, errors.New(fmt.Errorf("error unmarshaling config into struct: %w", err)).
			Component("conf").
			Category(errors.CategoryConfiguration).
			Build()
	}

	if err := resolveSecrets(settings); err != nil {
		return nil, err
	}
	if err := ValidateSettings(settings); err != nil {
		return nil, err
	}

	settingsInstance = settings
	return settingsInstance, nil
}

// GetSettings returns the settings from the last successful Load.
func GetSettings() *Settings {
	settingsMutex.RLock()
	defer settingsMutex.RUnlock()
	return settingsInstance
}

// initViper registers defaults and environment bindings, then reads config.yaml
// from the search paths or falls back to the embedded defaults.
func initViper() error {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	for _, path := range GetDefaultConfigPaths() {
		viper.AddConfigPath(path)
	}
	if configFile != "" {
		viper.SetConfigFile(configFile)
	}

	setDefaultConfig()
	if err := bindEnvVars(); err != nil {
		return err
	}

	err := viper.ReadInConfig()
	if err == nil {
		getLogger().Debug("config file loaded", logger.String("path", viper.ConfigFileUsed()))
		return nil
	}

	var notFound viper.ConfigFileNotFoundError
	if !errors.As(err, &notFound) {
		return fmt.Errorf("fatal error reading config file: %w", err)
	}

	getLogger().Debug("no config file found, using embedded defaults")
	return viper.ReadConfig(bytes.NewReader(defaultConfig()))
}

// resolveSecrets applies *_file overrides and ${VAR} expansion to the four required
// secrets. All missing names are reported together.
func resolveSecrets(s *Settings) error {
	required := []struct {
		name  string
		file  string
		value *string
	}{
		{"coda.apikey", s.Coda.APIKeyFile, &s.Coda.APIKey},
		{"coda.docid", s.Coda.DocIDFile, &s.Coda.DocID},
		{"mail.account", s.Mail.AccountFile, &s.Mail.Account},
		{"mail.password", s.Mail.PasswordFile, &s.Mail.Password},
	}

	ve := ValidationError{}
	for _, r := range required {
		resolved, err := secrets.MustResolve(r.name, r.file, *r.value)
		if err != nil {
			ve.Errors = append(ve.Errors, err.Error())
			continue
		}
		*r.value = resolved
	}

	if len(ve.Errors) > 0 {
		return errors.New(ve).
			Component("conf").
			Category(errors.CategoryConfiguration).
			Context("operation", "resolve_secrets").
			Build()
	}
	return nil
}

func defaultConfig() []byte {
	data, err := configFiles.ReadFile("config.yaml")
	if err != nil {
		// embedded at build time
		panic(err)
	}
	return data
}

// WriteDefaultConfig writes the embedded default config.yaml to path unless the file exists.
func WriteDefaultConfig(path string) error {
	if _, err := os.Stat(path); err == nil {
		return errors.Newf("config file already exists: %s", path).
			Component("conf").
			Category(errors.CategoryFileIO).
			Build()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.New(err).Component("conf").Category(errors.CategoryFileIO).Build()
	}
	if err := os.WriteFile(path, defaultConfig(), 0o600); err != nil {
		return errors.New(err).Component("conf").Category(errors.CategoryFileIO).Build()
	}
	return nil
}

// Redacted returns a copy of the settings safe to print.
func (s *Settings) Redacted() Settings {
	out := *s
	mask := func(v string) string {
		if v == "" {
			return ""
		}
		return "[REDACTED]"
	}
	out.Coda.APIKey = mask(out.Coda.APIKey)
	out.Mail.Password = mask(out.Mail.Password)
	out.Sentry.DSN = mask(out.Sentry.DSN)
	out.Journal.DSN = mask(out.Journal.DSN)
	if len(out.Notification.Reviewers) > 0 {
		out.Notification.Reviewers = []string{fmt.Sprintf("[%d URLs REDACTED]", len(out.Notification.Reviewers))}
	}
	return out
}

func getLogger() logger.Logger {
	return logger.Global().Module("conf")
}
