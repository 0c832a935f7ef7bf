// Package api runs the drugfinder HTTP server: middleware, lifecycle and the probe
// endpoints. The JSON endpoints live in the v2 subpackage.
package api

import (
	"net"
	"time"

	"github.com/twdrugfinder/drugfinder/internal/conf"
	"github.com/twdrugfinder/drugfinder/internal/errors"
	"github.com/twdrugfinder/drugfinder/internal/logger"
)

// GetLogger returns the api package logger.
func GetLogger() logger.Logger {
	return logger.Global().Module("api")
}

const (
	DefaultReadTimeout     = 30 * time.Second
	DefaultWriteTimeout    = 30 * time.Second
	DefaultIdleTimeout     = 2 * time.Minute
	DefaultShutdownTimeout = 10 * time.Second
	DefaultBodyLimit       = "1M"
)

// Config is the effective server configuration derived from conf.ServerSettings.
type Config struct {
	Host           string // empty binds every interface
	Port           string
	AllowedOrigins []string
	SecureCookie   bool // mark the session cookie Secure even on plain HTTP
	BodyLimit      string
	SessionTTL     time.Duration
	Metrics        bool
	Debug          bool

	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
}

// ConfigFromSettings maps settings onto a Config. A nil settings or a zero field keeps
// the default: port 8080, any origin, a 1M body limit and the Default*Timeout values.
func ConfigFromSettings(settings *conf.Settings) *Config {
	cfg := &Config{
		Port:            "8080",
		AllowedOrigins:  []string{"*"},
		BodyLimit:       DefaultBodyLimit,
		ReadTimeout:     DefaultReadTimeout,
		WriteTimeout:    DefaultWriteTimeout,
		IdleTimeout:     DefaultIdleTimeout,
		ShutdownTimeout: DefaultShutdownTimeout,
	}
	if settings == nil {
		return cfg
	}

	srv := settings.Server
	cfg.Host = srv.Host
	cfg.SecureCookie = srv.SecureCookie
	cfg.SessionTTL = srv.SessionTTL
	cfg.Metrics = srv.Metrics
	cfg.Debug = settings.Debug
	if srv.Port != "" {
		cfg.Port = srv.Port
	}
	if len(srv.AllowOrigins) > 0 {
		cfg.AllowedOrigins = srv.AllowOrigins
	}
	if srv.BodyLimit != "" {
		cfg.BodyLimit = srv.BodyLimit
	}
	return cfg
}

// Validate reports every problem at once.
func (c *Config) Validate() error {
	var errs []error
	if c.Port == "" {
		errs = append(errs, errors.NewStd("port is required"))
	}
	if c.ReadTimeout <= 0 || c.WriteTimeout <= 0 {
		errs = append(errs, errors.NewStd("read and write timeouts must be positive"))
	}
	if c.SessionTTL < 0 {
		errs = append(errs, errors.NewStd("session ttl must not be negative"))
	}
	if len(errs) == 0 {
		return nil
	}
	return errors.New(errors.Join(errs...)).
		Component("api").
		Category(errors.CategoryConfiguration).
		Build()
}

// Address is the listen address, e.g. ":8080".
func (c *Config) Address() string {
	return net.JoinHostPort(c.Host, c.Port)
}
