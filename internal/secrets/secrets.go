// Package secrets resolves credentials from literals, ${VAR} references, mounted secret
// files and .env files. Secret values are never logged.
package secrets

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"

	"github.com/twdrugfinder/drugfinder/internal/errors"
	"github.com/twdrugfinder/drugfinder/internal/logger"
)

// maxSecretFileSize caps secret file reads; tokens and passwords are small.
const maxSecretFileSize = 64 * 1024

func getLogger() logger.Logger {
	return logger.Global().Module("secrets")
}

// LoadDotEnv loads KEY=VALUE pairs from the given files into the process environment.
// Variables already set in the environment win. Missing files are skipped.
func LoadDotEnv(paths ...string) ([]string, error) {
	var loaded []string
	for _, p := range paths {
		if p == "" {
			continue
		}
		if _, err := os.Stat(p); err != nil {
			continue
		}
		if err := godotenv.Load(p); err != nil {
			return loaded, errors.New(err).
				Component("secrets").
				Category(errors.CategoryConfiguration).
				Context("file", p).
				Build()
		}
		loaded = append(loaded, p)
	}
	return loaded, nil
}

// ExpandString resolves ${VAR} and ${VAR:-default} references.
//
//	"${CODA_TOKEN}"          -> value of CODA_TOKEN
//	"${MAIL_HOST:-smtp.gmail.com}" -> value or fallback
func ExpandString(s string) (string, error) {
	if s == "" {
		return "", nil
	}

	var missingVars []string
	expanded := os.Expand(s, func(key string) string {
		varName, fallback, hasFallback := strings.Cut(key, ":-")
		if value := os.Getenv(varName); value != "" {
			return value
		}
		if hasFallback {
			return fallback
		}
		missingVars = append(missingVars, varName)
		return ""
	})

	if len(missingVars) > 0 {
		return "", errors.Newf("missing required environment variable(s): %s", strings.Join(missingVars, ", ")).
			Component("secrets").
			Category(errors.CategoryConfiguration).
			Build()
	}
	return expanded, nil
}

// ReadFile reads a secret from a mounted file (/run/secrets/*). Trailing newlines are
// trimmed and group/other permissions produce a warning.
func ReadFile(path string) (string, error) {
	if path == "" {
		return "", errors.NewStd("secret file path is empty")
	}
	cleanPath := filepath.Clean(path)

	info, err := os.Stat(cleanPath)
	if err != nil {
		if os.IsNotExist(err) {
			return "", errors.Newf("secret file not found: %s", cleanPath).
				Component("secrets").
				Category(errors.CategoryNotFound).
				Build()
		}
		return "", errors.New(err).Component("secrets").Category(errors.CategoryFileIO).Build()
	}
	if !info.Mode().IsRegular() {
		return "", errors.Newf("secret path is not a regular file: %s", cleanPath).
			Component("secrets").
			Category(errors.CategoryValidation).
			Build()
	}
	if info.Size() > maxSecretFileSize {
		return "", errors.Newf("secret file too large (max %d bytes): %s", maxSecretFileSize, cleanPath).
			Component("secrets").
			Category(errors.CategoryLimit).
			Build()
	}
	if perm := info.Mode().Perm(); perm&0o077 != 0 {
		getLogger().Warn("secret file readable by group or others",
			logger.String("path", cleanPath),
			logger.String("perm", perm.String()))
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return "", errors.New(err).Component("secrets").Category(errors.CategoryFileIO).Build()
	}

	secret := strings.TrimRight(string(data), "\r\n")
	if secret == "" {
		return "", errors.Newf("secret file is empty: %s", cleanPath).
			Component("secrets").
			Category(errors.CategoryValidation).
			Build()
	}
	return secret, nil
}

// Resolve picks the secret from filePath if set, otherwise expands value.
func Resolve(filePath, value string) (string, error) {
	if filePath != "" {
		return ReadFile(filePath)
	}
	return ExpandString(value)
}

// MustResolve is Resolve for required secrets; an empty result is an error naming fieldName.
func MustResolve(fieldName, filePath, value string) (string, error) {
	secret, err := Resolve(filePath, value)
	if err != nil {
		return "", err
	}
	if secret == "" {
		return "", errors.Newf("%s is required but not provided", fieldName).
			Component("secrets").
			Category(errors.CategoryConfiguration).
			Context("field", fieldName).
			Build()
	}
	return secret, nil
}
