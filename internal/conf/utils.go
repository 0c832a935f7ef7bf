package conf

import (
	"os"
	"path/filepath"
)

const appDirName = "drugfinder"

// GetDefaultConfigPaths returns the directories searched for config.yaml:
// the working directory, the user config directory and /etc/drugfinder.
func GetDefaultConfigPaths() []string {
	paths := []string{"."}
	if dir, err := os.UserConfigDir(); err == nil {
		paths = append(paths, filepath.Join(dir, appDirName))
	}
	return append(paths, filepath.Join("/etc", appDirName))
}

// DefaultConfigFile is where `drugfinder config init` writes a new config.yaml.
func DefaultConfigFile() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, appDirName, "config.yaml")
	}
	return "config.yaml"
}

// dotEnvPaths lists the .env files loaded before the environment is bound.
func dotEnvPaths() []string {
	paths := []string{".env"}
	if dir, err := os.UserConfigDir(); err == nil {
		paths = append(paths, filepath.Join(dir, appDirName, ".env"))
	}
	return paths
}
