package config

import (
	"os"
	"path/filepath"
	"runtime"

	"github.com/neuropassword/npass/internal/constants"
)

// AppDir is the directory name used under the user's config root.
const AppDir = "npass"

// ConfigDirectory returns the directory holding the config file, the store
// and logs.
//
// Locations:
//   - Windows: %APPDATA%\npass
//   - Unix: ~/.config/npass
func ConfigDirectory() string {
	if runtime.GOOS == "windows" {
		if appData := os.Getenv("APPDATA"); appData != "" {
			return filepath.Join(appData, AppDir)
		}
	}

	configDir, err := os.UserConfigDir()
	if err != nil {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return filepath.Join(os.TempDir(), AppDir)
		}
		return filepath.Join(homeDir, ".config", AppDir)
	}
	return filepath.Join(configDir, AppDir)
}

// DefaultConfigPath returns the INI config file location.
func DefaultConfigPath() string {
	return filepath.Join(ConfigDirectory(), "config")
}

// DefaultStorePath returns the bbolt store location.
func DefaultStorePath() string {
	return filepath.Join(ConfigDirectory(), constants.StoreFileName)
}

// LogDirectory returns the directory for rotated log files.
func LogDirectory() string {
	return filepath.Join(ConfigDirectory(), "logs")
}

// EnsureConfigDirectory creates the config directory with owner-only access.
func EnsureConfigDirectory() error {
	return os.MkdirAll(ConfigDirectory(), 0700)
}
