package config

import (
	"errors"
	"io/fs"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

// Environment variables recognized by the client.
const (
	EnvAPIURL        = "NPASS_API_URL"
	EnvStorePath     = "NPASS_STORE_PATH"
	EnvProxyMode     = "NPASS_PROXY_MODE"
	EnvProxyPassword = "NPASS_PROXY_PASSWORD"
)

// LoadDotEnv loads KEY=VALUE pairs from a .env file into the process
// environment. Variables that are already set win. A missing file is not an
// error.
func LoadDotEnv(path string) error {
	if path == "" {
		path = ".env"
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return err
	}
	return nil
}

// ApplyEnv overlays environment variables onto cfg.
func ApplyEnv(cfg *Config) {
	if v := strings.TrimSpace(os.Getenv(EnvAPIURL)); v != "" {
		cfg.APIBaseURL = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvStorePath)); v != "" {
		cfg.StorePath = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvProxyMode)); v != "" {
		cfg.ProxyMode = v
	}
	if v := os.Getenv(EnvProxyPassword); v != "" {
		cfg.ProxyPassword = v
	}
}

// ResolveAPIURL returns the API base URL and where it came from.
//
// Priority (highest to lowest):
//  1. flag (explicitly provided value, e.g. --api-url)
//  2. environment (NPASS_API_URL, possibly loaded from .env)
//  3. config-file ([neuropassword] api_url)
//  4. default
func ResolveAPIURL(flagValue string, fileCfg *Config) (string, string) {
	if v := strings.TrimSpace(flagValue); v != "" {
		return v, "flag"
	}
	if v := strings.TrimSpace(os.Getenv(EnvAPIURL)); v != "" {
		return v, "environment"
	}
	if fileCfg != nil && strings.TrimSpace(fileCfg.APIBaseURL) != "" && fileCfg.APIBaseURL != NewConfig().APIBaseURL {
		return fileCfg.APIBaseURL, "config-file"
	}
	return NewConfig().APIBaseURL, "default"
}
