// Package config provides configuration management for the npass client.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"gopkg.in/ini.v1"

	"github.com/neuropassword/npass/internal/constants"
)

// Config is the resolved client configuration.
//
// INI format:
//
//	[neuropassword]
//	api_url = https://dev.api.neuropassword.com/api/
//
//	[client]
//	store_path = /home/me/.config/npass/store.db
//	max_retries = 0
//	request_timeout_seconds = 30
//	log_to_file = false
//
//	[proxy]
//	mode = no-proxy
//	host =
//	port = 8080
//	user =
//	no_proxy = localhost,127.0.0.1
type Config struct {
	APIBaseURL string

	// StorePath is the bbolt file holding tokens and the folder cache.
	StorePath string

	// Ephemeral keeps all state in memory for one invocation. Never persisted.
	Ephemeral bool

	MaxRetries     int
	RequestTimeout time.Duration
	LogToFile      bool

	// Proxy settings. The password is never written to disk; it comes from
	// NPASS_PROXY_PASSWORD or an interactive prompt.
	ProxyMode     string
	ProxyHost     string
	ProxyPort     int
	ProxyUser     string
	ProxyPassword string
	NoProxy       string
	ProxyWarmup   bool
}

// Validation errors
var (
	ErrMissingAPIURL     = errors.New("api_url is required")
	ErrInvalidAPIURL     = errors.New("api_url must be an absolute http(s) URL")
	ErrInvalidMaxRetries = fmt.Errorf("max_retries must be between 0 and %d", constants.MaxRetriesLimit)
	ErrInvalidTimeout    = errors.New("request_timeout_seconds must be positive")
	ErrInvalidProxyMode  = errors.New("proxy mode must be one of no-proxy, system, basic, ntlm")
)

// NewConfig returns a config with default values.
func NewConfig() *Config {
	return &Config{
		APIBaseURL:     constants.DefaultAPIBaseURL,
		StorePath:      DefaultStorePath(),
		MaxRetries:     constants.DefaultMaxRetries,
		RequestTimeout: constants.DefaultRequestTimeout,
		ProxyMode:      "no-proxy",
	}
}

// Load reads configuration from an INI file.
// A missing file yields defaults and no error; an unreadable one is an error.
func Load(path string) (*Config, error) {
	cfg := NewConfig()

	if path == "" {
		path = DefaultConfigPath()
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}

	iniFile, err := ini.Load(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	apiSection := iniFile.Section("neuropassword")
	cfg.APIBaseURL = apiSection.Key("api_url").MustString(cfg.APIBaseURL)

	clientSection := iniFile.Section("client")
	cfg.StorePath = clientSection.Key("store_path").MustString(cfg.StorePath)
	cfg.MaxRetries = clientSection.Key("max_retries").MustInt(cfg.MaxRetries)
	timeoutSecs := clientSection.Key("request_timeout_seconds").MustInt(int(cfg.RequestTimeout / time.Second))
	cfg.RequestTimeout = time.Duration(timeoutSecs) * time.Second
	cfg.LogToFile = clientSection.Key("log_to_file").MustBool(false)

	proxySection := iniFile.Section("proxy")
	cfg.ProxyMode = proxySection.Key("mode").MustString(cfg.ProxyMode)
	cfg.ProxyHost = proxySection.Key("host").String()
	cfg.ProxyPort = proxySection.Key("port").MustInt(0)
	cfg.ProxyUser = proxySection.Key("user").String()
	cfg.NoProxy = proxySection.Key("no_proxy").String()
	cfg.ProxyWarmup = proxySection.Key("warmup").MustBool(false)

	return cfg, nil
}

// Save writes the configuration to an INI file using a temp file and rename.
func Save(cfg *Config, path string) error {
	if path == "" {
		path = DefaultConfigPath()
	}

	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	iniFile := ini.Empty()

	apiSection, err := iniFile.NewSection("neuropassword")
	if err != nil {
		return fmt.Errorf("failed to create neuropassword section: %w", err)
	}
	apiSection.Key("api_url").SetValue(cfg.APIBaseURL)

	clientSection, err := iniFile.NewSection("client")
	if err != nil {
		return fmt.Errorf("failed to create client section: %w", err)
	}
	clientSection.Key("store_path").SetValue(cfg.StorePath)
	clientSection.Key("max_retries").SetValue(fmt.Sprintf("%d", cfg.MaxRetries))
	clientSection.Key("request_timeout_seconds").SetValue(fmt.Sprintf("%d", int(cfg.RequestTimeout/time.Second)))
	clientSection.Key("log_to_file").SetValue(fmt.Sprintf("%t", cfg.LogToFile))

	proxySection, err := iniFile.NewSection("proxy")
	if err != nil {
		return fmt.Errorf("failed to create proxy section: %w", err)
	}
	proxySection.Key("mode").SetValue(cfg.ProxyMode)
	proxySection.Key("host").SetValue(cfg.ProxyHost)
	proxySection.Key("port").SetValue(fmt.Sprintf("%d", cfg.ProxyPort))
	proxySection.Key("user").SetValue(cfg.ProxyUser)
	proxySection.Key("no_proxy").SetValue(cfg.NoProxy)
	proxySection.Key("warmup").SetValue(fmt.Sprintf("%t", cfg.ProxyWarmup))

	tmpPath := path + ".tmp"
	if err := iniFile.SaveTo(tmpPath); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	if runtime.GOOS != "windows" {
		if err := os.Chmod(tmpPath, 0600); err != nil {
			os.Remove(tmpPath)
			return fmt.Errorf("failed to set config permissions: %w", err)
		}
	}

	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to save config: %w", err)
	}

	return nil
}

// Validate checks the values an API client cannot work without.
func (cfg *Config) Validate() error {
	raw := strings.TrimSpace(cfg.APIBaseURL)
	if raw == "" {
		return ErrMissingAPIURL
	}
	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return ErrInvalidAPIURL
	}
	if cfg.MaxRetries < 0 || cfg.MaxRetries > constants.MaxRetriesLimit {
		return ErrInvalidMaxRetries
	}
	if cfg.RequestTimeout <= 0 {
		return ErrInvalidTimeout
	}
	switch strings.ToLower(cfg.ProxyMode) {
	case "", "no-proxy", "system", "basic", "ntlm":
	default:
		return ErrInvalidProxyMode
	}
	return nil
}

// NormalizedAPIURL returns the base URL with exactly one trailing slash so
// that relative endpoint paths resolve beneath it.
func (cfg *Config) NormalizedAPIURL() string {
	return strings.TrimRight(strings.TrimSpace(cfg.APIBaseURL), "/") + "/"
}
