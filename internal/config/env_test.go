package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestResolveAPIURLSource(t *testing.T) {
	fileCfg := NewConfig()
	fileCfg.APIBaseURL = "http://file.example/api/"

	t.Run("flag wins", func(t *testing.T) {
		t.Setenv(EnvAPIURL, "http://env.example/api/")
		url, source := ResolveAPIURL("http://flag.example/api/", fileCfg)
		if url != "http://flag.example/api/" || source != "flag" {
			t.Errorf("got (%s, %s), want flag", url, source)
		}
	})

	t.Run("environment beats file", func(t *testing.T) {
		t.Setenv(EnvAPIURL, "http://env.example/api/")
		url, source := ResolveAPIURL("", fileCfg)
		if url != "http://env.example/api/" || source != "environment" {
			t.Errorf("got (%s, %s), want environment", url, source)
		}
	})

	t.Run("file beats default", func(t *testing.T) {
		t.Setenv(EnvAPIURL, "")
		url, source := ResolveAPIURL("", fileCfg)
		if url != "http://file.example/api/" || source != "config-file" {
			t.Errorf("got (%s, %s), want config-file", url, source)
		}
	})

	t.Run("default", func(t *testing.T) {
		t.Setenv(EnvAPIURL, "")
		url, source := ResolveAPIURL("", NewConfig())
		if url != NewConfig().APIBaseURL || source != "default" {
			t.Errorf("got (%s, %s), want default", url, source)
		}
	})
}

func TestApplyEnv(t *testing.T) {
	t.Setenv(EnvAPIURL, "http://env.example/api/")
	t.Setenv(EnvStorePath, "/tmp/npass-env.db")
	t.Setenv(EnvProxyMode, "system")
	t.Setenv(EnvProxyPassword, "s3cret")

	cfg := NewConfig()
	ApplyEnv(cfg)

	if cfg.APIBaseURL != "http://env.example/api/" {
		t.Errorf("APIBaseURL = %s", cfg.APIBaseURL)
	}
	if cfg.StorePath != "/tmp/npass-env.db" {
		t.Errorf("StorePath = %s", cfg.StorePath)
	}
	if cfg.ProxyMode != "system" {
		t.Errorf("ProxyMode = %s", cfg.ProxyMode)
	}
	if cfg.ProxyPassword != "s3cret" {
		t.Errorf("ProxyPassword not applied")
	}
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	envPath := filepath.Join(dir, ".env")
	if err := os.WriteFile(envPath, []byte("NPASS_STORE_PATH=/tmp/from-dotenv.db\n"), 0600); err != nil {
		t.Fatal(err)
	}

	// Register cleanup and start from an unset variable.
	t.Setenv(EnvStorePath, "")
	os.Unsetenv(EnvStorePath)

	if err := LoadDotEnv(envPath); err != nil {
		t.Fatalf("LoadDotEnv() error = %v", err)
	}
	if got := os.Getenv(EnvStorePath); got != "/tmp/from-dotenv.db" {
		t.Errorf("NPASS_STORE_PATH = %q, want value from .env", got)
	}
}

func TestLoadDotEnvDoesNotOverride(t *testing.T) {
	dir := t.TempDir()
	envPath := filepath.Join(dir, ".env")
	if err := os.WriteFile(envPath, []byte("NPASS_PROXY_MODE=ntlm\n"), 0600); err != nil {
		t.Fatal(err)
	}

	t.Setenv(EnvProxyMode, "system")
	if err := LoadDotEnv(envPath); err != nil {
		t.Fatalf("LoadDotEnv() error = %v", err)
	}
	if got := os.Getenv(EnvProxyMode); got != "system" {
		t.Errorf("existing variable overridden: %q", got)
	}
}

func TestLoadDotEnvMissingFile(t *testing.T) {
	if err := LoadDotEnv(filepath.Join(t.TempDir(), "nope.env")); err != nil {
		t.Errorf("missing .env should be ignored, got %v", err)
	}
}
