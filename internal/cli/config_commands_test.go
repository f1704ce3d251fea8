package cli

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/neuropassword/npass/internal/config"
)

// TestConfigCmd tests the config command group
func TestConfigCmd(t *testing.T) {
	cmd := newConfigCmd()
	if cmd.Use != "config" {
		t.Errorf("Expected Use='config', got '%s'", cmd.Use)
	}

	expectedSubs := []string{"init", "show", "path"}
	subcommands := cmd.Commands()
	if len(subcommands) != len(expectedSubs) {
		t.Errorf("Expected %d subcommands, got %d", len(expectedSubs), len(subcommands))
	}

	found := make(map[string]bool)
	for _, sub := range subcommands {
		found[sub.Name()] = true
		if sub.Short == "" {
			t.Errorf("Subcommand '%s' has no short description", sub.Name())
		}
	}
	for _, name := range expectedSubs {
		if !found[name] {
			t.Errorf("Subcommand '%s' not found", name)
		}
	}

	if newConfigInitCmd().Flags().Lookup("force") == nil {
		t.Error("--force flag not found on config init")
	}
}

func runConfig(t *testing.T, stdin string, args ...string) string {
	t.Helper()
	t.Setenv(config.EnvAPIURL, "")
	t.Setenv(config.EnvStorePath, "")
	t.Setenv(config.EnvProxyMode, "")

	var out bytes.Buffer
	root := NewRootCmd()
	AddCommands(root)
	root.SetArgs(args)
	root.SetIn(strings.NewReader(stdin))
	root.SetOut(&out)
	root.SetErr(&out)
	if err := root.Execute(); err != nil {
		t.Fatalf("%v failed: %v\n%s", args, err, out.String())
	}
	return out.String()
}

// TestConfigInitWritesFile runs config init with scripted answers
func TestConfigInitWritesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config")
	store := filepath.Join(dir, "store.db")

	answers := strings.Join([]string{
		"https://vault.example.com/api",
		store,
		"2",
		"y",
		"basic",
		"proxy.example.com",
		"3128",
		"alice",
		"localhost",
	}, "\n") + "\n"

	out := runConfig(t, answers, "--config", path, "config", "init")
	if !strings.Contains(out, "Configuration saved") {
		t.Errorf("Expected save confirmation, got:\n%s", out)
	}

	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("Failed to load saved config: %v", err)
	}
	if cfg.APIBaseURL != "https://vault.example.com/api" {
		t.Errorf("APIBaseURL = %q", cfg.APIBaseURL)
	}
	if cfg.StorePath != store {
		t.Errorf("StorePath = %q", cfg.StorePath)
	}
	if cfg.MaxRetries != 2 {
		t.Errorf("MaxRetries = %d", cfg.MaxRetries)
	}
	if cfg.ProxyMode != "basic" || cfg.ProxyHost != "proxy.example.com" || cfg.ProxyPort != 3128 || cfg.ProxyUser != "alice" {
		t.Errorf("Proxy settings not saved: %+v", cfg)
	}

	out = runConfig(t, "", "--config", path, "config", "init")
	if !strings.Contains(out, "already exists") {
		t.Errorf("Expected existing config to be kept, got:\n%s", out)
	}
}

// TestConfigInitDefaults accepts every default
func TestConfigInitDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config")

	runConfig(t, "\n\n\n\n", "--config", path, "config", "init")

	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("Failed to load saved config: %v", err)
	}
	defaults := config.NewConfig()
	if cfg.APIBaseURL != defaults.APIBaseURL {
		t.Errorf("APIBaseURL = %q, want %q", cfg.APIBaseURL, defaults.APIBaseURL)
	}
	if cfg.ProxyMode != "no-proxy" {
		t.Errorf("ProxyMode = %q, want no-proxy", cfg.ProxyMode)
	}
}

// TestConfigShowAndPath tests flag precedence in config show
func TestConfigShowAndPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config")

	out := runConfig(t, "", "--config", path, "--api-url", "http://localhost:9000/api", "config", "show")
	if !strings.Contains(out, "http://localhost:9000/api/ (flag)") {
		t.Errorf("Expected flag URL in output, got:\n%s", out)
	}
	if !strings.Contains(out, "file does not exist") {
		t.Errorf("Expected missing file note, got:\n%s", out)
	}

	out = runConfig(t, "", "--config", path, "config", "path")
	if !strings.HasPrefix(out, path) {
		t.Errorf("Expected path %s first, got:\n%s", path, out)
	}
}
