package cli

import (
	"testing"

	"github.com/spf13/cobra"
)

// TestLsShortcut tests the ls shortcut command
func TestLsShortcut(t *testing.T) {
	cmd := newLsShortcut()
	if cmd == nil {
		t.Fatal("newLsShortcut() returned nil")
	}

	if cmd.Use != "ls" {
		t.Errorf("Expected Use='ls', got '%s'", cmd.Use)
	}

	if cmd.RunE == nil {
		t.Error("RunE function is nil")
	}

	if cmd.Flags().Lookup("json") == nil {
		t.Error("--json flag not found")
	}
}

// TestMkdirShortcut tests the mkdir shortcut command
func TestMkdirShortcut(t *testing.T) {
	cmd := newMkdirShortcut()
	if cmd == nil {
		t.Fatal("newMkdirShortcut() returned nil")
	}

	if cmd.Use != "mkdir <name>" {
		t.Errorf("Expected Use='mkdir <name>', got '%s'", cmd.Use)
	}

	if err := cmd.Args(cmd, nil); err == nil {
		t.Error("Expected an error without a folder name")
	}
}

// TestAddShortcuts tests that shortcuts are added to root command
func TestAddShortcuts(t *testing.T) {
	rootCmd := &cobra.Command{Use: "npass"}
	AddShortcuts(rootCmd)

	found := make(map[string]bool)
	for _, cmd := range rootCmd.Commands() {
		found[cmd.Name()] = true
	}

	for _, name := range []string{"ls", "mkdir"} {
		if !found[name] {
			t.Errorf("Shortcut '%s' not found", name)
		}
	}
}
