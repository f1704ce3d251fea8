// Package cli provides command shortcuts for common operations.
package cli

import (
	"github.com/spf13/cobra"
)

// AddShortcuts adds shortcut commands to the root command.
func AddShortcuts(rootCmd *cobra.Command) {
	rootCmd.AddCommand(newLsShortcut())
	rootCmd.AddCommand(newMkdirShortcut())
}

// newLsShortcut creates the 'ls' shortcut command.
// Shortcut for: folders list
func newLsShortcut() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "ls",
		Short: "List folders (shortcut for 'folders list')",
		Long: `Shortcut for listing folders.

Equivalent to: npass folders list`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return listFolders(cmd, asJSON)
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print folders as JSON")

	return cmd
}

// newMkdirShortcut creates the 'mkdir' shortcut command.
// Shortcut for: folders create
func newMkdirShortcut() *cobra.Command {
	create := newFoldersCreateCmd()

	return &cobra.Command{
		Use:   "mkdir <name>",
		Short: "Create a folder (shortcut for 'folders create')",
		Long: `Shortcut for creating a folder.

Equivalent to: npass folders create <name>`,
		Args: cobra.MinimumNArgs(1),
		RunE: create.RunE,
	}
}
