// Package cli provides folder commands.
package cli

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/neuropassword/npass/internal/dashboard"
	"github.com/neuropassword/npass/internal/models"
)

const foldersRoute = "/dashboard/folders"

// newFoldersCmd creates the 'folders' command group.
func newFoldersCmd() *cobra.Command {
	foldersCmd := &cobra.Command{
		Use:   "folders",
		Short: "Folder operations (list, create, rename, delete)",
		Long:  `Commands for managing the folders of your vault.`,
	}

	foldersCmd.AddCommand(newFoldersListCmd())
	foldersCmd.AddCommand(newFoldersCreateCmd())
	foldersCmd.AddCommand(newFoldersRenameCmd())
	foldersCmd.AddCommand(newFoldersDeleteCmd())

	return foldersCmd
}

// newFoldersListCmd creates the 'folders list' command.
func newFoldersListCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List folders",
		Long: `List your folders. When the server cannot be reached the cached
folders are shown instead.

Example:
  npass folders list
  npass folders list --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return listFolders(cmd, asJSON)
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print folders as JSON")

	return cmd
}

func listFolders(cmd *cobra.Command, asJSON bool) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	ctrl, err := a.dashboard(cmd, foldersRoute)
	if err != nil {
		return err
	}
	defer ctrl.Unmount()

	list := ctrl.Folders()
	out := cmd.OutOrStdout()

	if asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(list)
	}

	if len(list) == 0 {
		printDim(out, "No folders yet. Create one with: npass folders create <name>")
		return nil
	}

	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTITLE\tCREATED\tUPDATED")
	for _, f := range list {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", f.ID, f.Title, formatStamp(f.CreatedAt), formatStamp(f.UpdatedAt))
	}
	return tw.Flush()
}

func formatStamp(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format("2006-01-02 15:04")
}

// newFoldersCreateCmd creates the 'folders create' command.
func newFoldersCreateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "create <name>",
		Short: "Create a folder",
		Long: `Create a new folder. Surrounding whitespace is trimmed from the name.

Example:
  npass folders create Banking
  npass folders create "Social media"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			ctrl, err := a.dashboard(cmd, foldersRoute)
			if err != nil {
				return err
			}
			defer ctrl.Unmount()

			created, err := ctrl.AddFolder(GetContext(), trimArgs(args))
			if err != nil {
				return a.explain(err, dashboard.AddFailedMessage)
			}

			a.logger.Info().Str("id", created.ID).Msg("Folder created")
			printSuccess(cmd.OutOrStdout(), "Folder created")
			printf(cmd.OutOrStdout(), "  Name: %s\n  ID:   %s\n", created.Title, created.ID)
			return nil
		},
	}
}

// newFoldersRenameCmd creates the 'folders rename' command.
func newFoldersRenameCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rename <id> <new-name>",
		Short: "Rename a folder",
		Long: `Rename a folder.

Example:
  npass folders rename 3 "Online banking"`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			ctrl, err := a.dashboard(cmd, foldersRoute)
			if err != nil {
				return err
			}
			defer ctrl.Unmount()

			id := args[0]
			if err := ctrl.RenameFolder(GetContext(), id, trimArgs(args[1:])); err != nil {
				return a.explain(err, dashboard.RenameFailedMessage)
			}

			printSuccess(cmd.OutOrStdout(), "Folder renamed")
			if f, ok := findFolder(ctrl.Folders(), id); ok {
				printf(cmd.OutOrStdout(), "  Name: %s\n", f.Title)
			}
			return nil
		},
	}
}

// newFoldersDeleteCmd creates the 'folders delete' command.
func newFoldersDeleteCmd() *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a folder",
		Long: `Delete a folder. You are asked to confirm unless --yes is given.

Example:
  npass folders delete 3
  npass folders delete 3 --yes`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			ctrl, err := a.dashboard(cmd, foldersRoute)
			if err != nil {
				return err
			}
			defer ctrl.Unmount()

			id := args[0]
			if !yes {
				name := id
				if f, ok := findFolder(ctrl.Folders(), id); ok {
					name = f.Title
				}
				ok, err := newPrompter(cmd).Confirm(fmt.Sprintf("Delete folder %q?", name))
				if err != nil {
					return err
				}
				if !ok {
					printDim(cmd.OutOrStdout(), "Cancelled")
					return nil
				}
			}

			if err := ctrl.DeleteFolder(GetContext(), id); err != nil {
				return a.explain(err, dashboard.DeleteFailedMessage)
			}

			printSuccess(cmd.OutOrStdout(), "Folder deleted")
			return nil
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Do not ask for confirmation")

	return cmd
}

// newTableCmd creates the 'table' command.
func newTableCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "table",
		Short: "Show the credential table",
		Long:  `Show the credential table of your vault, one row per folder.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			ctrl, err := a.dashboard(cmd, "/dashboard")
			if err != nil {
				return err
			}
			defer ctrl.Unmount()

			out := cmd.OutOrStdout()
			rows := ctrl.Rows()
			if len(rows) == 0 {
				printHeader(out, dashboard.EmptyVaultTitle)
				printDim(out, "Add your first folder with: npass folders create <name>")
				return nil
			}

			tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			for i, h := range dashboard.TableHeader {
				if i > 0 {
					fmt.Fprint(tw, "\t")
				}
				fmt.Fprint(tw, h)
			}
			fmt.Fprintln(tw)
			for _, row := range rows {
				cells := row.Cells()
				for i, c := range cells {
					if i > 0 {
						fmt.Fprint(tw, "\t")
					}
					fmt.Fprint(tw, c)
				}
				fmt.Fprintln(tw)
			}
			return tw.Flush()
		},
	}
}

func findFolder(list []models.Folder, id string) (models.Folder, bool) {
	if idx := models.IndexOfFolder(list, id); idx >= 0 {
		return list[idx], true
	}
	return models.Folder{}, false
}
