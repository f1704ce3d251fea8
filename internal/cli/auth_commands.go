package cli

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/neuropassword/npass/internal/auth"
	"github.com/neuropassword/npass/internal/constants"
	"github.com/neuropassword/npass/internal/dashboard"
	"github.com/neuropassword/npass/internal/route"
)

// newRegisterCmd creates the 'register' command.
func newRegisterCmd() *cobra.Command {
	var loginAfter bool

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Generate a new seed phrase",
		Long: `Ask the server for a new seed phrase.

The seed phrase is the only way into your vault. Write it down and keep it
somewhere safe; it cannot be recovered.

Example:
  npass register
  npass register --login`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			out := cmd.OutOrStdout()
			if _, state := a.router.Visit(constants.RouteRegister); state == route.Redirecting {
				printWarning(out, "Already logged in")
				return nil
			}

			phrase, err := a.auth.Register(GetContext())
			if err != nil {
				return errors.New(auth.RegisterMessage(err))
			}

			printHeader(out, "Your seed phrase")
			printf(out, "\n  %s\n\n", phrase)
			printWarning(out, "Store it somewhere safe. It cannot be recovered.")

			if !loginAfter {
				printDim(out, "Log in with: npass login")
				return nil
			}
			return login(cmd, a, phrase)
		},
	}

	cmd.Flags().BoolVar(&loginAfter, "login", false, "Log in with the new seed phrase right away")

	return cmd
}

// newLoginCmd creates the 'login' command.
func newLoginCmd() *cobra.Command {
	var seed string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in with your seed phrase",
		Long: `Exchange your seed phrase for a session.

Without --seed the phrase is read from the terminal without echo, or from
standard input when it is not a terminal.

Example:
  npass login
  echo "$SEED" | npass login`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			if _, state := a.router.Visit(constants.RouteLogin); state == route.Redirecting {
				printWarning(cmd.OutOrStdout(), "Already logged in")
				return nil
			}

			phrase := seed
			if phrase == "" {
				phrase, err = newPrompter(cmd).Secret("Seed phrase: ")
				if err != nil {
					return fmt.Errorf("failed to read seed phrase: %w", err)
				}
			}
			return login(cmd, a, phrase)
		},
	}

	cmd.Flags().StringVar(&seed, "seed", "", "Seed phrase (visible in shell history; prefer the prompt)")

	return cmd
}

func login(cmd *cobra.Command, a *app, phrase string) error {
	target, err := a.auth.Login(GetContext(), phrase)
	if err != nil {
		return errors.New(auth.LoginMessage(err))
	}
	a.history.Navigate(target, true)

	printSuccess(cmd.OutOrStdout(), "Logged in")
	a.logger.Debug().Str("path", target).Msg("Continuing after login")
	return nil
}

// newLogoutCmd creates the 'logout' command.
func newLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Log out and forget cached data",
		Long:  `Remove the session, the remembered seed phrase and the folder cache.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			ctrl := dashboard.NewController(a.folders, a.session, a.auth, a.history, a.bus, a.logger)
			if err := ctrl.Logout(); err != nil {
				return fmt.Errorf("failed to log out: %w", err)
			}

			printSuccess(cmd.OutOrStdout(), "Logged out")
			return nil
		},
	}
}

// newStatusCmd creates the 'status' command.
func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show session status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			out := cmd.OutOrStdout()
			printHeader(out, "Session")
			printf(out, "  API URL:     %s\n", a.client.BaseURL())
			if a.cfg.Ephemeral {
				printf(out, "  Store:       (in memory)\n")
			} else {
				printf(out, "  Store:       %s\n", a.cfg.StorePath)
			}

			if !a.session.IsAuthenticated() {
				printf(out, "  Logged in:   no\n")
				return nil
			}
			printf(out, "  Logged in:   yes\n")

			if exp := a.session.TokenExpiry(); !exp.IsZero() {
				left := time.Until(exp).Round(time.Second)
				if left > 0 {
					printf(out, "  Token:       expires %s (in %s)\n", exp.Local().Format("2006-01-02 15:04:05"), left)
				} else {
					printf(out, "  Token:       expired %s\n", exp.Local().Format("2006-01-02 15:04:05"))
				}
			}
			if a.session.SeedPhrase() != "" {
				printf(out, "  Seed phrase: remembered\n")
			}
			printf(out, "  Cached:      %d folders\n", len(a.folders.Cache().Load()))
			return nil
		},
	}
}
