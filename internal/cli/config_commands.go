// Package cli provides configuration management commands.
package cli

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/neuropassword/npass/internal/config"
)

// newConfigCmd creates the 'config' command group.
func newConfigCmd() *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Manage npass configuration",
		Long: `Configuration management commands for npass.

Commands:
  init  - Interactive configuration setup
  show  - Display current configuration
  path  - Show configuration file path`,
	}

	configCmd.AddCommand(newConfigInitCmd())
	configCmd.AddCommand(newConfigShowCmd())
	configCmd.AddCommand(newConfigPathCmd())

	return configCmd
}

func configPath() string {
	if cfgFile != "" {
		return cfgFile
	}
	return config.DefaultConfigPath()
}

// newConfigInitCmd creates the 'config init' command.
func newConfigInitCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize configuration interactively",
		Long: `Interactive configuration setup for npass.

The configuration is saved to ~/.config/npass/config unless --config is
given. Press Enter to accept the value in brackets.

Use --force to overwrite existing configuration.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := configPath()
			out := cmd.OutOrStdout()

			if !force {
				if _, err := os.Stat(path); err == nil {
					printf(out, "Configuration already exists at: %s\n", path)
					printf(out, "Use --force to overwrite or run 'npass config show' to view it.\n")
					return nil
				}
			}

			cfg, err := config.Load(path)
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			printHeader(out, "npass configuration")
			p := newPrompter(cmd)

			if cfg.APIBaseURL, err = p.Line("API base URL", cfg.APIBaseURL); err != nil {
				return err
			}
			if cfg.StorePath, err = p.Line("Session store", cfg.StorePath); err != nil {
				return err
			}
			retries, err := p.Line("Read retries (0 disables)", strconv.Itoa(cfg.MaxRetries))
			if err != nil {
				return err
			}
			if cfg.MaxRetries, err = strconv.Atoi(retries); err != nil {
				return fmt.Errorf("read retries must be a number: %w", err)
			}

			useProxy, err := p.Confirm("Configure proxy?")
			if err != nil {
				return err
			}
			if useProxy {
				if err := promptProxy(p, cfg); err != nil {
					return err
				}
			}

			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("invalid configuration: %w", err)
			}
			if err := config.Save(cfg, path); err != nil {
				return fmt.Errorf("failed to save config: %w", err)
			}

			GetLogger().Info().Str("path", path).Msg("Configuration saved")
			printSuccess(out, "Configuration saved to: %s", path)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "Overwrite existing configuration")

	return cmd
}

func promptProxy(p *prompter, cfg *config.Config) error {
	mode, err := p.Line("Proxy mode (no-proxy, system, basic, ntlm)", "system")
	if err != nil {
		return err
	}
	cfg.ProxyMode = strings.ToLower(mode)
	if cfg.ProxyMode == "no-proxy" || cfg.ProxyMode == "system" {
		return nil
	}

	if cfg.ProxyHost, err = p.Line("Proxy host", cfg.ProxyHost); err != nil {
		return err
	}
	port, err := p.Line("Proxy port", "8080")
	if err != nil {
		return err
	}
	if cfg.ProxyPort, err = strconv.Atoi(port); err != nil {
		return fmt.Errorf("proxy port must be a number: %w", err)
	}
	if cfg.ProxyUser, err = p.Line("Proxy user", cfg.ProxyUser); err != nil {
		return err
	}
	cfg.NoProxy, err = p.Line("Hosts that bypass the proxy", cfg.NoProxy)
	return err
}

// newConfigShowCmd creates the 'config show' command.
func newConfigShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Display current configuration",
		Long: `Display the current configuration settings.

This command shows the merged configuration from:
  1. Configuration file (~/.config/npass/config)
  2. Environment variables (NPASS_API_URL, NPASS_STORE_PATH, NPASS_PROXY_MODE, .env)
  3. Command-line flags (--api-url, --store, --ephemeral)

Priority: flags > environment > config file > defaults`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			out := cmd.OutOrStdout()
			_, source := config.ResolveAPIURL(apiBaseURL, cfg)

			printHeader(out, "API Settings:")
			printf(out, "  API Base URL:    %s (%s)\n", cfg.NormalizedAPIURL(), source)
			printf(out, "  Request timeout: %s\n", cfg.RequestTimeout)
			printf(out, "  Read retries:    %d\n", cfg.MaxRetries)
			printf(out, "\n")

			printHeader(out, "Storage:")
			if cfg.Ephemeral {
				printf(out, "  Session store:   (in memory)\n")
			} else {
				printf(out, "  Session store:   %s\n", cfg.StorePath)
			}
			printf(out, "  Log to file:     %t\n", cfg.LogToFile)
			printf(out, "\n")

			printHeader(out, "Proxy Settings:")
			printf(out, "  Proxy Mode: %s\n", cfg.ProxyMode)
			if cfg.ProxyHost != "" {
				printf(out, "  Proxy Host: %s\n", cfg.ProxyHost)
				printf(out, "  Proxy Port: %d\n", cfg.ProxyPort)
			}
			if cfg.ProxyUser != "" {
				printf(out, "  Proxy User: %s\n", cfg.ProxyUser)
			}
			if cfg.NoProxy != "" {
				printf(out, "  No Proxy:   %s\n", cfg.NoProxy)
			}
			printf(out, "\n")

			path := configPath()
			printf(out, "Configuration file: %s\n", path)
			if _, err := os.Stat(path); os.IsNotExist(err) {
				printDim(out, "  (file does not exist - using defaults)")
			}
			return nil
		},
	}
}

// newConfigPathCmd creates the 'config path' command.
func newConfigPathCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Show configuration file path",
		Long:  `Display the path to the configuration file.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			path := configPath()
			printf(out, "%s\n", path)

			if info, err := os.Stat(path); err == nil {
				printDim(out, "exists, %d bytes, modified %s", info.Size(), info.ModTime().Format("2006-01-02 15:04:05"))
			} else {
				printDim(out, "does not exist; create it with: npass config init")
			}
			return nil
		},
	}
}
