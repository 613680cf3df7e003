package commands

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/taskdeck/taskdeck/internal/cli/config"
)

// NewInitCmd creates the init command
func NewInitCmd() *cobra.Command {
	var alias string

	cmd := &cobra.Command{
		Use:   "init [server-url]",
		Short: "Create a taskdeck.yaml or add a server to it",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var serverURL string
			if len(args) > 0 {
				serverURL = args[0]
			}
			return runInit(cmd.OutOrStdout(), serverURL, alias)
		},
	}

	cmd.Flags().StringVar(&alias, "alias", "", "Alias of the added server")

	return cmd
}

func runInit(out io.Writer, serverURL, alias string) error {
	currentDir, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("failed to get current directory: %w", err)
	}

	configPath := filepath.Join(currentDir, config.ConfigFileName)

	if _, err := os.Stat(configPath); err != nil {
		cfg := config.DefaultConfig()
		if serverURL != "" {
			cfg.Servers[0].URL = serverURL
		}
		if alias != "" {
			cfg.Servers[0].Alias = alias
		}
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("invalid server: %w", err)
		}
		if err := config.Save(configPath, cfg); err != nil {
			return err
		}
		fmt.Fprintf(out, "✓ Created ./%s with server %s (%s)\n", config.ConfigFileName, cfg.Servers[0].Alias, cfg.Servers[0].URL)
		fmt.Fprintln(out, "\nNext step: run 'taskdeck login' to authenticate")
		return nil
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load existing config: %w", err)
	}
	fmt.Fprintf(out, "Found existing %s\n", config.ConfigFileName)

	if serverURL == "" {
		return nil
	}
	for _, s := range cfg.Servers {
		if s.URL == serverURL {
			fmt.Fprintf(out, "Server %s already exists as '%s'\n", serverURL, s.Alias)
			return nil
		}
	}

	if alias == "" {
		alias = fmt.Sprintf("server-%d", len(cfg.Servers)+1)
	}
	cfg.Servers = append(cfg.Servers, config.Server{Alias: alias, URL: serverURL})
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid server: %w", err)
	}
	if err := config.Save(configPath, cfg); err != nil {
		return err
	}

	fmt.Fprintf(out, "✓ Added server %s (%s) to ./%s\n", alias, serverURL, config.ConfigFileName)
	return nil
}
