package commands

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/taskdeck/taskdeck/internal/cli/config"
	"github.com/taskdeck/taskdeck/internal/cli/serverselect"
	"github.com/taskdeck/taskdeck/internal/cli/userconfig"
)

// NewSelectServerCmd creates the select-server command
func NewSelectServerCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "select-server [alias]",
		Short: "Select the server to use for commands",
		Long: `Select the server to use for commands.

If no param is provided, an interactive prompt will be shown.

Examples:
  $ taskdeck select-server           # Interactive selection
  $ taskdeck select-server staging   # Select by alias`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var alias string
			if len(args) > 0 {
				alias = args[0]
			}
			return runSelectServer(cmd.OutOrStdout(), alias)
		},
	}

	return cmd
}

func runSelectServer(out io.Writer, alias string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	var server *config.Server
	if alias != "" {
		server, err = cfg.GetServerByAlias(alias)
	} else {
		server, err = serverselect.Prompt(cfg)
	}
	if err != nil {
		return err
	}

	if err := userconfig.SetSelectedServer(server.Alias); err != nil {
		return fmt.Errorf("failed to save selected server: %w", err)
	}

	fmt.Fprintf(out, "Selected server: %s (%s)\n", server.Alias, server.URL)
	return nil
}
