package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/taskdeck/taskdeck/internal/cli/commands"
	"github.com/taskdeck/taskdeck/internal/cli/config"
	"github.com/taskdeck/taskdeck/internal/logger"
)

var version = "dev" // Will be set during build

var rootCmd = &cobra.Command{
	Use:   "taskdeck",
	Short: "Taskdeck - your todo list in the terminal",
	Long: `Taskdeck CLI - Log in to a todo server and manage your tasks.

The session cookie is kept in the OS keyring, so a login survives
between commands until you log out.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		config.LoadEnv()
		initLogger()
	},
}

// initLogger lets flags win over the config file and the environment
func initLogger() {
	level, format := commands.Global.LogLevel, commands.Global.LogFormat
	if level == "" || format == "" {
		if cfg, err := config.LoadFromCurrentDir(); err == nil {
			if level == "" {
				level = cfg.Log.Level
			}
			if format == "" {
				format = cfg.Log.Format
			}
		}
	}
	if level == "" {
		level = os.Getenv("LOG_LEVEL")
	}
	if format == "" {
		format = os.Getenv("LOG_FORMAT")
	}
	logger.Init(level, format)
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&commands.Global.Server, "server", "", "Server alias (uses the selected server if not specified)")
	flags.StringVar(&commands.Global.LogLevel, "log-level", "", "Log level: debug, info, warn, error or off")
	flags.StringVar(&commands.Global.LogFormat, "log-format", "", "Log format: console or json")

	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the version number",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "taskdeck version %s\n", version)
		},
	})

	rootCmd.AddCommand(commands.NewInitCmd())
	rootCmd.AddCommand(commands.NewSelectServerCmd())
	rootCmd.AddCommand(commands.NewStatusCmd())
	rootCmd.AddCommand(commands.NewLoginCmd())
	rootCmd.AddCommand(commands.NewLogoutCmd())
	rootCmd.AddCommand(commands.NewOpenCmd())
	rootCmd.AddCommand(commands.NewTasksCmd())
	rootCmd.AddCommand(commands.NewShellCmd())
}

// Execute runs the root command
func Execute() error {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return err
	}
	return nil
}
