package commands

import (
	"context"
	"io"

	"github.com/spf13/cobra"
)

// NewOpenCmd creates the open command
func NewOpenCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "open <path>",
		Short: "Open a screen of the app, e.g. /, /app or /login",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEnv(cmd, func(ctx context.Context, e *env, out io.Writer) error {
				return runOpen(ctx, e, out, args[0])
			})
		},
	}
}

func runOpen(ctx context.Context, e *env, out io.Writer, path string) error {
	nav, err := e.app.Open(ctx, path)
	if err != nil {
		return err
	}
	renderNavigation(out, e, nav)
	return nil
}
