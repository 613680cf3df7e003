package commands

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

// NewStatusCmd creates the status command
func NewStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Ask the server who is logged in",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEnv(cmd, runStatus)
		},
	}
}

func runStatus(ctx context.Context, e *env, out io.Writer) error {
	res := e.app.Session.CheckStatus(ctx)
	if res.Err != nil {
		return fmt.Errorf("status check failed: %w", res.Err)
	}

	if res.LoggedIn {
		fmt.Fprintf(out, "Logged in as %s on %s (%s)\n", res.User, e.server.Alias, e.server.URL)
	} else {
		fmt.Fprintf(out, "Not logged in on %s (%s)\n", e.server.Alias, e.server.URL)
	}
	return nil
}
