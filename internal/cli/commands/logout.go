package commands

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

// NewLogoutCmd creates the logout command
func NewLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Log out and forget the stored session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEnv(cmd, runLogout)
		},
	}
}

func runLogout(ctx context.Context, e *env, out io.Writer) error {
	res, err := e.app.Logout(ctx)
	if !res.OK() {
		return fmt.Errorf("logout failed: %w", res.Err)
	}
	e.forget = true

	fmt.Fprintf(out, "✓ Logged out of %s\n", e.server.Alias)
	return err
}
