package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"syscall"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/taskdeck/taskdeck/internal/cli/userconfig"
	"github.com/taskdeck/taskdeck/internal/logger"
	"github.com/taskdeck/taskdeck/internal/router"
	"github.com/taskdeck/taskdeck/internal/session"
)

type loginOptions struct {
	username string
	password string
	keep     bool
}

// prompter asks for what neither flags nor the environment provided
type prompter interface {
	// Username offers def as the answer when it is not empty
	Username(def string) (string, error)
	Password() (string, error)
}

// newPrompter is swapped in tests
var newPrompter = func(out io.Writer) prompter {
	return terminalPrompter{out: out}
}

type terminalPrompter struct {
	out io.Writer
}

func (p terminalPrompter) Username(def string) (string, error) {
	if !term.IsTerminal(int(syscall.Stdin)) {
		return "", fmt.Errorf("username is required in non-interactive mode (use --username flag or TASKDECK_USERNAME env var)")
	}

	prompt := promptui.Prompt{
		Label:   "Username",
		Default: def,
		Validate: func(s string) error {
			if strings.TrimSpace(s) == "" {
				return errors.New("username cannot be empty")
			}
			return nil
		},
	}
	return prompt.Run()
}

func (p terminalPrompter) Password() (string, error) {
	if !term.IsTerminal(int(syscall.Stdin)) {
		return "", fmt.Errorf("password is required in non-interactive mode (use --password flag or TASKDECK_PASSWORD env var)")
	}

	fmt.Fprint(p.out, "Password: ")
	bytePassword, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Fprintln(p.out) // New line after password input
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	return string(bytePassword), nil
}

// NewLoginCmd creates the login command
func NewLoginCmd() *cobra.Command {
	var opts loginOptions

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in to the selected server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEnv(cmd, func(ctx context.Context, e *env, out io.Writer) error {
				return runLogin(ctx, e, out, opts, newPrompter(out))
			})
		},
	}

	cmd.Flags().StringVar(&opts.username, "username", "", "Username (or set TASKDECK_USERNAME)")
	cmd.Flags().StringVar(&opts.password, "password", "", "Password (or set TASKDECK_PASSWORD, will prompt if not provided)")
	cmd.Flags().BoolVar(&opts.keep, "keep", false, "Ask the server for a long-lived session")

	return cmd
}

func runLogin(ctx context.Context, e *env, out io.Writer, opts loginOptions, p prompter) error {
	nav, err := e.app.Open(ctx, "/login")
	if err != nil {
		return err
	}
	if nav.To.Name != router.Login {
		fmt.Fprintf(out, "Already logged in as %s on %s\n", e.app.Session.Snapshot().User, e.server.Alias)
		return nil
	}

	// Check for environment variables (useful for CI/CD)
	if opts.username == "" {
		opts.username = os.Getenv("TASKDECK_USERNAME")
	}
	if opts.password == "" {
		opts.password = os.Getenv("TASKDECK_PASSWORD")
	}
	if opts.username == "" {
		if opts.username, err = p.Username(userconfig.LastUsername(e.server.Alias)); err != nil {
			return err
		}
	}
	if opts.password == "" {
		if opts.password, err = p.Password(); err != nil {
			return err
		}
	}

	fmt.Fprintf(out, "Logging in to %s (%s)...\n", e.server.Alias, e.server.URL)

	res, err := e.app.Login(ctx, session.Credentials{
		Username:         opts.username,
		Password:         opts.password,
		KeepSessionAlive: opts.keep,
	})

	switch res.Outcome {
	case session.LoginSucceeded:
		// a logout earlier in the same shell marked the session to be forgotten
		e.forget = false
		if err := userconfig.RememberUsername(e.server.Alias, res.User); err != nil {
			log := logger.GetLogger()
			log.Warn().Err(err).Msg("Failed to remember username")
		}
		fmt.Fprintln(out, "✓ Login successful!")
		fmt.Fprintf(out, "  User: %s\n", res.User)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "  Tasks: %d\n", e.app.Tasks.Snapshot().Total)
		return nil
	case session.LoginRejected:
		return errors.New("login failed: wrong username or password")
	default:
		return fmt.Errorf("login failed: %w", res.Err)
	}
}
