package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"

	"github.com/taskdeck/taskdeck/internal/logger"
)

// lineReader reads one shell command line
type lineReader interface {
	ReadLine(label string) (string, error)
}

// newLineReader is swapped in tests
var newLineReader = func() lineReader {
	return promptReader{}
}

type promptReader struct{}

func (promptReader) ReadLine(label string) (string, error) {
	prompt := promptui.Prompt{Label: label}
	return prompt.Run()
}

const shellHelp = `Commands:
  open <path>            open a screen (/, /app, /login)
  status                 ask the server who is logged in
  whoami                 show the local session state
  login [user] [--keep]  log in
  logout                 log out
  ls                     list tasks
  add <text>             add a task
  rm <id|#>              delete a task
  done <id|#>            mark a task as done
  undone <id|#>          mark a task as not done
  help                   show this help
  exit                   leave the shell`

// NewShellCmd creates the shell command
func NewShellCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "shell",
		Short: "Start an interactive session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEnv(cmd, func(ctx context.Context, e *env, out io.Writer) error {
				return runShell(ctx, e, out, newLineReader(), newPrompter(out))
			})
		},
	}
}

func runShell(ctx context.Context, e *env, out io.Writer, r lineReader, p prompter) error {
	updates, cancel := e.app.Session.Subscribe()
	defer cancel()
	log := logger.GetLogger()
	go func() {
		for st := range updates {
			log.Debug().
				Bool("logged_in", st.LoggedIn).
				Str("user", st.User).
				Bool("loading", st.Loading).
				Msg("Session changed")
		}
	}()

	fmt.Fprintf(out, "Taskdeck shell on %s (%s). Type 'help' for commands.\n\n", e.server.Alias, e.server.URL)
	if err := runOpen(ctx, e, out, "/"); err != nil {
		fmt.Fprintf(out, "Error: %v\n", err)
	}

	for {
		line, err := r.ReadLine(fmt.Sprintf("taskdeck [%s]", e.app.Router.Current().Name))
		if errors.Is(err, promptui.ErrInterrupt) || errors.Is(err, promptui.ErrEOF) || errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}

		args := strings.Fields(line)
		if len(args) == 0 {
			continue
		}
		if args[0] == "exit" || args[0] == "quit" {
			return nil
		}

		if err := dispatchShell(ctx, e, out, p, args); err != nil {
			fmt.Fprintf(out, "Error: %v\n", err)
		}
	}
}

func dispatchShell(ctx context.Context, e *env, out io.Writer, p prompter, args []string) error {
	name, rest := args[0], args[1:]

	switch name {
	case "help":
		fmt.Fprintln(out, shellHelp)
		return nil
	case "open":
		if len(rest) != 1 {
			return errors.New("usage: open <path>")
		}
		return runOpen(ctx, e, out, rest[0])
	case "status":
		return runStatus(ctx, e, out)
	case "whoami":
		st := e.app.Session.Snapshot()
		if st.LoggedIn {
			fmt.Fprintf(out, "%s\n", st.User)
		} else {
			fmt.Fprintln(out, "anonymous")
		}
		return nil
	case "login":
		var opts loginOptions
		for _, a := range rest {
			if a == "--keep" {
				opts.keep = true
			} else {
				opts.username = a
			}
		}
		err := runLogin(ctx, e, out, opts, p)
		return errors.Join(err, e.persist())
	case "logout":
		err := runLogout(ctx, e, out)
		return errors.Join(err, e.persist())
	case "ls":
		return runTasksList(ctx, e, out)
	case "add":
		if len(rest) == 0 {
			return errors.New("usage: add <text>")
		}
		return runTasksAdd(ctx, e, out, strings.Join(rest, " "))
	case "rm", "done", "undone":
		if len(rest) != 1 {
			return fmt.Errorf("usage: %s <id|#>", name)
		}
		if name == "rm" {
			return runTasksDelete(ctx, e, out, rest[0])
		}
		return runTasksSetDone(ctx, e, out, rest[0], name == "done")
	default:
		return fmt.Errorf("unknown command '%s'. Type 'help' for commands", name)
	}
}
