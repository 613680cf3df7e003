package commands

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/taskdeck/taskdeck/internal/router"
)

// NewTasksCmd creates the tasks command and its subcommands
func NewTasksCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tasks",
		Short: "Manage your tasks",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:     "ls",
			Aliases: []string{"list"},
			Short:   "List your tasks",
			Args:    cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return withEnv(cmd, runTasksList)
			},
		},
		&cobra.Command{
			Use:   "add <text>",
			Short: "Add a task",
			Args:  cobra.MinimumNArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return withEnv(cmd, func(ctx context.Context, e *env, out io.Writer) error {
					return runTasksAdd(ctx, e, out, strings.Join(args, " "))
				})
			},
		},
		&cobra.Command{
			Use:     "rm <id-or-number>",
			Aliases: []string{"delete"},
			Short:   "Delete a task",
			Args:    cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return withEnv(cmd, func(ctx context.Context, e *env, out io.Writer) error {
					return runTasksDelete(ctx, e, out, args[0])
				})
			},
		},
		newSetDoneCmd("done", "Mark a task as done", true),
		newSetDoneCmd("undone", "Mark a task as not done", false),
	)

	return cmd
}

func newSetDoneCmd(use, short string, done bool) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <id-or-number>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEnv(cmd, func(ctx context.Context, e *env, out io.Writer) error {
				return runTasksSetDone(ctx, e, out, args[0], done)
			})
		},
	}
}

// enterHome opens the task list screen, which loads the tasks
func enterHome(ctx context.Context, e *env) error {
	nav, err := e.app.Open(ctx, "/app")
	if err != nil {
		return err
	}
	if nav.To.Name != router.Home {
		return errNotLoggedIn
	}
	return nil
}

func runTasksList(ctx context.Context, e *env, out io.Writer) error {
	if err := enterHome(ctx, e); err != nil {
		return err
	}
	renderTasks(out, e, e.app.Tasks.Snapshot())
	return nil
}

func runTasksAdd(ctx context.Context, e *env, out io.Writer, text string) error {
	if err := enterHome(ctx, e); err != nil {
		return err
	}

	task, err := e.app.Tasks.Add(ctx, text)
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "✓ Added task #%d: %s\n", e.app.Tasks.Snapshot().Total, task.Text)
	return nil
}

func runTasksDelete(ctx context.Context, e *env, out io.Writer, ref string) error {
	if err := enterHome(ctx, e); err != nil {
		return err
	}

	task, err := resolveTask(e.app.Tasks.Snapshot(), ref)
	if err != nil {
		return err
	}
	if err := e.app.Tasks.Delete(ctx, task.ID); err != nil {
		return err
	}

	fmt.Fprintf(out, "✓ Deleted task: %s\n", task.Text)
	return nil
}

func runTasksSetDone(ctx context.Context, e *env, out io.Writer, ref string, done bool) error {
	if err := enterHome(ctx, e); err != nil {
		return err
	}

	task, err := resolveTask(e.app.Tasks.Snapshot(), ref)
	if err != nil {
		return err
	}
	if err := e.app.Tasks.SetDone(ctx, task.ID, done); err != nil {
		return err
	}

	if done {
		fmt.Fprintf(out, "✓ Done: %s\n", task.Text)
	} else {
		fmt.Fprintf(out, "✓ Not done: %s\n", task.Text)
	}
	return nil
}
