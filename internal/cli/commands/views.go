package commands

import (
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"

	"github.com/taskdeck/taskdeck/internal/router"
	"github.com/taskdeck/taskdeck/internal/tasks"
)

// renderNavigation prints the screen a navigation ended on
func renderNavigation(w io.Writer, e *env, nav router.Navigation) {
	if nav.Redirected() {
		fmt.Fprintf(w, "→ %s redirected to %s\n\n", nav.Requested, nav.To.Path)
	}

	sess := e.app.Session.Snapshot()
	switch nav.To.Name {
	case router.Landing:
		fmt.Fprintln(w, "Taskdeck: a small todo list")
		if sess.LoggedIn {
			fmt.Fprintf(w, "Logged in as %s. Open your tasks with: taskdeck tasks ls\n", sess.User)
		} else {
			fmt.Fprintln(w, "Log in to see your tasks: taskdeck login")
		}
	case router.Home:
		renderTasks(w, e, e.app.Tasks.Snapshot())
	case router.Login:
		if sess.InvalidCredentials {
			fmt.Fprintln(w, "Wrong username or password.")
		}
		fmt.Fprintln(w, "Log in with: taskdeck login")
	default:
		fmt.Fprintf(w, "Nothing at %s\n", nav.Requested)
	}
}

// renderTasks prints the task list as a table
func renderTasks(w io.Writer, e *env, st tasks.State) {
	if st.Total == 0 {
		fmt.Fprintln(w, "No tasks found.")
		fmt.Fprintln(w, "\nCreate a task with: taskdeck tasks add <text>")
		return
	}

	fmt.Fprintf(w, "Tasks of %s on %s (%d):\n\n", e.app.Session.Snapshot().User, e.server.Alias, st.Total)

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tDONE\tTASK\tID")
	fmt.Fprintln(tw, "─\t────\t────\t──")
	for i, t := range st.Tasks {
		done := " "
		if t.Done {
			done = "✓"
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", i+1, done, t.Text, t.ID)
	}
	tw.Flush()
}

// resolveTask finds a task by ID or by its 1-based position in the list
func resolveTask(st tasks.State, ref string) (tasks.Task, error) {
	for _, t := range st.Tasks {
		if t.ID == ref {
			return t, nil
		}
	}
	if n, err := strconv.Atoi(ref); err == nil && n >= 1 && n <= len(st.Tasks) {
		return st.Tasks[n-1], nil
	}
	return tasks.Task{}, fmt.Errorf("no task '%s'. Run 'taskdeck tasks ls' to see task numbers and IDs", ref)
}
