package commands

import (
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptReader replays shell lines, then reports end of input
type scriptReader struct {
	lines  []string
	labels []string
}

func (s *scriptReader) ReadLine(label string) (string, error) {
	s.labels = append(s.labels, label)
	if len(s.lines) == 0 {
		return "", io.EOF
	}
	line := s.lines[0]
	s.lines = s.lines[1:]
	return line, nil
}

func useScript(t *testing.T, lines ...string) *scriptReader {
	t.Helper()
	r := &scriptReader{lines: lines}
	orig := newLineReader
	newLineReader = func() lineReader { return r }
	t.Cleanup(func() { newLineReader = orig })
	return r
}

func TestShell_SharesOneSession(t *testing.T) {
	srv := setupTestEnvironment(t)
	_, err := srv.SeedTask("bob", "bob only", false)
	require.NoError(t, err)
	usePrompter(t, fakePrompter{password: "secret"})
	r := useScript(t,
		"whoami",
		"ls",
		"login alice",
		"add buy milk",
		"done 1",
		"ls",
		"",
		"logout",
		"whoami",
		"bogus",
		"exit",
		"never reached",
	)

	out, err := execute(NewShellCmd())

	require.NoError(t, err)
	assert.Contains(t, out, "Taskdeck shell on test")
	assert.Contains(t, out, "anonymous")
	assert.Contains(t, out, "Error: not logged in")
	assert.Contains(t, out, "User: alice")
	assert.Contains(t, out, "✓ Added task #1: buy milk")
	assert.Contains(t, out, "✓ Done: buy milk")
	assert.Contains(t, out, "✓ Logged out of test")
	assert.Contains(t, out, "Error: unknown command 'bogus'")
	assert.NotContains(t, out, "bob only")

	assert.Equal(t, []string{"never reached"}, r.lines)
	assert.Equal(t, "taskdeck [landing]", r.labels[0])
	assert.Contains(t, r.labels, "taskdeck [home]")
	assert.Equal(t, "taskdeck [login]", r.labels[len(r.labels)-1])

	// logout inside the shell forgets the stored session
	assert.Empty(t, storedCookies(t, srv))
}

func TestShell_LoginIsPersisted(t *testing.T) {
	srv := setupTestEnvironment(t)
	usePrompter(t, fakePrompter{password: "hunter2"})
	useScript(t, "login bob --keep")

	out, err := execute(NewShellCmd())

	require.NoError(t, err)
	assert.Contains(t, out, "User: bob")
	assert.Len(t, storedCookies(t, srv), 1)

	out, err = execute(NewStatusCmd())
	require.NoError(t, err)
	assert.Contains(t, out, "Logged in as bob")
}

func TestShell_LoginAfterLogoutIsPersisted(t *testing.T) {
	srv := setupTestEnvironment(t)
	usePrompter(t, fakePrompter{password: "secret"})
	useScript(t, "login alice", "logout", "login alice")

	out, err := execute(NewShellCmd())

	require.NoError(t, err)
	assert.Contains(t, out, "✓ Logged out of test")
	assert.Len(t, storedCookies(t, srv), 1)

	out, err = execute(NewStatusCmd())
	require.NoError(t, err)
	assert.Contains(t, out, "Logged in as alice")
}

func TestShell_Help(t *testing.T) {
	setupTestEnvironment(t)
	useScript(t, "help", "open")

	out, err := execute(NewShellCmd())

	require.NoError(t, err)
	assert.True(t, strings.Contains(out, "Commands:"))
	assert.Contains(t, out, "usage: open <path>")
}
