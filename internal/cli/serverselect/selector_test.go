package serverselect

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskdeck/taskdeck/internal/cli/config"
	"github.com/taskdeck/taskdeck/internal/cli/userconfig"
)

func twoServers() *config.Config {
	return &config.Config{Servers: []config.Server{
		{Alias: "local", URL: "http://localhost:8085"},
		{Alias: "staging", URL: "https://todo.staging.example.com"},
	}}
}

func stubPrompt(t *testing.T, pick string) *int {
	t.Helper()
	calls := 0
	orig := Prompt
	Prompt = func(cfg *config.Config) (*config.Server, error) {
		calls++
		if pick == "" {
			return nil, errors.New("cancelled")
		}
		return cfg.GetServerByAlias(pick)
	}
	t.Cleanup(func() { Prompt = orig })
	return &calls
}

func TestResolveServer_Priority(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	calls := stubPrompt(t, "staging")
	var out bytes.Buffer

	// flag wins and is not remembered
	s, err := ResolveServer(twoServers(), "local", &out)
	require.NoError(t, err)
	assert.Equal(t, "local", s.Alias)
	assert.Equal(t, 0, *calls)

	// nothing selected yet with two servers: prompt and remember
	s, err = ResolveServer(twoServers(), "", &out)
	require.NoError(t, err)
	assert.Equal(t, "staging", s.Alias)
	assert.Equal(t, 1, *calls)

	selected, err := userconfig.GetSelectedServer()
	require.NoError(t, err)
	assert.Equal(t, "staging", selected)

	// remembered selection skips the prompt
	s, err = ResolveServer(twoServers(), "", &out)
	require.NoError(t, err)
	assert.Equal(t, "staging", s.Alias)
	assert.Equal(t, 1, *calls)
}

func TestResolveServer_SingleServer(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	calls := stubPrompt(t, "")
	cfg := &config.Config{Servers: []config.Server{{Alias: "only", URL: "http://only"}}}

	s, err := ResolveServer(cfg, "", &bytes.Buffer{})

	require.NoError(t, err)
	assert.Equal(t, "only", s.Alias)
	assert.Equal(t, 0, *calls)
}

func TestResolveServer_StaleSelection(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	require.NoError(t, userconfig.SetSelectedServer("gone"))
	stubPrompt(t, "local")

	s, err := ResolveServer(twoServers(), "", &bytes.Buffer{})

	require.NoError(t, err)
	assert.Equal(t, "local", s.Alias)
}

func TestResolveServer_UnknownAlias(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	_, err := ResolveServer(twoServers(), "prod", &bytes.Buffer{})

	assert.Error(t, err)
}
