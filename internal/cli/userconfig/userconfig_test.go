package userconfig

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSelectedServer(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	alias, err := GetSelectedServer()
	require.NoError(t, err)
	assert.Empty(t, alias)

	require.NoError(t, SetSelectedServer("staging"))

	alias, err = GetSelectedServer()
	require.NoError(t, err)
	assert.Equal(t, "staging", alias)

	_, err = os.Stat(filepath.Join(home, ".config", "taskdeck", "config.json"))
	assert.NoError(t, err)
}

func TestUsernames_PerServer(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	assert.Empty(t, LastUsername("local"))

	require.NoError(t, SetSelectedServer("local"))
	require.NoError(t, RememberUsername("local", "alice"))
	require.NoError(t, RememberUsername("staging", "bob"))
	require.NoError(t, RememberUsername("local", "carol"))

	assert.Equal(t, "carol", LastUsername("local"))
	assert.Equal(t, "bob", LastUsername("staging"))

	// updating one field keeps the others
	alias, err := GetSelectedServer()
	require.NoError(t, err)
	assert.Equal(t, "local", alias)
}

func TestLoad_CorruptFile(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	path, err := Path()
	require.NoError(t, err)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0700))
	require.NoError(t, os.WriteFile(path, []byte("{"), 0600))

	_, err = Load()
	assert.ErrorContains(t, err, "failed to parse user config file")

	assert.Empty(t, LastUsername("local"))
	assert.Error(t, SetSelectedServer("local"))
}
