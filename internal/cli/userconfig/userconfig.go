// Package userconfig keeps per-user CLI choices in ~/.config/taskdeck/config.json:
// the selected server and the last username used on each server.
package userconfig

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// UserConfig is the content of the user config file
type UserConfig struct {
	SelectedServer string `json:"selected_server,omitempty"`
	// Usernames maps a server alias to the last username that logged in there
	Usernames map[string]string `json:"usernames,omitempty"`
}

// Path returns the location of the user config file
func Path() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}
	return filepath.Join(homeDir, ".config", "taskdeck", "config.json"), nil
}

// Load reads the user config. A missing file is an empty config.
func Load() (*UserConfig, error) {
	path, err := Path()
	if err != nil {
		return nil, err
	}

	cfg := &UserConfig{}
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return cfg, nil
	case err != nil:
		return nil, fmt.Errorf("failed to read user config file: %w", err)
	}

	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse user config file %s: %w", path, err)
	}
	return cfg, nil
}

// update loads the config, applies fn and writes the result back
func update(fn func(cfg *UserConfig)) error {
	cfg, err := Load()
	if err != nil {
		return err
	}
	fn(cfg)

	path, err := Path()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal user config: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write user config file: %w", err)
	}
	return nil
}

// SetSelectedServer remembers the server alias commands use by default.
// An empty alias clears the selection.
func SetSelectedServer(alias string) error {
	return update(func(cfg *UserConfig) {
		cfg.SelectedServer = alias
	})
}

// GetSelectedServer returns the selected server alias, or "" if none
func GetSelectedServer() (string, error) {
	cfg, err := Load()
	if err != nil {
		return "", err
	}
	return cfg.SelectedServer, nil
}

// RememberUsername records who last logged in on the server
func RememberUsername(alias, username string) error {
	return update(func(cfg *UserConfig) {
		if cfg.Usernames == nil {
			cfg.Usernames = make(map[string]string)
		}
		cfg.Usernames[alias] = username
	})
}

// LastUsername returns who last logged in on the server, or "" if unknown
func LastUsername(alias string) string {
	cfg, err := Load()
	if err != nil {
		return ""
	}
	return cfg.Usernames[alias]
}
