package serverselect

import (
	"fmt"
	"io"

	"github.com/manifoldco/promptui"

	"github.com/taskdeck/taskdeck/internal/cli/config"
	"github.com/taskdeck/taskdeck/internal/cli/userconfig"
)

// Prompt asks the user to pick one of the configured servers.
// Swapped in tests.
var Prompt = PromptServerSelection

// ResolveServer determines which server to use based on the following priority:
// 1. If serverAlias flag is provided, use that server
// 2. If user has a selected server in their local config, use that
// 3. If only one server in project config, use that
// 4. Otherwise, prompt user to select a server interactively
//
// Warnings are written to w.
func ResolveServer(cfg *config.Config, serverAlias string, w io.Writer) (*config.Server, error) {
	if serverAlias != "" {
		return cfg.GetServerByAlias(serverAlias)
	}

	selected, err := userconfig.GetSelectedServer()
	if err != nil {
		return nil, fmt.Errorf("failed to load user config: %w", err)
	}

	if selected != "" {
		server, err := cfg.GetServerByAlias(selected)
		if err == nil {
			return server, nil
		}
		// selected server no longer exists in the project config
		_ = userconfig.SetSelectedServer("")
	}

	var server *config.Server
	if len(cfg.Servers) == 1 {
		server = &cfg.Servers[0]
	} else {
		server, err = Prompt(cfg)
		if err != nil {
			return nil, err
		}
	}

	if err := userconfig.SetSelectedServer(server.Alias); err != nil {
		fmt.Fprintf(w, "Warning: failed to save selected server: %v\n", err)
	}
	return server, nil
}

// PromptServerSelection shows an interactive prompt for the user to select a server
func PromptServerSelection(cfg *config.Config) (*config.Server, error) {
	if len(cfg.Servers) == 0 {
		return nil, fmt.Errorf("no servers configured in %s", config.ConfigFileName)
	}

	type serverOption struct {
		Label  string
		Server *config.Server
	}

	options := make([]serverOption, len(cfg.Servers))
	for i := range cfg.Servers {
		server := &cfg.Servers[i]
		options[i] = serverOption{
			Label:  fmt.Sprintf("%s (%s)", server.Alias, server.URL),
			Server: server,
		}
	}

	templates := &promptui.SelectTemplates{
		Label:    "{{ . }}",
		Active:   "> {{ .Label | cyan }}",
		Inactive: "  {{ .Label }}",
		Selected: "{{ .Label | green }}",
	}

	prompt := promptui.Select{
		Label:     "Select a server",
		Items:     options,
		Templates: templates,
		Size:      10,
	}

	index, _, err := prompt.Run()
	if err != nil {
		return nil, fmt.Errorf("server selection cancelled: %w", err)
	}

	return options[index].Server, nil
}
