package commands

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/taskdeck/taskdeck/internal/app"
	"github.com/taskdeck/taskdeck/internal/cli/auth"
	"github.com/taskdeck/taskdeck/internal/cli/client"
	"github.com/taskdeck/taskdeck/internal/cli/config"
	"github.com/taskdeck/taskdeck/internal/cli/serverselect"
	"github.com/taskdeck/taskdeck/internal/logger"
)

// GlobalOptions are set from the root command's persistent flags
type GlobalOptions struct {
	Server    string
	LogLevel  string
	LogFormat string
}

var Global GlobalOptions

// cookieStore keeps session cookies between runs. Swapped in tests.
var cookieStore auth.CookieStore = auth.Default

// env is one App bound to one server, plus where its session is kept
type env struct {
	app     *app.App
	cfg     *config.Config
	server  *config.Server
	cookies auth.CookieStore
	// forget drops the stored session instead of saving the jar
	forget bool
}

// loadConfig loads the project config with a hint on how to create one
func loadConfig() (*config.Config, error) {
	cfg, err := config.LoadFromCurrentDir()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w\nRun 'taskdeck init' to create a configuration file", err)
	}
	return cfg, nil
}

// openEnv resolves the server and restores the session saved by a previous run
func openEnv(cmd *cobra.Command) (*env, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	server, err := serverselect.ResolveServer(cfg, Global.Server, cmd.ErrOrStderr())
	if err != nil {
		return nil, err
	}

	apiClient, err := client.New(server.ClientOptions(cfg.Timeout))
	if err != nil {
		return nil, fmt.Errorf("server '%s': %w", server.Alias, err)
	}

	log := logger.GetLogger().With().Str("server", server.Alias).Logger()

	cookies, err := cookieStore.LoadCookies(server.URL)
	if err != nil {
		log.Warn().Err(err).Msg("Ignoring stored session")
	} else {
		apiClient.SetCookies(cookies)
	}

	return &env{
		app:     app.New(apiClient, log),
		cfg:     cfg,
		server:  server,
		cookies: cookieStore,
	}, nil
}

// persist stores whatever session the server left in the cookie jar
func (e *env) persist() error {
	cookies := e.app.Client().Cookies()
	if e.forget || len(cookies) == 0 {
		return e.cookies.DeleteCookies(e.server.URL)
	}
	return e.cookies.SaveCookies(e.server.URL, cookies)
}

// withEnv runs fn against a fresh env and saves the session afterwards,
// also when fn failed
func withEnv(cmd *cobra.Command, fn func(ctx context.Context, e *env, out io.Writer) error) error {
	e, err := openEnv(cmd)
	if err != nil {
		return err
	}

	runErr := fn(cmd.Context(), e, cmd.OutOrStdout())
	if err := e.persist(); err != nil {
		log := logger.GetLogger()
		log.Warn().Err(err).Msg("Failed to save session")
	}
	return runErr
}

var errNotLoggedIn = errors.New("not logged in. Please run 'taskdeck login' first")
