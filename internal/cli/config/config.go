package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/taskdeck/taskdeck/internal/cli/client"
)

const ConfigFileName = "taskdeck.yaml"

// EnvServerAlias names the server built from TASKDECK_SERVER_URL
const EnvServerAlias = "env"

// ErrNotFound is returned when no config file exists up the directory tree
var ErrNotFound = errors.New(ConfigFileName + " not found")

// Server represents a todo backend the CLI can talk to
type Server struct {
	Alias    string `yaml:"alias" validate:"required"`
	URL      string `yaml:"url" validate:"required,url"`
	AuthPath string `yaml:"auth_path,omitempty"`
	APIPath  string `yaml:"api_path,omitempty"`
}

// ClientOptions returns the options to reach the server
func (s *Server) ClientOptions(timeout time.Duration) client.Options {
	return client.Options{
		BaseURL:  s.URL,
		AuthPath: s.AuthPath,
		APIPath:  s.APIPath,
		Timeout:  timeout,
	}
}

// LogConfig defines logging settings
type LogConfig struct {
	Level  string `yaml:"level,omitempty" validate:"omitempty,oneof=debug info warn warning error off disabled"`
	Format string `yaml:"format,omitempty" validate:"omitempty,oneof=console json"`
}

// Config represents the CLI configuration file
type Config struct {
	Servers []Server      `yaml:"servers" validate:"required,min=1,dive"`
	Timeout time.Duration `yaml:"timeout,omitempty" validate:"gte=0"`
	Log     LogConfig     `yaml:"log,omitempty"`
}

// DefaultConfig returns the configuration written by 'taskdeck init'
func DefaultConfig() *Config {
	return &Config{
		Servers: []Server{
			{
				Alias:    "local",
				URL:      "http://localhost:8085",
				AuthPath: client.DefaultAuthPath,
				APIPath:  client.DefaultAPIPath,
			},
		},
		Timeout: client.DefaultTimeout,
		Log: LogConfig{
			Level:  "warn",
			Format: "console",
		},
	}
}

// LoadEnv reads .env files from the working directory. Missing files are ignored.
func LoadEnv() {
	_ = godotenv.Load(".env")
	_ = godotenv.Load(".env.local")
}

// FindConfigFile searches for taskdeck.yaml in current directory and parent directories
func FindConfigFile() (string, error) {
	currentDir, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("failed to get current directory: %w", err)
	}

	dir := currentDir
	for {
		configPath := filepath.Join(dir, ConfigFileName)
		if _, err := os.Stat(configPath); err == nil {
			return configPath, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return "", fmt.Errorf("%w in %s or any parent directory", ErrNotFound, currentDir)
}

// Load reads, overrides from the environment and validates a config file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return finish(&cfg)
}

// LoadFromCurrentDir loads the config found from the working directory up.
// Without a file, TASKDECK_SERVER_URL alone is enough to build one.
func LoadFromCurrentDir() (*Config, error) {
	configPath, err := FindConfigFile()
	if err == nil {
		return Load(configPath)
	}
	if !errors.Is(err, ErrNotFound) || os.Getenv("TASKDECK_SERVER_URL") == "" {
		return nil, err
	}

	return finish(&Config{})
}

func finish(cfg *Config) (*Config, error) {
	if err := cfg.applyEnvOverrides(); err != nil {
		return nil, err
	}
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

func (c *Config) applyEnvOverrides() error {
	if v := os.Getenv("TASKDECK_SERVER_URL"); v != "" {
		if s, err := c.GetServerByAlias(EnvServerAlias); err == nil {
			s.URL = v
		} else {
			c.Servers = append(c.Servers, Server{Alias: EnvServerAlias, URL: v})
		}
	}
	for i := range c.Servers {
		if v := os.Getenv("TASKDECK_AUTH_PATH"); v != "" {
			c.Servers[i].AuthPath = v
		}
		if v := os.Getenv("TASKDECK_API_PATH"); v != "" {
			c.Servers[i].APIPath = v
		}
	}
	if v := os.Getenv("TASKDECK_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid TASKDECK_TIMEOUT %q: %w", v, err)
		}
		c.Timeout = d
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	if v := os.Getenv("LOG_FORMAT"); v != "" {
		c.Log.Format = v
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.Timeout == 0 {
		c.Timeout = client.DefaultTimeout
	}
	for i := range c.Servers {
		if c.Servers[i].AuthPath == "" {
			c.Servers[i].AuthPath = client.DefaultAuthPath
		}
		if c.Servers[i].APIPath == "" {
			c.Servers[i].APIPath = client.DefaultAPIPath
		}
	}
}

// Validate checks field constraints and alias uniqueness
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return err
	}

	seen := make(map[string]bool, len(c.Servers))
	for _, s := range c.Servers {
		key := strings.ToLower(s.Alias)
		if seen[key] {
			return fmt.Errorf("duplicate server alias '%s'", s.Alias)
		}
		seen[key] = true
	}
	return nil
}

// Save writes the configuration to a file
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// GetServerByAlias returns a server by its alias
func (c *Config) GetServerByAlias(alias string) (*Server, error) {
	for i := range c.Servers {
		if c.Servers[i].Alias == alias {
			return &c.Servers[i], nil
		}
	}
	return nil, fmt.Errorf("server with alias '%s' not found", alias)
}

// GetDefaultServer returns the first server in the list
func (c *Config) GetDefaultServer() (*Server, error) {
	if len(c.Servers) == 0 {
		return nil, fmt.Errorf("no servers configured in %s", ConfigFileName)
	}
	return &c.Servers[0], nil
}
