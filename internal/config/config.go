package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/kelseyhightower/envconfig"
	"github.com/pelletier/go-toml/v2"
)

// Config holds all application configuration.
type Config struct {
	Agent    AgentConfig    `toml:"agent"`
	Terminal TerminalConfig `toml:"terminal"`
	Berry    BerryConfig    `toml:"berry"`
	Personas PersonasConfig `toml:"personas"`
	Logging  LogConfig      `toml:"logging"`
	Control  ControlConfig  `toml:"control"`
}

// AgentConfig describes the external agent launched per persona.
type AgentConfig struct {
	Command string   `toml:"command"`
	Env     []string `toml:"env"`
}

// TerminalConfig holds terminal surface settings.
type TerminalConfig struct {
	InitialCols int    `toml:"initial_cols"`
	InitialRows int    `toml:"initial_rows"`
	Theme       string `toml:"theme"`
}

// BerryConfig holds memory service client settings.
type BerryConfig struct {
	ServerURL      string  `toml:"server_url"`
	TimeoutSeconds int     `toml:"timeout_seconds"`
	Retries        int     `toml:"retries"`
	RateLimit      float64 `toml:"rate_limit"`
}

// PersonasConfig holds the persona source directory.
type PersonasConfig struct {
	Directory string `toml:"directory"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level       string `toml:"level"`
	Development bool   `toml:"development"`
	File        string `toml:"file"`
}

// ControlConfig holds the local control API settings.
type ControlConfig struct {
	Enabled      bool     `toml:"enabled"`
	Address      string   `toml:"address"`
	AllowOrigins []string `toml:"allow_origins"`
	RateLimit    float64  `toml:"rate_limit"`
}

// envOverrides are applied on top of the file values.
type envOverrides struct {
	BerryURL    string `envconfig:"BERRY_SERVER_URL"`
	PersonasDir string `envconfig:"PERSONAS_DIR"`
	Agent       string `envconfig:"PERSONA_AGENT"`
	LogLevel    string `envconfig:"LOG_LEVEL"`
	LogDev      *bool  `envconfig:"LOG_DEV"`
}

// Default returns default configuration.
func Default() *Config {
	personasDir := "personas"
	if dir, err := Dir(); err == nil {
		personasDir = filepath.Join(dir, "personas")
	}
	return &Config{
		Agent: AgentConfig{
			Command: "opencode",
		},
		Terminal: TerminalConfig{
			InitialCols: 80,
			InitialRows: 24,
			Theme:       "tokyo-night",
		},
		Berry: BerryConfig{
			ServerURL:      "http://localhost:4114",
			TimeoutSeconds: 10,
			Retries:        2,
			RateLimit:      5,
		},
		Personas: PersonasConfig{
			Directory: personasDir,
		},
		Logging: LogConfig{
			Level: "info",
		},
		Control: ControlConfig{
			Enabled:   false,
			Address:   "127.0.0.1:4115",
			RateLimit: 20,
		},
	}
}

// Load reads the TOML file at path over the defaults and applies environment
// overrides. A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("failed to read config: %w", err)
	default:
		if err := toml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	cfg.normalize()
	return cfg, nil
}

// LoadOrDefault loads configuration, falling back to defaults plus
// environment overrides when the file cannot be read or parsed. The load
// error is returned alongside so the caller can log it.
func LoadOrDefault(path string) (*Config, error) {
	cfg, err := Load(path)
	if err == nil {
		return cfg, nil
	}
	cfg = Default()
	_ = cfg.applyEnv()
	cfg.normalize()
	return cfg, err
}

// Save writes the configuration as TOML, creating parent directories.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config dir: %w", err)
	}
	data, err := toml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// String renders the configuration as TOML.
func (c *Config) String() string {
	data, err := toml.Marshal(c)
	if err != nil {
		return err.Error()
	}
	return string(data)
}

func (c *Config) applyEnv() error {
	var env envOverrides
	if err := envconfig.Process("", &env); err != nil {
		return fmt.Errorf("failed to load config from environment: %w", err)
	}
	if env.BerryURL != "" {
		c.Berry.ServerURL = env.BerryURL
	}
	if env.PersonasDir != "" {
		c.Personas.Directory = env.PersonasDir
	}
	if env.Agent != "" {
		c.Agent.Command = env.Agent
	}
	if env.LogLevel != "" {
		c.Logging.Level = env.LogLevel
	}
	if env.LogDev != nil {
		c.Logging.Development = *env.LogDev
	}
	return nil
}

// normalize fills zero values a hand-edited file may leave behind.
func (c *Config) normalize() {
	def := Default()
	if c.Agent.Command == "" {
		c.Agent.Command = def.Agent.Command
	}
	if c.Terminal.InitialCols <= 0 {
		c.Terminal.InitialCols = def.Terminal.InitialCols
	}
	if c.Terminal.InitialRows <= 0 {
		c.Terminal.InitialRows = def.Terminal.InitialRows
	}
	if c.Terminal.Theme == "" {
		c.Terminal.Theme = def.Terminal.Theme
	}
	if c.Berry.TimeoutSeconds <= 0 {
		c.Berry.TimeoutSeconds = def.Berry.TimeoutSeconds
	}
	if c.Berry.Retries < 0 {
		c.Berry.Retries = 0
	}
	if c.Control.Address == "" {
		c.Control.Address = def.Control.Address
	}
	c.Personas.Directory = expandHome(c.Personas.Directory)
	c.Logging.File = expandHome(c.Logging.File)
}

func expandHome(p string) string {
	if p != "~" && !strings.HasPrefix(p, "~/") {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return p
	}
	return filepath.Join(home, strings.TrimPrefix(p, "~"))
}
