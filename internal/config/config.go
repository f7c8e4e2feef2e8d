package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/rpggio/phaseboard/internal/domain/phase"
	"gopkg.in/yaml.v3"
)

// Config defines server configuration.
type Config struct {
	Server      ServerConfig        `yaml:"server"`
	DB          DBConfig            `yaml:"db"`
	Log         LogConfig           `yaml:"log"`
	Transport   TransportConfig     `yaml:"transport"`
	Auth        AuthConfig          `yaml:"auth"`
	Recompute   RecomputeConfig     `yaml:"recompute"`
	Transitions map[string][]string `yaml:"transitions"`
}

type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

type DBConfig struct {
	Path string `yaml:"path"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // "text" or "json"
	Path   string `yaml:"path"`   // optional rotating file sink
}

type TransportConfig struct {
	Mode string `yaml:"mode"` // "http" or "stdio"
}

// AuthConfig controls bearer authentication. With auth disabled every request
// runs as the default tenant, user and role.
type AuthConfig struct {
	Enabled       bool   `yaml:"enabled"`
	DefaultTenant string `yaml:"default_tenant"`
	DefaultUser   string `yaml:"default_user"`
	DefaultRole   string `yaml:"default_role"`
}

type RecomputeConfig struct {
	Concurrency int `yaml:"concurrency"`
}

// Default returns the configuration used when nothing is overridden.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 8080,
		},
		DB: DBConfig{
			Path: "phaseboard.db",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Transport: TransportConfig{
			Mode: "http",
		},
		Auth: AuthConfig{
			Enabled:       true,
			DefaultTenant: "default",
			DefaultUser:   "local",
			DefaultRole:   string(phase.RoleStaff),
		},
		Recompute: RecomputeConfig{
			Concurrency: 4,
		},
	}
}

// Load reads configuration from an optional YAML file and environment variables.
func Load() (Config, error) {
	cfg := Default()

	if path := os.Getenv("PHASEBOARD_CONFIG_PATH"); path != "" {
		if err := loadFromFile(path, &cfg); err != nil {
			return Config{}, err
		}
	}

	if err := applyEnv(&cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) error {
	if host := os.Getenv("PHASEBOARD_SERVER_HOST"); host != "" {
		cfg.Server.Host = host
	}
	if portStr := os.Getenv("PHASEBOARD_SERVER_PORT"); portStr != "" {
		port, err := strconv.Atoi(portStr)
		if err != nil {
			return fmt.Errorf("invalid PHASEBOARD_SERVER_PORT: %w", err)
		}
		cfg.Server.Port = port
	}
	if dbPath := os.Getenv("PHASEBOARD_DB_PATH"); dbPath != "" {
		cfg.DB.Path = dbPath
	}
	if level := os.Getenv("PHASEBOARD_LOG_LEVEL"); level != "" {
		cfg.Log.Level = level
	}
	if format := os.Getenv("PHASEBOARD_LOG_FORMAT"); format != "" {
		cfg.Log.Format = format
	}
	if logPath := os.Getenv("PHASEBOARD_LOG_PATH"); logPath != "" {
		cfg.Log.Path = logPath
	}
	if mode := os.Getenv("PHASEBOARD_TRANSPORT_MODE"); mode != "" {
		cfg.Transport.Mode = mode
	}
	if enabled := os.Getenv("PHASEBOARD_AUTH_ENABLED"); enabled != "" {
		v, err := strconv.ParseBool(enabled)
		if err != nil {
			return fmt.Errorf("invalid PHASEBOARD_AUTH_ENABLED: %w", err)
		}
		cfg.Auth.Enabled = v
	}
	return nil
}

// Validate rejects values the server cannot run with.
func (c Config) Validate() error {
	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("invalid log level %q", c.Log.Level)
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		return fmt.Errorf("invalid log format %q", c.Log.Format)
	}
	switch c.Transport.Mode {
	case "http", "stdio":
	default:
		return fmt.Errorf("invalid transport mode %q", c.Transport.Mode)
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port %d", c.Server.Port)
	}
	if c.DB.Path == "" {
		return fmt.Errorf("db path is required")
	}
	if _, err := phase.ParseRole(c.Auth.DefaultRole); err != nil {
		return fmt.Errorf("auth.default_role: %w", err)
	}
	if c.Auth.DefaultTenant == "" {
		return fmt.Errorf("auth.default_tenant is required")
	}
	if _, err := c.Policy(); err != nil {
		return fmt.Errorf("transitions: %w", err)
	}
	return nil
}

// Policy builds the manual transition policy from the transitions section.
func (c Config) Policy() (*phase.Policy, error) {
	return phase.PolicyFromConfig(c.Transitions)
}

func loadFromFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	return nil
}
