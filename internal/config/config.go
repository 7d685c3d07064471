package config

import (
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"

	"github.com/marcelocantos/microsh/internal/pipeline"
)

// EnvConfig names the environment variable that overrides the config path.
const EnvConfig = "MICROSH_CONFIG"

// EnvLog names the environment variable that overrides the log level.
const EnvLog = "MICROSH_LOG"

// Config holds the global microsh configuration.
type Config struct {
	MaxCommands     int         `yaml:"max_commands" validate:"gte=0"`
	PathLookup      bool        `yaml:"path_lookup"`
	PropagateStatus bool        `yaml:"propagate_status"`
	Log             LogConfig   `yaml:"log"`
	Audit           AuditConfig `yaml:"audit"`
}

// LogConfig controls diagnostic logging. An empty level disables it.
type LogConfig struct {
	Level string `yaml:"level" validate:"omitempty,oneof=debug info warn error"`
}

// AuditConfig controls audit log settings.
type AuditConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path" validate:"required_if=Enabled true"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	home, _ := os.UserHomeDir()
	return &Config{
		MaxCommands: pipeline.DefaultMaxCommands,
		PathLookup:  true,
		Audit: AuditConfig{
			Enabled: true,
			Path:    filepath.Join(home, ".local", "share", "microsh", "audit.jsonl"),
		},
	}
}

// Validate checks field constraints and reports yaml field names.
func (c *Config) Validate() error {
	validate := validator.New()
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("yaml"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return validate.Struct(c)
}

// Load reads the config from $MICROSH_CONFIG, or from the standard location
// (~/.config/microsh/config.yaml). If the file doesn't exist, returns the
// default config.
func Load() (*Config, error) {
	if path := os.Getenv(EnvConfig); path != "" {
		return LoadFrom(path)
	}
	path := ConfigPath()
	if path == "" {
		return DefaultConfig(), nil
	}
	return LoadFrom(path)
}

// LoadFrom reads the config from the given path on the host filesystem.
func LoadFrom(path string) (*Config, error) {
	return LoadFs(afero.NewOsFs(), path)
}

// LoadFs reads the config from path within fs.
func LoadFs(fs afero.Fs, path string) (*Config, error) {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultConfig(), nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}

	cfg.Audit.Path = expandHome(cfg.Audit.Path)
	return cfg, nil
}

// LogLevel returns the effective log level: $MICROSH_LOG when set,
// otherwise the configured level.
func (c *Config) LogLevel() string {
	if lvl, ok := os.LookupEnv(EnvLog); ok {
		return lvl
	}
	return c.Log.Level
}

// ConfigPath returns the standard config file path.
func ConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "microsh", "config.yaml")
}

// expandHome expands a leading "~" or "~/". Other users' homes ("~name")
// are left alone.
func expandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[1:])
}
