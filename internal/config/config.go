package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/dukerupert/hearth/internal/clock"
)

type Config struct {
	Port            string `yaml:"port"`
	DBPath          string `yaml:"db_path"`
	LogLevel        string `yaml:"log_level"`
	LogFormat       string `yaml:"log_format"`
	DefaultTimezone string `yaml:"default_timezone"`
	ActorHeader     string `yaml:"actor_header"`
}

func Defaults() Config {
	return Config{
		Port:            "8080",
		DBPath:          "hearth.db",
		LogLevel:        "info",
		LogFormat:       "text",
		DefaultTimezone: "UTC",
		ActorHeader:     "X-Hearth-User",
	}
}

// Load builds the configuration from defaults, then the YAML file named by
// HEARTH_CONFIG if set, then HEARTH_* environment variables.
func Load() (Config, error) {
	return load(os.Getenv)
}

func load(getenv func(string) string) (Config, error) {
	cfg := Defaults()

	if path := getenv("HEARTH_CONFIG"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config file: %w", err)
		}
	}

	overrides := []struct {
		key string
		dst *string
	}{
		{"HEARTH_PORT", &cfg.Port},
		{"HEARTH_DB_PATH", &cfg.DBPath},
		{"HEARTH_LOG_LEVEL", &cfg.LogLevel},
		{"HEARTH_LOG_FORMAT", &cfg.LogFormat},
		{"HEARTH_DEFAULT_TIMEZONE", &cfg.DefaultTimezone},
		{"HEARTH_ACTOR_HEADER", &cfg.ActorHeader},
	}
	for _, o := range overrides {
		if v := strings.TrimSpace(getenv(o.key)); v != "" {
			*o.dst = v
		}
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	var errs []error
	if c.Port == "" {
		errs = append(errs, errors.New("port is required"))
	}
	if c.DBPath == "" {
		errs = append(errs, errors.New("db_path is required"))
	}
	if c.ActorHeader == "" {
		errs = append(errs, errors.New("actor_header is required"))
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("log_format %q must be text or json", c.LogFormat))
	}
	if _, err := clock.LoadLocation(c.DefaultTimezone, ""); err != nil {
		errs = append(errs, err)
	}
	if len(errs) > 0 {
		return fmt.Errorf("invalid config: %w", errors.Join(errs...))
	}
	return nil
}
