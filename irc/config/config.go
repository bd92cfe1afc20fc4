// Package config loads the ircd server configuration from YAML, TOML or
// JSON sources with environment variable overrides.
package config

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"reflect"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Config represents the server configuration. The listening port and the
// connection password normally arrive as process arguments and are written
// into Server.Port / Server.Password by the caller after Load.
type Config struct {
	Server struct {
		Name     string `yaml:"name" toml:"name" json:"name" env:"IRCD_SERVER_NAME" validate:"required"`
		Network  string `yaml:"network" toml:"network" json:"network" env:"IRCD_NETWORK" validate:"required"`
		Host     string `yaml:"host" toml:"host" json:"host" env:"IRCD_HOST"`
		Port     int    `yaml:"port" toml:"port" json:"port" env:"IRCD_PORT" validate:"min=0,max=65535"`
		Password string `yaml:"password" toml:"password" json:"password" env:"IRCD_PASSWORD"`
		// PasswordHash, when set, is a bcrypt hash checked by PASS instead
		// of a plaintext comparison against Password.
		PasswordHash string `yaml:"password_hash" toml:"password_hash" json:"password_hash" env:"IRCD_PASSWORD_HASH"`
	} `yaml:"server" toml:"server" json:"server"`

	Log struct {
		Level string `yaml:"level" toml:"level" json:"level" env:"IRCD_LOG_LEVEL" validate:"oneof=debug info warn error"`
	} `yaml:"log" toml:"log" json:"log"`

	WebPortal struct {
		Enabled bool   `yaml:"enabled" toml:"enabled" json:"enabled" env:"IRCD_WEB_ENABLED"`
		Host    string `yaml:"host" toml:"host" json:"host" env:"IRCD_WEB_HOST"`
		Port    int    `yaml:"port" toml:"port" json:"port" env:"IRCD_WEB_PORT" validate:"min=0,max=65535"`
	} `yaml:"web_portal" toml:"web_portal" json:"web_portal"`

	Metrics struct {
		Enabled bool   `yaml:"enabled" toml:"enabled" json:"enabled" env:"IRCD_METRICS_ENABLED"`
		Host    string `yaml:"host" toml:"host" json:"host" env:"IRCD_METRICS_HOST"`
		Port    int    `yaml:"port" toml:"port" json:"port" env:"IRCD_METRICS_PORT" validate:"min=0,max=65535"`
		Path    string `yaml:"path" toml:"path" json:"path" env:"IRCD_METRICS_PATH"`
	} `yaml:"metrics" toml:"metrics" json:"metrics"`

	// Source is the file or URL the configuration was loaded from.
	Source string `yaml:"-" toml:"-" json:"-"`
}

// Default returns the built-in configuration.
func Default() *Config {
	cfg := &Config{}
	cfg.Server.Name = "ircd.local"
	cfg.Server.Network = "ircd"
	cfg.Server.Host = "0.0.0.0"
	cfg.Server.Port = 6667
	cfg.Log.Level = "info"
	cfg.WebPortal.Host = "127.0.0.1"
	cfg.WebPortal.Port = 8080
	cfg.Metrics.Host = "127.0.0.1"
	cfg.Metrics.Port = 7070
	cfg.Metrics.Path = "/metrics"
	return cfg
}

// Load builds a configuration from defaults, an optional file or URL, and
// environment variable overrides, then validates it. An empty source skips
// the file step.
func Load(source string) (*Config, error) {
	cfg := Default()

	if source != "" {
		if err := cfg.loadFromSource(source); err != nil {
			return nil, err
		}
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the configuration against its struct constraints.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

// loadFromSource reads and parses a file or URL, picking the decoder from
// the source's extension (YAML by default).
func (c *Config) loadFromSource(source string) error {
	var data []byte
	var err error

	if strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://") {
		resp, err := http.Get(source)
		if err != nil {
			return fmt.Errorf("failed to load config from URL: %w", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("failed to load config from URL, status: %s", resp.Status)
		}
		data, err = io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("failed to read config from URL: %w", err)
		}
	} else {
		data, err = os.ReadFile(source)
		if err != nil {
			return fmt.Errorf("failed to read config file: %w", err)
		}
	}

	switch {
	case strings.HasSuffix(source, ".toml"):
		err = toml.Unmarshal(data, c)
	case strings.HasSuffix(source, ".json"):
		err = json.Unmarshal(data, c)
	default:
		err = yaml.Unmarshal(data, c)
	}
	if err != nil {
		return fmt.Errorf("failed to parse config: %w", err)
	}

	c.Source = source
	return nil
}

// applyEnvOverrides walks the struct and overrides any field whose env tag
// names a set environment variable.
func applyEnvOverrides(cfg *Config) {
	applyEnvOverridesRecursive(reflect.ValueOf(cfg).Elem())
}

func applyEnvOverridesRecursive(v reflect.Value) {
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if field.PkgPath != "" {
			continue
		}

		if tag := field.Tag.Get("env"); tag != "" {
			if envValue, exists := os.LookupEnv(tag); exists {
				setFieldFromEnv(v.Field(i), envValue)
			}
		} else if field.Type.Kind() == reflect.Struct {
			applyEnvOverridesRecursive(v.Field(i))
		}
	}
}

func setFieldFromEnv(field reflect.Value, envValue string) {
	switch field.Kind() {
	case reflect.String:
		field.SetString(envValue)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		if n, err := strconv.ParseInt(envValue, 10, 64); err == nil {
			field.SetInt(n)
		}
	case reflect.Bool:
		s := strings.ToLower(envValue)
		field.SetBool(s == "true" || s == "1" || s == "yes" || s == "y")
	}
}

// GetListenAddress returns the IRC listener's host:port.
func (c *Config) GetListenAddress() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// GetWebListenAddress returns the web portal's host:port.
func (c *Config) GetWebListenAddress() string {
	return fmt.Sprintf("%s:%d", c.WebPortal.Host, c.WebPortal.Port)
}

// GetMetricsListenAddress returns the metrics listener's host:port.
func (c *Config) GetMetricsListenAddress() string {
	return fmt.Sprintf("%s:%d", c.Metrics.Host, c.Metrics.Port)
}
