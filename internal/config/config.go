package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	Server      ServerConfig      `mapstructure:"server"`
	Development DevelopmentConfig `mapstructure:"development"`
	Controller  ControllerConfig  `mapstructure:"controller"`
	Table       TableConfig       `mapstructure:"table"`
}

type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
}

type DevelopmentConfig struct {
	Debug    bool   `mapstructure:"debug"`
	LogLevel string `mapstructure:"log_level"`
}

// ControllerConfig points at the bridge that publishes pad events
type ControllerConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	URL     string `mapstructure:"url"`
}

type TableConfig struct {
	QueueSize    int `mapstructure:"queue_size"`
	HistoryLimit int `mapstructure:"history_limit"`
}

var defaults = map[string]interface{}{
	"server.host":           "localhost",
	"server.port":           8080,
	"development.debug":     false,
	"development.log_level": "info",
	"controller.enabled":    false,
	"controller.url":        "ws://localhost:9090/pads",
	"table.queue_size":      64,
	"table.history_limit":   0,
}

// Load reads config.yaml from . or ./config. Environment variables with the
// PADCHESS_ prefix override file values, e.g. PADCHESS_SERVER_PORT.
func Load() (*Config, error) {
	return LoadFrom("")
}

// LoadFrom reads the given file, or searches the default paths when path is empty
func LoadFrom(path string) (*Config, error) {
	v := viper.New()
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	// Enable environment variables
	v.SetEnvPrefix("PADCHESS")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		// Config file not found, defaults and environment still apply
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port %d", c.Server.Port)
	}
	if c.Table.QueueSize < 0 {
		return fmt.Errorf("invalid table queue size %d", c.Table.QueueSize)
	}
	if c.Table.HistoryLimit < 0 {
		return fmt.Errorf("invalid history limit %d", c.Table.HistoryLimit)
	}
	if c.Controller.Enabled && c.Controller.URL == "" {
		return fmt.Errorf("controller enabled without a url")
	}
	return nil
}

// Addr is the listen address of the web bridge
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}
