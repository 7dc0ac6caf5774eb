// Package config loads escpos settings.
// Load order: defaults -> YAML file -> environment variables (ESCPOS_*).
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Transport kinds.
const (
	TransportConsole = "console"
	TransportFile    = "file"
	TransportNetwork = "network"
	TransportUSB     = "usb"
)

// EnvPrefix prefixes every environment override, e.g. ESCPOS_SERVER_ADDRESS.
const EnvPrefix = "ESCPOS"

// Config is the root configuration.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Transport TransportConfig `mapstructure:"transport"`
	Log       LogConfig       `mapstructure:"log"`
}

// ServerConfig configures the raw print relay.
type ServerConfig struct {
	Address        string `mapstructure:"address"`
	MetricsAddress string `mapstructure:"metrics_address"` // empty disables /metrics
}

// TransportConfig selects and configures the printer transport.
type TransportConfig struct {
	Kind string    `mapstructure:"kind"`
	Path string    `mapstructure:"path"`
	Host string    `mapstructure:"host"`
	Port uint16    `mapstructure:"port"`
	USB  USBConfig `mapstructure:"usb"`
}

// USBConfig identifies a USB printer. With no VID/PID and no serial, the
// first printer found is used.
type USBConfig struct {
	VID    uint16 `mapstructure:"vid"`
	PID    uint16 `mapstructure:"pid"`
	Serial string `mapstructure:"serial"`
}

// LogConfig configures operational logging.
type LogConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"` // "text" or "json"
	File       string `mapstructure:"file"`   // empty logs to stderr
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.address", "localhost:9100")
	v.SetDefault("server.metrics_address", "")

	v.SetDefault("transport.kind", TransportConsole)
	v.SetDefault("transport.path", "")
	v.SetDefault("transport.host", "")
	v.SetDefault("transport.port", 9100)
	v.SetDefault("transport.usb.vid", 0)
	v.SetDefault("transport.usb.pid", 0)
	v.SetDefault("transport.usb.serial", "")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("log.file", "")
	v.SetDefault("log.max_size_mb", 100)
	v.SetDefault("log.max_backups", 3)
}

// Load reads configuration from path. With an empty path, ./escpos.yaml is
// used when present.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	} else {
		v.SetConfigName("escpos")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("reading config: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks that the selected transport has what it needs.
func (c *Config) Validate() error {
	switch c.Transport.Kind {
	case TransportConsole, TransportUSB:
	case TransportFile:
		if c.Transport.Path == "" {
			return errors.New("transport.path is required for the file transport")
		}
	case TransportNetwork:
		if c.Transport.Host == "" {
			return errors.New("transport.host is required for the network transport")
		}
		if c.Transport.Port == 0 {
			return errors.New("transport.port must be non-zero")
		}
	default:
		return fmt.Errorf("unknown transport.kind %q (want console, file, network or usb)", c.Transport.Kind)
	}

	switch strings.ToLower(c.Log.Format) {
	case "text", "json":
	default:
		return fmt.Errorf("unknown log.format %q (want text or json)", c.Log.Format)
	}
	return nil
}
