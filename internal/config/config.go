// Package config provides YAML-based configuration loading for tcpregd.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/omochice/tcp-registry/internal/registry"
	"github.com/omochice/tcp-registry/internal/transport/tcp"
)

// Config is the root daemon configuration.
type Config struct {
	// Gateway holds the control gateway settings
	Gateway GatewayConfig `mapstructure:"gateway"`

	// Registry tunes the connection manager
	Registry RegistryConfig `mapstructure:"registry"`

	// Log holds logging configuration
	Log LogConfig `mapstructure:"log"`
}

// GatewayConfig configures the WebSocket control gateway.
type GatewayConfig struct {
	// Listen is the TCP address the gateway accepts callers on
	Listen string `mapstructure:"listen"`
}

// RegistryConfig configures the Manager.
type RegistryConfig struct {
	// GracePeriod is the wait after an ID is replaced
	GracePeriod time.Duration `mapstructure:"grace_period"`
	// ReadBufferSize is the per-loop read buffer in bytes
	ReadBufferSize int `mapstructure:"read_buffer_size"`
}

// LogConfig defines logger settings.
type LogConfig struct {
	// Level: debug, info, warn, error
	Level string `mapstructure:"level"`
	// Format: console or json
	Format string `mapstructure:"format"`
	// Outputs: list of outputs: stdout, stderr, or file paths
	Outputs []string `mapstructure:"outputs"`

	// Rotation controls file rotation when writing to files
	Rotation RotationConfig `mapstructure:"rotation"`
	// Development toggles development-friendly logging options
	Development bool `mapstructure:"development"`
}

// RotationConfig controls log file rotation for file outputs.
type RotationConfig struct {
	Enable     bool   `mapstructure:"enable"`
	Filename   string `mapstructure:"filename"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
	Compress   bool   `mapstructure:"compress"`
}

// Default returns a Config populated with defaults.
func Default() *Config {
	return &Config{
		Gateway: GatewayConfig{Listen: ":7070"},
		Registry: RegistryConfig{
			GracePeriod:    registry.DefaultGracePeriod,
			ReadBufferSize: tcp.ReadBufferSize,
		},
		Log: LogConfig{
			Level:   "info",
			Format:  "console",
			Outputs: []string{"stderr"},
			Rotation: RotationConfig{
				Filename:   "logs/tcpregd.log",
				MaxSizeMB:  50,
				MaxBackups: 3,
				MaxAgeDays: 28,
				Compress:   true,
			},
		},
	}
}

// Load reads configuration from path if non-empty, otherwise from TCPREG_CONFIG
// or a tcpregd.yaml in the usual locations. A missing file is not an error.
// Environment variables use the prefix TCPREG with `.` and `-` replaced by `_`,
// e.g. TCPREG_GATEWAY_LISTEN=:9000.
func Load(path string) (*Config, error) {
	cfg := Default()

	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix("TCPREG")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	// env-only configs need every key known to viper
	v.SetDefault("gateway.listen", cfg.Gateway.Listen)
	v.SetDefault("registry.grace_period", cfg.Registry.GracePeriod)
	v.SetDefault("registry.read_buffer_size", cfg.Registry.ReadBufferSize)
	v.SetDefault("log.level", cfg.Log.Level)
	v.SetDefault("log.format", cfg.Log.Format)
	v.SetDefault("log.outputs", cfg.Log.Outputs)
	v.SetDefault("log.development", cfg.Log.Development)
	v.SetDefault("log.rotation.enable", cfg.Log.Rotation.Enable)
	v.SetDefault("log.rotation.filename", cfg.Log.Rotation.Filename)
	v.SetDefault("log.rotation.max_size_mb", cfg.Log.Rotation.MaxSizeMB)
	v.SetDefault("log.rotation.max_backups", cfg.Log.Rotation.MaxBackups)
	v.SetDefault("log.rotation.max_age_days", cfg.Log.Rotation.MaxAgeDays)
	v.SetDefault("log.rotation.compress", cfg.Log.Rotation.Compress)

	if path == "" {
		path = os.Getenv("TCPREG_CONFIG")
	}
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("tcpregd")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".tcpreg"))
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch strings.ToLower(strings.TrimSpace(c.Log.Level)) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("invalid log.level: %q", c.Log.Level)
	}
	if strings.TrimSpace(c.Gateway.Listen) == "" {
		return errors.New("gateway.listen must not be empty")
	}
	if c.Registry.GracePeriod < 0 {
		return fmt.Errorf("invalid registry.grace_period: %s", c.Registry.GracePeriod)
	}
	if c.Registry.ReadBufferSize <= 0 {
		return fmt.Errorf("invalid registry.read_buffer_size: %d", c.Registry.ReadBufferSize)
	}

	if c.Log.Format == "" {
		c.Log.Format = "console"
	}
	if len(c.Log.Outputs) == 0 {
		c.Log.Outputs = []string{"stderr"}
	}
	return nil
}
