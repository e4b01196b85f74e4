package config

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"time"

	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"

	"github.com/dokzlo13/stripd/internal/strip"
)

// Config represents the application configuration
type Config struct {
	Strip           StripConfig       `yaml:"strip"`
	Server          ServerConfig      `yaml:"server"`
	Log             LogConfig         `yaml:"log"`
	Database        DatabaseConfig    `yaml:"database"`
	Ledger          LedgerConfig      `yaml:"ledger"`
	EventBus        EventBusConfig    `yaml:"eventbus"`
	Healthcheck     HealthcheckConfig `yaml:"healthcheck"`
	Discovery       DiscoveryConfig   `yaml:"discovery"`
	ShutdownTimeout Duration          `yaml:"shutdown_timeout"` // General shutdown timeout for graceful stops
}

// StripConfig describes the attached strip. It is read once at startup and never changed.
type StripConfig struct {
	Pin     int    `yaml:"pin"`      // Data pin, informational for frame drivers
	NumLEDs int    `yaml:"num_leds"` // Number of pixels on the strip
	Step    int    `yaml:"step"`     // Only every step-th pixel is lit
	Driver  string `yaml:"driver"`   // memory | frame
	Device  string `yaml:"device"`   // Device node for the frame driver
	Order   string `yaml:"order"`    // Channel order for the frame driver
}

// ServerConfig contains the command listener settings
type ServerConfig struct {
	Host         string   `yaml:"host"`
	Port         int      `yaml:"port"`
	ReadBuffer   int      `yaml:"read_buffer"`   // Max bytes read per request
	ReadTimeout  Duration `yaml:"read_timeout"`  // 0 = block until the peer sends
	WriteTimeout Duration `yaml:"write_timeout"` // 0 = block until the peer reads
}

// Addr returns host:port for net.Listen
func (c *ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// LogConfig contains logging settings
type LogConfig struct {
	Level  string `yaml:"level"`
	JSON   bool   `yaml:"json"`
	Colors bool   `yaml:"colors"`
}

// DatabaseConfig contains database settings
type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// LedgerConfig contains command ledger settings
type LedgerConfig struct {
	Enabled         bool     `yaml:"enabled"`
	CleanupInterval Duration `yaml:"cleanup_interval"`
	RetentionDays   int      `yaml:"retention_days"`
}

// Retention returns how long ledger entries are kept
func (c *LedgerConfig) Retention() time.Duration {
	return time.Duration(c.RetentionDays) * 24 * time.Hour
}

// HealthcheckConfig contains health check server settings
type HealthcheckConfig struct {
	Enabled bool   `yaml:"enabled"`
	Host    string `yaml:"host"`
	Port    int    `yaml:"port"`
}

// EventBusConfig contains event bus settings
type EventBusConfig struct {
	Workers   int `yaml:"workers"`    // Number of worker goroutines (default: 1)
	QueueSize int `yaml:"queue_size"` // Event queue size (default: 100)
}

// DiscoveryConfig contains mDNS advertisement settings
type DiscoveryConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Instance string `yaml:"instance"`
}

// Duration is a wrapper around time.Duration for YAML unmarshalling
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler for Duration
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(parsed)
	return nil
}

// Duration returns the underlying time.Duration
func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}

// Load reads, parses and validates the configuration file. A missing file is
// not an error: the strip comes up on the built-in defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		log.Warn().Str("path", path).Msg("Config file not found, using defaults")
		return Parse(nil)
	}
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

// Parse parses configuration from YAML bytes over the defaults. Keys present
// in the document win, including explicit zero values such as pin: 0.
func Parse(data []byte) (*Config, error) {
	// Expand environment variables
	expanded := expandEnvVars(string(data))

	cfg := defaults()
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func defaults() Config {
	return Config{
		// Ten pixels on pin 5, every other one lit
		Strip: StripConfig{
			Pin:     5,
			NumLEDs: 10,
			Step:    2,
			Driver:  strip.KindMemory,
			Order:   "GRB",
		},
		Server: ServerConfig{
			Host:       "0.0.0.0",
			Port:       80,
			ReadBuffer: 1024,
		},
		Log:      LogConfig{Level: "info"},
		Database: DatabaseConfig{Path: "./stripd.sqlite"},
		Ledger: LedgerConfig{
			CleanupInterval: Duration(24 * time.Hour),
			RetentionDays:   30,
		},
		EventBus: EventBusConfig{
			Workers:   1,
			QueueSize: 100,
		},
		Healthcheck: HealthcheckConfig{
			Host: "0.0.0.0",
			Port: 9090,
		},
		Discovery:       DiscoveryConfig{Instance: "stripd"},
		ShutdownTimeout: Duration(5 * time.Second),
	}
}

// Validate reports every invalid setting at once
func (cfg *Config) Validate() error {
	var errs []error

	if cfg.Strip.NumLEDs < 1 {
		errs = append(errs, fmt.Errorf("strip.num_leds must be positive, got %d", cfg.Strip.NumLEDs))
	}
	if cfg.Strip.Step < 1 {
		errs = append(errs, fmt.Errorf("strip.step must be positive, got %d", cfg.Strip.Step))
	}
	switch cfg.Strip.Driver {
	case strip.KindMemory:
	case strip.KindFrame:
		if cfg.Strip.Device == "" {
			errs = append(errs, errors.New("strip.device is required for the frame driver"))
		}
		if _, ok := strip.ParseOrder(cfg.Strip.Order); !ok {
			errs = append(errs, fmt.Errorf("strip.order %q is not a known channel order", cfg.Strip.Order))
		}
	default:
		errs = append(errs, fmt.Errorf("strip.driver %q is not one of memory, frame", cfg.Strip.Driver))
	}

	if cfg.Server.Port < 1 || cfg.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port %d out of range", cfg.Server.Port))
	}
	if cfg.Server.ReadBuffer < 1 {
		errs = append(errs, fmt.Errorf("server.read_buffer must be positive, got %d", cfg.Server.ReadBuffer))
	}
	if cfg.Server.ReadTimeout < 0 || cfg.Server.WriteTimeout < 0 {
		errs = append(errs, errors.New("server timeouts must not be negative"))
	}

	switch cfg.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("log.level %q is not one of debug, info, warn, error", cfg.Log.Level))
	}

	if cfg.Strip.Pin < 0 {
		errs = append(errs, fmt.Errorf("strip.pin must not be negative, got %d", cfg.Strip.Pin))
	}

	if cfg.Ledger.Enabled {
		if cfg.Ledger.RetentionDays < 1 {
			errs = append(errs, fmt.Errorf("ledger.retention_days must be positive, got %d", cfg.Ledger.RetentionDays))
		}
		if cfg.Ledger.CleanupInterval <= 0 {
			errs = append(errs, errors.New("ledger.cleanup_interval must be positive"))
		}
	}
	if cfg.EventBus.Workers < 1 || cfg.EventBus.QueueSize < 1 {
		errs = append(errs, errors.New("eventbus.workers and eventbus.queue_size must be positive"))
	}
	if cfg.Healthcheck.Enabled && (cfg.Healthcheck.Port < 1 || cfg.Healthcheck.Port > 65535) {
		errs = append(errs, fmt.Errorf("healthcheck.port %d out of range", cfg.Healthcheck.Port))
	}
	if cfg.ShutdownTimeout <= 0 {
		errs = append(errs, errors.New("shutdown_timeout must be positive"))
	}

	return errors.Join(errs...)
}

// expandEnvVars expands environment variables in the format ${VAR} or ${VAR:default}
func expandEnvVars(input string) string {
	// Match ${VAR} or ${VAR:default}
	re := regexp.MustCompile(`\$\{([^}:]+)(?::([^}]*))?\}`)

	return re.ReplaceAllStringFunc(input, func(match string) string {
		parts := re.FindStringSubmatch(match)
		if len(parts) < 2 {
			return match
		}

		varName := parts[1]
		defaultVal := ""
		if len(parts) >= 3 {
			defaultVal = parts[2]
		}

		if val := os.Getenv(varName); val != "" {
			return val
		}
		return defaultVal
	})
}
