package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"

	"github.com/rpggio/gmboard/internal/domain/campaign"
)

// EnvPrefix prefixes every environment variable read by Load.
const EnvPrefix = "GMBOARD_"

// Transport modes.
const (
	ModeHTTP  = "http"
	ModeStdio = "stdio"
)

// Config defines server configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server" envPrefix:"SERVER_"`
	DB        DBConfig        `yaml:"db" envPrefix:"DB_"`
	Log       LogConfig       `yaml:"log" envPrefix:"LOG_"`
	Transport TransportConfig `yaml:"transport" envPrefix:"TRANSPORT_"`
	Systems   SystemsConfig   `yaml:"systems" envPrefix:"SYSTEMS_"`
	Sync      SyncConfig      `yaml:"sync" envPrefix:"SYNC_"`
	Stats     StatsConfig     `yaml:"stats" envPrefix:"STATS_"`
	Uploads   UploadsConfig   `yaml:"uploads" envPrefix:"UPLOADS_"`
}

type ServerConfig struct {
	Host string `yaml:"host" env:"HOST"`
	Port int    `yaml:"port" env:"PORT"`
}

type DBConfig struct {
	Path string `yaml:"path" env:"PATH"`
}

type LogConfig struct {
	Level string `yaml:"level" env:"LEVEL"`
	// Path, when set, sends logs to a size-capped file.
	Path string `yaml:"path" env:"PATH"`
}

type TransportConfig struct {
	Mode string `yaml:"mode" env:"MODE"`
}

// SystemsConfig points at an optional YAML catalog replacing the built-in
// rule systems.
type SystemsConfig struct {
	Path string `yaml:"path" env:"PATH"`
}

// SyncConfig tunes the push channel and the clients that poll it.
type SyncConfig struct {
	PollInterval    time.Duration `yaml:"poll_interval" env:"POLL_INTERVAL"`
	RequestTimeout  time.Duration `yaml:"request_timeout" env:"REQUEST_TIMEOUT"`
	MaxBackoff      time.Duration `yaml:"max_backoff" env:"MAX_BACKOFF"`
	SubscriberQueue int           `yaml:"subscriber_queue" env:"SUBSCRIBER_QUEUE"`
}

type StatsConfig struct {
	// Clamp is "range" or "none".
	Clamp string `yaml:"clamp" env:"CLAMP"`
}

// UploadsConfig is where character icons are served from. Empty disables
// the route.
type UploadsConfig struct {
	Dir string `yaml:"dir" env:"DIR"`
}

// Default returns the configuration used when nothing overrides it.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 8080,
		},
		DB: DBConfig{
			Path: "gmboard.db",
		},
		Log: LogConfig{
			Level: "info",
		},
		Transport: TransportConfig{
			Mode: ModeHTTP,
		},
		Sync: SyncConfig{
			PollInterval:    2 * time.Second,
			RequestTimeout:  10 * time.Second,
			MaxBackoff:      30 * time.Second,
			SubscriberQueue: 64,
		},
		Stats: StatsConfig{
			Clamp: "range",
		},
	}
}

// Load reads configuration from an optional YAML file and environment
// variables, in that order, on top of Default.
func Load() (Config, error) {
	cfg := Default()

	if path := os.Getenv(EnvPrefix + "CONFIG_PATH"); path != "" {
		if err := loadFromFile(path, &cfg); err != nil {
			return Config{}, err
		}
	}

	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate reports every invalid setting at once.
func (c Config) Validate() error {
	var errs []error
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port %d out of range", c.Server.Port))
	}
	switch c.Transport.Mode {
	case ModeHTTP, ModeStdio:
	default:
		errs = append(errs, fmt.Errorf("transport.mode %q must be %s or %s", c.Transport.Mode, ModeHTTP, ModeStdio))
	}
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("log.level %q is not one of debug, info, warn, error", c.Log.Level))
	}
	if _, err := campaign.ParseClampPolicy(c.Stats.Clamp); err != nil {
		errs = append(errs, fmt.Errorf("stats.clamp: %w", err))
	}
	if c.Sync.PollInterval <= 0 {
		errs = append(errs, errors.New("sync.poll_interval must be positive"))
	}
	if c.Sync.RequestTimeout <= 0 {
		errs = append(errs, errors.New("sync.request_timeout must be positive"))
	}
	if c.Sync.MaxBackoff < c.Sync.PollInterval {
		errs = append(errs, errors.New("sync.max_backoff must not be below sync.poll_interval"))
	}
	if c.Sync.SubscriberQueue <= 0 {
		errs = append(errs, errors.New("sync.subscriber_queue must be positive"))
	}
	return errors.Join(errs...)
}

// ClampPolicy is the parsed stats.clamp setting.
func (c Config) ClampPolicy() campaign.ClampPolicy {
	p, err := campaign.ParseClampPolicy(c.Stats.Clamp)
	if err != nil {
		return campaign.ClampRange
	}
	return p
}

// Addr is the HTTP listen address.
func (c Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
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
