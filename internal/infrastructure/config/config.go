package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/goccy/go-yaml"
	"github.com/kelseyhightower/envconfig"
	"github.com/pelletier/go-toml/v2"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server" toml:"server"`
	Relay     RelayConfig     `yaml:"relay" toml:"relay"`
	Bridge    BridgeConfig    `yaml:"bridge" toml:"bridge"`
	Client    ClientConfig    `yaml:"client" toml:"client"`
	Storage   StorageConfig   `yaml:"storage" toml:"storage"`
	Net       NetConfig       `yaml:"net" toml:"net"`
	Clipboard ClipboardConfig `yaml:"clipboard" toml:"clipboard"`
	Logging   LogConfig       `yaml:"logging" toml:"logging"`
	RateLimit RateLimitConfig `yaml:"rateLimit" toml:"rateLimit"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port           string   `envconfig:"PORT" yaml:"port" toml:"port"`
	Host           string   `envconfig:"HOST" yaml:"host" toml:"host"`
	AllowedOrigins []string `envconfig:"ALLOWED_ORIGINS" yaml:"allowedOrigins" toml:"allowedOrigins"`
}

// RelayConfig holds the /bridge websocket relay configuration. The relay
// hands the page token to whoever connects, so it is off unless enabled and
// a peer must present Secret or come from one of AllowedOrigins.
type RelayConfig struct {
	Enabled        bool     `envconfig:"RELAY_ENABLED" yaml:"enabled" toml:"enabled"`
	Secret         string   `envconfig:"RELAY_SECRET" yaml:"secret" toml:"secret"`
	AllowedOrigins []string `envconfig:"RELAY_ALLOWED_ORIGINS" yaml:"allowedOrigins" toml:"allowedOrigins"`
	Outbox         int      `envconfig:"RELAY_OUTBOX" yaml:"outbox" toml:"outbox"`
}

// BridgeConfig holds bridge configuration.
type BridgeConfig struct {
	PageOrigin     string   `envconfig:"PAGE_ORIGIN" yaml:"pageOrigin" toml:"pageOrigin"`
	PageFile       string   `envconfig:"PAGE_FILE" yaml:"pageFile" toml:"pageFile"`
	EventName      string   `envconfig:"BRIDGE_EVENT" yaml:"eventName" toml:"eventName"`
	HandlerTimeout Duration `envconfig:"BRIDGE_HANDLER_TIMEOUT" yaml:"handlerTimeout" toml:"handlerTimeout"`
	DedupeWindow   Duration `envconfig:"BRIDGE_DEDUPE_WINDOW" yaml:"dedupeWindow" toml:"dedupeWindow"`
}

// ClientConfig holds page-world client deadlines.
type ClientConfig struct {
	CallTimeout      Duration `envconfig:"CLIENT_CALL_TIMEOUT" yaml:"callTimeout" toml:"callTimeout"`
	HandshakeTimeout Duration `envconfig:"CLIENT_HANDSHAKE_TIMEOUT" yaml:"handshakeTimeout" toml:"handshakeTimeout"`
	ScriptTimeout    Duration `envconfig:"CLIENT_SCRIPT_TIMEOUT" yaml:"scriptTimeout" toml:"scriptTimeout"`
}

// StorageConfig selects the storage backend.
type StorageConfig struct {
	Backend   string `envconfig:"STORAGE_BACKEND" yaml:"backend" toml:"backend"` // memory, redis or none
	RedisURL  string `envconfig:"STORAGE_REDIS_URL" yaml:"redisUrl" toml:"redisUrl"`
	Namespace string `envconfig:"STORAGE_NAMESPACE" yaml:"namespace" toml:"namespace"`
}

// NetConfig holds the net.request client configuration.
type NetConfig struct {
	Enabled   bool     `envconfig:"NET_ENABLED" yaml:"enabled" toml:"enabled"`
	Timeout   Duration `envconfig:"NET_TIMEOUT" yaml:"timeout" toml:"timeout"`
	RetryMax  int      `envconfig:"NET_RETRY_MAX" yaml:"retryMax" toml:"retryMax"`
	RateLimit float64  `envconfig:"NET_RATE_LIMIT" yaml:"rateLimit" toml:"rateLimit"`
	UserAgent string   `envconfig:"NET_USER_AGENT" yaml:"userAgent" toml:"userAgent"`
}

// ClipboardConfig holds clipboard configuration.
type ClipboardConfig struct {
	Enabled  bool `envconfig:"CLIPBOARD_ENABLED" yaml:"enabled" toml:"enabled"`
	History  int  `envconfig:"CLIPBOARD_HISTORY" yaml:"history" toml:"history"`
	MaxBytes int  `envconfig:"CLIPBOARD_MAX_BYTES" yaml:"maxBytes" toml:"maxBytes"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level       string `envconfig:"LOG_LEVEL" yaml:"level" toml:"level"`
	Development bool   `envconfig:"LOG_DEV" yaml:"development" toml:"development"`
}

// RateLimitConfig holds rate limiting configuration.
type RateLimitConfig struct {
	RequestsPerSecond int  `envconfig:"RATE_LIMIT_RPS" yaml:"requestsPerSecond" toml:"requestsPerSecond"`
	Burst             int  `envconfig:"RATE_LIMIT_BURST" yaml:"burst" toml:"burst"`
	Enabled           bool `envconfig:"RATE_LIMIT_ENABLED" yaml:"enabled" toml:"enabled"`
}

// Duration is a time.Duration that reads "1m30s" style strings from the
// environment, YAML and TOML alike.
type Duration time.Duration

// Std returns the standard library duration
func (d Duration) Std() time.Duration { return time.Duration(d) }

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(strings.TrimSpace(string(text)))
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// Load reads environment variables over the defaults.
func Load() (*Config, error) {
	cfg := Default()
	if err := envconfig.Process("", cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, nil
}

// LoadFile reads a YAML or TOML file over the defaults, then environment
// variables over that. The format follows the file extension.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	cfg := Default()
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, cfg)
	case ".toml":
		err = toml.Unmarshal(data, cfg)
	default:
		return nil, fmt.Errorf("unsupported config format %q", ext)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	if err := envconfig.Process("", cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, nil
}

// LoadOrDefault loads configuration from environment or returns default.
func LoadOrDefault() *Config {
	cfg, err := Load()
	if err != nil {
		return Default()
	}
	return cfg
}

// Default returns default configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:           "8080",
			Host:           "127.0.0.1",
			AllowedOrigins: []string{"*"},
		},
		Relay: RelayConfig{
			Outbox: 64,
		},
		Bridge: BridgeConfig{
			PageOrigin:     "https://page.local",
			EventName:      "worldbridge:message",
			HandlerTimeout: Duration(60 * time.Second),
			DedupeWindow:   Duration(2 * time.Minute),
		},
		Client: ClientConfig{
			CallTimeout:      Duration(15 * time.Second),
			HandshakeTimeout: Duration(8 * time.Second),
			ScriptTimeout:    Duration(30 * time.Second),
		},
		Storage: StorageConfig{
			Backend:   "memory",
			RedisURL:  "localhost:6379",
			Namespace: "worldbridge:storage:",
		},
		Net: NetConfig{
			Enabled:   true,
			Timeout:   Duration(30 * time.Second),
			RetryMax:  3,
			UserAgent: "worldbridge/1.0",
		},
		Clipboard: ClipboardConfig{
			Enabled:  true,
			History:  50,
			MaxBytes: 1 << 20,
		},
		Logging: LogConfig{
			Level: "info",
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: 100,
			Burst:             200,
			Enabled:           true,
		},
	}
}
