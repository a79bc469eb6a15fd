package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration structure.
// It is read-only after Load() returns and thread-safe for concurrent reads.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	Log       LogConfig       `yaml:"log"`
	Languages LanguagesConfig `yaml:"languages"`
	Content   ContentConfig   `yaml:"content"`
	Events    EventsConfig    `yaml:"events"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Port            int      `yaml:"port"`
	ReadTimeout     Duration `yaml:"read_timeout"`
	WriteTimeout    Duration `yaml:"write_timeout"`
	ShutdownTimeout Duration `yaml:"shutdown_timeout"`
	MaxBodyBytes    int64    `yaml:"max_body_bytes"`
}

// DatabaseConfig contains database settings.
type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// LogConfig contains logging settings.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// LanguagesConfig selects the default content language.
type LanguagesConfig struct {
	Default string `yaml:"default"`
}

// ContentConfig contains logo storage settings.
// When S3.Bucket is empty, logos are written under Dir and served from BaseURL.
type ContentConfig struct {
	Dir          string   `yaml:"dir"`
	BaseURL      string   `yaml:"base_url"`
	MaxLogoBytes int64    `yaml:"max_logo_bytes"`
	S3           S3Config `yaml:"s3"`
}

// S3Config contains S3-compatible object storage settings.
type S3Config struct {
	Bucket    string   `yaml:"bucket"`
	Endpoint  string   `yaml:"endpoint"`
	Region    string   `yaml:"region"`
	AccessKey string   `yaml:"-"` // env-only, never in YAML
	SecretKey string   `yaml:"-"` // env-only, never in YAML
	UseSSL    *bool    `yaml:"use_ssl"`
	URLExpiry Duration `yaml:"url_expiry"`
}

// EventsConfig contains store lifecycle event publishing settings.
// An empty broker list disables publishing.
type EventsConfig struct {
	Brokers      []string `yaml:"brokers"`
	Topic        string   `yaml:"topic"`
	WriteTimeout Duration `yaml:"write_timeout"`
}

// Duration is a wrapper around time.Duration that supports YAML string parsing.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler for Duration.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

// MarshalYAML implements yaml.Marshaler for Duration.
func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

// Load loads configuration with precedence: defaults → YAML file → env vars.
// Returns an immutable Config suitable for concurrent read access.
func Load() (*Config, error) {
	cfg := newDefaults()

	configPath := getEnv("SHOPKEEP_CONFIG_PATH", "config/shopkeep.yaml")

	// Missing file is not an error
	if err := loadYAMLFile(cfg, configPath); err != nil {
		return nil, err
	}

	applyEnvOverrides(cfg)

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// LoadFromFile loads configuration from a specific path.
// Used for testing and explicit path specification.
func LoadFromFile(path string) (*Config, error) {
	cfg := newDefaults()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// newDefaults returns a Config with all default values.
func newDefaults() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            8080,
			ReadTimeout:     Duration(30 * time.Second),
			WriteTimeout:    Duration(30 * time.Second),
			ShutdownTimeout: Duration(15 * time.Second),
			MaxBodyBytes:    8 << 20,
		},
		Database: DatabaseConfig{
			Path: "data/shopkeep.db",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
		Languages: LanguagesConfig{
			Default: "en",
		},
		Content: ContentConfig{
			Dir:          "data/content",
			BaseURL:      "/static",
			MaxLogoBytes: 2 << 20,
			S3: S3Config{
				URLExpiry: Duration(1 * time.Hour),
			},
		},
		Events: EventsConfig{
			Topic:        "shopkeep.stores",
			WriteTimeout: Duration(10 * time.Second),
		},
	}
}

// loadYAMLFile loads configuration from a YAML file if it exists.
func loadYAMLFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parsing config file: %w", err)
	}

	return nil
}

// applyEnvOverrides applies environment variable overrides to the config.
// Only non-empty env vars override config values.
func applyEnvOverrides(cfg *Config) {
	// Server
	if v := os.Getenv("SHOPKEEP_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("SHOPKEEP_READ_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Server.ReadTimeout = Duration(d)
		}
	}
	if v := os.Getenv("SHOPKEEP_WRITE_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Server.WriteTimeout = Duration(d)
		}
	}
	if v := os.Getenv("SHOPKEEP_SHUTDOWN_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Server.ShutdownTimeout = Duration(d)
		}
	}

	// Database
	if v := os.Getenv("SHOPKEEP_DB_PATH"); v != "" {
		cfg.Database.Path = v
	}

	// Log
	if v := os.Getenv("SHOPKEEP_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("SHOPKEEP_LOG_FORMAT"); v != "" {
		cfg.Log.Format = v
	}

	// Languages
	if v := os.Getenv("SHOPKEEP_DEFAULT_LANGUAGE"); v != "" {
		cfg.Languages.Default = v
	}

	// Content
	if v := os.Getenv("SHOPKEEP_CONTENT_DIR"); v != "" {
		cfg.Content.Dir = v
	}
	if v := os.Getenv("SHOPKEEP_CONTENT_BASE_URL"); v != "" {
		cfg.Content.BaseURL = v
	}
	if v := os.Getenv("SHOPKEEP_MAX_LOGO_BYTES"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			cfg.Content.MaxLogoBytes = n
		}
	}
	if v := os.Getenv("SHOPKEEP_S3_BUCKET"); v != "" {
		cfg.Content.S3.Bucket = v
	}
	if v := os.Getenv("SHOPKEEP_S3_ENDPOINT"); v != "" {
		cfg.Content.S3.Endpoint = v
	}
	if v := os.Getenv("SHOPKEEP_S3_REGION"); v != "" {
		cfg.Content.S3.Region = v
	}
	if v := os.Getenv("SHOPKEEP_S3_ACCESS_KEY"); v != "" {
		cfg.Content.S3.AccessKey = v
	}
	if v := os.Getenv("SHOPKEEP_S3_SECRET_KEY"); v != "" {
		cfg.Content.S3.SecretKey = v
	}
	if v := os.Getenv("SHOPKEEP_S3_USE_SSL"); v != "" {
		useSSL := v == "true" || v == "1"
		cfg.Content.S3.UseSSL = &useSSL
	}
	if v := os.Getenv("SHOPKEEP_S3_URL_EXPIRY"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Content.S3.URLExpiry = Duration(d)
		}
	}

	// Events
	if v := os.Getenv("SHOPKEEP_KAFKA_BROKERS"); v != "" {
		cfg.Events.Brokers = splitList(v)
	}
	if v := os.Getenv("SHOPKEEP_KAFKA_TOPIC"); v != "" {
		cfg.Events.Topic = v
	}
}

// validate checks that configuration values are usable.
func (c *Config) validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port %d out of range", c.Server.Port)
	}
	if c.Database.Path == "" {
		return errors.New("database.path is required")
	}
	if c.Languages.Default == "" {
		return errors.New("languages.default is required")
	}
	if c.Content.MaxLogoBytes <= 0 {
		return errors.New("content.max_logo_bytes must be positive")
	}
	if c.Content.S3.Bucket != "" && c.Content.S3.Endpoint == "" {
		return errors.New("content.s3.endpoint is required when a bucket is configured")
	}
	if len(c.Events.Brokers) > 0 && c.Events.Topic == "" {
		return errors.New("events.topic is required when brokers are configured")
	}
	return nil
}

// getEnv returns the value of an environment variable or a default.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
