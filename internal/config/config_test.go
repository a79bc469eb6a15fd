package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"gopkg.in/yaml.v3"
)

// Helper to clear all config-related env vars
func clearEnv(t *testing.T) {
	t.Helper()
	envVars := []string{
		"SHOPKEEP_PORT",
		"SHOPKEEP_READ_TIMEOUT",
		"SHOPKEEP_WRITE_TIMEOUT",
		"SHOPKEEP_SHUTDOWN_TIMEOUT",
		"SHOPKEEP_DB_PATH",
		"SHOPKEEP_LOG_LEVEL",
		"SHOPKEEP_LOG_FORMAT",
		"SHOPKEEP_CONFIG_PATH",
		"SHOPKEEP_DEFAULT_LANGUAGE",
		"SHOPKEEP_CONTENT_DIR",
		"SHOPKEEP_CONTENT_BASE_URL",
		"SHOPKEEP_MAX_LOGO_BYTES",
		"SHOPKEEP_S3_BUCKET",
		"SHOPKEEP_S3_ENDPOINT",
		"SHOPKEEP_S3_REGION",
		"SHOPKEEP_S3_ACCESS_KEY",
		"SHOPKEEP_S3_SECRET_KEY",
		"SHOPKEEP_S3_USE_SSL",
		"SHOPKEEP_S3_URL_EXPIRY",
		"SHOPKEEP_KAFKA_BROKERS",
		"SHOPKEEP_KAFKA_TOPIC",
	}
	for _, v := range envVars {
		os.Unsetenv(v)
	}
	// Point at a file that never exists so a stray config/shopkeep.yaml is not picked up
	t.Setenv("SHOPKEEP_CONFIG_PATH", filepath.Join(t.TempDir(), "absent.yaml"))
}

// dur converts Duration to time.Duration for comparison
func dur(d Duration) time.Duration {
	return time.Duration(d)
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "shopkeep.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.Port != 8080 {
		t.Errorf("Server.Port = %d, want 8080", cfg.Server.Port)
	}
	if dur(cfg.Server.ReadTimeout) != 30*time.Second {
		t.Errorf("Server.ReadTimeout = %v, want 30s", cfg.Server.ReadTimeout)
	}
	if dur(cfg.Server.ShutdownTimeout) != 15*time.Second {
		t.Errorf("Server.ShutdownTimeout = %v, want 15s", cfg.Server.ShutdownTimeout)
	}
	if cfg.Database.Path != "data/shopkeep.db" {
		t.Errorf("Database.Path = %q, want %q", cfg.Database.Path, "data/shopkeep.db")
	}
	if cfg.Log.Level != "info" {
		t.Errorf("Log.Level = %q, want info", cfg.Log.Level)
	}
	if cfg.Languages.Default != "en" {
		t.Errorf("Languages.Default = %q, want en", cfg.Languages.Default)
	}
	if cfg.Content.MaxLogoBytes != 2<<20 {
		t.Errorf("Content.MaxLogoBytes = %d, want %d", cfg.Content.MaxLogoBytes, 2<<20)
	}
	if cfg.Content.S3.Bucket != "" {
		t.Errorf("Content.S3.Bucket = %q, want empty", cfg.Content.S3.Bucket)
	}
	if len(cfg.Events.Brokers) != 0 {
		t.Errorf("Events.Brokers = %v, want empty", cfg.Events.Brokers)
	}
	if cfg.Events.Topic != "shopkeep.stores" {
		t.Errorf("Events.Topic = %q, want shopkeep.stores", cfg.Events.Topic)
	}
}

func TestLoad_EnvVarOverrides(t *testing.T) {
	clearEnv(t)

	t.Setenv("SHOPKEEP_PORT", "9090")
	t.Setenv("SHOPKEEP_DB_PATH", "/custom/path.db")
	t.Setenv("SHOPKEEP_LOG_LEVEL", "debug")
	t.Setenv("SHOPKEEP_DEFAULT_LANGUAGE", "fr")
	t.Setenv("SHOPKEEP_MAX_LOGO_BYTES", "1024")
	t.Setenv("SHOPKEEP_S3_USE_SSL", "false")
	t.Setenv("SHOPKEEP_KAFKA_BROKERS", "kafka-1:9092, kafka-2:9092,")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.Port != 9090 {
		t.Errorf("Server.Port = %d, want 9090", cfg.Server.Port)
	}
	if cfg.Database.Path != "/custom/path.db" {
		t.Errorf("Database.Path = %q, want /custom/path.db", cfg.Database.Path)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("Log.Level = %q, want debug", cfg.Log.Level)
	}
	if cfg.Languages.Default != "fr" {
		t.Errorf("Languages.Default = %q, want fr", cfg.Languages.Default)
	}
	if cfg.Content.MaxLogoBytes != 1024 {
		t.Errorf("Content.MaxLogoBytes = %d, want 1024", cfg.Content.MaxLogoBytes)
	}
	if cfg.Content.S3.UseSSL == nil || *cfg.Content.S3.UseSSL {
		t.Errorf("Content.S3.UseSSL = %v, want false", cfg.Content.S3.UseSSL)
	}
	want := []string{"kafka-1:9092", "kafka-2:9092"}
	if strings.Join(cfg.Events.Brokers, ",") != strings.Join(want, ",") {
		t.Errorf("Events.Brokers = %v, want %v", cfg.Events.Brokers, want)
	}
}

func TestLoad_InvalidEnvValuesIgnored(t *testing.T) {
	clearEnv(t)
	t.Setenv("SHOPKEEP_PORT", "not-a-number")
	t.Setenv("SHOPKEEP_READ_TIMEOUT", "soon")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("Server.Port = %d, want 8080", cfg.Server.Port)
	}
	if dur(cfg.Server.ReadTimeout) != 30*time.Second {
		t.Errorf("Server.ReadTimeout = %v, want 30s", cfg.Server.ReadTimeout)
	}
}

func TestLoadFromFile_YAML(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, `
server:
  port: 7070
  read_timeout: 5s
database:
  path: /tmp/stores.db
languages:
  default: es
content:
  dir: /var/lib/shopkeep
  base_url: https://cdn.example.com
  s3:
    bucket: logos
    endpoint: s3.example.com
    url_expiry: 30m
events:
  brokers: ["localhost:9092"]
  topic: stores
`)

	cfg, err := LoadFromFile(path)
	if err != nil {
		t.Fatalf("LoadFromFile() error = %v", err)
	}

	if cfg.Server.Port != 7070 {
		t.Errorf("Server.Port = %d, want 7070", cfg.Server.Port)
	}
	if dur(cfg.Server.ReadTimeout) != 5*time.Second {
		t.Errorf("Server.ReadTimeout = %v, want 5s", cfg.Server.ReadTimeout)
	}
	// Unset YAML fields keep defaults
	if dur(cfg.Server.WriteTimeout) != 30*time.Second {
		t.Errorf("Server.WriteTimeout = %v, want 30s", cfg.Server.WriteTimeout)
	}
	if cfg.Languages.Default != "es" {
		t.Errorf("Languages.Default = %q, want es", cfg.Languages.Default)
	}
	if cfg.Content.S3.Bucket != "logos" {
		t.Errorf("Content.S3.Bucket = %q, want logos", cfg.Content.S3.Bucket)
	}
	if dur(cfg.Content.S3.URLExpiry) != 30*time.Minute {
		t.Errorf("Content.S3.URLExpiry = %v, want 30m", cfg.Content.S3.URLExpiry)
	}
	if cfg.Events.Topic != "stores" {
		t.Errorf("Events.Topic = %q, want stores", cfg.Events.Topic)
	}
}

func TestLoadFromFile_EnvOverridesYAML(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, "server:\n  port: 7070\n")
	t.Setenv("SHOPKEEP_PORT", "6060")

	cfg, err := LoadFromFile(path)
	if err != nil {
		t.Fatalf("LoadFromFile() error = %v", err)
	}
	if cfg.Server.Port != 6060 {
		t.Errorf("Server.Port = %d, want 6060", cfg.Server.Port)
	}
}

func TestLoadFromFile_SecretsNotReadFromYAML(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, "content:\n  s3:\n    access_key: leaked\n    secret_key: leaked\n")

	cfg, err := LoadFromFile(path)
	if err != nil {
		t.Fatalf("LoadFromFile() error = %v", err)
	}
	if cfg.Content.S3.AccessKey != "" || cfg.Content.S3.SecretKey != "" {
		t.Error("S3 credentials must only come from the environment")
	}
}

func TestLoadFromFile_Missing(t *testing.T) {
	clearEnv(t)
	if _, err := LoadFromFile(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("LoadFromFile() expected error for missing file")
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	clearEnv(t)
	t.Setenv("SHOPKEEP_CONFIG_PATH", writeConfig(t, "server: [unterminated"))

	if _, err := Load(); err == nil {
		t.Error("Load() expected error for invalid YAML")
	}
}

func TestLoad_InvalidDuration(t *testing.T) {
	clearEnv(t)
	t.Setenv("SHOPKEEP_CONFIG_PATH", writeConfig(t, "server:\n  read_timeout: forever\n"))

	_, err := Load()
	if err == nil || !strings.Contains(err.Error(), "invalid duration") {
		t.Errorf("Load() error = %v, want invalid duration", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"port zero", func(c *Config) { c.Server.Port = 0 }},
		{"empty db path", func(c *Config) { c.Database.Path = "" }},
		{"empty default language", func(c *Config) { c.Languages.Default = "" }},
		{"non-positive logo size", func(c *Config) { c.Content.MaxLogoBytes = 0 }},
		{"bucket without endpoint", func(c *Config) { c.Content.S3.Bucket = "logos" }},
		{"brokers without topic", func(c *Config) {
			c.Events.Brokers = []string{"localhost:9092"}
			c.Events.Topic = ""
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := newDefaults()
			tt.mutate(cfg)
			if err := cfg.validate(); err == nil {
				t.Error("validate() expected error, got nil")
			}
		})
	}

	if err := newDefaults().validate(); err != nil {
		t.Errorf("defaults should validate, got %v", err)
	}
}

func TestDuration_MarshalYAML(t *testing.T) {
	out, err := yaml.Marshal(struct {
		Timeout Duration `yaml:"timeout"`
	}{Duration(90 * time.Second)})
	if err != nil {
		t.Fatalf("yaml.Marshal() error = %v", err)
	}
	if !strings.Contains(string(out), "timeout: 1m30s") {
		t.Errorf("marshaled = %q, want timeout: 1m30s", out)
	}
}
