// Package config loads platform configuration from a YAML file layered with
// environment variable overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joeshaw/envdecode"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config is the root configuration.
type Config struct {
	Server    ServerConfig          `yaml:"server"`
	Database  DatabaseConfig        `yaml:"database"`
	Redis     RedisConfig           `yaml:"redis"`
	Logging   LoggingConfig         `yaml:"logging"`
	Auth      AuthConfig            `yaml:"auth"`
	Blob      BlobConfig            `yaml:"blob"`
	RateLimit RateLimitConfig       `yaml:"rate_limit"`
	Costs     CostsConfig           `yaml:"costs"`
	Sites     map[string]SiteConfig `yaml:"sites"`
	Audit     AuditConfig           `yaml:"audit"`
}

// ServerConfig controls the HTTP listener.
type ServerConfig struct {
	Host            string        `yaml:"host" env:"SERVER_HOST"`
	Port            int           `yaml:"port" env:"SERVER_PORT"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// DatabaseConfig controls the PostgreSQL connection.
type DatabaseConfig struct {
	Driver          string `yaml:"driver" env:"DATABASE_DRIVER"`
	DSN             string `yaml:"dsn" env:"DATABASE_DSN"`
	MaxOpenConns    int    `yaml:"max_open_conns"`
	MaxIdleConns    int    `yaml:"max_idle_conns"`
	ConnMaxLifetime int    `yaml:"conn_max_lifetime_seconds"`
	AutoMigrate     bool   `yaml:"auto_migrate" env:"DATABASE_AUTO_MIGRATE"`
}

// RedisConfig controls the optional Redis cache.
type RedisConfig struct {
	Enabled  bool   `yaml:"enabled" env:"REDIS_ENABLED"`
	Addr     string `yaml:"addr" env:"REDIS_ADDR"`
	Password string `yaml:"password" env:"REDIS_PASSWORD"`
	DB       int    `yaml:"db"`
}

// LoggingConfig controls log output.
type LoggingConfig struct {
	Level  string `yaml:"level" env:"LOG_LEVEL"`
	Format string `yaml:"format" env:"LOG_FORMAT"`
}

// AuthConfig controls token issuing.
type AuthConfig struct {
	Secret        string        `yaml:"secret" env:"AUTH_SECRET"`
	Issuer        string        `yaml:"issuer"`
	TokenLifetime time.Duration `yaml:"token_lifetime"`
}

// BlobConfig controls media blob storage.
type BlobConfig struct {
	AccountURL string `yaml:"account_url" env:"BLOB_ACCOUNT_URL"`
	Container  string `yaml:"container" env:"BLOB_CONTAINER"`
}

// RateLimitConfig controls per-client request budgets.
type RateLimitConfig struct {
	RequestsPerSecond int `yaml:"requests_per_second"`
	Burst             int `yaml:"burst"`
}

// CostsConfig controls the cost import pipeline.
type CostsConfig struct {
	ExportURL      string `yaml:"export_url" env:"COSTS_EXPORT_URL"`
	RollupSchedule string `yaml:"rollup_schedule"`
}

// SiteConfig describes one brand served by the monolith.
type SiteConfig struct {
	Hosts          []string `yaml:"hosts"`
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// AuditConfig controls the request audit log.
type AuditConfig struct {
	MaxEntries int    `yaml:"max_entries"`
	FilePath   string `yaml:"file_path" env:"AUDIT_FILE"`
}

// Load reads configuration from CONFIG_PATH (default config/config.yaml),
// applies .env and environment overrides and validates the result.
func Load() (*Config, error) {
	_ = godotenv.Load()

	path := os.Getenv("CONFIG_PATH")
	if path == "" {
		path = "config/config.yaml"
	}
	return LoadFromPath(path)
}

// LoadFromPath reads configuration from an explicit file path.
func LoadFromPath(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	} else if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if err := envdecode.Decode(cfg); err != nil && !errors.Is(err, envdecode.ErrNoTargetFieldsAreSet) {
		return nil, fmt.Errorf("decode env overrides: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Default returns the baseline configuration before file and env layers.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8080,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
		Database: DatabaseConfig{
			Driver:          "postgres",
			MaxOpenConns:    20,
			MaxIdleConns:    5,
			ConnMaxLifetime: 300,
		},
		Logging: LoggingConfig{Level: "info", Format: "json"},
		Auth: AuthConfig{
			Issuer:        "webatelier",
			TokenLifetime: 24 * time.Hour,
		},
		RateLimit: RateLimitConfig{RequestsPerSecond: 20, Burst: 40},
		Costs:     CostsConfig{RollupSchedule: "0 3 1 * *"},
		Audit:     AuditConfig{MaxEntries: 500},
		Sites: map[string]SiteConfig{
			"marketing": {},
		},
	}
}

// Validate checks cross-field constraints.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port %d out of range", c.Server.Port)
	}
	if c.Auth.TokenLifetime <= 0 {
		return fmt.Errorf("auth.token_lifetime must be positive")
	}
	if _, ok := c.Sites["marketing"]; !ok {
		return fmt.Errorf("sites must include the marketing fallback")
	}
	seen := map[string]string{}
	for key, site := range c.Sites {
		for _, h := range site.Hosts {
			host := strings.ToLower(h)
			if prev, dup := seen[host]; dup {
				return fmt.Errorf("host %q mapped to both %q and %q", host, prev, key)
			}
			seen[host] = key
		}
	}
	return nil
}

// SiteForHost resolves a request host to a site key. Port suffixes and a
// leading www. are ignored. Unknown hosts resolve to marketing.
func (c *Config) SiteForHost(host string) string {
	h := strings.ToLower(host)
	if i := strings.IndexByte(h, ':'); i >= 0 {
		h = h[:i]
	}
	h = strings.TrimPrefix(h, "www.")

	for key, site := range c.Sites {
		for _, candidate := range site.Hosts {
			cand := strings.TrimPrefix(strings.ToLower(candidate), "www.")
			if cand == h {
				return key
			}
		}
	}
	return "marketing"
}
