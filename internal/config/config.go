package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	Auth      AuthConfig      `yaml:"auth"`
	Tailscale TailscaleConfig `yaml:"tailscale"`
	Log       LogConfig       `yaml:"log"`
	Cache     CacheConfig     `yaml:"cache"`
	Settings  SettingsConfig  `yaml:"settings"`
	Photos    PhotosConfig    `yaml:"photos"`
	Import    ImportConfig    `yaml:"import"`
	Stats     StatsConfig     `yaml:"stats"`
	Metrics   MetricsConfig   `yaml:"metrics"`
}

type ServerConfig struct {
	Host   string `yaml:"host"`
	Port   int    `yaml:"port"`
	WebDir string `yaml:"web_dir"` // optional static frontend
}

type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Name     string `yaml:"name"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	SSLMode  string `yaml:"sslmode"`
}

type AuthConfig struct {
	APIKey string `yaml:"api_key"`
}

type TailscaleConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Hostname string `yaml:"hostname"`
	StateDir string `yaml:"state_dir"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	File   string `yaml:"file"`
}

type CacheConfig struct {
	Backend string        `yaml:"backend"` // memory, redis or none
	SizeMB  int           `yaml:"size_mb"`
	TTL     time.Duration `yaml:"ttl"`
	Redis   RedisConfig   `yaml:"redis"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type SettingsConfig struct {
	Dir string `yaml:"dir"`
}

type PhotosConfig struct {
	Enabled       bool   `yaml:"enabled"`
	Bucket        string `yaml:"bucket"`
	Region        string `yaml:"region"`
	Endpoint      string `yaml:"endpoint"`
	AccessKey     string `yaml:"access_key"`
	SecretKey     string `yaml:"secret_key"`
	PublicBaseURL string `yaml:"public_base_url"`
}

type ImportConfig struct {
	// AcceptObjectForm defaults to true when unset.
	AcceptObjectForm *bool `yaml:"accept_object_form"`
}

// ObjectForm reports whether the key → ficha import form is accepted.
func (c ImportConfig) ObjectForm() bool {
	return c.AcceptObjectForm == nil || *c.AcceptObjectForm
}

type StatsConfig struct {
	Timezone string `yaml:"timezone"`
}

// Location resolves the configured time zone. Empty means the host zone.
func (c StatsConfig) Location() (*time.Location, error) {
	if c.Timezone == "" {
		return time.Local, nil
	}
	return time.LoadLocation(c.Timezone)
}

type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
}

// DSN returns a PostgreSQL connection string.
func (d DatabaseConfig) DSN() string {
	sslmode := d.SSLMode
	if sslmode == "" {
		sslmode = "disable"
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, sslmode)
}

// Load reads a .env file from the working directory if present, then the
// YAML config, then applies environment variable overrides. Env vars use
// the prefix FITTRACKER_ and underscore-separated paths:
//
//	FITTRACKER_SERVER_HOST, FITTRACKER_SERVER_PORT, FITTRACKER_SERVER_WEB_DIR,
//	FITTRACKER_DB_HOST, FITTRACKER_DB_PORT, FITTRACKER_DB_NAME,
//	FITTRACKER_DB_USER, FITTRACKER_DB_PASSWORD, FITTRACKER_DB_SSLMODE,
//	FITTRACKER_AUTH_API_KEY,
//	FITTRACKER_TAILSCALE_ENABLED, FITTRACKER_TAILSCALE_HOSTNAME, FITTRACKER_TAILSCALE_STATE_DIR,
//	FITTRACKER_LOG_LEVEL, FITTRACKER_LOG_FORMAT, FITTRACKER_LOG_FILE,
//	FITTRACKER_CACHE_BACKEND, FITTRACKER_CACHE_SIZE_MB, FITTRACKER_CACHE_TTL,
//	FITTRACKER_REDIS_ADDR, FITTRACKER_REDIS_PASSWORD, FITTRACKER_REDIS_DB,
//	FITTRACKER_SETTINGS_DIR,
//	FITTRACKER_PHOTOS_ENABLED, FITTRACKER_PHOTOS_BUCKET, FITTRACKER_PHOTOS_REGION,
//	FITTRACKER_PHOTOS_ENDPOINT, FITTRACKER_PHOTOS_ACCESS_KEY, FITTRACKER_PHOTOS_SECRET_KEY,
//	FITTRACKER_PHOTOS_PUBLIC_BASE_URL,
//	FITTRACKER_IMPORT_ACCEPT_OBJECT_FORM, FITTRACKER_STATS_TIMEZONE, FITTRACKER_METRICS_ENABLED
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("reading .env file: %w", err)
	}

	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	applyEnvOverrides(cfg)
	cfg.setDefaults()

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	envString("FITTRACKER_SERVER_HOST", &cfg.Server.Host)
	envInt("FITTRACKER_SERVER_PORT", &cfg.Server.Port)
	envString("FITTRACKER_SERVER_WEB_DIR", &cfg.Server.WebDir)

	envString("FITTRACKER_DB_HOST", &cfg.Database.Host)
	envInt("FITTRACKER_DB_PORT", &cfg.Database.Port)
	envString("FITTRACKER_DB_NAME", &cfg.Database.Name)
	envString("FITTRACKER_DB_USER", &cfg.Database.User)
	envString("FITTRACKER_DB_PASSWORD", &cfg.Database.Password)
	envString("FITTRACKER_DB_SSLMODE", &cfg.Database.SSLMode)

	envString("FITTRACKER_AUTH_API_KEY", &cfg.Auth.APIKey)

	envBool("FITTRACKER_TAILSCALE_ENABLED", &cfg.Tailscale.Enabled)
	envString("FITTRACKER_TAILSCALE_HOSTNAME", &cfg.Tailscale.Hostname)
	envString("FITTRACKER_TAILSCALE_STATE_DIR", &cfg.Tailscale.StateDir)

	envString("FITTRACKER_LOG_LEVEL", &cfg.Log.Level)
	envString("FITTRACKER_LOG_FORMAT", &cfg.Log.Format)
	envString("FITTRACKER_LOG_FILE", &cfg.Log.File)

	envString("FITTRACKER_CACHE_BACKEND", &cfg.Cache.Backend)
	envInt("FITTRACKER_CACHE_SIZE_MB", &cfg.Cache.SizeMB)
	if v := os.Getenv("FITTRACKER_CACHE_TTL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Cache.TTL = d
		}
	}
	envString("FITTRACKER_REDIS_ADDR", &cfg.Cache.Redis.Addr)
	envString("FITTRACKER_REDIS_PASSWORD", &cfg.Cache.Redis.Password)
	envInt("FITTRACKER_REDIS_DB", &cfg.Cache.Redis.DB)

	envString("FITTRACKER_SETTINGS_DIR", &cfg.Settings.Dir)

	envBool("FITTRACKER_PHOTOS_ENABLED", &cfg.Photos.Enabled)
	envString("FITTRACKER_PHOTOS_BUCKET", &cfg.Photos.Bucket)
	envString("FITTRACKER_PHOTOS_REGION", &cfg.Photos.Region)
	envString("FITTRACKER_PHOTOS_ENDPOINT", &cfg.Photos.Endpoint)
	envString("FITTRACKER_PHOTOS_ACCESS_KEY", &cfg.Photos.AccessKey)
	envString("FITTRACKER_PHOTOS_SECRET_KEY", &cfg.Photos.SecretKey)
	envString("FITTRACKER_PHOTOS_PUBLIC_BASE_URL", &cfg.Photos.PublicBaseURL)

	if v := os.Getenv("FITTRACKER_IMPORT_ACCEPT_OBJECT_FORM"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Import.AcceptObjectForm = &b
		}
	}
	envString("FITTRACKER_STATS_TIMEZONE", &cfg.Stats.Timezone)
	envBool("FITTRACKER_METRICS_ENABLED", &cfg.Metrics.Enabled)
}

func envString(key string, dst *string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func envInt(key string, dst *int) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func envBool(key string, dst *bool) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func (c *Config) setDefaults() {
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
	if c.Cache.Backend == "" {
		c.Cache.Backend = "memory"
	}
	if c.Cache.SizeMB == 0 {
		c.Cache.SizeMB = 16
	}
	if c.Cache.TTL == 0 {
		c.Cache.TTL = 5 * time.Minute
	}
	if c.Settings.Dir == "" {
		c.Settings.Dir = "data"
	}
	if c.Tailscale.Hostname == "" {
		c.Tailscale.Hostname = "fittracker"
	}
	if c.Photos.Region == "" {
		c.Photos.Region = "us-east-1"
	}
}

func (c *Config) validate() error {
	if c.Server.Port == 0 && !c.Tailscale.Enabled {
		return fmt.Errorf("server.port is required")
	}
	if c.Database.Host == "" {
		return fmt.Errorf("database.host is required")
	}
	if c.Database.Port == 0 {
		return fmt.Errorf("database.port is required")
	}
	if c.Database.Name == "" {
		return fmt.Errorf("database.name is required")
	}
	if c.Database.User == "" {
		return fmt.Errorf("database.user is required")
	}
	if c.Auth.APIKey == "" {
		return fmt.Errorf("auth.api_key is required")
	}
	switch c.Cache.Backend {
	case "memory", "none":
	case "redis":
		if c.Cache.Redis.Addr == "" {
			return fmt.Errorf("cache.redis.addr is required for the redis backend")
		}
	default:
		return fmt.Errorf("cache.backend must be memory, redis or none, got %q", c.Cache.Backend)
	}
	if c.Photos.Enabled && c.Photos.Bucket == "" {
		return fmt.Errorf("photos.bucket is required when photos are enabled")
	}
	if _, err := c.Stats.Location(); err != nil {
		return fmt.Errorf("stats.timezone: %w", err)
	}
	return nil
}
