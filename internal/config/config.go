package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the API server and the manage command.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	Redis     RedisConfig     `yaml:"redis"`
	Storage   StorageConfig   `yaml:"storage"`
	Images    ImagesConfig    `yaml:"images"`
	OAuth     OAuthConfig     `yaml:"oauth"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	LogLevel  string          `yaml:"log_level"`
}

type ServerConfig struct {
	Addr           string   `yaml:"addr"`
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// DatabaseConfig selects the persistence backend. Driver "memory" keeps
// everything in process and is meant for local development.
type DatabaseConfig struct {
	Driver       string `yaml:"driver"`
	DSN          string `yaml:"dsn"`
	WaitAttempts int    `yaml:"wait_attempts"`
	WaitSeconds  int    `yaml:"wait_seconds"`
}

func (c DatabaseConfig) WaitInterval() time.Duration {
	return time.Duration(c.WaitSeconds) * time.Second
}

// RedisConfig enables the redis token store when Addr is set.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// StorageConfig selects where uploaded recipe images go: "local" writes under
// LocalPath and serves them at /media/, "s3" writes to Bucket.
type StorageConfig struct {
	Type            string `yaml:"type"`
	LocalPath       string `yaml:"local_path"`
	BaseURL         string `yaml:"base_url"`
	Bucket          string `yaml:"bucket"`
	Region          string `yaml:"region"`
	AccountID       string `yaml:"account_id"`
	Endpoint        string `yaml:"endpoint"`
	AccessKeyID     string `yaml:"access_key_id"`
	AccessKeySecret string `yaml:"access_key_secret"`
	PublicURL       string `yaml:"public_url"`
}

type ImagesConfig struct {
	MaxBytes int64 `yaml:"max_bytes"`
	MaxWidth int   `yaml:"max_width"`
}

// OAuthConfig turns on Google sign-in when both key and secret are set.
type OAuthConfig struct {
	GoogleKey     string `yaml:"google_key"`
	GoogleSecret  string `yaml:"google_secret"`
	CallbackURL   string `yaml:"callback_url"`
	SessionSecret string `yaml:"session_secret"`
	SecureCookie  bool   `yaml:"secure_cookie"`
}

func (c OAuthConfig) Enabled() bool {
	return c.GoogleKey != "" && c.GoogleSecret != ""
}

type RateLimitConfig struct {
	TokenPerMinute int `yaml:"token_per_minute"`
	APIPerMinute   int `yaml:"api_per_minute"`
}

// Load reads .env (if present), then the YAML file at path (if path is not
// empty), then applies environment overrides and defaults.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("loading .env: %w", err)
	}

	var cfg Config
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	cfg.applyEnv()
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyEnv() {
	setString(&c.Server.Addr, "SERVER_ADDR")
	if v := os.Getenv("ALLOWED_ORIGINS"); v != "" {
		c.Server.AllowedOrigins = strings.Split(v, ",")
	}

	setString(&c.Database.Driver, "DB_DRIVER")
	setString(&c.Database.DSN, "DSN")
	setInt(&c.Database.WaitAttempts, "DB_WAIT_ATTEMPTS")
	setInt(&c.Database.WaitSeconds, "DB_WAIT_SECONDS")

	setString(&c.Redis.Addr, "REDIS_ADDR")
	setString(&c.Redis.Password, "REDIS_PASSWORD")
	setInt(&c.Redis.DB, "REDIS_DB")

	setString(&c.Storage.Type, "STORAGE_TYPE")
	setString(&c.Storage.LocalPath, "MEDIA_ROOT")
	setString(&c.Storage.BaseURL, "MEDIA_URL")
	setString(&c.Storage.Bucket, "BUCKET_NAME")
	setString(&c.Storage.Region, "AWS_REGION")
	setString(&c.Storage.AccountID, "ACCOUNT_ID")
	setString(&c.Storage.Endpoint, "S3_ENDPOINT")
	setString(&c.Storage.AccessKeyID, "ACCESS_KEY_ID")
	setString(&c.Storage.AccessKeySecret, "ACCESS_KEY_SECRET")
	setString(&c.Storage.PublicURL, "PUBLIC_URL")

	setString(&c.OAuth.GoogleKey, "GOOGLE_KEY")
	setString(&c.OAuth.GoogleSecret, "GOOGLE_SECRET")
	setString(&c.OAuth.CallbackURL, "GOOGLE_CALLBACK_URL")
	setString(&c.OAuth.SessionSecret, "JWT_SECRET_KEY")

	setString(&c.LogLevel, "LOG_LEVEL")
}

func (c *Config) applyDefaults() {
	if c.Server.Addr == "" {
		c.Server.Addr = ":3000"
	}
	if c.Database.Driver == "" {
		c.Database.Driver = "postgres"
	}
	if c.Database.WaitAttempts == 0 {
		c.Database.WaitAttempts = 10
	}
	if c.Database.WaitSeconds == 0 {
		c.Database.WaitSeconds = 1
	}
	if c.Storage.Type == "" {
		c.Storage.Type = "local"
	}
	if c.Storage.LocalPath == "" {
		c.Storage.LocalPath = "./media"
	}
	if c.Storage.BaseURL == "" {
		c.Storage.BaseURL = "/media/"
	}
	if c.Storage.Region == "" {
		c.Storage.Region = "auto"
	}
	if c.Images.MaxBytes == 0 {
		c.Images.MaxBytes = 10 << 20
	}
	if c.OAuth.CallbackURL == "" {
		c.OAuth.CallbackURL = "http://localhost:3000/auth/google/callback"
	}
	if c.RateLimit.TokenPerMinute == 0 {
		c.RateLimit.TokenPerMinute = 10
	}
	if c.RateLimit.APIPerMinute == 0 {
		c.RateLimit.APIPerMinute = 120
	}
}

// Validate reports settings that make the server unusable.
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case "postgres":
		if c.Database.DSN == "" {
			return errors.New("config: database dsn is required for the postgres driver")
		}
	case "memory":
	default:
		return fmt.Errorf("config: unknown database driver %q", c.Database.Driver)
	}

	switch c.Storage.Type {
	case "local":
	case "s3":
		if c.Storage.Bucket == "" {
			return errors.New("config: storage bucket is required for s3 storage")
		}
	default:
		return fmt.Errorf("config: unknown storage type %q", c.Storage.Type)
	}

	if c.OAuth.Enabled() && c.OAuth.SessionSecret == "" {
		return errors.New("config: oauth requires a session secret")
	}
	return nil
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}
