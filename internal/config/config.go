package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// Storage backends accepted in STORAGE_BACKEND.
const (
	BackendFS = "fs"
	BackendS3 = "s3"
)

// DatabaseConfig holds PostgreSQL settings for the optional upload ledger.
type DatabaseConfig struct {
	Host               string `toml:"host"`
	Port               string `toml:"port"`
	User               string `toml:"user"`
	Password           string `toml:"password"`
	Name               string `toml:"name"`
	SSLMode            string `toml:"sslmode"`
	MaxOpenConns       int    `toml:"max_open_conns"`
	MaxIdleConns       int    `toml:"max_idle_conns"`
	ConnMaxLifetimeSec int    `toml:"conn_max_lifetime_sec"`
}

// Enabled reports whether a ledger database was configured.
func (d DatabaseConfig) Enabled() bool {
	return d.Host != ""
}

// MinIOConfig holds object storage settings for the s3 backend.
type MinIOConfig struct {
	Endpoint  string `toml:"endpoint"`
	AccessKey string `toml:"access_key"`
	SecretKey string `toml:"secret_key"`
	Bucket    string `toml:"bucket"`
	UseSSL    bool   `toml:"use_ssl"`
}

// LogConfig controls the zap logger and its optional rotating file sink.
type LogConfig struct {
	Level      string `toml:"level"`
	Path       string `toml:"path"`
	MaxSizeMB  int    `toml:"max_size_mb"`
	MaxBackups int    `toml:"max_backups"`
	MaxAgeDays int    `toml:"max_age_days"`
	Compress   bool   `toml:"compress"`
}

// AppConfig is the centralized configuration struct for the application.
type AppConfig struct {
	AppHost            string         `toml:"app_host"`
	Port               string         `toml:"port"`
	UploadDir          string         `toml:"upload_dir"`
	TokenTTL           time.Duration  `toml:"-"`
	TokenRatePerMinute int            `toml:"token_rate_per_minute"`
	MaxBodyBytes       int            `toml:"max_body_bytes"`
	StorageBackend     string         `toml:"storage_backend"`
	TimeZone           string         `toml:"time_zone"`
	Database           DatabaseConfig `toml:"database"`
	MinIO              MinIOConfig    `toml:"minio"`
	Log                LogConfig      `toml:"log"`
}

// Defaults returns the configuration used when neither a file nor the
// environment sets a value.
func Defaults() AppConfig {
	return AppConfig{
		AppHost:        "localhost:3000",
		Port:           "3000",
		UploadDir:      "uploads",
		TokenTTL:       5 * time.Minute,
		MaxBodyBytes:   4 * 1024 * 1024,
		StorageBackend: BackendFS,
		TimeZone:       "UTC",
		Database: DatabaseConfig{
			Port:               "5432",
			SSLMode:            "disable",
			MaxOpenConns:       10,
			MaxIdleConns:       5,
			ConnMaxLifetimeSec: 300,
		},
		Log: LogConfig{
			Level:      "info",
			MaxSizeMB:  100,
			MaxBackups: 3,
			MaxAgeDays: 7,
		},
	}
}

// Load reads configuration from environment variables on top of Defaults.
// A .env file can be auto-loaded by importing: _ "github.com/joho/godotenv/autoload"
func Load() *AppConfig {
	cfg := Defaults()
	applyEnv(&cfg)
	return &cfg
}

// LoadFile reads a TOML file on top of Defaults, then applies environment
// variables, which take precedence over the file. An empty path is the same
// as Load.
func LoadFile(path string) (*AppConfig, error) {
	cfg := Defaults()
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := toml.Unmarshal(raw, &cfg); err != nil {
			return nil, fmt.Errorf("parse config file %s: %w", path, err)
		}
		// Durations are written as strings ("5m") in the file.
		var durations struct {
			TokenTTL string `toml:"token_ttl"`
		}
		if err := toml.Unmarshal(raw, &durations); err != nil {
			return nil, fmt.Errorf("parse config file %s: %w", path, err)
		}
		if durations.TokenTTL != "" {
			d, err := time.ParseDuration(durations.TokenTTL)
			if err != nil {
				return nil, fmt.Errorf("parse token_ttl: %w", err)
			}
			cfg.TokenTTL = d
		}
	}
	applyEnv(&cfg)
	return &cfg, nil
}

// Validate checks the values the server cannot start without.
func (c *AppConfig) Validate() error {
	switch c.StorageBackend {
	case BackendFS:
		if c.UploadDir == "" {
			return fmt.Errorf("upload dir is required for the %q backend", BackendFS)
		}
	case BackendS3:
		if c.MinIO.Bucket == "" {
			return fmt.Errorf("minio bucket is required for the %q backend", BackendS3)
		}
	default:
		return fmt.Errorf("unknown storage backend %q", c.StorageBackend)
	}
	if c.TokenTTL <= 0 {
		return fmt.Errorf("token ttl must be positive, got %s", c.TokenTTL)
	}
	return nil
}

func applyEnv(c *AppConfig) {
	c.AppHost = getEnv("APP_HOST", c.AppHost)
	c.Port = getEnv("PORT", c.Port)
	c.UploadDir = getEnv("UPLOAD_DIR", c.UploadDir)
	c.TokenTTL = getEnvDuration("TOKEN_TTL", c.TokenTTL)
	c.TokenRatePerMinute = getEnvInt("TOKEN_RATE_PER_MINUTE", c.TokenRatePerMinute)
	c.MaxBodyBytes = getEnvInt("MAX_BODY_BYTES", c.MaxBodyBytes)
	c.StorageBackend = getEnv("STORAGE_BACKEND", c.StorageBackend)
	c.TimeZone = getEnv("TZ_NAME", c.TimeZone)

	c.Database.Host = getEnv("DB_HOST", c.Database.Host)
	c.Database.Port = getEnv("DB_PORT", c.Database.Port)
	c.Database.User = getEnv("DB_USER", c.Database.User)
	c.Database.Password = getEnv("DB_PASSWORD", c.Database.Password)
	c.Database.Name = getEnv("DB_NAME", c.Database.Name)
	c.Database.SSLMode = getEnv("DB_SSLMODE", c.Database.SSLMode)
	c.Database.MaxOpenConns = getEnvInt("DB_MAX_OPEN_CONNS", c.Database.MaxOpenConns)
	c.Database.MaxIdleConns = getEnvInt("DB_MAX_IDLE_CONNS", c.Database.MaxIdleConns)
	c.Database.ConnMaxLifetimeSec = getEnvInt("DB_CONN_MAX_LIFETIME_SEC", c.Database.ConnMaxLifetimeSec)

	c.MinIO.Endpoint = getEnv("MINIO_ENDPOINT", c.MinIO.Endpoint)
	c.MinIO.AccessKey = getEnv("MINIO_ACCESS_KEY", c.MinIO.AccessKey)
	c.MinIO.SecretKey = getEnv("MINIO_SECRET_KEY", c.MinIO.SecretKey)
	c.MinIO.Bucket = getEnv("MINIO_BUCKET", c.MinIO.Bucket)
	c.MinIO.UseSSL = getEnvBool("MINIO_USE_SSL", c.MinIO.UseSSL)

	c.Log.Level = getEnv("LOG_LEVEL", c.Log.Level)
	c.Log.Path = getEnv("LOG_PATH", c.Log.Path)
	c.Log.MaxSizeMB = getEnvInt("LOG_MAX_SIZE_MB", c.Log.MaxSizeMB)
	c.Log.MaxBackups = getEnvInt("LOG_MAX_BACKUPS", c.Log.MaxBackups)
	c.Log.MaxAgeDays = getEnvInt("LOG_MAX_AGE_DAYS", c.Log.MaxAgeDays)
	c.Log.Compress = getEnvBool("LOG_COMPRESS", c.Log.Compress)
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		i, err := strconv.Atoi(v)
		if err == nil {
			return i
		}
	}
	return def
}

func getEnvDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		d, err := time.ParseDuration(v)
		if err == nil {
			return d
		}
	}
	return def
}
