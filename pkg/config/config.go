package config

import (
	"errors"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

type Config struct {
	Env            string
	Port           int
	APIPrefix      string
	RequestTimeout time.Duration

	Database    DatabaseConfig
	Redis       RedisConfig
	JWT         JWTConfig
	CORS        CORSConfig
	Log         LogConfig
	Cache       CacheConfig
	Attachments AttachmentConfig
	Reaper      ReaperConfig
}

type DatabaseConfig struct {
	Host         string
	Port         int
	User         string
	Password     string
	Name         string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// JWTConfig holds the shared secret used to verify tokens issued by the session provider.
type JWTConfig struct {
	Secret string
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// CacheConfig toggles the Redis backed read cache.
type CacheConfig struct {
	Enabled bool
	TTL     time.Duration
}

// AttachmentConfig controls photo storage, validation and signed downloads.
type AttachmentConfig struct {
	StorageDir        string
	MaxFileSizeBytes  int64
	AllowedMIMEs      []string
	SignedURLSecret   string
	SignedURLTTL      time.Duration
	UploadTimeout     time.Duration
	StoreConcurrency  int
	ThumbnailSize     int
	OrphanGracePeriod time.Duration
	SweepInterval     time.Duration
}

// ReaperConfig sizes the queue that retries compensating attachment deletes.
type ReaperConfig struct {
	Workers    int
	MaxRetries int
	RetryDelay time.Duration
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !isMissingFile(err) {
			return nil, err
		}
	}

	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")
	cfg.RequestTimeout = parseDuration(v.GetString("HTTP_REQUEST_TIMEOUT"), 30*time.Second)

	cfg.Database = DatabaseConfig{
		Host:         v.GetString("DB_HOST"),
		Port:         v.GetInt("DB_PORT"),
		User:         v.GetString("DB_USER"),
		Password:     v.GetString("DB_PASSWORD"),
		Name:         v.GetString("DB_NAME"),
		SSLMode:      v.GetString("DB_SSL_MODE"),
		MaxOpenConns: v.GetInt("DB_MAX_OPEN_CONNS"),
		MaxIdleConns: v.GetInt("DB_MAX_IDLE_CONNS"),
	}

	cfg.Redis = RedisConfig{
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.JWT = JWTConfig{Secret: v.GetString("JWT_SECRET")}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Cache = CacheConfig{
		Enabled: v.GetBool("ENABLE_CACHE"),
		TTL:     parseDuration(v.GetString("CACHE_TTL"), 5*time.Minute),
	}

	maxFileSize := v.GetInt64("ATTACHMENT_MAX_FILE_SIZE")
	if maxFileSize <= 0 {
		maxFileSize = 5 * 1024 * 1024
	}
	cfg.Attachments = AttachmentConfig{
		StorageDir:        v.GetString("ATTACHMENT_STORAGE_DIR"),
		MaxFileSizeBytes:  maxFileSize,
		AllowedMIMEs:      splitAndTrim(v.GetString("ATTACHMENT_ALLOWED_MIME_TYPES")),
		SignedURLSecret:   v.GetString("ATTACHMENT_SIGNED_URL_SECRET"),
		SignedURLTTL:      parseDuration(v.GetString("ATTACHMENT_SIGNED_URL_TTL"), 30*time.Minute),
		UploadTimeout:     parseDuration(v.GetString("ATTACHMENT_UPLOAD_TIMEOUT"), 20*time.Second),
		StoreConcurrency:  v.GetInt("ATTACHMENT_STORE_CONCURRENCY"),
		ThumbnailSize:     v.GetInt("ATTACHMENT_THUMBNAIL_SIZE"),
		OrphanGracePeriod: parseDuration(v.GetString("ATTACHMENT_ORPHAN_GRACE"), time.Hour),
		SweepInterval:     parseDuration(v.GetString("ATTACHMENT_SWEEP_INTERVAL"), 6*time.Hour),
	}

	cfg.Reaper = ReaperConfig{
		Workers:    v.GetInt("REAPER_WORKERS"),
		MaxRetries: v.GetInt("REAPER_MAX_RETRIES"),
		RetryDelay: parseDuration(v.GetString("REAPER_RETRY_DELAY"), 5*time.Second),
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api/v1")
	v.SetDefault("HTTP_REQUEST_TIMEOUT", "30s")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "mitra_laporan")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("JWT_SECRET", "dev_secret")

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("ENABLE_CACHE", false)
	v.SetDefault("CACHE_TTL", "5m")

	v.SetDefault("ATTACHMENT_STORAGE_DIR", "./uploads")
	v.SetDefault("ATTACHMENT_MAX_FILE_SIZE", 5*1024*1024)
	v.SetDefault("ATTACHMENT_ALLOWED_MIME_TYPES", "image/jpeg,image/png")
	v.SetDefault("ATTACHMENT_SIGNED_URL_SECRET", "dev_attachment_secret")
	v.SetDefault("ATTACHMENT_SIGNED_URL_TTL", "30m")
	v.SetDefault("ATTACHMENT_UPLOAD_TIMEOUT", "20s")
	v.SetDefault("ATTACHMENT_STORE_CONCURRENCY", 4)
	v.SetDefault("ATTACHMENT_THUMBNAIL_SIZE", 320)
	v.SetDefault("ATTACHMENT_ORPHAN_GRACE", "1h")
	v.SetDefault("ATTACHMENT_SWEEP_INTERVAL", "6h")

	v.SetDefault("REAPER_WORKERS", 1)
	v.SetDefault("REAPER_MAX_RETRIES", 5)
	v.SetDefault("REAPER_RETRY_DELAY", "5s")
}

// isMissingFile reports whether viper failed because .env is absent; SetConfigFile bypasses
// ConfigFileNotFoundError and surfaces the raw fs error instead.
func isMissingFile(err error) bool {
	return errors.Is(err, fs.ErrNotExist)
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return d
}

func splitAndTrim(raw string) []string {
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}
