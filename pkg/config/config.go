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

// Document store backends selectable through STORE_BACKEND.
const (
	StoreMemory    = "memory"
	StoreFirestore = "firestore"
	StorePostgres  = "postgres"
	StoreMongo     = "mongo"
)

type Config struct {
	Env       string
	Port      int
	APIPrefix string
	Timezone  string

	Store     StoreConfig
	Firestore FirestoreConfig
	Database  DatabaseConfig
	Mongo     MongoConfig
	Redis     RedisConfig
	JWT       JWTConfig
	CORS      CORSConfig
	Log       LogConfig
	Crypto    CryptoConfig
	QR        QRConfig
	Cache     CacheConfig
	Exports   ExportsConfig
}

// StoreConfig selects the hierarchical document store implementation.
type StoreConfig struct {
	Backend       string
	RedisNotifier bool
}

type FirestoreConfig struct {
	ProjectID       string
	CredentialsFile string
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

type MongoConfig struct {
	URI        string
	Database   string
	Collection string
}

// Name returns the database name, defaulting to class_control.
func (m MongoConfig) Name() string {
	if m.Database == "" {
		return "class_control"
	}
	return m.Database
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

type JWTConfig struct {
	Secret     string
	Expiration time.Duration
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// CryptoConfig carries the hex encoded AES-256 key used for QR payloads and contact data.
type CryptoConfig struct {
	Key string
}

// QRConfig tunes the login handoff sessions and the self check-in links.
type QRConfig struct {
	SessionTTL     time.Duration
	CleanupDelay   time.Duration
	RetryDelay     time.Duration
	CheckInBaseURL string
}

type CacheConfig struct {
	Enabled bool
	TTL     time.Duration
}

// ExportsConfig configures asynchronous overview exports.
type ExportsConfig struct {
	StorageDir        string
	SignedURLSecret   string
	SignedURLTTL      time.Duration
	CleanupInterval   time.Duration
	WorkerConcurrency int
	WorkerRetries     int
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
	cfg.Timezone = v.GetString("APP_TIMEZONE")

	cfg.Store = StoreConfig{
		Backend:       strings.ToLower(strings.TrimSpace(v.GetString("STORE_BACKEND"))),
		RedisNotifier: v.GetBool("ENABLE_REDIS_NOTIFIER"),
	}

	cfg.Firestore = FirestoreConfig{
		ProjectID:       v.GetString("FIRESTORE_PROJECT_ID"),
		CredentialsFile: v.GetString("GOOGLE_APPLICATION_CREDENTIALS"),
	}

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

	cfg.Mongo = MongoConfig{
		URI:        v.GetString("MONGO_URI"),
		Database:   v.GetString("MONGO_DATABASE"),
		Collection: v.GetString("MONGO_COLLECTION"),
	}

	cfg.Redis = RedisConfig{
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.JWT = JWTConfig{
		Secret:     v.GetString("JWT_SECRET"),
		Expiration: parseDuration(v.GetString("JWT_EXPIRATION"), 24*time.Hour),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Crypto = CryptoConfig{Key: strings.TrimSpace(v.GetString("CRYPTO_KEY"))}

	cfg.QR = QRConfig{
		SessionTTL:     parseDuration(v.GetString("QR_SESSION_TTL"), 10*time.Minute),
		CleanupDelay:   parseDuration(v.GetString("QR_CLEANUP_DELAY"), 10*time.Second),
		RetryDelay:     parseDuration(v.GetString("QR_RETRY_DELAY"), 2*time.Second),
		CheckInBaseURL: strings.TrimRight(v.GetString("CHECKIN_BASE_URL"), "/"),
	}

	cfg.Cache = CacheConfig{
		Enabled: v.GetBool("ENABLE_CACHE"),
		TTL:     parseDuration(v.GetString("CACHE_TTL"), 5*time.Minute),
	}

	cfg.Exports = ExportsConfig{
		StorageDir:        v.GetString("EXPORTS_STORAGE_DIR"),
		SignedURLSecret:   v.GetString("EXPORTS_SIGNED_URL_SECRET"),
		SignedURLTTL:      parseDuration(v.GetString("EXPORTS_SIGNED_URL_TTL"), 24*time.Hour),
		CleanupInterval:   parseDuration(v.GetString("EXPORTS_CLEANUP_INTERVAL"), time.Hour),
		WorkerConcurrency: v.GetInt("EXPORTS_WORKER_CONCURRENCY"),
		WorkerRetries:     v.GetInt("EXPORTS_WORKER_RETRIES"),
	}

	return cfg, nil
}

// Location resolves the configured timezone, falling back to UTC when it cannot be loaded.
func (c *Config) Location() *time.Location {
	if c == nil || c.Timezone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api/v1")
	v.SetDefault("APP_TIMEZONE", "America/Sao_Paulo")

	v.SetDefault("STORE_BACKEND", StoreMemory)
	v.SetDefault("ENABLE_REDIS_NOTIFIER", false)
	v.SetDefault("FIRESTORE_PROJECT_ID", "")
	v.SetDefault("GOOGLE_APPLICATION_CREDENTIALS", "")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "class_control")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	v.SetDefault("MONGO_URI", "mongodb://localhost:27017")
	v.SetDefault("MONGO_DATABASE", "class_control")
	v.SetDefault("MONGO_COLLECTION", "documents")

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("JWT_SECRET", "dev_secret")
	v.SetDefault("JWT_EXPIRATION", "24h")

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("CRYPTO_KEY", "")
	v.SetDefault("QR_SESSION_TTL", "10m")
	v.SetDefault("QR_CLEANUP_DELAY", "10s")
	v.SetDefault("QR_RETRY_DELAY", "2s")
	v.SetDefault("CHECKIN_BASE_URL", "http://localhost:5173")

	v.SetDefault("ENABLE_CACHE", false)
	v.SetDefault("CACHE_TTL", "5m")

	v.SetDefault("EXPORTS_STORAGE_DIR", "./exports")
	v.SetDefault("EXPORTS_SIGNED_URL_SECRET", "dev_exports_secret")
	v.SetDefault("EXPORTS_SIGNED_URL_TTL", "24h")
	v.SetDefault("EXPORTS_CLEANUP_INTERVAL", "1h")
	v.SetDefault("EXPORTS_WORKER_CONCURRENCY", 1)
	v.SetDefault("EXPORTS_WORKER_RETRIES", 3)
}

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
