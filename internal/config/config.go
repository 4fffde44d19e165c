package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config aggregates runtime configuration for the service.
type Config struct {
	App          AppConfig
	Postgres     PostgresConfig
	Redis        RedisConfig
	Logger       LoggerConfig
	Auth         AuthConfig
	Storage      StorageConfig
	Notification NotificationConfig
}

// AppConfig controls server level behavior.
type AppConfig struct {
	Name                  string
	Env                   string
	Host                  string
	Port                  string
	Version               string
	RequestTimeoutSeconds int
	BodyLimitMB           int
}

// PostgresConfig holds DB connection values.
type PostgresConfig struct {
	DSN            string
	MaxConns       int32
	MinConns       int32
	RunMigrations  bool
	MigrationsDir  string
	ConnMaxIdleSec int32
	ConnMaxLifeSec int32
}

// RedisConfig holds Redis connection values. An empty Addr disables Redis.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level string
	// Format is "json" or "console".
	Format  string
	Service string
	Env     string
}

// AuthConfig defines authentication parameters.
type AuthConfig struct {
	JWTSecret             string
	AccessTokenTTLMinutes int
	BcryptCost            int
}

// StorageDriver selects the attachment blob backend.
type StorageDriver string

const (
	StorageDriverLocal StorageDriver = "local"
	StorageDriverS3    StorageDriver = "s3"
)

// StorageConfig configures attachment blob storage.
type StorageConfig struct {
	Driver      StorageDriver
	LocalRoot   string
	S3Bucket    string
	S3Region    string
	S3Endpoint  string
	S3PathStyle bool
}

// NotificationConfig holds stub notification endpoints.
type NotificationConfig struct {
	EmailFrom  string
	WebhookURL string
}

// Load reads configuration from environment variables, applying defaults where possible.
func Load() (*Config, error) {
	_ = godotenv.Load()

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	cfg := &Config{
		App: AppConfig{
			Name:                  getEnv("APP_NAME", "it-helpdesk"),
			Env:                   getEnv("APP_ENV", "development"),
			Host:                  getEnv("APP_HOST", "0.0.0.0"),
			Port:                  getEnv("APP_PORT", "8080"),
			Version:               getEnv("APP_VERSION", "dev"),
			RequestTimeoutSeconds: getEnvAsInt("HTTP_REQUEST_TIMEOUT_SECONDS", 30),
			BodyLimitMB:           getEnvAsInt("HTTP_BODY_LIMIT_MB", 16),
		},
		Postgres: PostgresConfig{
			DSN:            os.Getenv("POSTGRES_DSN"),
			MaxConns:       int32(getEnvAsInt("POSTGRES_MAX_CONNS", 10)),
			MinConns:       int32(getEnvAsInt("POSTGRES_MIN_CONNS", 2)),
			RunMigrations:  getEnvAsBool("POSTGRES_RUN_MIGRATIONS", true),
			MigrationsDir:  getEnv("POSTGRES_MIGRATIONS_DIR", "migrations"),
			ConnMaxIdleSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_IDLE_SECONDS", 30)),
			ConnMaxLifeSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_LIFE_SECONDS", 300)),
		},
		Redis: RedisConfig{
			Addr:     os.Getenv("REDIS_ADDR"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       redisDB,
		},
		Logger: LoggerConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: strings.ToLower(getEnv("LOG_FORMAT", "json")),
		},
		Auth: AuthConfig{
			JWTSecret:             getEnv("AUTH_JWT_SECRET", "dev-secret"),
			AccessTokenTTLMinutes: getEnvAsInt("AUTH_ACCESS_TOKEN_TTL_MINUTES", 60),
			BcryptCost:            getEnvAsInt("AUTH_BCRYPT_COST", 12),
		},
		Storage: StorageConfig{
			Driver:      StorageDriver(strings.ToLower(getEnv("STORAGE_DRIVER", string(StorageDriverLocal)))),
			LocalRoot:   getEnv("STORAGE_LOCAL_ROOT", "storage/app/public"),
			S3Bucket:    os.Getenv("AWS_S3_BUCKET"),
			S3Region:    getEnv("AWS_REGION", "us-east-1"),
			S3Endpoint:  os.Getenv("S3_ENDPOINT_URL"),
			S3PathStyle: getEnvAsBool("S3_USE_PATH_STYLE", false),
		},
		Notification: NotificationConfig{
			EmailFrom:  getEnv("NOTIFY_EMAIL_FROM", "noreply@servicedesk.local"),
			WebhookURL: getEnv("NOTIFY_WEBHOOK_URL", ""),
		},
	}

	cfg.Logger.Service = cfg.App.Name
	cfg.Logger.Env = cfg.App.Env

	if err := cfg.Storage.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Addr returns the HTTP bind address.
func (a AppConfig) Addr() string {
	return fmt.Sprintf("%s:%s", a.Host, a.Port)
}

// RequestTimeout returns the configured request timeout duration.
func (a AppConfig) RequestTimeout() time.Duration {
	if a.RequestTimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(a.RequestTimeoutSeconds) * time.Second
}

// BodyLimit returns the maximum accepted request body in bytes.
func (a AppConfig) BodyLimit() int {
	if a.BodyLimitMB <= 0 {
		return 16 * 1024 * 1024
	}
	return a.BodyLimitMB * 1024 * 1024
}

func (s StorageConfig) validate() error {
	switch s.Driver {
	case StorageDriverLocal:
		if s.LocalRoot == "" {
			return fmt.Errorf("STORAGE_LOCAL_ROOT required for local storage")
		}
	case StorageDriverS3:
		if s.S3Bucket == "" {
			return fmt.Errorf("AWS_S3_BUCKET required for s3 storage")
		}
	default:
		return fmt.Errorf("invalid STORAGE_DRIVER %q", s.Driver)
	}
	return nil
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvAsBool(key string, fallback bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(val)
	if err != nil {
		return fallback
	}
	return parsed
}
