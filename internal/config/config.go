package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config aggregates runtime configuration for the service.
type Config struct {
	App      AppConfig
	Postgres PostgresConfig
	Redis    RedisConfig
	Logger   LoggerConfig
	Identity IdentityConfig
	Auth     AuthConfig
}

// AppConfig controls server level behavior.
type AppConfig struct {
	Name                  string
	Env                   string
	Host                  string
	Port                  string
	Version               string
	RequestTimeoutSeconds int
}

// PostgresConfig holds DB connection values.
type PostgresConfig struct {
	DSN            string
	MaxConns       int32
	MinConns       int32
	RunMigrations  bool
	ConnMaxIdleSec int32
	ConnMaxLifeSec int32
}

// RedisConfig holds Redis connection values.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level string
}

// IdentityConfig describes the external identity provider boundary.
type IdentityConfig struct {
	Issuer              string
	JWKSURL             string
	Audience            string
	KeyCacheTTLMinutes  int
	FetchTimeoutSeconds int
}

// AuthConfig defines authentication and provisioning parameters.
type AuthConfig struct {
	AutoProvision   bool
	DevBypass       bool
	SessionTTLHours int
	BcryptCost      int
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
			Name:                  getEnv("APP_NAME", "trainer-service"),
			Env:                   getEnv("APP_ENV", "development"),
			Host:                  getEnv("APP_HOST", "0.0.0.0"),
			Port:                  getEnv("APP_PORT", "8080"),
			Version:               getEnv("APP_VERSION", "dev"),
			RequestTimeoutSeconds: getEnvAsInt("HTTP_REQUEST_TIMEOUT_SECONDS", 30),
		},
		Postgres: PostgresConfig{
			DSN:            os.Getenv("POSTGRES_DSN"),
			MaxConns:       int32(getEnvAsInt("POSTGRES_MAX_CONNS", 10)),
			MinConns:       int32(getEnvAsInt("POSTGRES_MIN_CONNS", 2)),
			RunMigrations:  getEnvAsBool("POSTGRES_RUN_MIGRATIONS", true),
			ConnMaxIdleSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_IDLE_SECONDS", 30)),
			ConnMaxLifeSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_LIFE_SECONDS", 300)),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "127.0.0.1:6379"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       redisDB,
		},
		Logger: LoggerConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		Identity: IdentityConfig{
			Issuer:              getEnv("IDENTITY_ISSUER", ""),
			JWKSURL:             getEnv("IDENTITY_JWKS_URL", ""),
			Audience:            getEnv("IDENTITY_AUDIENCE", ""),
			KeyCacheTTLMinutes:  getEnvAsInt("IDENTITY_KEY_CACHE_TTL_MINUTES", 15),
			FetchTimeoutSeconds: getEnvAsInt("IDENTITY_FETCH_TIMEOUT_SECONDS", 5),
		},
		Auth: AuthConfig{
			AutoProvision:   getEnvAsBool("AUTH_AUTO_PROVISION", true),
			DevBypass:       getEnvAsBool("AUTH_DEV_BYPASS", false),
			SessionTTLHours: getEnvAsInt("AUTH_SESSION_TTL_HOURS", 168),
			BcryptCost:      getEnvAsInt("AUTH_BCRYPT_COST", 10),
		},
	}

	// The bypass gate must be impossible to enable in production posture.
	if cfg.App.IsProduction() && cfg.Auth.DevBypass {
		return nil, fmt.Errorf("AUTH_DEV_BYPASS must not be set when APP_ENV=production")
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

// IsProduction reports whether the process runs in production posture.
func (a AppConfig) IsProduction() bool {
	return a.Env == "production"
}

// KeyCacheTTL returns the issuer key cache lifetime.
func (i IdentityConfig) KeyCacheTTL() time.Duration {
	if i.KeyCacheTTLMinutes <= 0 {
		return 15 * time.Minute
	}
	return time.Duration(i.KeyCacheTTLMinutes) * time.Minute
}

// FetchTimeout returns the issuer key fetch timeout.
func (i IdentityConfig) FetchTimeout() time.Duration {
	if i.FetchTimeoutSeconds <= 0 {
		return 5 * time.Second
	}
	return time.Duration(i.FetchTimeoutSeconds) * time.Second
}

// SessionTTL returns the server-side session lifetime.
func (a AuthConfig) SessionTTL() time.Duration {
	if a.SessionTTLHours <= 0 {
		return 168 * time.Hour
	}
	return time.Duration(a.SessionTTLHours) * time.Hour
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
