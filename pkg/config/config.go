package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
)

// Environments
const (
	EnvDevelopment = "development"
	EnvStaging     = "staging"
	EnvProduction  = "production"
)

// Config holds all configuration for the application
// ⭐ SSOT: 모든 환경변수는 여기서만 읽음
type Config struct {
	// Server
	Port string
	Env  string // development, staging, production

	Database DatabaseConfig
	Redis    RedisConfig
	Engine   EngineConfig
	API      APIConfig

	// Logging
	LogLevel  string
	LogFormat string

	// Monitoring
	MetricsEnabled bool
}

// DatabaseConfig holds PostgreSQL configuration. Sessions are read-only.
type DatabaseConfig struct {
	URL string

	// Connection Pool
	MaxConns        int
	MinConns        int
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
}

// RedisConfig holds the response cache connection. Disabled means no dial at all.
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
	Enabled  bool
}

// EngineConfig holds aggregation engine settings
type EngineConfig struct {
	KRWUSDRate      float64 // KRW per USD, .KS/.KQ 티커 환산용
	MethodologyPath string  // 빈 값이면 기본 방법론 사용
	RequestTimeout  time.Duration
}

// APIConfig holds HTTP surface settings
type APIConfig struct {
	CacheTTL       time.Duration
	RateLimitRPS   float64 // 0 disables the limiter
	RateLimitBurst int
}

// Load reads configuration from environment variables.
// Malformed values are errors, never silent defaults.
// ⭐ SSOT: 이 함수만 os.Getenv()를 호출함
func Load() (*Config, error) {
	loadEnvFile()

	e := &env{lookup: os.LookupEnv}
	cfg := &Config{
		Port:           e.str("PORT", "8080"),
		Env:            e.str("ENV", EnvDevelopment),
		Database:       loadDatabase(e),
		Redis:          loadRedis(e),
		Engine:         loadEngine(e),
		API:            loadAPI(e),
		LogLevel:       e.str("LOG_LEVEL", "info"),
		LogFormat:      e.str("LOG_FORMAT", "json"),
		MetricsEnabled: e.boolean("METRICS_ENABLED", true),
	}

	if err := errors.Join(errors.Join(e.errs...), cfg.validate()); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

func loadDatabase(e *env) DatabaseConfig {
	return DatabaseConfig{
		URL:             e.str("DATABASE_URL", ""),
		MaxConns:        e.integer("DB_MAX_CONNS", 25),
		MinConns:        e.integer("DB_MIN_CONNS", 2),
		MaxConnLifetime: e.duration("DB_MAX_CONN_LIFETIME", time.Hour),
		MaxConnIdleTime: e.duration("DB_MAX_CONN_IDLE_TIME", 30*time.Minute),
	}
}

func loadRedis(e *env) RedisConfig {
	return RedisConfig{
		Host:     e.str("REDIS_HOST", "localhost"),
		Port:     e.str("REDIS_PORT", "6379"),
		Password: e.str("REDIS_PASSWORD", ""),
		DB:       e.integer("REDIS_DB", 0),
		Enabled:  e.boolean("REDIS_ENABLED", false),
	}
}

func loadEngine(e *env) EngineConfig {
	return EngineConfig{
		KRWUSDRate:      e.float("KRW_USD_RATE", 1450),
		MethodologyPath: e.str("METHODOLOGY_PATH", ""),
		RequestTimeout:  e.duration("REQUEST_TIMEOUT", 10*time.Second),
	}
}

func loadAPI(e *env) APIConfig {
	return APIConfig{
		CacheTTL:       e.duration("CACHE_TTL", time.Hour),
		RateLimitRPS:   e.float("RATE_LIMIT_RPS", 20),
		RateLimitBurst: e.integer("RATE_LIMIT_BURST", 40),
	}
}

// validate checks cross-field rules after every value parsed
func (c *Config) validate() error {
	var errs []error

	if c.Database.URL == "" {
		errs = append(errs, errors.New("DATABASE_URL is required"))
	}

	switch c.Env {
	case EnvDevelopment, EnvStaging, EnvProduction:
	default:
		errs = append(errs, fmt.Errorf("ENV must be one of: %s, %s, %s", EnvDevelopment, EnvStaging, EnvProduction))
	}

	if c.Database.MinConns > c.Database.MaxConns {
		errs = append(errs, fmt.Errorf("DB_MIN_CONNS (%d) exceeds DB_MAX_CONNS (%d)", c.Database.MinConns, c.Database.MaxConns))
	}
	if c.Engine.KRWUSDRate <= 0 {
		errs = append(errs, errors.New("KRW_USD_RATE must be positive"))
	}
	if c.Engine.RequestTimeout <= 0 {
		errs = append(errs, errors.New("REQUEST_TIMEOUT must be positive"))
	}
	if c.API.RateLimitRPS < 0 {
		errs = append(errs, errors.New("RATE_LIMIT_RPS must not be negative"))
	}

	return errors.Join(errs...)
}

// IsProduction reports whether the service runs in production
func (c *Config) IsProduction() bool {
	return c.Env == EnvProduction
}

// loadEnvFile loads the first .env found next to the working directory or the executable.
// Variables already set in the environment win.
func loadEnvFile() {
	paths := []string{".env"}
	if exe, err := os.Executable(); err == nil {
		exeDir := filepath.Dir(exe)
		paths = append(paths, filepath.Join(exeDir, ".env"), filepath.Join(exeDir, "..", ".env"))
	}

	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			_ = godotenv.Load(path)
			return
		}
	}
}
