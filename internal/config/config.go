package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

// Config holds the runtime configuration loaded from the environment.
type Config struct {
	Env  string
	Port string

	DBHost       string
	DBPort       string
	DBUser       string
	DBPassword   string
	DBName       string
	DBSSLMode    string
	DBMaxRetries int

	RedisAddr   string
	KafkaBroker string

	JWTSecret string
	JWTIssuer string
	JWTTTL    time.Duration

	UploadDir      string
	UploadMaxBytes int64

	CORSAllowedOrigins []string
	LoginRatePerSec    float64
	LoginRateBurst     int

	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
}

const devJWTSecret = "dev-signing-secret-change"

// Load reads .env when present and builds the config with defaults.
func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := Config{
		Env:  getEnv("APP_ENV", "development"),
		Port: getEnv("PORT", "5000"),

		DBHost:       getEnv("DB_HOST", "localhost"),
		DBPort:       getEnv("DB_PORT", "5432"),
		DBUser:       getEnv("DB_USER", "postgres"),
		DBPassword:   getEnv("DB_PASSWORD", "postgres"),
		DBName:       getEnv("DB_NAME", "ems"),
		DBSSLMode:    getEnv("DB_SSLMODE", "disable"),
		DBMaxRetries: intEnv("DB_MAX_RETRIES", 5),

		RedisAddr:   os.Getenv("REDIS_ADDR"),
		KafkaBroker: os.Getenv("KAFKA_BROKER"),

		JWTSecret: getEnv("JWT_SECRET", ""),
		JWTIssuer: getEnv("JWT_ISSUER", "go-ems"),
		JWTTTL:    durationEnv("JWT_TTL", 24*time.Hour),

		UploadDir:      getEnv("UPLOAD_DIR", "uploads"),
		UploadMaxBytes: int64(intEnv("UPLOAD_MAX_BYTES", 5<<20)),

		CORSAllowedOrigins: listEnv("CORS_ALLOWED_ORIGINS", []string{"*"}),
		LoginRatePerSec:    floatEnv("LOGIN_RATE_PER_SEC", 0.2),
		LoginRateBurst:     intEnv("LOGIN_RATE_BURST", 5),

		ReadTimeout:     durationEnv("HTTP_READ_TIMEOUT", 15*time.Second),
		WriteTimeout:    durationEnv("HTTP_WRITE_TIMEOUT", 30*time.Second),
		IdleTimeout:     durationEnv("HTTP_IDLE_TIMEOUT", 60*time.Second),
		ShutdownTimeout: durationEnv("SHUTDOWN_TIMEOUT", 10*time.Second),
	}

	if cfg.JWTSecret == "" {
		if cfg.IsProduction() {
			return Config{}, errors.New("JWT_SECRET is required in production")
		}
		cfg.JWTSecret = devJWTSecret
	}
	if cfg.UploadMaxBytes <= 0 {
		return Config{}, fmt.Errorf("UPLOAD_MAX_BYTES must be positive, got %d", cfg.UploadMaxBytes)
	}

	return cfg, nil
}

func (c Config) IsProduction() bool {
	return c.Env == "production" || c.Env == "prod"
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func durationEnv(key string, fallback time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		d, err := time.ParseDuration(val)
		if err != nil {
			zap.L().Warn("invalid duration, using fallback",
				zap.String("key", key),
				zap.Duration("fallback", fallback),
				zap.Error(err),
			)
			return fallback
		}
		return d
	}
	return fallback
}

func intEnv(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		parsed, err := strconv.Atoi(val)
		if err != nil {
			zap.L().Warn("invalid int, using fallback", zap.String("key", key), zap.Int("fallback", fallback))
			return fallback
		}
		return parsed
	}
	return fallback
}

func floatEnv(key string, fallback float64) float64 {
	if val := os.Getenv(key); val != "" {
		parsed, err := strconv.ParseFloat(val, 64)
		if err != nil {
			zap.L().Warn("invalid float, using fallback", zap.String("key", key), zap.Float64("fallback", fallback))
			return fallback
		}
		return parsed
	}
	return fallback
}

func listEnv(key string, fallback []string) []string {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(val, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}
