package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Database  DatabaseConfig
	Server    ServerConfig
	Security  SecurityConfig
	Auth      AuthConfig
	RateLimit RateLimitConfig
}

type DatabaseConfig struct {
	Host              string
	Port              int
	User              string
	Password          string
	Name              string
	SSLMode           string
	MaxConns          int32
	MinConns          int32
	MaxConnLifetime   time.Duration
	MaxConnIdleTime   time.Duration
	HealthCheckPeriod time.Duration
}

type ServerConfig struct {
	Port           string
	Env            string
	LogLevel       string
	AppURL         string
	AllowedOrigins []string
	TrustedProxies []string
}

type SecurityConfig struct {
	CSRFSecret       string
	CSRFTokenTTL     time.Duration
	ReplayCacheLimit int
	RequireCSRF      bool
	CSPScriptNonce   bool
}

type AuthConfig struct {
	JWTSecret           string
	AccessTokenExpiry   time.Duration
	SessionTTL          time.Duration
	MaxLoginAttempts    int
	LockoutWindow       time.Duration
	TimingDelayBaseMs   int
	TimingDelayRandomMs int
}

type RateLimitConfig struct {
	DefaultWindow time.Duration
	DefaultMax    int
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	csrfSecret := getEnv("CSRF_SECRET", "")
	if csrfSecret == "" {
		return nil, fmt.Errorf("CSRF_SECRET is required")
	}

	jwtSecret := getEnv("JWT_SECRET", "")
	if jwtSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}

	env := getEnv("ENV", "development")
	appURL := getEnv("APP_URL", "http://localhost:3000")

	cfg := &Config{
		Database: DatabaseConfig{
			Host:              getEnv("DB_HOST", "localhost"),
			Port:              getEnvAsInt("DB_PORT", 5432),
			User:              getEnv("DB_USER", "postgres"),
			Password:          getEnv("DB_PASSWORD", ""),
			Name:              getEnv("DB_NAME", "gatekeeper"),
			SSLMode:           getEnv("DB_SSLMODE", "disable"),
			MaxConns:          int32(getEnvAsInt("DB_MAX_CONNS", 25)),
			MinConns:          int32(getEnvAsInt("DB_MIN_CONNS", 5)),
			MaxConnLifetime:   getEnvAsDuration("DB_MAX_CONN_LIFETIME", 5*time.Minute),
			MaxConnIdleTime:   getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", 1*time.Minute),
			HealthCheckPeriod: getEnvAsDuration("DB_HEALTH_CHECK_PERIOD", 1*time.Minute),
		},
		Server: ServerConfig{
			Port:           getEnv("PORT", "8080"),
			Env:            env,
			LogLevel:       getEnv("LOG_LEVEL", "info"),
			AppURL:         appURL,
			AllowedOrigins: parseAllowedOrigins(appURL, env),
			TrustedProxies: parseCSV(getEnv("TRUSTED_PROXIES", "")),
		},
		Security: SecurityConfig{
			CSRFSecret:       csrfSecret,
			CSRFTokenTTL:     getEnvAsDuration("CSRF_TOKEN_TTL", 1*time.Hour),
			ReplayCacheLimit: getEnvAsInt("CSRF_REPLAY_CACHE_LIMIT", 10000),
			RequireCSRF:      getEnvAsBool("REQUIRE_CSRF", true),
			CSPScriptNonce:   getEnvAsBool("CSP_SCRIPT_NONCE", false),
		},
		Auth: AuthConfig{
			JWTSecret:           jwtSecret,
			AccessTokenExpiry:   getEnvAsDuration("ACCESS_TOKEN_EXPIRY", 15*time.Minute),
			SessionTTL:          getEnvAsDuration("SESSION_TTL", 24*time.Hour),
			MaxLoginAttempts:    getEnvAsInt("MAX_LOGIN_ATTEMPTS", 5),
			LockoutWindow:       getEnvAsDuration("LOCKOUT_WINDOW", 15*time.Minute),
			TimingDelayBaseMs:   getEnvAsInt("TIMING_DELAY_BASE_MS", 100),
			TimingDelayRandomMs: getEnvAsInt("TIMING_DELAY_RANDOM_MS", 100),
		},
		RateLimit: RateLimitConfig{
			DefaultWindow: getEnvAsDuration("RATE_LIMIT_WINDOW", 15*time.Minute),
			DefaultMax:    getEnvAsInt("RATE_LIMIT_MAX", 100),
		},
	}

	if cfg.Database.Password == "" {
		return nil, fmt.Errorf("DB_PASSWORD is required")
	}

	// Both signing secrets must meet minimum strength
	if err := validateSecret("CSRF_SECRET", csrfSecret, env); err != nil {
		return nil, err
	}
	if err := validateSecret("JWT_SECRET", jwtSecret, env); err != nil {
		return nil, err
	}

	return cfg, nil
}

// validateSecret enforces minimum security standards for signing secrets
func validateSecret(name, secret, env string) error {
	minLength := 16 // Development minimum
	if env == "production" {
		minLength = 32 // Production requires 256 bits
	}

	if len(secret) < minLength {
		return fmt.Errorf("%s must be at least %d characters in %s environment (got %d)",
			name, minLength, env, len(secret))
	}

	weakSecrets := []string{
		"secret", "test", "password", "12345", "changeme",
		"admin", "root", "default", "example",
	}

	secretLower := strings.ToLower(secret)
	for _, weak := range weakSecrets {
		if secretLower == weak {
			return fmt.Errorf("%s cannot be a common weak value", name)
		}
	}

	return nil
}

func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode,
	)
}

func getEnv(key, defaultVal string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultVal
}

func getEnvAsInt(key string, defaultVal int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultVal
}

func getEnvAsBool(key string, defaultVal bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultVal
}

func getEnvAsDuration(key string, defaultVal time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultVal
}

func parseCSV(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	for i, p := range parts {
		parts[i] = strings.TrimSpace(p)
	}
	return parts
}

// parseAllowedOrigins builds the origin allow-list: the configured app URL
// plus explicit localhost variants outside production
func parseAllowedOrigins(appURL, env string) []string {
	origins := []string{strings.TrimRight(appURL, "/")}

	if env == "production" {
		if extra := getEnv("ALLOWED_ORIGINS", ""); extra != "" {
			for _, origin := range strings.Split(extra, ",") {
				origins = append(origins, strings.TrimSpace(origin))
			}
		}
		return origins
	}

	// Development: allow localhost variants
	for _, o := range []string{
		"http://localhost:3000",
		"http://localhost:8080",
		"http://localhost:5173", // Vite default
		"http://127.0.0.1:3000",
		"http://127.0.0.1:8080",
		"http://127.0.0.1:5173",
	} {
		if o != origins[0] {
			origins = append(origins, o)
		}
	}
	return origins
}
