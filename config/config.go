package config

import (
	"fmt"
	"log/slog"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config хранит все конфигурационные параметры приложения.
type Config struct {
	DatabaseURL  string
	JWTSecretKey string
	ServerPort   int
	LogLevel     slog.Level

	PublicBaseURL      string
	CORSAllowedOrigins []string
	TrustedProxies     []string

	RedisURL string
	CacheTTL time.Duration

	R2AccountID       string
	R2AccessKeyID     string
	R2SecretAccessKey string
	R2BucketName      string
	R2PublicBaseURL   string

	SMTPHost string
	SMTPPort int
	SMTPUser string
	SMTPPass string
	SMTPFrom string

	AdminEmail        string
	AdminPasswordHash string

	SignupRateLimit  int
	SignupRateWindow time.Duration

	CalendarName    string
	DefaultLocation string

	DispatchWorkers int
}

// UploadsEnabled: настроен ли блок R2.
func (c *Config) UploadsEnabled() bool {
	return c.R2AccountID != ""
}

// MailEnabled: настроена ли отправка через SMTP.
func (c *Config) MailEnabled() bool {
	return c.SMTPHost != ""
}

// Load загружает конфигурацию из переменных окружения.
// Опционально подгружает .env файл (полезно для локальной разработки).
func Load() (*Config, error) {
	_ = godotenv.Load()

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		return nil, fmt.Errorf("DATABASE_URL environment variable is not set")
	}

	jwtKey := os.Getenv("JWT_SECRET_KEY")
	if jwtKey == "" {
		return nil, fmt.Errorf("JWT_SECRET_KEY environment variable is not set")
	}

	port, err := intFromEnv("SERVER_PORT", 8080)
	if err != nil {
		return nil, err
	}
	if port <= 0 || port > 65535 {
		return nil, fmt.Errorf("SERVER_PORT must be between 1 and 65535, got %d", port)
	}

	level, err := parseLogLevel(getEnvOrDefault("LOG_LEVEL", "info"))
	if err != nil {
		return nil, err
	}

	cacheTTL, err := durationFromEnv("CACHE_TTL", 5*time.Minute)
	if err != nil {
		return nil, err
	}

	smtpPort, err := intFromEnv("SMTP_PORT", 587)
	if err != nil {
		return nil, err
	}

	rateLimit, err := intFromEnv("SIGNUP_RATE_LIMIT", 5)
	if err != nil {
		return nil, err
	}
	if rateLimit <= 0 {
		return nil, fmt.Errorf("SIGNUP_RATE_LIMIT must be positive, got %d", rateLimit)
	}

	rateWindow, err := durationFromEnv("SIGNUP_RATE_WINDOW", 5*time.Minute)
	if err != nil {
		return nil, err
	}

	workers, err := intFromEnv("DISPATCH_WORKERS", 4)
	if err != nil {
		return nil, err
	}
	if workers <= 0 {
		return nil, fmt.Errorf("DISPATCH_WORKERS must be positive, got %d", workers)
	}

	cfg := &Config{
		DatabaseURL:  dbURL,
		JWTSecretKey: jwtKey,
		ServerPort:   port,
		LogLevel:     level,

		PublicBaseURL:      strings.TrimRight(getEnvOrDefault("PUBLIC_BASE_URL", "http://localhost:3000"), "/"),
		CORSAllowedOrigins: splitList(getEnvOrDefault("CORS_ALLOWED_ORIGINS", "*")),
		TrustedProxies:     splitList(os.Getenv("TRUSTED_PROXIES")),

		RedisURL: os.Getenv("REDIS_URL"),
		CacheTTL: cacheTTL,

		R2AccountID:       os.Getenv("R2_ACCOUNT_ID"),
		R2AccessKeyID:     os.Getenv("R2_ACCESS_KEY_ID"),
		R2SecretAccessKey: os.Getenv("R2_SECRET_ACCESS_KEY"),
		R2BucketName:      os.Getenv("R2_BUCKET_NAME"),
		R2PublicBaseURL:   os.Getenv("R2_PUBLIC_BASE_URL"),

		SMTPHost: os.Getenv("SMTP_HOST"),
		SMTPPort: smtpPort,
		SMTPUser: os.Getenv("SMTP_USER"),
		SMTPPass: os.Getenv("SMTP_PASS"),
		SMTPFrom: os.Getenv("SMTP_FROM"),

		AdminEmail:        os.Getenv("ADMIN_EMAIL"),
		AdminPasswordHash: os.Getenv("ADMIN_PASSWORD_HASH"),

		SignupRateLimit:  rateLimit,
		SignupRateWindow: rateWindow,

		CalendarName:    getEnvOrDefault("CALENDAR_NAME", "JAX Darts Bar Event"),
		DefaultLocation: getEnvOrDefault("DEFAULT_LOCATION", "JAX Darts Bar"),

		DispatchWorkers: workers,
	}

	if err := cfg.validateR2(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// R2 настраивается либо целиком, либо никак.
func (c *Config) validateR2() error {
	fields := map[string]string{
		"R2_ACCOUNT_ID":        c.R2AccountID,
		"R2_ACCESS_KEY_ID":     c.R2AccessKeyID,
		"R2_SECRET_ACCESS_KEY": c.R2SecretAccessKey,
		"R2_BUCKET_NAME":       c.R2BucketName,
		"R2_PUBLIC_BASE_URL":   c.R2PublicBaseURL,
	}
	var missing []string
	set := 0
	for name, value := range fields {
		if value == "" {
			missing = append(missing, name)
		} else {
			set++
		}
	}
	if set > 0 && len(missing) > 0 {
		sort.Strings(missing)
		return fmt.Errorf("incomplete R2 configuration, missing: %s", strings.Join(missing, ", "))
	}
	return nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func intFromEnv(key string, defaultValue int) (int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s environment variable: %w", key, err)
	}
	return v, nil
}

func durationFromEnv(key string, defaultValue time.Duration) (time.Duration, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s environment variable: %w", key, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("%s must be positive, got %s", key, d)
	}
	return d, nil
}

func parseLogLevel(raw string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(raw)); err != nil {
		return slog.LevelInfo, fmt.Errorf("invalid LOG_LEVEL %q: %w", raw, err)
	}
	return level, nil
}

func splitList(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

