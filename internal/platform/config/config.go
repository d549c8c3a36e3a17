package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Addr                 string
	DatabaseURL          string
	JWTSecret            string
	TokenTTL             time.Duration
	DataEncryptionKey    string
	FrontendDir          string
	Environment          string
	LogLevel             string
	Timezone             string
	CorporateDomain      string
	SeedAdminEmail       string
	SeedAdminPassword    string
	SeedAdminEmployeeID  string
	AllowSelfSignup      bool
	EmailFrom            string
	EmailEnabled         bool
	SMTPHost             string
	SMTPPort             int
	SMTPUser             string
	SMTPPassword         string
	SMTPUseTLS           bool
	RunMigrations        bool
	RunSeed              bool
	MaxBodyBytes         int64
	RateLimitPerMinute   int
	RedisAddr            string
	RedisPassword        string
	RedisDB              int
	AbsenceSweepSchedule string
	ShutdownTimeout      time.Duration
}

var defaults = map[string]any{
	"APP_ADDR":               ":8080",
	"DATABASE_URL":           "",
	"JWT_SECRET":             "",
	"TOKEN_TTL":              "24h",
	"DATA_ENCRYPTION_KEY":    "",
	"FRONTEND_DIR":           "frontend/dist",
	"APP_ENV":                "development",
	"LOG_LEVEL":              "info",
	"APP_TIMEZONE":           "UTC",
	"CORPORATE_DOMAIN":       "odoodo.com",
	"SEED_ADMIN_EMAIL":       "",
	"SEED_ADMIN_PASSWORD":    "",
	"SEED_ADMIN_EMPLOYEE_ID": "ADM001",
	"ALLOW_SELF_SIGNUP":      true,
	"EMAIL_FROM":             "no-reply@odoodo.com",
	"EMAIL_ENABLED":          false,
	"SMTP_HOST":              "",
	"SMTP_PORT":              587,
	"SMTP_USER":              "",
	"SMTP_PASSWORD":          "",
	"SMTP_USE_TLS":           true,
	"RUN_MIGRATIONS":         true,
	"RUN_SEED":               true,
	"MAX_BODY_BYTES":         8 * 1024 * 1024,
	"RATE_LIMIT_PER_MINUTE":  120,
	"REDIS_ADDR":             "",
	"REDIS_PASSWORD":         "",
	"REDIS_DB":               0,
	"ABSENCE_SWEEP_SCHEDULE": "",
	"SHUTDOWN_TIMEOUT":       "15s",
}

// Load reads .env (if present), an optional config file and the process
// environment, in increasing order of precedence.
func Load() Config {
	if err := godotenv.Load(); err != nil {
		slog.Debug("no .env file loaded", "err", err)
	}

	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.SetConfigName("config")
	v.SetConfigType("yml")
	v.AddConfigPath(".")
	v.AutomaticEnv()
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			slog.Warn("config file ignored", "err", err)
		}
	}

	return fromViper(v)
}

func fromViper(v *viper.Viper) Config {
	return Config{
		Addr:                 v.GetString("APP_ADDR"),
		DatabaseURL:          v.GetString("DATABASE_URL"),
		JWTSecret:            v.GetString("JWT_SECRET"),
		TokenTTL:             v.GetDuration("TOKEN_TTL"),
		DataEncryptionKey:    v.GetString("DATA_ENCRYPTION_KEY"),
		FrontendDir:          v.GetString("FRONTEND_DIR"),
		Environment:          v.GetString("APP_ENV"),
		LogLevel:             v.GetString("LOG_LEVEL"),
		Timezone:             v.GetString("APP_TIMEZONE"),
		CorporateDomain:      strings.ToLower(strings.TrimSpace(v.GetString("CORPORATE_DOMAIN"))),
		SeedAdminEmail:       v.GetString("SEED_ADMIN_EMAIL"),
		SeedAdminPassword:    v.GetString("SEED_ADMIN_PASSWORD"),
		SeedAdminEmployeeID:  v.GetString("SEED_ADMIN_EMPLOYEE_ID"),
		AllowSelfSignup:      v.GetBool("ALLOW_SELF_SIGNUP"),
		EmailFrom:            v.GetString("EMAIL_FROM"),
		EmailEnabled:         v.GetBool("EMAIL_ENABLED"),
		SMTPHost:             v.GetString("SMTP_HOST"),
		SMTPPort:             v.GetInt("SMTP_PORT"),
		SMTPUser:             v.GetString("SMTP_USER"),
		SMTPPassword:         v.GetString("SMTP_PASSWORD"),
		SMTPUseTLS:           v.GetBool("SMTP_USE_TLS"),
		RunMigrations:        v.GetBool("RUN_MIGRATIONS"),
		RunSeed:              v.GetBool("RUN_SEED"),
		MaxBodyBytes:         v.GetInt64("MAX_BODY_BYTES"),
		RateLimitPerMinute:   v.GetInt("RATE_LIMIT_PER_MINUTE"),
		RedisAddr:            v.GetString("REDIS_ADDR"),
		RedisPassword:        v.GetString("REDIS_PASSWORD"),
		RedisDB:              v.GetInt("REDIS_DB"),
		AbsenceSweepSchedule: v.GetString("ABSENCE_SWEEP_SCHEDULE"),
		ShutdownTimeout:      v.GetDuration("SHUTDOWN_TIMEOUT"),
	}
}

// Location resolves the company timezone used to decide what "today" is.
func (c Config) Location() (*time.Location, error) {
	name := strings.TrimSpace(c.Timezone)
	if name == "" {
		return time.UTC, nil
	}
	return time.LoadLocation(name)
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.DatabaseURL) == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if strings.TrimSpace(c.JWTSecret) == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	if c.Environment == "production" {
		if len(c.JWTSecret) < 32 {
			return fmt.Errorf("JWT_SECRET must be at least 32 characters in production")
		}
		if strings.TrimSpace(c.DataEncryptionKey) == "" {
			return fmt.Errorf("DATA_ENCRYPTION_KEY must be set in production for encryption at rest")
		}
	}
	if c.TokenTTL <= 0 {
		return fmt.Errorf("TOKEN_TTL must be positive")
	}
	if _, err := c.Location(); err != nil {
		return fmt.Errorf("APP_TIMEZONE is invalid: %w", err)
	}
	if c.CorporateDomain == "" {
		return fmt.Errorf("CORPORATE_DOMAIN is required")
	}
	if c.MaxBodyBytes < 1024 {
		return fmt.Errorf("MAX_BODY_BYTES must be at least 1024")
	}
	if c.RateLimitPerMinute <= 0 {
		return fmt.Errorf("RATE_LIMIT_PER_MINUTE must be positive")
	}
	if c.EmailEnabled && c.SMTPHost == "" {
		return fmt.Errorf("SMTP_HOST must be set when EMAIL_ENABLED is true")
	}
	return nil
}
