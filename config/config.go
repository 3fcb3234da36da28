// Package config loads runtime settings from the environment and opens the database.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"github.com/yeremiapane/notification-hub/utils"
)

type Config struct {
	Port     string
	GinMode  string
	DBDriver string
	DBDSN    string

	JWTSecret      string
	JWTIssuer      string
	JWTAudience    string
	AccessTokenTTL time.Duration
	AppTokenTTL    time.Duration

	AllowedOrigins []string
	LogLevel       string
	LogFormat      string

	RetentionInterval    time.Duration
	WSWriteTimeout       time.Duration
	WebhookRatePerMinute int
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("PORT", "8080")
	v.SetDefault("GIN_MODE", "debug")
	v.SetDefault("DB_DRIVER", "sqlite")
	v.SetDefault("DB_DSN", "notification_hub.db")
	v.SetDefault("JWT_SECRET", "")
	v.SetDefault("JWT_ISSUER", "notification-hub")
	v.SetDefault("JWT_AUDIENCE", "")
	v.SetDefault("ACCESS_TOKEN_TTL", "15m")
	v.SetDefault("APP_TOKEN_TTL", "720h")
	v.SetDefault("ALLOWED_ORIGINS", "*")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "text")
	v.SetDefault("RETENTION_INTERVAL", "1h")
	v.SetDefault("WS_WRITE_TIMEOUT", "10s")
	v.SetDefault("WEBHOOK_RATE_PER_MINUTE", 1000)
}

// Load reads an optional .env file and then the process environment.
// Environment variables win over .env entries.
func Load(envFiles ...string) (*Config, error) {
	// Missing .env is fine outside development.
	_ = godotenv.Load(envFiles...)

	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()

	cfg := &Config{
		Port:                 v.GetString("PORT"),
		GinMode:              v.GetString("GIN_MODE"),
		DBDriver:             strings.ToLower(v.GetString("DB_DRIVER")),
		DBDSN:                v.GetString("DB_DSN"),
		JWTSecret:            v.GetString("JWT_SECRET"),
		JWTIssuer:            v.GetString("JWT_ISSUER"),
		JWTAudience:          v.GetString("JWT_AUDIENCE"),
		AccessTokenTTL:       v.GetDuration("ACCESS_TOKEN_TTL"),
		AppTokenTTL:          v.GetDuration("APP_TOKEN_TTL"),
		AllowedOrigins:       splitList(v.GetString("ALLOWED_ORIGINS")),
		LogLevel:             v.GetString("LOG_LEVEL"),
		LogFormat:            v.GetString("LOG_FORMAT"),
		RetentionInterval:    v.GetDuration("RETENTION_INTERVAL"),
		WSWriteTimeout:       v.GetDuration("WS_WRITE_TIMEOUT"),
		WebhookRatePerMinute: v.GetInt("WEBHOOK_RATE_PER_MINUTE"),
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if len(c.JWTSecret) < 32 {
		return fmt.Errorf("JWT_SECRET must be at least 32 characters")
	}
	switch c.DBDriver {
	case "mysql", "postgres", "sqlite":
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q", c.DBDriver)
	}
	if c.AccessTokenTTL <= 0 {
		return fmt.Errorf("ACCESS_TOKEN_TTL must be positive")
	}
	if c.AppTokenTTL <= 0 {
		return fmt.Errorf("APP_TOKEN_TTL must be positive")
	}
	if c.RetentionInterval <= 0 {
		return fmt.Errorf("RETENTION_INTERVAL must be positive")
	}
	if c.WebhookRatePerMinute <= 0 {
		return fmt.Errorf("WEBHOOK_RATE_PER_MINUTE must be positive")
	}
	return nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// JWTManager builds the token signer for user and application tokens.
func (c *Config) JWTManager() *utils.JWTManager {
	return utils.NewJWTManager(c.JWTSecret, c.JWTIssuer, c.JWTAudience, c.AccessTokenTTL, c.AppTokenTTL)
}
