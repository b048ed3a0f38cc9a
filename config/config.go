// Package config provides application configuration loading and the shared
// infrastructure clients (database, mailer, logging).
package config

import (
	"errors"
	"strings"

	"github.com/spf13/viper"
)

// Config holds application configuration values loaded from file or
// environment variables.
type Config struct {
	Environment string `mapstructure:"ENVIRONMENT"`
	ServerPort  string `mapstructure:"SERVER_PORT"`
	JWTSecret   string `mapstructure:"JWT_SECRET"`

	DBHost     string `mapstructure:"DB_HOST"`
	DBPort     string `mapstructure:"DB_PORT"`
	DBDatabase string `mapstructure:"DB_DATABASE"`
	DBUsername string `mapstructure:"DB_USERNAME"`
	DBPassword string `mapstructure:"DB_PASSWORD"`
	DebugSQL   bool   `mapstructure:"DEBUG_SQL"`

	SMTPHost          string `mapstructure:"SMTP_HOST"`
	SMTPPort          int    `mapstructure:"SMTP_PORT"`
	SMTPUser          string `mapstructure:"SMTP_USER"`
	SMTPPass          string `mapstructure:"SMTP_PASS"`
	SMTPFrom          string `mapstructure:"SMTP_FROM"`
	SMTPSkipTLSVerify bool   `mapstructure:"SMTP_SKIP_TLS_VERIFY"`

	RedisAddr string `mapstructure:"REDIS_ADDR"`
	SentryDSN string `mapstructure:"SENTRY_DSN"`

	S3Region    string `mapstructure:"S3_REGION"`
	S3Bucket    string `mapstructure:"S3_BUCKET"`
	S3AccessKey string `mapstructure:"S3_ACCESS_KEY"`
	S3SecretKey string `mapstructure:"S3_SECRET_KEY"`
	S3Endpoint  string `mapstructure:"S3_ENDPOINT"`

	TokenExpiryDays int    `mapstructure:"TOKEN_EXPIRY_DAYS"`
	MaxRenewalDays  int    `mapstructure:"MAX_RENEWAL_DAYS"`
	MaxAttachments  int    `mapstructure:"MAX_ATTACHMENTS"`
	MaxImageMB      int    `mapstructure:"MAX_IMAGE_MB"`
	MaxDocumentMB   int    `mapstructure:"MAX_DOCUMENT_MB"`
	PublishBaseURL  string `mapstructure:"PUBLISH_BASE_URL"`
	AuthorPortalURL string `mapstructure:"AUTHOR_PORTAL_URL"`
	AdminEmails     string `mapstructure:"ADMIN_EMAILS"`
}

// Load reads configuration from the environment (with .env already loaded by
// the entrypoint) and applies defaults.
func Load() (*Config, error) {
	viper.AutomaticEnv()

	viper.SetDefault("ENVIRONMENT", "development")
	viper.SetDefault("SERVER_PORT", "8080")
	viper.SetDefault("DB_HOST", "localhost")
	viper.SetDefault("DB_PORT", "3306")
	viper.SetDefault("DB_DATABASE", "editorial")
	viper.SetDefault("DB_USERNAME", "editorial")
	viper.SetDefault("SMTP_PORT", 587)
	viper.SetDefault("S3_REGION", "us-east-1")
	viper.SetDefault("S3_BUCKET", "editorial-uploads")
	viper.SetDefault("TOKEN_EXPIRY_DAYS", 30)
	viper.SetDefault("MAX_RENEWAL_DAYS", 90)
	viper.SetDefault("MAX_ATTACHMENTS", 10)
	viper.SetDefault("MAX_IMAGE_MB", 5)
	viper.SetDefault("MAX_DOCUMENT_MB", 10)
	viper.SetDefault("PUBLISH_BASE_URL", "http://localhost:3000")
	viper.SetDefault("AUTHOR_PORTAL_URL", "http://localhost:3000")

	// Bind the keys we read without a config file present.
	for _, key := range []string{
		"JWT_SECRET", "DB_PASSWORD", "DEBUG_SQL",
		"SMTP_HOST", "SMTP_USER", "SMTP_PASS", "SMTP_FROM", "SMTP_SKIP_TLS_VERIFY",
		"REDIS_ADDR", "SENTRY_DSN",
		"S3_ACCESS_KEY", "S3_SECRET_KEY", "S3_ENDPOINT",
		"ADMIN_EMAILS",
	} {
		_ = viper.BindEnv(key)
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate ensures required values are present.
func (c *Config) Validate() error {
	if c.JWTSecret == "" {
		return errors.New("JWT_SECRET is required")
	}
	if c.IsProduction() && c.JWTSecret == "change-me" {
		return errors.New("JWT_SECRET must be changed in production")
	}
	return nil
}

// IsProduction reports whether the app runs in production mode.
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Environment, "production")
}

// AdminEmailList splits the configured admin notification addresses.
func (c *Config) AdminEmailList() []string {
	if c.AdminEmails == "" {
		return nil
	}
	parts := strings.Split(c.AdminEmails, ",")
	emails := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			emails = append(emails, trimmed)
		}
	}
	return emails
}
