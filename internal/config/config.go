// Package config loads server settings from the environment.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"

	"github.com/ortrealty/ort/internal/auth"
	"github.com/ortrealty/ort/internal/db"
	"github.com/ortrealty/ort/internal/email"
	"github.com/ortrealty/ort/internal/valuation"
)

// Config is the full server configuration.
type Config struct {
	Server    Server
	SMTP      SMTP
	Valuation Valuation
}

// Server holds HTTP listener and storage settings.
type Server struct {
	Port       int    `env:"ORT_PORT" envDefault:"8080"`
	DBPath     string `env:"ORT_DB_PATH"`
	BaseURL    string `env:"ORT_BASE_URL" envDefault:"http://localhost:8080"`
	AdminEmail string `env:"ORT_ADMIN_EMAIL"`
	DevMode    bool   `env:"ORT_DEV_MODE"`
}

// SMTP holds outgoing mail settings for magic links.
type SMTP struct {
	Host string `env:"ORT_SMTP_HOST"`
	Port string `env:"ORT_SMTP_PORT" envDefault:"587"`
	User string `env:"ORT_SMTP_USER"`
	Pass string `env:"ORT_SMTP_PASS" json:"-"`
	From string `env:"ORT_SMTP_FROM"`
}

// Valuation configures the external estimate service.
type Valuation struct {
	Provider string        `env:"ORT_LLM_PROVIDER" envDefault:"openai"`
	APIKey   string        `env:"OPENAI_API_KEY" json:"-"`
	Model    string        `env:"ORT_LLM_MODEL"`
	BaseURL  string        `env:"ORT_LLM_BASE_URL"`
	Timeout  time.Duration `env:"ORT_VALUATION_TIMEOUT" envDefault:"5s"`
}

// Load reads an optional .env file, then parses the environment.
func Load() (Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("env.Parse: %w", err)
	}

	if cfg.Server.DBPath == "" {
		path, err := db.DefaultPath()
		if err != nil {
			return Config{}, err
		}
		cfg.Server.DBPath = path
	}
	cfg.Server.BaseURL = strings.TrimRight(cfg.Server.BaseURL, "/")
	cfg.Server.AdminEmail = strings.ToLower(strings.TrimSpace(cfg.Server.AdminEmail))

	if cfg.Valuation.Timeout <= 0 {
		return Config{}, fmt.Errorf("ORT_VALUATION_TIMEOUT must be positive, got %s", cfg.Valuation.Timeout)
	}

	return cfg, nil
}

// Mail returns the mailer settings.
func (c Config) Mail() auth.MailConfig {
	return auth.MailConfig{
		BaseURL:  c.Server.BaseURL,
		DevMode:  c.Server.DevMode,
		SMTPHost: c.SMTP.Host,
		SMTPPort: c.SMTP.Port,
		SMTPUser: c.SMTP.User,
		SMTPPass: c.SMTP.Pass,
		SMTPFrom: c.SMTP.From,
	}
}

// Outbox returns the SMTP settings for listing notifications.
func (c Config) Outbox() email.SMTPConfig {
	return email.SMTPConfig{
		Host: c.SMTP.Host,
		Port: c.SMTP.Port,
		User: c.SMTP.User,
		Pass: c.SMTP.Pass,
		From: c.SMTP.From,
	}
}

// Provider returns the valuation completer settings.
func (c Config) Provider() valuation.ProviderConfig {
	return valuation.ProviderConfig{
		Provider: c.Valuation.Provider,
		APIKey:   c.Valuation.APIKey,
		Model:    c.Valuation.Model,
		BaseURL:  c.Valuation.BaseURL,
	}
}

// Validate checks the settings needed to run the server.
func (c Config) Validate() error {
	if c.Server.AdminEmail == "" {
		return fmt.Errorf("ORT_ADMIN_EMAIL is required")
	}
	if !c.Server.DevMode && c.SMTP.Host == "" {
		return fmt.Errorf("ORT_SMTP_HOST is required unless ORT_DEV_MODE is set")
	}
	return nil
}
