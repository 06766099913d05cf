package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"
)

const (
	EmailProviderResend = "resend"
	EmailProviderSES    = "ses"
)

type Config struct {
	HTTPAddr      string `env:"HTTP_ADDR" envDefault:":8080"`
	DatabaseURL   string `env:"DATABASE_URL,required"`
	RunMigrations bool   `env:"RUN_MIGRATIONS" envDefault:"false"`
	LogLevel      string `env:"LOG_LEVEL" envDefault:"info"`

	JWTSecret    string        `env:"JWT_SECRET,required"`
	JWTIssuer    string        `env:"JWT_ISSUER" envDefault:"catalance"`
	JWTExpiresIn time.Duration `env:"JWT_EXPIRES_IN" envDefault:"168h"`

	ResetTokenTTL           time.Duration `env:"RESET_TOKEN_TTL" envDefault:"1h"`
	ResetTokenSweepInterval time.Duration `env:"RESET_TOKEN_SWEEP_INTERVAL" envDefault:"0s"`
	FrontendURL             string        `env:"FRONTEND_URL" envDefault:"http://localhost:5173"`
	AppName                 string        `env:"APP_NAME" envDefault:"Catalance"`

	EmailProvider   string `env:"EMAIL_PROVIDER" envDefault:"resend"`
	ResendAPIKey    string `env:"RESEND_API_KEY"`
	ResendFromEmail string `env:"RESEND_FROM_EMAIL"`
	SESRegion       string `env:"SES_REGION" envDefault:"us-east-1"`
	SESFromEmail    string `env:"SES_FROM_EMAIL"`

	// Empty RedisURL keeps rate limiting in process memory.
	RedisURL          string   `env:"REDIS_URL"`
	AuthRateLimit     int      `env:"AUTH_RATE_LIMIT" envDefault:"20"`
	CORSAllowOrigins  []string `env:"CORS_ALLOW_ORIGINS" envSeparator:"," envDefault:"http://localhost:5173"`
	Argon2MemoryKiB   uint32   `env:"ARGON2_MEMORY_KIB" envDefault:"65536"`
	Argon2Iterations  uint32   `env:"ARGON2_TIME" envDefault:"1"`
	Argon2Parallelism uint8    `env:"ARGON2_THREADS" envDefault:"4"`
}

// Load reads an optional .env file and then the process environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	return Parse()
}

// Parse reads the configuration from the process environment only.
func Parse() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if strings.TrimSpace(c.DatabaseURL) == "" {
		return fmt.Errorf("DATABASE_URL must be set")
	}
	if strings.TrimSpace(c.JWTSecret) == "" {
		return fmt.Errorf("JWT_SECRET must be set")
	}
	c.EmailProvider = strings.ToLower(strings.TrimSpace(c.EmailProvider))
	switch c.EmailProvider {
	case EmailProviderResend, EmailProviderSES:
	default:
		return fmt.Errorf("invalid EMAIL_PROVIDER %q", c.EmailProvider)
	}
	if c.ResetTokenTTL <= 0 {
		return fmt.Errorf("RESET_TOKEN_TTL must be positive")
	}
	if c.ResetTokenSweepInterval < 0 {
		return fmt.Errorf("RESET_TOKEN_SWEEP_INTERVAL must not be negative")
	}
	if c.JWTExpiresIn <= 0 {
		return fmt.Errorf("JWT_EXPIRES_IN must be positive")
	}
	if c.AuthRateLimit <= 0 {
		return fmt.Errorf("AUTH_RATE_LIMIT must be positive")
	}
	return nil
}
