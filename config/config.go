package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// devSessionSecret is only accepted when ENV=development.
const devSessionSecret = "dev-insecure-secret"

type Config struct {
	Port        string `envconfig:"PORT" default:"8080"`
	Environment string `envconfig:"ENV" default:"development"`

	// Store
	DBDriver    string `envconfig:"DB_DRIVER" default:"mysql"`
	DBHost      string `envconfig:"DB_HOST" default:"127.0.0.1"`
	DBPort      string `envconfig:"DB_PORT" default:"3306"`
	DBUser      string `envconfig:"DB_USER"`
	DBPassword  string `envconfig:"DB_PASSWORD"`
	DBName      string `envconfig:"DB_NAME" default:"fundfinder"`
	DatabaseURL string `envconfig:"DATABASE_URL"`
	SQLitePath  string `envconfig:"SQLITE_PATH" default:"./data/fundfinder.db"`

	// Sessions
	SessionSecret       string `envconfig:"SESSION_SECRET" default:"dev-insecure-secret"`
	SessionDefaultHours int    `envconfig:"SESSION_DEFAULT_HOURS" default:"12"`
	SessionRememberDays int    `envconfig:"SESSION_REMEMBER_DAYS" default:"30"`

	// AI collaborator
	OpenAIKey     string `envconfig:"OPENAI_API_KEY"`
	OpenAIModel   string `envconfig:"OPENAI_MODEL" default:"gpt-4o-mini"`
	OpenAIBaseURL string `envconfig:"OPENAI_BASE_URL"`
	AITimeoutSec  int    `envconfig:"AI_TIMEOUT_SEC" default:"60"`

	// Search gate
	FreeDailyLimit int    `envconfig:"FREE_DAILY_LIMIT" default:"3"`
	UsageTimezone  string `envconfig:"USAGE_TIMEZONE" default:"UTC"`

	// Payments
	StripeSecretKey      string `envconfig:"STRIPE_SECRET_KEY"`
	StripeWebhookSecret  string `envconfig:"STRIPE_WEBHOOK_SECRET"`
	StripePriceID        string `envconfig:"STRIPE_PRICE_ID"`
	StripeProAmountCents int64  `envconfig:"STRIPE_PRO_AMOUNT_CENTS" default:"999"`
	StripeCurrency       string `envconfig:"STRIPE_CURRENCY" default:"usd"`
	StripeSuccessURL     string `envconfig:"STRIPE_SUCCESS_URL" default:"http://localhost:3000/payment-success?session_id={CHECKOUT_SESSION_ID}"`
	StripeCancelURL      string `envconfig:"STRIPE_CANCEL_URL" default:"http://localhost:3000/payment-cancelled"`

	// Email
	SMTPHost string `envconfig:"SMTP_HOST"`
	SMTPPort string `envconfig:"SMTP_PORT" default:"587"`
	SMTPUser string `envconfig:"SMTP_USER"`
	SMTPPass string `envconfig:"SMTP_PASS"`
	SMTPFrom string `envconfig:"SMTP_FROM"`

	CORSAllowedOrigins []string `envconfig:"CORS_ALLOWED_ORIGINS" default:"http://localhost:3000"`
	MarketingEnabled   bool     `envconfig:"MARKETING_ENABLED" default:"false"`
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	switch strings.ToLower(c.DBDriver) {
	case "mysql", "postgres", "sqlite":
		c.DBDriver = strings.ToLower(c.DBDriver)
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q", c.DBDriver)
	}
	if c.FreeDailyLimit < 0 {
		return fmt.Errorf("FREE_DAILY_LIMIT must be >= 0, got %d", c.FreeDailyLimit)
	}
	if _, err := time.LoadLocation(c.UsageTimezone); err != nil {
		return fmt.Errorf("invalid USAGE_TIMEZONE %q: %w", c.UsageTimezone, err)
	}
	if !c.IsDevelopment() && (c.SessionSecret == "" || c.SessionSecret == devSessionSecret) {
		return fmt.Errorf("SESSION_SECRET must be set when ENV=%s", c.Environment)
	}
	return nil
}

// AITimeout is the budget for one call to the AI collaborator.
func (c *Config) AITimeout() time.Duration {
	if c.AITimeoutSec <= 0 {
		return 60 * time.Second
	}
	return time.Duration(c.AITimeoutSec) * time.Second
}

func (c *Config) IsDevelopment() bool { return c.Environment == "development" }
