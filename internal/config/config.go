// Package config reads service settings from the environment.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config holds every runtime setting
type Config struct {
	Port        string `envconfig:"PORT" default:"8080"`
	Environment string `envconfig:"ENVIRONMENT" default:"development"`
	// Set by the Railway platform; its presence implies production
	RailwayEnvironment string `envconfig:"RAILWAY_ENVIRONMENT"`
	LogLevel           string `envconfig:"LOG_LEVEL" default:"info"`
	APIKey             string `envconfig:"API_KEY"`

	// WhatsApp session
	SessionDir           string        `envconfig:"WA_SESSION_DIR" default:".wa_session"`
	SessionDirProduction string        `envconfig:"WA_SESSION_DIR_PRODUCTION" default:"/data/wa_session"`
	SettleDelay          time.Duration `envconfig:"WA_SETTLE_DELAY" default:"2s"`
	QRTerminal           bool          `envconfig:"WA_QR_TERMINAL" default:"true"`
	WatchdogInterval     time.Duration `envconfig:"WA_WATCHDOG_INTERVAL" default:"1m"`

	// Import pacing
	DelayMin   time.Duration `envconfig:"IMPORT_DELAY_MIN" default:"5s"`
	DelayMax   time.Duration `envconfig:"IMPORT_DELAY_MAX" default:"15s"`
	LedgerPath string        `envconfig:"RESULTS_CSV" default:"results.csv"`

	// History storage: "memory", "postgres" or "sqlite"
	StoreDriver string `envconfig:"STORE_DRIVER" default:"memory"`
	DatabaseURL string `envconfig:"DATABASE_URL"`
	SQLitePath  string `envconfig:"SQLITE_PATH" default:"history.db"`

	// Optional event relay
	RedisURL     string `envconfig:"REDIS_URL"`
	RedisChannel string `envconfig:"REDIS_CHANNEL" default:"wa-group-importer:events"`

	// Optional completion notices
	TwilioAccountSID string        `envconfig:"TWILIO_ACCOUNT_SID"`
	TwilioAuthToken  string        `envconfig:"TWILIO_AUTH_TOKEN"`
	TwilioFrom       string        `envconfig:"TWILIO_WHATSAPP_FROM"`
	NotifyTo         []string      `envconfig:"NOTIFY_WHATSAPP_TO"`
	WebhookURL       string        `envconfig:"NOTIFY_WEBHOOK_URL"`
	WebhookTimeout   time.Duration `envconfig:"NOTIFY_WEBHOOK_TIMEOUT" default:"10s"`
}

// LoadDotEnv loads .env, falling back to environments/.env.development.
// It reports whether either file was found.
func LoadDotEnv() bool {
	if err := godotenv.Load(".env"); err == nil {
		return true
	}
	return godotenv.Load("environments/.env.development") == nil
}

// Load reads the configuration from the environment
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.DelayMin < 0 || c.DelayMax < c.DelayMin {
		return fmt.Errorf("invalid import delay range %s-%s", c.DelayMin, c.DelayMax)
	}
	if c.SettleDelay < 0 {
		return fmt.Errorf("WA_SETTLE_DELAY must not be negative")
	}
	if c.WatchdogInterval < 0 {
		return fmt.Errorf("WA_WATCHDOG_INTERVAL must not be negative")
	}

	switch c.StoreDriver {
	case "memory", "sqlite":
	case "postgres":
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required for the postgres store")
		}
	default:
		return fmt.Errorf("unknown STORE_DRIVER %q", c.StoreDriver)
	}

	if c.TwilioEnabled() && len(c.NotifyTo) == 0 {
		return fmt.Errorf("NOTIFY_WHATSAPP_TO is required when Twilio is configured")
	}
	return nil
}

// IsProduction reports whether the service runs in a production deployment
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Environment, "production") || c.RailwayEnvironment != ""
}

// CredentialDir is where the WhatsApp device keys are kept
func (c *Config) CredentialDir() string {
	if c.IsProduction() {
		return c.SessionDirProduction
	}
	return c.SessionDir
}

// TwilioEnabled reports whether completion notices go out over Twilio
func (c *Config) TwilioEnabled() bool {
	return c.TwilioAccountSID != "" && c.TwilioAuthToken != "" && c.TwilioFrom != ""
}
