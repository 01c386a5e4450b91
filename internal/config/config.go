package config

import (
	"fmt"
	"log"

	"github.com/spf13/viper"
)

type Config struct {
	Port               string  `mapstructure:"PORT"`
	Env                string  `mapstructure:"ENV"`
	DatabaseURL        string  `mapstructure:"DATABASE_URL"`
	DBMaxConns         int32   `mapstructure:"DB_MAX_CONNS"`
	DBMinConns         int32   `mapstructure:"DB_MIN_CONNS"`
	SessionIssuer      string  `mapstructure:"SESSION_ISSUER"`
	SessionJWKSURL     string  `mapstructure:"SESSION_JWKS_URL"`
	SessionAudience    string  `mapstructure:"SESSION_AUDIENCE"`
	SessionSigningKey  string  `mapstructure:"SESSION_SIGNING_KEY"`
	GracePeriodDays    int     `mapstructure:"GRACE_PERIOD_DAYS"`
	ReminderWindowDays int     `mapstructure:"REMINDER_WINDOW_DAYS"`
	StoreTimeoutSecs   float64 `mapstructure:"STORE_TIMEOUT_SECONDS"`
	RequestTimeoutSecs float64 `mapstructure:"REQUEST_TIMEOUT_SECONDS"`
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("PORT", "8000")
	v.SetDefault("ENV", "development")
	v.SetDefault("DB_MAX_CONNS", 20)
	v.SetDefault("DB_MIN_CONNS", 5)
	v.SetDefault("GRACE_PERIOD_DAYS", 30)
	v.SetDefault("REMINDER_WINDOW_DAYS", 5)
	v.SetDefault("STORE_TIMEOUT_SECONDS", 5)
	v.SetDefault("REQUEST_TIMEOUT_SECONDS", 30)

	// Bind env vars explicitly so Unmarshal picks them up
	v.BindEnv("PORT")
	v.BindEnv("ENV")
	v.BindEnv("DATABASE_URL")
	v.BindEnv("DB_MAX_CONNS")
	v.BindEnv("DB_MIN_CONNS")
	v.BindEnv("SESSION_ISSUER")
	v.BindEnv("SESSION_JWKS_URL")
	v.BindEnv("SESSION_AUDIENCE")
	v.BindEnv("SESSION_SIGNING_KEY")
	v.BindEnv("GRACE_PERIOD_DAYS")
	v.BindEnv("REMINDER_WINDOW_DAYS")
	v.BindEnv("STORE_TIMEOUT_SECONDS")
	v.BindEnv("REQUEST_TIMEOUT_SECONDS")

	// Try reading .env file, but don't fail if missing
	_ = v.ReadInConfig()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	if cfg.IsDev() && cfg.SessionSigningKey == "" {
		log.Println("WARNING: ENV=development and no SESSION_SIGNING_KEY set.")
		log.Println("WARNING: The server will start but every request will be rejected as unauthenticated.")
	}

	return cfg, nil
}

func (c *Config) IsDev() bool {
	return c.Env == "development"
}

// IsProduction returns true when the server is configured for production mode.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// Validate checks that the configuration is safe to run. In production a
// remote JWKS endpoint (or issuer for discovery) must be configured; a shared
// HMAC signing key is accepted only in development.
func (c *Config) Validate() error {
	if c.IsProduction() && c.SessionJWKSURL == "" && c.SessionIssuer == "" {
		return fmt.Errorf(
			"SESSION_JWKS_URL or SESSION_ISSUER must be set in production. " +
				"Refusing to start with an unverifiable session token configuration")
	}
	if c.GracePeriodDays <= 0 {
		return fmt.Errorf("GRACE_PERIOD_DAYS must be positive, got %d", c.GracePeriodDays)
	}
	if c.ReminderWindowDays < 0 {
		return fmt.Errorf("REMINDER_WINDOW_DAYS must not be negative, got %d", c.ReminderWindowDays)
	}
	if c.StoreTimeoutSecs <= 0 {
		return fmt.Errorf("STORE_TIMEOUT_SECONDS must be positive, got %v", c.StoreTimeoutSecs)
	}
	return nil
}
