package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Port        string `mapstructure:"PORT"`
	Env         string `mapstructure:"ENV"`
	DatabaseURL string `mapstructure:"DATABASE_URL"`
	DBMaxConns  int32  `mapstructure:"DB_MAX_CONNS"`
	DBMinConns  int32  `mapstructure:"DB_MIN_CONNS"`

	AuthSigningKey string `mapstructure:"AUTH_SIGNING_KEY"`
	AuthIssuer     string `mapstructure:"AUTH_ISSUER"`
	AuthAudience   string `mapstructure:"AUTH_AUDIENCE"`

	KnowledgeBasePath string `mapstructure:"KNOWLEDGE_BASE_PATH"`

	GrantMinDurationHours int `mapstructure:"GRANT_MIN_DURATION_HOURS"`
	GrantMaxDurationHours int `mapstructure:"GRANT_MAX_DURATION_HOURS"`

	RateLimitRPS   float64 `mapstructure:"RATE_LIMIT_RPS"`
	RateLimitBurst int     `mapstructure:"RATE_LIMIT_BURST"`
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.AutomaticEnv()

	v.SetDefault("PORT", "8000")
	v.SetDefault("ENV", "development")
	v.SetDefault("DB_MAX_CONNS", 20)
	v.SetDefault("DB_MIN_CONNS", 5)
	v.SetDefault("KNOWLEDGE_BASE_PATH", "configs/knowledge_base.json")
	v.SetDefault("GRANT_MIN_DURATION_HOURS", 1)
	v.SetDefault("GRANT_MAX_DURATION_HOURS", 168)
	v.SetDefault("RATE_LIMIT_RPS", 100)
	v.SetDefault("RATE_LIMIT_BURST", 200)

	// Bind env vars explicitly so Unmarshal picks them up
	v.BindEnv("PORT")
	v.BindEnv("ENV")
	v.BindEnv("DATABASE_URL")
	v.BindEnv("DB_MAX_CONNS")
	v.BindEnv("DB_MIN_CONNS")
	v.BindEnv("AUTH_SIGNING_KEY")
	v.BindEnv("AUTH_ISSUER")
	v.BindEnv("AUTH_AUDIENCE")
	v.BindEnv("KNOWLEDGE_BASE_PATH")
	v.BindEnv("GRANT_MIN_DURATION_HOURS")
	v.BindEnv("GRANT_MAX_DURATION_HOURS")
	v.BindEnv("RATE_LIMIT_RPS")
	v.BindEnv("RATE_LIMIT_BURST")

	// Try reading .env file, but don't fail if missing
	_ = v.ReadInConfig()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	return cfg, nil
}

func (c *Config) IsDev() bool {
	return c.Env == "development"
}

func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// GrantMinDuration returns the lower bound for grant validity windows.
func (c *Config) GrantMinDuration() time.Duration {
	return time.Duration(c.GrantMinDurationHours) * time.Hour
}

// GrantMaxDuration returns the upper bound for grant validity windows.
func (c *Config) GrantMaxDuration() time.Duration {
	return time.Duration(c.GrantMaxDurationHours) * time.Hour
}

// Validate checks that the configuration is safe to run. Outside
// development a signing key must be present so real JWT authentication
// is enforced.
func (c *Config) Validate() error {
	if !c.IsDev() && c.AuthSigningKey == "" {
		return fmt.Errorf(
			"AUTH_SIGNING_KEY must be set when ENV=%q. "+
				"Refusing to start without authentication configuration", c.Env)
	}
	if c.AuthSigningKey != "" && len(c.AuthSigningKey) < 32 {
		return fmt.Errorf("AUTH_SIGNING_KEY must be at least 32 bytes, got %d", len(c.AuthSigningKey))
	}
	if c.GrantMinDurationHours < 1 {
		return fmt.Errorf("GRANT_MIN_DURATION_HOURS must be at least 1, got %d", c.GrantMinDurationHours)
	}
	if c.GrantMaxDurationHours < c.GrantMinDurationHours {
		return fmt.Errorf("GRANT_MAX_DURATION_HOURS (%d) must not be below GRANT_MIN_DURATION_HOURS (%d)",
			c.GrantMaxDurationHours, c.GrantMinDurationHours)
	}
	if c.KnowledgeBasePath == "" {
		return fmt.Errorf("KNOWLEDGE_BASE_PATH is required")
	}
	return nil
}
