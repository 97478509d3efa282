package config

import (
	"log"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

type Config struct {
	Port           string
	DatabaseURL    string
	GatewayToken   string
	AllowedOrigins []string
	LogSQL         bool

	NATSURL string

	ProfileSyncURL      string
	ProfileSyncToken    string
	ProfileSyncInterval time.Duration

	DailyResetCron     string
	Location           *time.Location
	StreakCountSameDay bool
	DefaultDailyGoal   int64

	RetryMaxAttempts int
	RetryBaseDelay   time.Duration
}

// New returns a viper instance with every default registered and the
// environment bound. Values in .env (if present) are loaded first.
func New() *viper.Viper {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(errors.Cause(err)) {
		log.Printf("⚠️  [CONFIG] could not read .env: %v", err)
	}

	v := viper.New()
	v.SetTypeByDefaultValue(true)
	v.SetDefault("PORT", "5200")
	v.SetDefault("DATABASE_URL", "")
	v.SetDefault("GATEWAY_TOKEN", "")
	v.SetDefault("ALLOWED_ORIGINS", "http://localhost:3000")
	v.SetDefault("LOG_SQL", false)
	v.SetDefault("NATS_URL", "")
	v.SetDefault("PROFILE_SYNC_URL", "")
	v.SetDefault("PROFILE_SYNC_TOKEN", "")
	v.SetDefault("PROFILE_SYNC_INTERVAL", time.Minute)
	v.SetDefault("DAILY_RESET_CRON", "0 0 * * *")
	v.SetDefault("TIMEZONE", "UTC")
	v.SetDefault("STREAK_COUNT_SAME_DAY", true)
	v.SetDefault("DEFAULT_DAILY_GOAL", int64(50))
	v.SetDefault("RETRY_MAX_ATTEMPTS", 3)
	v.SetDefault("RETRY_BASE_DELAY", 100*time.Millisecond)
	v.AutomaticEnv()
	return v
}

// Load builds a Config from v.
func Load(v *viper.Viper) (*Config, error) {
	loc, err := time.LoadLocation(v.GetString("TIMEZONE"))
	if err != nil {
		return nil, errors.Wrapf(err, "invalid TIMEZONE %q", v.GetString("TIMEZONE"))
	}

	cfg := &Config{
		Port:                v.GetString("PORT"),
		DatabaseURL:         v.GetString("DATABASE_URL"),
		GatewayToken:        v.GetString("GATEWAY_TOKEN"),
		AllowedOrigins:      splitList(v.GetString("ALLOWED_ORIGINS")),
		LogSQL:              v.GetBool("LOG_SQL"),
		NATSURL:             v.GetString("NATS_URL"),
		ProfileSyncURL:      v.GetString("PROFILE_SYNC_URL"),
		ProfileSyncToken:    v.GetString("PROFILE_SYNC_TOKEN"),
		ProfileSyncInterval: v.GetDuration("PROFILE_SYNC_INTERVAL"),
		DailyResetCron:      v.GetString("DAILY_RESET_CRON"),
		Location:            loc,
		StreakCountSameDay:  v.GetBool("STREAK_COUNT_SAME_DAY"),
		DefaultDailyGoal:    v.GetInt64("DEFAULT_DAILY_GOAL"),
		RetryMaxAttempts:    v.GetInt("RETRY_MAX_ATTEMPTS"),
		RetryBaseDelay:      v.GetDuration("RETRY_BASE_DELAY"),
	}

	if cfg.DefaultDailyGoal <= 0 {
		return nil, errors.Errorf("DEFAULT_DAILY_GOAL must be positive, got %d", cfg.DefaultDailyGoal)
	}
	if cfg.RetryMaxAttempts < 1 {
		cfg.RetryMaxAttempts = 1
	}
	if cfg.ProfileSyncInterval <= 0 {
		cfg.ProfileSyncInterval = time.Minute
	}
	return cfg, nil
}

// RequireServer checks the settings the HTTP server cannot start without.
func (c *Config) RequireServer() error {
	if c.DatabaseURL == "" {
		return errors.New("DATABASE_URL environment variable not set")
	}
	if c.GatewayToken == "" {
		return errors.New("GATEWAY_TOKEN environment variable not set")
	}
	if c.ProfileSyncURL != "" && c.ProfileSyncToken == "" {
		return errors.New("PROFILE_SYNC_TOKEN must be set when PROFILE_SYNC_URL is")
	}
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
