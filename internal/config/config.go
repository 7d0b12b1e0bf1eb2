// Package config loads the immutable process configuration from the
// environment. Credentials are required and abort startup when missing;
// everything else has working defaults.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"
)

// Config holds all process-wide settings. Loaded once at startup and
// read-only thereafter.
type Config struct {
	// Telegram transport
	TelegramToken  string `env:"TELEGRAM_TOKEN"`
	TelegramChatID int64  `env:"TELEGRAM_CHAT_ID"`

	// Sesame time-tracking service
	SesameEmail      string `env:"SESAME_EMAIL"`
	SesamePassword   string `env:"SESAME_PASSWORD"`
	SesameEmployeeID string `env:"SESAME_EMPLOYEE_ID"`
	SesameBaseURL    string `env:"SESAME_BASE_URL" envDefault:"https://back-eu1.sesametime.com/api/v3"`

	// Operating profile: rapid short-interval reminders for verification,
	// business-hours cadence otherwise.
	DebugMode bool `env:"DEBUG_MODE" envDefault:"true"`

	// Liveness endpoint
	Port int `env:"PORT" envDefault:"8000"`

	// Fixed zone for all calendar-date decisions.
	Timezone string `env:"TIMEZONE" envDefault:"Europe/Madrid"`

	// Directory holding state.json and history.json.
	DataDir string `env:"DATA_DIR" envDefault:"."`

	// Optional YAML file overriding the reminder cadence.
	ScheduleFile string `env:"SCHEDULE_FILE" envDefault:""`

	Schedule Schedule       `env:"-"`
	location *time.Location `env:"-"`
}

// Load reads the optional .env file, parses the environment and validates
// required credentials. envFile may be empty or point at a missing file;
// only a malformed file is an error.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("loading env file %s: %w", envFile, err)
		}
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parsing environment: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid TIMEZONE %q: %w", cfg.Timezone, err)
	}
	cfg.location = loc

	cfg.Schedule = DefaultSchedule(cfg.DebugMode)
	if cfg.ScheduleFile != "" {
		if err := cfg.Schedule.loadOverrides(cfg.ScheduleFile); err != nil {
			return nil, err
		}
	}

	return cfg, nil
}

// Location returns the configured timezone.
func (c *Config) Location() *time.Location { return c.location }

func (c *Config) validate() error {
	var missing []string
	if c.TelegramToken == "" {
		missing = append(missing, "TELEGRAM_TOKEN")
	}
	if c.TelegramChatID == 0 {
		missing = append(missing, "TELEGRAM_CHAT_ID")
	}
	if c.SesameEmail == "" {
		missing = append(missing, "SESAME_EMAIL")
	}
	if c.SesamePassword == "" {
		missing = append(missing, "SESAME_PASSWORD")
	}
	if c.SesameEmployeeID == "" {
		missing = append(missing, "SESAME_EMPLOYEE_ID")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required configuration: %s", strings.Join(missing, ", "))
	}
	return nil
}
