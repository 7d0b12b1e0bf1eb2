package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// TimeOfDay is a wall-clock time within the configured zone.
type TimeOfDay struct {
	Hour   int
	Minute int
}

// ParseTimeOfDay parses "HH:MM".
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	var t TimeOfDay
	if _, err := fmt.Sscanf(s, "%d:%d", &t.Hour, &t.Minute); err != nil {
		return t, fmt.Errorf("invalid time of day %q: %w", s, err)
	}
	if t.Hour < 0 || t.Hour > 23 || t.Minute < 0 || t.Minute > 59 {
		return t, fmt.Errorf("time of day %q out of range", s)
	}
	return t, nil
}

func (t TimeOfDay) String() string { return fmt.Sprintf("%02d:%02d", t.Hour, t.Minute) }

// Next returns the next occurrence of t after now, in now's location.
func (t TimeOfDay) Next(now time.Time) time.Time {
	at := time.Date(now.Year(), now.Month(), now.Day(), t.Hour, t.Minute, 0, 0, now.Location())
	if !at.After(now) {
		at = at.AddDate(0, 0, 1)
	}
	return at
}

// Schedule defines the reminder cadence for one operating profile.
type Schedule struct {
	// Rapid profile: first reminder after InitialDelay, then every Interval.
	Rapid         bool          `yaml:"rapid"`
	RapidDelay    time.Duration `yaml:"rapid_delay"`
	RapidInterval time.Duration `yaml:"rapid_interval"`

	// Business profile: one fixed reminder, then periodic retries.
	FirstReminder TimeOfDay     `yaml:"-"`
	RetryStart    TimeOfDay     `yaml:"-"`
	RetryInterval time.Duration `yaml:"retry_interval"`
	WeekdaysOnly  bool          `yaml:"weekdays_only"`
}

// DefaultSchedule mirrors the historical cadence: a 5s loop starting 10s in
// for the rapid profile, 07:30 Mon-Fri plus 10-minute retries from 07:40
// for business hours.
func DefaultSchedule(rapid bool) Schedule {
	return Schedule{
		Rapid:         rapid,
		RapidDelay:    10 * time.Second,
		RapidInterval: 5 * time.Second,
		FirstReminder: TimeOfDay{Hour: 7, Minute: 30},
		RetryStart:    TimeOfDay{Hour: 7, Minute: 40},
		RetryInterval: 10 * time.Minute,
		WeekdaysOnly:  true,
	}
}

// scheduleDoc is the YAML override document. Durations and times of day
// are strings ("5s", "07:30") so the file stays readable.
type scheduleDoc struct {
	Rapid         *bool   `yaml:"rapid"`
	RapidDelay    *string `yaml:"rapid_delay"`
	RapidInterval *string `yaml:"rapid_interval"`
	FirstReminder *string `yaml:"first_reminder"`
	RetryStart    *string `yaml:"retry_start"`
	RetryInterval *string `yaml:"retry_interval"`
	WeekdaysOnly  *bool   `yaml:"weekdays_only"`
}

func parseDuration(field, s string) (time.Duration, error) {
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", field, s, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("%s must be positive, got %q", field, s)
	}
	return d, nil
}

func (s *Schedule) loadOverrides(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading schedule file %s: %w", path, err)
	}

	var doc scheduleDoc
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("parsing schedule file %s: %w", path, err)
	}

	if doc.Rapid != nil {
		s.Rapid = *doc.Rapid
	}
	if doc.RapidDelay != nil {
		d, err := parseDuration("rapid_delay", *doc.RapidDelay)
		if err != nil {
			return err
		}
		s.RapidDelay = d
	}
	if doc.RapidInterval != nil {
		d, err := parseDuration("rapid_interval", *doc.RapidInterval)
		if err != nil {
			return err
		}
		s.RapidInterval = d
	}
	if doc.FirstReminder != nil {
		t, err := ParseTimeOfDay(*doc.FirstReminder)
		if err != nil {
			return err
		}
		s.FirstReminder = t
	}
	if doc.RetryStart != nil {
		t, err := ParseTimeOfDay(*doc.RetryStart)
		if err != nil {
			return err
		}
		s.RetryStart = t
	}
	if doc.RetryInterval != nil {
		d, err := parseDuration("retry_interval", *doc.RetryInterval)
		if err != nil {
			return err
		}
		s.RetryInterval = d
	}
	if doc.WeekdaysOnly != nil {
		s.WeekdaysOnly = *doc.WeekdaysOnly
	}
	return nil
}
