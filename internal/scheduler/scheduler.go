// Package scheduler arms the reminder and daily-reset jobs. It wraps
// gocron and owns the lifecycle of the reminder jobs: they are removed
// once the day is handled and re-armed by the midnight reset.
package scheduler

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/google/uuid"

	"github.com/dmolina/fichabot/internal/config"
	"github.com/dmolina/fichabot/internal/logfields"
)

// Tracker is the slice of the check-in state machine the scheduler needs.
type Tracker interface {
	Done() bool
	Reset()
}

// Notifier delivers a reminder prompt to the user.
type Notifier interface {
	SendReminder() error
}

// Scheduler drives the reminder cadence and the midnight reset for one
// operating profile.
type Scheduler struct {
	gocron   gocron.Scheduler
	tracker  Tracker
	notifier Notifier
	sched    config.Schedule
	loc      *time.Location

	mu           sync.Mutex
	reminderJobs []uuid.UUID

	now func() time.Time
}

// New creates a scheduler pinned to the given zone.
func New(sched config.Schedule, loc *time.Location, tracker Tracker, notifier Notifier) (*Scheduler, error) {
	gs, err := gocron.NewScheduler(gocron.WithLocation(loc))
	if err != nil {
		return nil, fmt.Errorf("creating gocron scheduler: %w", err)
	}
	return &Scheduler{
		gocron:   gs,
		tracker:  tracker,
		notifier: notifier,
		sched:    sched,
		loc:      loc,
		now:      time.Now,
	}, nil
}

// Start arms the reminder jobs and the daily reset, then begins firing.
func (s *Scheduler) Start() error {
	if err := s.armReminders(); err != nil {
		return err
	}

	_, err := s.gocron.NewJob(
		gocron.DailyJob(1, gocron.NewAtTimes(gocron.NewAtTime(0, 0, 0))),
		gocron.NewTask(s.dailyReset),
		gocron.WithName("daily-reset"),
	)
	if err != nil {
		return fmt.Errorf("creating daily reset job: %w", err)
	}

	s.gocron.Start()
	slog.Info("Scheduler started", slog.Bool("rapid", s.sched.Rapid))
	return nil
}

// Stop shuts the scheduler down, abandoning any jobs still queued.
func (s *Scheduler) Stop() error {
	slog.Info("Stopping scheduler")
	return s.gocron.Shutdown()
}

// armReminders creates the reminder jobs for the configured profile.
func (s *Scheduler) armReminders() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.sched.Rapid {
		firstAt := s.now().In(s.loc).Add(s.sched.RapidDelay)
		job, err := s.gocron.NewJob(
			gocron.DurationJob(s.sched.RapidInterval),
			gocron.NewTask(s.fireReminder),
			gocron.WithName("reminder-rapid"),
			gocron.WithStartAt(gocron.WithStartDateTime(firstAt)),
		)
		if err != nil {
			return fmt.Errorf("creating rapid reminder job: %w", err)
		}
		s.reminderJobs = append(s.reminderJobs, job.ID())
		return nil
	}

	first, err := s.gocron.NewJob(
		gocron.WeeklyJob(1,
			gocron.NewWeekdays(time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday),
			gocron.NewAtTimes(gocron.NewAtTime(uint(s.sched.FirstReminder.Hour), uint(s.sched.FirstReminder.Minute), 0)),
		),
		gocron.NewTask(s.fireReminder),
		gocron.WithName("reminder-first"),
	)
	if err != nil {
		return fmt.Errorf("creating first reminder job: %w", err)
	}
	s.reminderJobs = append(s.reminderJobs, first.ID())

	retryStart := s.sched.RetryStart.Next(s.now().In(s.loc))
	retry, err := s.gocron.NewJob(
		gocron.DurationJob(s.sched.RetryInterval),
		gocron.NewTask(s.fireReminder),
		gocron.WithName("reminder-retry"),
		gocron.WithStartAt(gocron.WithStartDateTime(retryStart)),
	)
	if err != nil {
		return fmt.Errorf("creating retry reminder job: %w", err)
	}
	s.reminderJobs = append(s.reminderJobs, retry.ID())
	return nil
}

// fireReminder runs on every reminder tick. The state check comes first:
// once the day is handled the jobs remove themselves and nothing is sent,
// including fires already queued when confirmation landed.
func (s *Scheduler) fireReminder() {
	if s.tracker.Done() {
		s.StopReminders()
		return
	}
	if s.sched.WeekdaysOnly && !s.sched.Rapid && isWeekend(s.now().In(s.loc)) {
		return
	}
	if err := s.notifier.SendReminder(); err != nil {
		slog.Error("Failed to send reminder", logfields.Job("reminder"), logfields.Error(err))
	}
}

// dailyReset runs at midnight: clear yesterday's outcome and re-arm the
// reminder jobs for the new day.
func (s *Scheduler) dailyReset() {
	slog.Info("Running daily reset", logfields.Job("daily-reset"))
	s.tracker.Reset()
	s.StopReminders()
	if err := s.armReminders(); err != nil {
		slog.Error("Failed to re-arm reminders after reset", logfields.Error(err))
	}
}

// StopReminders removes all active reminder jobs. Safe to call when none
// are armed.
func (s *Scheduler) StopReminders() {
	s.mu.Lock()
	jobs := s.reminderJobs
	s.reminderJobs = nil
	s.mu.Unlock()

	for _, id := range jobs {
		if err := s.gocron.RemoveJob(id); err != nil {
			slog.Debug("Reminder job already gone", logfields.Job(id.String()), logfields.Error(err))
		}
	}
	if len(jobs) > 0 {
		slog.Info("Reminder jobs stopped", slog.Int("count", len(jobs)))
	}
}

// jobIDs returns the active reminder job IDs.
func (s *Scheduler) jobIDs() []uuid.UUID {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]uuid.UUID(nil), s.reminderJobs...)
}

func isWeekend(t time.Time) bool {
	wd := t.Weekday()
	return wd == time.Saturday || wd == time.Sunday
}
