// Package daemon wires the bot process together: state store, tracker,
// scheduler, Telegram transport and the liveness endpoint.
package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dmolina/fichabot/internal/bot"
	"github.com/dmolina/fichabot/internal/checkin"
	"github.com/dmolina/fichabot/internal/config"
	"github.com/dmolina/fichabot/internal/logfields"
	"github.com/dmolina/fichabot/internal/scheduler"
	"github.com/dmolina/fichabot/internal/sesame"
	"github.com/dmolina/fichabot/internal/state"
)

// Daemon is the long-running bot process.
type Daemon struct {
	cfg       *config.Config
	tracker   *checkin.Tracker
	scheduler *scheduler.Scheduler
	bot       *bot.Bot
	liveness  *livenessServer
	metrics   *Metrics
}

// instrumentedNotifier counts reminder deliveries around the bot's
// notifier.
type instrumentedNotifier struct {
	next    scheduler.Notifier
	metrics *Metrics
}

func (n *instrumentedNotifier) SendReminder() error {
	err := n.next.SendReminder()
	if err == nil {
		n.metrics.remindersSent.Inc()
	}
	return err
}

// suppressionCounter lets the scheduler count skipped fires without
// depending on the metrics type.
type trackerWithMetrics struct {
	*checkin.Tracker
	metrics *Metrics
}

func (t *trackerWithMetrics) Done() bool {
	done := t.Tracker.Done()
	if done {
		t.metrics.remindersSuppress.Inc()
	}
	return done
}

// New builds the full daemon from configuration.
func New(cfg *config.Config) (*Daemon, error) {
	store, err := state.NewStore(cfg.DataDir, cfg.Location())
	if err != nil {
		return nil, err
	}

	client := sesame.NewClient(sesame.Options{
		BaseURL:    cfg.SesameBaseURL,
		Email:      cfg.SesameEmail,
		Password:   cfg.SesamePassword,
		EmployeeID: cfg.SesameEmployeeID,
		Timezone:   cfg.Timezone,
	})

	metrics := NewMetrics()
	tracker := checkin.NewTracker(store, client, cfg.Location())
	tracker.SetRecorder(metrics)

	d := &Daemon{
		cfg:     cfg,
		tracker: tracker,
		metrics: metrics,
	}

	// The scheduler needs the bot as notifier and the bot needs the
	// scheduler to stop reminders, so wire through a small indirection.
	var sched *scheduler.Scheduler
	stopper := stopperFunc(func() {
		if sched != nil {
			sched.StopReminders()
		}
	})

	b, err := bot.New(cfg.TelegramToken, cfg.TelegramChatID, tracker, stopper)
	if err != nil {
		return nil, fmt.Errorf("connecting Telegram bot: %w", err)
	}
	d.bot = b

	sched, err = scheduler.New(
		cfg.Schedule,
		cfg.Location(),
		&trackerWithMetrics{Tracker: tracker, metrics: metrics},
		&instrumentedNotifier{next: b, metrics: metrics},
	)
	if err != nil {
		return nil, err
	}
	d.scheduler = sched

	d.liveness = newLivenessServer(cfg.Port, metrics)
	return d, nil
}

type stopperFunc func()

func (f stopperFunc) StopReminders() { f() }

// Run starts everything and blocks until the context is cancelled, then
// shuts down gracefully. In-flight remote calls are abandoned; their
// results are simply never applied.
func (d *Daemon) Run(ctx context.Context) error {
	d.liveness.start()

	if err := d.scheduler.Start(); err != nil {
		return fmt.Errorf("starting scheduler: %w", err)
	}

	profile := "business"
	if d.cfg.Schedule.Rapid {
		profile = "rapid"
	}
	slog.Info("Bot running", slog.String("profile", profile), logfields.ChatID(d.cfg.TelegramChatID))

	err := d.bot.Run(ctx)
	if err != nil && !errors.Is(err, context.Canceled) {
		slog.Error("Bot polling stopped", logfields.Error(err))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if serr := d.scheduler.Stop(); serr != nil {
		slog.Error("Scheduler shutdown failed", logfields.Error(serr))
	}
	if lerr := d.liveness.stop(shutdownCtx); lerr != nil {
		slog.Error("Liveness server shutdown failed", logfields.Error(lerr))
	}

	slog.Info("Daemon stopped")
	return nil
}
