package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alecthomas/kong"

	"github.com/dmolina/fichabot/internal/checkin"
	"github.com/dmolina/fichabot/internal/config"
	"github.com/dmolina/fichabot/internal/daemon"
	"github.com/dmolina/fichabot/internal/sesame"
	"github.com/dmolina/fichabot/internal/state"
)

var CLI struct {
	EnvFile string `short:"e" help:"Environment file to load" default:".env"`
	Verbose bool   `short:"v" help:"Enable verbose logging"`

	Run struct{} `cmd:"" default:"1" help:"Run the bot daemon: reminders, Telegram commands and the liveness endpoint"`

	Checkin struct{} `cmd:"" help:"Perform today's check-in once from the terminal"`

	Status struct{} `cmd:"" help:"Print today's check-in state"`

	History struct{} `cmd:"" help:"Print the recorded check-in history"`
}

func main() {
	ctx := kong.Parse(&CLI)

	// Set up logging
	logLevel := slog.LevelInfo
	if CLI.Verbose {
		logLevel = slog.LevelDebug
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	cfg, err := config.Load(CLI.EnvFile)
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	switch ctx.Command() {
	case "run":
		if err := runDaemon(cfg); err != nil {
			slog.Error("Daemon failed", "error", err)
			os.Exit(1)
		}
	case "checkin":
		if err := runCheckin(cfg); err != nil {
			slog.Error("Check-in failed", "error", err)
			os.Exit(1)
		}
	case "status":
		if err := runStatus(cfg); err != nil {
			slog.Error("Status failed", "error", err)
			os.Exit(1)
		}
	case "history":
		if err := runHistory(cfg); err != nil {
			slog.Error("History failed", "error", err)
			os.Exit(1)
		}
	default:
		slog.Error("Unknown command", "command", ctx.Command())
		os.Exit(1)
	}
}

func runDaemon(cfg *config.Config) error {
	d, err := daemon.New(cfg)
	if err != nil {
		return err
	}

	runCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return d.Run(runCtx)
}

// newTracker builds the store-backed tracker without the Telegram side,
// for the one-shot commands.
func newTracker(cfg *config.Config) (*checkin.Tracker, error) {
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
	return checkin.NewTracker(store, client, cfg.Location()), nil
}

func runCheckin(cfg *config.Config) error {
	tracker, err := newTracker(cfg)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	outcome, err := tracker.Attempt(ctx)
	if err != nil {
		return err
	}
	switch outcome {
	case checkin.OutcomeAlreadyDone:
		fmt.Println("already checked in today")
	default:
		fmt.Println("check-in confirmed")
	}
	return nil
}

func runStatus(cfg *config.Config) error {
	tracker, err := newTracker(cfg)
	if err != nil {
		return err
	}
	st := tracker.Snapshot()
	fmt.Printf("%s: %s (updated %s)\n", st.Date, st.Status, st.LastUpdated.Format(time.RFC3339))
	return nil
}

func runHistory(cfg *config.Config) error {
	store, err := state.NewStore(cfg.DataDir, cfg.Location())
	if err != nil {
		return err
	}
	entries := store.LoadHistory()
	if len(entries) == 0 {
		fmt.Println("no check-ins recorded")
		return nil
	}
	for _, e := range entries {
		fmt.Println(e.Timestamp.Format(time.RFC3339))
	}
	return nil
}
