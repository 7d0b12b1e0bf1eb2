// Package checkin owns the daily check-in state machine. All mutations
// funnel through one mutex so the check-then-submit sequence cannot
// interleave across the scheduler and user commands.
package checkin

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dmolina/fichabot/internal/logfields"
	"github.com/dmolina/fichabot/internal/state"
)

// Outcome is the successful result of an Attempt.
type Outcome string

const (
	// OutcomeConfirmed: the remote check-in was submitted and accepted.
	OutcomeConfirmed Outcome = "confirmed"
	// OutcomeAlreadyDone: the day was already handled; no remote call made.
	OutcomeAlreadyDone Outcome = "already_done"
)

// RemoteClient is the two-step external check-in service.
type RemoteClient interface {
	Login(ctx context.Context) (string, error)
	CheckIn(ctx context.Context, token string) error
}

// Recorder receives attempt outcomes for metrics. Implementations must be
// safe for concurrent use.
type Recorder interface {
	RecordAttempt(result string)
}

// Tracker is the single owner of the daily state. The remote calls run
// inside the critical section: concurrent triggers serialize here, which
// guarantees at most one remote submission per day without blocking
// unrelated work elsewhere in the process.
type Tracker struct {
	mu       sync.Mutex
	st       state.DailyState
	store    *state.Store
	client   RemoteClient
	loc      *time.Location
	recorder Recorder
	now      func() time.Time
}

// NewTracker loads the persisted state for today and returns the tracker.
func NewTracker(store *state.Store, client RemoteClient, loc *time.Location) *Tracker {
	t := &Tracker{
		store:  store,
		client: client,
		loc:    loc,
		now:    time.Now,
	}
	t.st = store.Load(t.now().In(loc))
	slog.Info("Loaded daily state", logfields.Date(t.st.Date), logfields.Status(string(t.st.Status)))
	return t
}

// SetRecorder installs a metrics recorder. Optional; call before use.
func (t *Tracker) SetRecorder(r Recorder) { t.recorder = r }

// Attempt performs today's check-in exactly once. If the day is already
// handled it returns OutcomeAlreadyDone without touching the network. On
// any remote failure the state is unchanged and the error reports which
// step failed.
func (t *Tracker) Attempt(ctx context.Context) (Outcome, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now().In(t.loc)
	t.rolloverLocked(now)

	if t.st.Status.Handled() {
		t.record("already_done")
		return OutcomeAlreadyDone, nil
	}

	attemptID := uuid.NewString()
	slog.Info("Attempting check-in", logfields.AttemptID(attemptID), logfields.Date(t.st.Date))

	token, err := t.client.Login(ctx)
	if err != nil {
		aerr := classify(err)
		slog.Warn("Check-in login failed", logfields.AttemptID(attemptID), logfields.Error(err))
		t.record(string(aerr.Kind))
		return "", aerr
	}

	if err := t.client.CheckIn(ctx, token); err != nil {
		aerr := classify(err)
		slog.Warn("Check-in submission failed", logfields.AttemptID(attemptID), logfields.Error(err))
		t.record(string(aerr.Kind))
		return "", aerr
	}

	now = t.now().In(t.loc)
	t.st = state.DailyState{
		Date:        now.Format(state.DateLayout),
		Status:      state.StatusDone,
		LastUpdated: now,
	}
	t.persistLocked()
	if res := t.store.AppendHistory(now); res.IsErr() {
		slog.Error("Failed to append check-in history", logfields.AttemptID(attemptID), logfields.Error(res.Err()))
	}

	slog.Info("Check-in confirmed", logfields.AttemptID(attemptID), logfields.Date(t.st.Date))
	t.record("confirmed")
	return OutcomeConfirmed, nil
}

// Cancel suppresses reminders for today without claiming a real check-in.
// It reports whether the day transitioned; a day that was already handled
// is left as-is.
func (t *Tracker) Cancel() bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now().In(t.loc)
	t.rolloverLocked(now)

	if t.st.Status.Handled() {
		return false
	}
	t.st.Status = state.StatusSuppressed
	t.st.LastUpdated = now
	t.persistLocked()
	slog.Info("Reminders suppressed for today", logfields.Date(t.st.Date))
	return true
}

// Reset forces the pending state for today. Invoked by the daily rollover
// job; day changes are also detected lazily on every operation, so a
// missed midnight wake-up cannot leave yesterday's outcome in place.
func (t *Tracker) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.st = state.PendingFor(t.now().In(t.loc))
	t.persistLocked()
	slog.Info("Daily state reset", logfields.Date(t.st.Date))
}

// Done reports whether today needs no further reminders.
func (t *Tracker) Done() bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.rolloverLocked(t.now().In(t.loc))
	return t.st.Status.Handled()
}

// Snapshot returns a copy of the current state.
func (t *Tracker) Snapshot() state.DailyState {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.rolloverLocked(t.now().In(t.loc))
	return t.st
}

// rolloverLocked resets the state when the stored date is stale. Callers
// hold the mutex.
func (t *Tracker) rolloverLocked(now time.Time) {
	today := now.Format(state.DateLayout)
	if t.st.Date == today {
		return
	}
	slog.Info("Date rollover detected", logfields.Date(today))
	t.st = state.PendingFor(now)
	t.persistLocked()
}

// persistLocked saves best-effort: a failed write is logged and the
// in-memory state stays authoritative until the next save or restart.
func (t *Tracker) persistLocked() {
	if res := t.store.Save(t.st); res.IsErr() {
		slog.Error("Failed to persist daily state", logfields.Date(t.st.Date), logfields.Error(res.Err()))
	}
}

func (t *Tracker) record(result string) {
	if t.recorder != nil {
		t.recorder.RecordAttempt(result)
	}
}
