// Package state persists the daily check-in flag and the append-only
// check-in history as small JSON documents. Loading is permissive: any
// missing, stale or malformed document degrades to the default
// "pending for today" state so persistence problems never block the bot.
package state

import "time"

// Status is the tri-state outcome for the current day. A suppressed day
// behaves like a done day for reminder purposes but is never logged to
// history.
type Status string

const (
	StatusPending    Status = "pending"
	StatusDone       Status = "done"
	StatusSuppressed Status = "suppressed"
)

// Handled reports whether the day needs no further action.
func (s Status) Handled() bool { return s == StatusDone || s == StatusSuppressed }

// DateLayout is the calendar-date form used for day comparisons.
const DateLayout = "2006-01-02"

// DailyState is the check-in state for one calendar date in the bot's
// fixed zone. Owned by the check-in tracker; the store only reads and
// writes it.
type DailyState struct {
	Date        string    // DateLayout, in the configured zone
	Status      Status
	LastUpdated time.Time
}

// PendingFor returns the default state for the given instant's date.
func PendingFor(now time.Time) DailyState {
	return DailyState{
		Date:        now.Format(DateLayout),
		Status:      StatusPending,
		LastUpdated: now,
	}
}

// HistoryEntry is one successful check-in. Entries are append-only.
type HistoryEntry struct {
	Timestamp time.Time `json:"timestamp"`
}
