package state

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/dmolina/fichabot/internal/foundation"
	"github.com/dmolina/fichabot/internal/logfields"
)

const (
	stateFile   = "state.json"
	historyFile = "history.json"
)

// Store reads and writes the daily state and history files. Writes go
// through a temp-file-then-rename so a crash mid-write cannot corrupt a
// previously readable document.
type Store struct {
	statePath   string
	historyPath string
	loc         *time.Location
}

// NewStore creates a store rooted at dataDir, creating the directory if
// needed.
func NewStore(dataDir string, loc *time.Location) (*Store, error) {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating data directory %s: %w", dataDir, err)
	}
	return &Store{
		statePath:   filepath.Join(dataDir, stateFile),
		historyPath: filepath.Join(dataDir, historyFile),
		loc:         loc,
	}, nil
}

// stateDoc is the on-disk state document. "fichado" is the historical
// field name; it is still written so older deployments can read the file,
// and read so their files load here.
type stateDoc struct {
	Datetime string `json:"datetime,omitempty"`
	Date     string `json:"date,omitempty"`
	Status   string `json:"status,omitempty"`
	Fichado  *bool  `json:"fichado,omitempty"`
}

type historyDoc struct {
	History []HistoryEntry `json:"history"`
}

// Load reads the persisted state for the calendar date of now. It never
// fails: a missing file, a malformed document or a stale date all yield
// the pending state for today.
func (s *Store) Load(now time.Time) DailyState {
	now = now.In(s.loc)
	fallback := PendingFor(now)

	data, err := os.ReadFile(s.statePath)
	if err != nil {
		if !os.IsNotExist(err) {
			slog.Warn("Unreadable state file, starting pending", logfields.Path(s.statePath), logfields.Error(err))
		}
		return fallback
	}

	var doc stateDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		slog.Warn("Malformed state file, starting pending", logfields.Path(s.statePath), logfields.Error(err))
		return fallback
	}

	stamp, ok := s.parseStamp(doc)
	if !ok {
		slog.Warn("State file has no usable date, starting pending", logfields.Path(s.statePath))
		return fallback
	}
	if stamp.Format(DateLayout) != now.Format(DateLayout) {
		// Stale date: yesterday's outcome never carries over.
		return fallback
	}

	return DailyState{
		Date:        now.Format(DateLayout),
		Status:      doc.status(),
		LastUpdated: stamp,
	}
}

// parseStamp accepts a full RFC3339 datetime or a bare calendar date,
// normalized to the store's zone.
func (s *Store) parseStamp(doc stateDoc) (time.Time, bool) {
	raw := doc.Datetime
	if raw == "" {
		raw = doc.Date
	}
	if raw == "" {
		return time.Time{}, false
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t.In(s.loc), true
	}
	if t, err := time.ParseInLocation(DateLayout, raw, s.loc); err == nil {
		return t, true
	}
	return time.Time{}, false
}

func (d stateDoc) status() Status {
	switch Status(d.Status) {
	case StatusPending, StatusDone, StatusSuppressed:
		return Status(d.Status)
	}
	// Legacy documents only carry the boolean flag.
	if d.Fichado != nil && *d.Fichado {
		return StatusDone
	}
	return StatusPending
}

// Save overwrites the state document. Persistence is best-effort: the
// caller logs a failed Result and carries on with its in-memory state.
func (s *Store) Save(st DailyState) foundation.Result[foundation.Unit] {
	handled := st.Status.Handled()
	doc := stateDoc{
		Datetime: st.LastUpdated.In(s.loc).Format(time.RFC3339),
		Status:   string(st.Status),
		Fichado:  &handled,
	}

	data, err := json.Marshal(doc)
	if err != nil {
		return foundation.Err[foundation.Unit](fmt.Errorf("marshaling state: %w", err))
	}
	if err := writeFileAtomic(s.statePath, data); err != nil {
		return foundation.Err[foundation.Unit](err)
	}
	return foundation.Ok(foundation.Unit{})
}

// AppendHistory adds one record to the history log. Read-modify-rewrite
// is fine here, the log grows by at most one entry per day. A missing or
// corrupt log is treated as empty and recreated.
func (s *Store) AppendHistory(ts time.Time) foundation.Result[foundation.Unit] {
	doc := s.readHistory()
	doc.History = append(doc.History, HistoryEntry{Timestamp: ts.In(s.loc)})

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return foundation.Err[foundation.Unit](fmt.Errorf("marshaling history: %w", err))
	}
	if err := writeFileAtomic(s.historyPath, data); err != nil {
		return foundation.Err[foundation.Unit](err)
	}
	return foundation.Ok(foundation.Unit{})
}

// LoadHistory returns all recorded check-ins, oldest first.
func (s *Store) LoadHistory() []HistoryEntry {
	return s.readHistory().History
}

func (s *Store) readHistory() historyDoc {
	var doc historyDoc
	data, err := os.ReadFile(s.historyPath)
	if err != nil {
		if !os.IsNotExist(err) {
			slog.Warn("Unreadable history file, treating as empty", logfields.Path(s.historyPath), logfields.Error(err))
		}
		return doc
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		slog.Warn("Malformed history file, treating as empty", logfields.Path(s.historyPath), logfields.Error(err))
		return historyDoc{}
	}
	return doc
}

// writeFileAtomic writes data to a sibling temp file and renames it into
// place.
func writeFileAtomic(path string, data []byte) error {
	tempPath := path + ".tmp"
	if err := os.WriteFile(tempPath, data, 0o644); err != nil {
		return fmt.Errorf("writing temporary file %s: %w", tempPath, err)
	}
	if err := os.Rename(tempPath, path); err != nil {
		return fmt.Errorf("replacing %s: %w", path, err)
	}
	return nil
}
