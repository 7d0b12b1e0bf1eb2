package logfields

import "log/slog"

// Canonical log field name constants to avoid drift across packages.
const (
	KeyJob        = "job"
	KeyAttemptID  = "attempt_id"
	KeyChatID     = "chat_id"
	KeyStatusCode = "status_code"
	KeyPath       = "path"
	KeyDate       = "date"
	KeyStatus     = "status"
	KeyError      = "error"
)

// Simple helpers returning slog.Attr. Keeping each granular means callers can compose.
func Job(name string) slog.Attr     { return slog.String(KeyJob, name) }
func AttemptID(id string) slog.Attr { return slog.String(KeyAttemptID, id) }
func ChatID(id int64) slog.Attr     { return slog.Int64(KeyChatID, id) }
func StatusCode(c int) slog.Attr    { return slog.Int(KeyStatusCode, c) }
func Path(p string) slog.Attr       { return slog.String(KeyPath, p) }
func Date(d string) slog.Attr       { return slog.String(KeyDate, d) }
func Status(s string) slog.Attr     { return slog.String(KeyStatus, s) }
func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
