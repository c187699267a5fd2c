package storage

import (
	"errors"
	"time"
)

var ErrDisabled = errors.New("storage disabled")

// Config configures storage.
//
// Driver values:
//   - "file": dependency-free JSON Lines backend
//   - "sqlite": SQLite database file (optional build tag)
//
// If Driver is empty or "none", storage is disabled.
type Config struct {
	Driver      string
	Path        string
	BusyTimeout time.Duration // sqlite only; 0 means default
}

// Event kinds.
const (
	KindError      = "error"
	KindWarning    = "warning"
	KindChatSeen   = "chat_seen"
	KindUserAction = "user_action"
	KindBotAction  = "bot_action"
)

// Event records one bot-level occurrence. Keep it compact and schema-stable.
type Event struct {
	At     time.Time
	Kind   string
	Scope  string // e.g. "command_invocation", "scheduled_task_execution"
	ChatID int64
	UserID int64
	Detail string
}
