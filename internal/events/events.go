// Package events implements the bot event logger: every suppressed
// invocation failure, warning, and notable action flows through here, with
// a context tag naming where it happened. Events go to the structured log
// and, when storage is configured, to the event store.
package events

import (
	"context"
	"fmt"

	"botlib/internal/storage"
	logx "botlib/pkg/logx"
)

type Recorder struct {
	log   logx.Logger
	store storage.Store
}

// NewRecorder wires the recorder. store may be nil (logging only).
func NewRecorder(log logx.Logger, store storage.Store) *Recorder {
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Recorder{log: log, store: store}
}

// LogError records a suppressed failure with a context tag, e.g.
// "command_invocation" or "scheduled_task_execution".
func (r *Recorder) LogError(ctx context.Context, err error, scope string) {
	if r == nil || err == nil {
		return
	}
	r.log.Error("invocation failed", logx.String("scope", scope), logx.Err(err))
	r.append(ctx, storage.Event{Kind: storage.KindError, Scope: scope, Detail: err.Error()})
}

func (r *Recorder) LogWarning(ctx context.Context, msg string, scope string) {
	if r == nil {
		return
	}
	r.log.Warn(msg, logx.String("scope", scope))
	r.append(ctx, storage.Event{Kind: storage.KindWarning, Scope: scope, Detail: msg})
}

// LogUserAction records something a user did, e.g. triggering a command.
func (r *Recorder) LogUserAction(ctx context.Context, userID int64, action string) {
	if r == nil {
		return
	}
	r.log.Info("user action", logx.Int64("user_id", userID), logx.String("action", action))
	r.append(ctx, storage.Event{Kind: storage.KindUserAction, UserID: userID, Detail: action})
}

// LogBotAction records something the bot did on its own, e.g. a broadcast.
func (r *Recorder) LogBotAction(ctx context.Context, action, detail string) {
	if r == nil {
		return
	}
	r.log.Info("bot action", logx.String("action", action), logx.String("detail", detail))
	r.append(ctx, storage.Event{Kind: storage.KindBotAction, Scope: action, Detail: detail})
}

// ChatSeen records the first message ever observed from a chat.
func (r *Recorder) ChatSeen(ctx context.Context, chatID int64) {
	if r == nil {
		return
	}
	r.log.Debug("chat seen", logx.Int64("chat_id", chatID))
	r.append(ctx, storage.Event{Kind: storage.KindChatSeen, ChatID: chatID})
}

func (r *Recorder) append(ctx context.Context, e storage.Event) {
	if r.store == nil {
		return
	}
	if err := r.store.AppendEvent(ctx, e); err != nil {
		// Storage trouble must never disturb dispatch.
		r.log.Warn("event store append failed", logx.Err(fmt.Errorf("%s: %w", e.Kind, err)))
	}
}
