package core

import (
	"context"

	"botlib/internal/transport"
)

// DeniedNotice is the fixed reply sent when an admin-only handler is
// triggered by a non-admin user.
const DeniedNotice = "This command is for admins only!"

// Messenger is the outbound surface handlers and the permission gate use.
// The transport adapter satisfies it.
type Messenger interface {
	SendText(ctx context.Context, to transport.ChatTarget, text string, opt *transport.SendOptions) (transport.MessageRef, error)
	SendPhoto(ctx context.Context, to transport.ChatTarget, photo transport.FileRef, caption string, opt *transport.SendOptions) (transport.MessageRef, error)
	SendDocument(ctx context.Context, to transport.ChatTarget, doc transport.FileRef, caption string, opt *transport.SendOptions) (transport.MessageRef, error)
	EditText(ctx context.Context, ref transport.MessageRef, text string, opt *transport.SendOptions) error
	DeleteMessage(ctx context.Context, ref transport.MessageRef) error
	SendDeniedNotice(ctx context.Context, to transport.ChatTarget) error
}

// PermissionOracle answers "is user X an admin of chat Y", and whether the
// bot itself holds admin rights there. The calls may fail (network, unknown
// chat); failure is recoverable and suppresses the invocation instead of
// crashing dispatch.
type PermissionOracle interface {
	IsAdmin(ctx context.Context, chatID, userID int64) (bool, error)
	IsBotAdmin(ctx context.Context, chatID int64) (bool, error)
}

// EventLog receives every suppressed invocation failure with a context tag,
// plus notable user and bot actions handlers choose to record.
// Authorization denials are expected user-facing outcomes and are not
// reported here.
type EventLog interface {
	LogError(ctx context.Context, err error, scope string)
	LogWarning(ctx context.Context, msg string, scope string)
	LogUserAction(ctx context.Context, userID int64, action string)
	LogBotAction(ctx context.Context, action, detail string)
}

// ChatObserver is an optional extension of EventLog: implementations are
// told the first time a chat is observed.
type ChatObserver interface {
	ChatSeen(ctx context.Context, chatID int64)
}
