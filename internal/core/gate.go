package core

import (
	"context"
	"fmt"

	"botlib/internal/transport"
)

// Gate enforces admin-only descriptors before invocation.
type Gate struct {
	messenger Messenger
	oracle    PermissionOracle
}

func NewGate(m Messenger, o PermissionOracle) *Gate {
	return &Gate{messenger: m, oracle: o}
}

// Authorize decides whether the invocation may proceed.
//
//   - descriptor not admin-only: (true, nil)
//   - user is admin: (true, nil)
//   - user is not admin: (false, nil) after sending the denial notice —
//     an expected outcome, not an error. If the notice itself fails to
//     send, that collaborator failure is returned as the error.
//   - oracle failure: (false, err) — the caller reports it through the
//     invocation-failure path and skips the handler
//
// Scheduled invocations never reach the gate; they have no acting user.
func (g *Gate) Authorize(ctx context.Context, d *Descriptor, chatID int64, user UserRef) (bool, error) {
	if !d.AdminOnly {
		return true, nil
	}
	if !user.Known {
		return false, fmt.Errorf("admin-only %s %q invoked without an acting user", d.Kind, d.label())
	}
	ok, err := g.oracle.IsAdmin(ctx, chatID, user.ID)
	if err != nil {
		return false, fmt.Errorf("permission check for user %d in chat %d: %w", user.ID, chatID, err)
	}
	if !ok {
		if err := g.messenger.SendDeniedNotice(ctx, transport.ChatTarget{ChatID: chatID}); err != nil {
			return false, fmt.Errorf("send denial notice to chat %d: %w", chatID, err)
		}
		return false, nil
	}
	return true, nil
}
