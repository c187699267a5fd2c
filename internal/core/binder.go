package core

import (
	"context"
	"errors"
	"fmt"

	"botlib/internal/transport"
)

// ErrUnknownRole is returned when a descriptor declares a parameter role
// the binder cannot satisfy. This is a registration-time defect: it fails
// at startup, never at first invocation.
var ErrUnknownRole = errors.New("unknown parameter role")

// UserRef is an optional user identity. Scheduled invocations have no
// acting user, so Known is false there.
type UserRef struct {
	ID    int64
	Known bool
}

func User(id int64) UserRef { return UserRef{ID: id, Known: true} }

// NoUser marks the explicit "absent" user for scheduled invocations.
var NoUser = UserRef{}

// Call is the assembled argument set for one handler invocation. The
// binder populates only the fields the descriptor's signature declares;
// everything else stays at its zero value ("no value"), never a
// wrong-typed stand-in.
type Call struct {
	ChatID int64
	User   UserRef

	Messenger   Messenger
	Permissions PermissionOracle
	Events      EventLog

	// Kind and Trigger identify the invocation in logs.
	Kind    TriggerKind
	Trigger string
	ReqID   string
}

// Binder resolves a descriptor's declared parameter roles against the call
// context and the singleton service capabilities.
type Binder struct {
	messenger Messenger
	perms     PermissionOracle
	events    EventLog
}

func NewBinder(m Messenger, p PermissionOracle, ev EventLog) *Binder {
	return &Binder{messenger: m, perms: p, events: ev}
}

// Validate checks that every declared role is resolvable. Called during
// registration so misdeclared bots fail fast.
func (b *Binder) Validate(sig []ParamRole) error {
	for i, role := range sig {
		switch role {
		case RoleChatID, RoleUserID:
		case RoleMessenger:
			if b.messenger == nil {
				return fmt.Errorf("slot %d: messenger capability not available", i)
			}
		case RolePermissions:
			if b.perms == nil {
				return fmt.Errorf("slot %d: permissions capability not available", i)
			}
		case RoleEventLog:
			if b.events == nil {
				return fmt.Errorf("slot %d: event log capability not available", i)
			}
		default:
			return fmt.Errorf("slot %d: %w: %q", i, ErrUnknownRole, role)
		}
	}
	return nil
}

// Bind assembles the Call for one invocation. The signature is assumed
// validated; Bind never fails at invocation time.
func (b *Binder) Bind(d *Descriptor, chatID int64, user UserRef) *Call {
	call := &Call{
		Kind:    d.Kind,
		Trigger: d.label(),
		ReqID:   newReqID(),
	}
	for _, role := range d.Signature {
		switch role {
		case RoleChatID:
			call.ChatID = chatID
		case RoleUserID:
			call.User = user
		case RoleMessenger:
			call.Messenger = b.messenger
		case RolePermissions:
			call.Permissions = b.perms
		case RoleEventLog:
			call.Events = b.events
		}
	}
	return call
}

// Reply is a convenience for the common "send text back to the calling
// chat" handler body.
func (c *Call) Reply(ctx context.Context, text string) error {
	if c.Messenger == nil {
		return errors.New("messenger not bound: declare RoleMessenger in the signature")
	}
	_, err := c.Messenger.SendText(ctx, c.Chat(), text, nil)
	return err
}

// Chat returns the bound chat as a transport target.
func (c *Call) Chat() transport.ChatTarget {
	return transport.ChatTarget{ChatID: c.ChatID}
}
