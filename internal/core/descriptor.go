package core

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

type TriggerKind int

const (
	// TriggerCommand matches the full message text exactly.
	TriggerCommand TriggerKind = iota
	// TriggerAutoReply matches a case-insensitive substring of the text.
	TriggerAutoReply
	// TriggerScheduled fires on a fixed interval against every active chat.
	TriggerScheduled
)

func (k TriggerKind) String() string {
	switch k {
	case TriggerCommand:
		return "command"
	case TriggerAutoReply:
		return "auto_reply"
	case TriggerScheduled:
		return "scheduled"
	default:
		return "unknown"
	}
}

// ParamRole names one semantic slot of a handler's signature. The binder
// resolves roles to concrete values when it assembles a Call.
type ParamRole string

const (
	RoleChatID      ParamRole = "chat_id"
	RoleUserID      ParamRole = "user_id"
	RoleMessenger   ParamRole = "messenger"
	RolePermissions ParamRole = "permissions"
	RoleEventLog    ParamRole = "event_log"
)

// HandlerFunc is the invocation target of a descriptor.
type HandlerFunc func(ctx context.Context, call *Call) error

// Descriptor is one declared behavior: a command, an auto-reply, or a
// scheduled task. Descriptors are built once at startup and owned by the
// registry; they are never mutated afterwards.
type Descriptor struct {
	Kind TriggerKind

	// Trigger is the exact command string (TriggerCommand) or the
	// substring to look for (TriggerAutoReply). Unused for scheduled
	// descriptors, which carry Name instead.
	Trigger string

	// Name labels a scheduled task in logs and error events.
	Name string

	// Every is the scheduled recurrence; must be > 0 for TriggerScheduled.
	Every time.Duration

	AdminOnly bool

	// Signature is the ordered list of parameter roles the handler's
	// closure will read from the Call. Unknown roles are rejected when the
	// descriptor is registered.
	Signature []ParamRole

	Invoke HandlerFunc
}

var errNilHandler = errors.New("descriptor has no handler")

func (d *Descriptor) validate() error {
	if d.Invoke == nil {
		return errNilHandler
	}
	switch d.Kind {
	case TriggerCommand:
		if strings.TrimSpace(d.Trigger) == "" {
			return errors.New("command descriptor needs a trigger string")
		}
	case TriggerAutoReply:
		if strings.TrimSpace(d.Trigger) == "" {
			return errors.New("auto-reply descriptor needs a trigger substring")
		}
	case TriggerScheduled:
		if strings.TrimSpace(d.Name) == "" {
			return errors.New("scheduled descriptor needs a name")
		}
		if d.Every <= 0 {
			return fmt.Errorf("scheduled descriptor %q needs a positive interval", d.Name)
		}
	default:
		return fmt.Errorf("unknown trigger kind %d", d.Kind)
	}
	return nil
}

// label returns a short identifier for logs.
func (d *Descriptor) label() string {
	if d.Kind == TriggerScheduled {
		return d.Name
	}
	return d.Trigger
}

// BotSpec is the declarative registration surface: the bot author lists
// behaviors with builder calls and the whole set is turned into a registry
// at startup, so malformed declarations fail before the bot goes online.
type BotSpec struct {
	descriptors []Descriptor
}

func NewBotSpec() *BotSpec { return &BotSpec{} }

// Command declares an exact-match command, e.g. "/ping".
func (s *BotSpec) Command(trigger string, sig []ParamRole, h HandlerFunc) *BotSpec {
	return s.Add(Descriptor{Kind: TriggerCommand, Trigger: trigger, Signature: sig, Invoke: h})
}

// AdminCommand declares a command only chat admins may invoke.
func (s *BotSpec) AdminCommand(trigger string, sig []ParamRole, h HandlerFunc) *BotSpec {
	return s.Add(Descriptor{Kind: TriggerCommand, Trigger: trigger, AdminOnly: true, Signature: sig, Invoke: h})
}

// AutoReply declares a substring-triggered reply. Candidates are scanned in
// declaration order and the first match wins.
func (s *BotSpec) AutoReply(trigger string, sig []ParamRole, h HandlerFunc) *BotSpec {
	return s.Add(Descriptor{Kind: TriggerAutoReply, Trigger: trigger, Signature: sig, Invoke: h})
}

// ScheduledEvery declares a periodic task invoked once per active chat,
// first at startup and then every `seconds` seconds.
func (s *BotSpec) ScheduledEvery(name string, seconds int, sig []ParamRole, h HandlerFunc) *BotSpec {
	return s.Add(Descriptor{
		Kind:      TriggerScheduled,
		Name:      name,
		Every:     time.Duration(seconds) * time.Second,
		Signature: sig,
		Invoke:    h,
	})
}

// Add appends a raw descriptor. Prefer the typed helpers.
func (s *BotSpec) Add(d Descriptor) *BotSpec {
	s.descriptors = append(s.descriptors, d)
	return s
}

// Descriptors returns the declarations in declaration order.
func (s *BotSpec) Descriptors() []Descriptor {
	return append([]Descriptor(nil), s.descriptors...)
}
