package core

import (
	"errors"
	"fmt"
	"strings"
)

// ErrDuplicateCommand is returned when a second descriptor is registered
// for a command string that already has one. Duplicates are rejected, not
// overwritten: a silent overwrite hides author mistakes until runtime.
var ErrDuplicateCommand = errors.New("duplicate command registration")

// Registry holds the trigger→handler tables. It is built once at startup
// and read-only afterwards, so lookups need no locking.
//
// Auto-reply candidates are kept in registration order; that order is the
// documented tie-breaker when several triggers match one message.
type Registry struct {
	commands  map[string]*Descriptor
	autoReply []*Descriptor
	scheduled []*Descriptor
}

func NewRegistry() *Registry {
	return &Registry{commands: map[string]*Descriptor{}}
}

// BuildRegistry translates a BotSpec into a registry, validating every
// descriptor and its parameter signature against the binder. Any error here
// is a startup failure; a misdeclared bot must not come up.
func BuildRegistry(spec *BotSpec, binder *Binder) (*Registry, error) {
	reg := NewRegistry()
	if spec == nil {
		return reg, nil
	}
	for i, d := range spec.Descriptors() {
		if err := binder.Validate(d.Signature); err != nil {
			return nil, fmt.Errorf("descriptor %d (%s %q): %w", i, d.Kind, d.label(), err)
		}
		if err := reg.Register(d); err != nil {
			return nil, fmt.Errorf("descriptor %d (%s %q): %w", i, d.Kind, d.label(), err)
		}
	}
	return reg, nil
}

// Register adds one descriptor to the appropriate table. A bot with zero
// registered handlers is valid.
func (r *Registry) Register(d Descriptor) error {
	if err := d.validate(); err != nil {
		return err
	}
	dd := d // copy; the registry owns its descriptors
	switch dd.Kind {
	case TriggerCommand:
		if _, exists := r.commands[dd.Trigger]; exists {
			return fmt.Errorf("%w: %q", ErrDuplicateCommand, dd.Trigger)
		}
		r.commands[dd.Trigger] = &dd
	case TriggerAutoReply:
		r.autoReply = append(r.autoReply, &dd)
	case TriggerScheduled:
		r.scheduled = append(r.scheduled, &dd)
	}
	return nil
}

// LookupCommand is an exact-string match against the full message text.
// "/ping now" does not match "/ping". Callers are expected to trim
// surrounding whitespace first; the dispatcher does.
func (r *Registry) LookupCommand(text string) (*Descriptor, bool) {
	d, ok := r.commands[text]
	return d, ok
}

// AutoReplyCandidates returns the auto-reply descriptors in registration
// order for substring scanning.
func (r *Registry) AutoReplyCandidates() []*Descriptor {
	return r.autoReply
}

// Scheduled returns the scheduled descriptors in registration order.
func (r *Registry) Scheduled() []*Descriptor {
	return r.scheduled
}

// MatchAutoReply scans candidates in registration order and returns the
// first whose trigger is a case-insensitive substring of text.
func (r *Registry) MatchAutoReply(text string) (*Descriptor, bool) {
	lower := strings.ToLower(text)
	for _, d := range r.autoReply {
		if strings.Contains(lower, strings.ToLower(d.Trigger)) {
			return d, true
		}
	}
	return nil, false
}

// Counts reports table sizes (commands, auto-replies, scheduled).
func (r *Registry) Counts() (int, int, int) {
	return len(r.commands), len(r.autoReply), len(r.scheduled)
}
