package core

import (
	"context"
	"errors"
	"strings"
	"testing"
)

func nopHandler(ctx context.Context, call *Call) error { return nil }

func TestBuildRegistryEmptySpec(t *testing.T) {
	t.Parallel()
	_, _, _, binder := newTestDeps()

	reg, err := BuildRegistry(NewBotSpec(), binder)
	if err != nil {
		t.Fatalf("BuildRegistry: %v", err)
	}
	nc, na, ns := reg.Counts()
	if nc+na+ns != 0 {
		t.Fatalf("expected empty registry, got %d/%d/%d", nc, na, ns)
	}
	if _, ok := reg.LookupCommand("/ping"); ok {
		t.Fatal("lookup on empty registry matched")
	}
	if _, ok := reg.MatchAutoReply("hello"); ok {
		t.Fatal("auto-reply scan on empty registry matched")
	}
}

func TestBuildRegistryDuplicateCommand(t *testing.T) {
	t.Parallel()
	_, _, _, binder := newTestDeps()

	spec := NewBotSpec().
		Command("/ping", nil, nopHandler).
		Command("/ping", nil, nopHandler)

	_, err := BuildRegistry(spec, binder)
	if !errors.Is(err, ErrDuplicateCommand) {
		t.Fatalf("expected ErrDuplicateCommand, got %v", err)
	}
	if !strings.Contains(err.Error(), "/ping") {
		t.Fatalf("error should name the trigger: %v", err)
	}
}

func TestBuildRegistryUnknownRole(t *testing.T) {
	t.Parallel()
	_, _, _, binder := newTestDeps()

	spec := NewBotSpec().Command("/bad", []ParamRole{ParamRole("made_up")}, nopHandler)
	_, err := BuildRegistry(spec, binder)
	if !errors.Is(err, ErrUnknownRole) {
		t.Fatalf("expected ErrUnknownRole, got %v", err)
	}
}

func TestRegisterValidation(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		d    Descriptor
	}{
		{name: "nil handler", d: Descriptor{Kind: TriggerCommand, Trigger: "/x"}},
		{name: "empty command", d: Descriptor{Kind: TriggerCommand, Trigger: "  ", Invoke: nopHandler}},
		{name: "empty auto-reply", d: Descriptor{Kind: TriggerAutoReply, Trigger: "", Invoke: nopHandler}},
		{name: "scheduled without name", d: Descriptor{Kind: TriggerScheduled, Every: 1, Invoke: nopHandler}},
		{name: "scheduled without interval", d: Descriptor{Kind: TriggerScheduled, Name: "t", Invoke: nopHandler}},
		{name: "unknown kind", d: Descriptor{Kind: TriggerKind(99), Invoke: nopHandler}},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if err := NewRegistry().Register(tc.d); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
}

func TestLookupCommandExactMatchOnly(t *testing.T) {
	t.Parallel()
	reg := NewRegistry()
	if err := reg.Register(Descriptor{Kind: TriggerCommand, Trigger: "/ping", Invoke: nopHandler}); err != nil {
		t.Fatal(err)
	}

	if _, ok := reg.LookupCommand("/ping"); !ok {
		t.Fatal("exact match missed")
	}
	for _, text := range []string{"/ping now", "/PING", "ping", "/pin"} {
		if _, ok := reg.LookupCommand(text); ok {
			t.Fatalf("%q should not match /ping", text)
		}
	}
}

func TestMatchAutoReplyOrderAndCase(t *testing.T) {
	t.Parallel()
	reg := NewRegistry()
	for _, trig := range []string{"hello", "hell"} {
		if err := reg.Register(Descriptor{Kind: TriggerAutoReply, Trigger: trig, Invoke: nopHandler}); err != nil {
			t.Fatal(err)
		}
	}

	d, ok := reg.MatchAutoReply("well HELLO there")
	if !ok {
		t.Fatal("substring match missed")
	}
	// Both triggers are substrings; registration order decides.
	if d.Trigger != "hello" {
		t.Fatalf("first registered trigger should win, got %q", d.Trigger)
	}

	d, ok = reg.MatchAutoReply("hellish weather")
	if !ok || d.Trigger != "hell" {
		t.Fatalf("expected hell to match, got %+v ok=%v", d, ok)
	}

	if _, ok := reg.MatchAutoReply("goodbye"); ok {
		t.Fatal("unexpected auto-reply match")
	}
}
