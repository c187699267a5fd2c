package core

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"
)

func newTestScheduler(t *testing.T, spec *BotSpec) (*Scheduler, *fakeMessenger, *fakeEventLog, *SessionTracker) {
	t.Helper()
	m, _, ev, binder := newTestDeps()
	reg, err := BuildRegistry(spec, binder)
	if err != nil {
		t.Fatalf("BuildRegistry: %v", err)
	}
	sessions := NewSessionTracker()
	s := NewScheduler(reg, binder, sessions, ev)
	return s, m, ev, sessions
}

func scheduledDescriptor(t *testing.T, s *Scheduler, name string) *Descriptor {
	t.Helper()
	for _, d := range s.reg.Scheduled() {
		if d.Name == name {
			return d
		}
	}
	t.Fatalf("scheduled descriptor %q not registered", name)
	return nil
}

func TestRunTickInvokesEveryActiveChat(t *testing.T) {
	t.Parallel()
	var (
		mu    sync.Mutex
		chats []int64
	)
	spec := NewBotSpec().ScheduledEvery("report", 3600,
		[]ParamRole{RoleChatID},
		func(ctx context.Context, call *Call) error {
			mu.Lock()
			chats = append(chats, call.ChatID)
			mu.Unlock()
			return nil
		})
	s, _, ev, sessions := newTestScheduler(t, spec)
	sessions.MarkActive(10)
	sessions.MarkActive(20)
	sessions.MarkActive(30)

	s.runTick(context.Background(), scheduledDescriptor(t, s, "report"))

	sort.Slice(chats, func(i, j int) bool { return chats[i] < chats[j] })
	if len(chats) != 3 || chats[0] != 10 || chats[1] != 20 || chats[2] != 30 {
		t.Fatalf("chats = %v", chats)
	}
	if len(ev.errors()) != 0 {
		t.Fatalf("errors = %+v", ev.errors())
	}
}

func TestRunTickNoActiveChatsIsNoop(t *testing.T) {
	t.Parallel()
	calls := 0
	spec := NewBotSpec().ScheduledEvery("report", 60,
		[]ParamRole{RoleChatID},
		func(ctx context.Context, call *Call) error {
			calls++
			return nil
		})
	s, _, _, _ := newTestScheduler(t, spec)

	s.runTick(context.Background(), scheduledDescriptor(t, s, "report"))

	if calls != 0 {
		t.Fatalf("handler invoked %d times with no active chats", calls)
	}
}

func TestRunTickFailureIsolation(t *testing.T) {
	t.Parallel()
	boom := errors.New("chat 20 broke")
	var (
		mu sync.Mutex
		ok []int64
	)
	spec := NewBotSpec().ScheduledEvery("report", 60,
		[]ParamRole{RoleChatID},
		func(ctx context.Context, call *Call) error {
			if call.ChatID == 20 {
				return boom
			}
			mu.Lock()
			ok = append(ok, call.ChatID)
			mu.Unlock()
			return nil
		})
	s, _, ev, sessions := newTestScheduler(t, spec)
	sessions.MarkActive(10)
	sessions.MarkActive(20)
	sessions.MarkActive(30)

	s.runTick(context.Background(), scheduledDescriptor(t, s, "report"))

	if len(ok) != 2 {
		t.Fatalf("successful chats = %v", ok)
	}
	errs := ev.errors()
	if len(errs) != 1 || errs[0].Scope != ScopeScheduled || !errors.Is(errs[0].Err, boom) {
		t.Fatalf("errors = %+v", errs)
	}
}

func TestRunTickPanicContained(t *testing.T) {
	t.Parallel()
	var survived []int64
	spec := NewBotSpec().ScheduledEvery("report", 60,
		[]ParamRole{RoleChatID},
		func(ctx context.Context, call *Call) error {
			if call.ChatID == 1 {
				panic("kaboom")
			}
			survived = append(survived, call.ChatID)
			return nil
		})
	s, _, ev, sessions := newTestScheduler(t, spec)
	sessions.MarkActive(1)
	sessions.MarkActive(2)

	s.runTick(context.Background(), scheduledDescriptor(t, s, "report"))

	if len(survived) != 1 || survived[0] != 2 {
		t.Fatalf("survived = %v", survived)
	}
	errs := ev.errors()
	if len(errs) != 1 || errs[0].Scope != ScopeScheduled {
		t.Fatalf("errors = %+v", errs)
	}
}

func TestSchedulerStartFiresImmediately(t *testing.T) {
	t.Parallel()
	fired := make(chan int64, 4)
	// Long interval so the only tick inside the test window is the t=0 one.
	spec := NewBotSpec().ScheduledEvery("startup", 3600,
		[]ParamRole{RoleChatID},
		func(ctx context.Context, call *Call) error {
			fired <- call.ChatID
			return nil
		})
	s, _, _, sessions := newTestScheduler(t, spec)
	sessions.MarkActive(5)

	if err := s.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	defer s.Stop()

	select {
	case id := <-fired:
		if id != 5 {
			t.Fatalf("chat = %d", id)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("first tick did not fire at startup")
	}

	if got := s.Entries(); got != 1 {
		t.Fatalf("cron entries = %d, want 1", got)
	}
}

func TestSchedulerStartIdempotentAndStop(t *testing.T) {
	t.Parallel()
	spec := NewBotSpec().ScheduledEvery("a", 3600, []ParamRole{RoleChatID}, nopHandler).
		ScheduledEvery("b", 7200, []ParamRole{RoleChatID}, nopHandler)
	s, _, _, _ := newTestScheduler(t, spec)

	if err := s.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	if err := s.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	if got := s.Entries(); got != 2 {
		t.Fatalf("cron entries = %d, want 2", got)
	}

	s.Stop()
	if got := s.Entries(); got != 0 {
		t.Fatalf("entries after stop = %d", got)
	}
	s.Stop() // second stop is a no-op
}
