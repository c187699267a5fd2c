package core

import (
	"context"
	"fmt"
	"runtime/debug"
	"sync"

	"github.com/robfig/cron/v3"

	logx "botlib/pkg/logx"
)

// Scheduler fires scheduled descriptors on their fixed intervals, once per
// active chat per tick. The first tick fires immediately at Start;
// recurrence after that is driven by a cron engine with @every specs.
//
// A tick that finds no active chats is a no-op. One chat's failure never
// suppresses the rest of the tick, and a failing tick never cancels the
// recurrence.
type Scheduler struct {
	log      logx.Logger
	reg      *Registry
	binder   *Binder
	sessions *SessionTracker
	events   EventLog

	mu sync.Mutex
	c  *cron.Cron
	wg sync.WaitGroup
}

type SchedulerOption func(*Scheduler)

func WithSchedulerLogger(log logx.Logger) SchedulerOption {
	return func(s *Scheduler) { s.log = log }
}

func NewScheduler(reg *Registry, binder *Binder, sessions *SessionTracker, events EventLog, opts ...SchedulerOption) *Scheduler {
	s := &Scheduler{
		log:      logx.Nop(),
		reg:      reg,
		binder:   binder,
		sessions: sessions,
		events:   events,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Start registers every scheduled descriptor with the cron engine and
// fires each one's first tick right away.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.c != nil {
		return nil
	}
	s.c = cron.New()

	for _, d := range s.reg.Scheduled() {
		desc := d
		if _, err := s.c.AddFunc(fmt.Sprintf("@every %s", desc.Every.String()), func() {
			s.runTick(ctx, desc)
		}); err != nil {
			s.c = nil
			return fmt.Errorf("schedule %q: %w", desc.Name, err)
		}
		// First fire at t=0. Cron's @every waits a full interval before
		// the first run, so the initial tick is driven here.
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.runTick(ctx, desc)
		}()
	}

	s.c.Start()
	s.log.Info("scheduler started", logx.Int("tasks", len(s.reg.Scheduled())))
	return nil
}

// Stop halts recurrence and waits for in-flight ticks to finish.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	c := s.c
	s.c = nil
	s.mu.Unlock()
	if c == nil {
		return
	}
	<-c.Stop().Done()
	s.wg.Wait()
	s.log.Info("scheduler stopped")
}

// Entries reports how many recurrences are registered with the engine.
func (s *Scheduler) Entries() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.c == nil {
		return 0
	}
	return len(s.c.Entries())
}

// runTick invokes one scheduled descriptor against every active chat.
func (s *Scheduler) runTick(ctx context.Context, d *Descriptor) {
	chats := s.sessions.Snapshot()
	if len(chats) == 0 {
		return
	}
	s.log.Debug("scheduled tick", logx.String("task", d.Name), logx.Int("chats", len(chats)))
	for _, chatID := range chats {
		s.runOne(ctx, d, chatID)
	}
}

func (s *Scheduler) runOne(ctx context.Context, d *Descriptor, chatID int64) {
	defer func() {
		if r := recover(); r != nil {
			s.log.Error("panic in scheduled task",
				logx.String("task", d.Name),
				logx.Int64("chat_id", chatID),
				logx.Any("panic", r),
				logx.String("stack", string(debug.Stack())),
			)
			s.events.LogError(ctx, fmt.Errorf("task %q chat %d: panic: %v", d.Name, chatID, r), ScopeScheduled)
		}
	}()
	call := s.binder.Bind(d, chatID, NoUser)
	if err := d.Invoke(ctx, call); err != nil {
		s.events.LogError(ctx, fmt.Errorf("task %q chat %d: %w", d.Name, chatID, err), ScopeScheduled)
	}
}
