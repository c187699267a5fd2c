package core

import (
	"context"
	"runtime"
	"runtime/debug"
	"strings"
	"sync"

	"botlib/internal/transport"
	logx "botlib/pkg/logx"
)

// Scope tags attached to suppressed invocation failures.
const (
	ScopeCommand    = "command_invocation"
	ScopeAutoReply  = "auto_reply_invocation"
	ScopeScheduled  = "scheduled_task_execution"
	ScopePermission = "permission_check"
)

// Dispatcher routes inbound messages to registered handlers. Routing
// itself is synchronous (HandleMessage); Run feeds an update channel
// through a bounded worker pool.
//
// A failing handler is contained per invocation: the error is reported to
// the event log with a scope tag and dispatch continues.
type Dispatcher struct {
	log      logx.Logger
	reg      *Registry
	gate     *Gate
	binder   *Binder
	sessions *SessionTracker
	events   EventLog

	mw   []Middleware
	jobs chan func()
}

type DispatcherOption func(*Dispatcher)

func WithDispatchLogger(log logx.Logger) DispatcherOption {
	return func(d *Dispatcher) { d.log = log }
}

func WithQueueCap(n int) DispatcherOption {
	return func(d *Dispatcher) {
		if n > 0 {
			d.jobs = make(chan func(), n)
		}
	}
}

// WithMiddleware wraps every handler invocation, outermost first.
func WithMiddleware(mw ...Middleware) DispatcherOption {
	return func(d *Dispatcher) { d.mw = append(d.mw, mw...) }
}

func NewDispatcher(reg *Registry, gate *Gate, binder *Binder, sessions *SessionTracker, events EventLog, opts ...DispatcherOption) *Dispatcher {
	d := &Dispatcher{
		log:      logx.Nop(),
		reg:      reg,
		gate:     gate,
		binder:   binder,
		sessions: sessions,
		events:   events,
		jobs:     make(chan func(), 256),
	}
	for _, o := range opts {
		o(d)
	}
	return d
}

// HandleMessage routes one inbound message. Command and auto-reply
// matching are independent: a message can trigger both, command first.
//
// Surrounding whitespace is stripped before matching, so " /ping " still
// hits /ping; command lookup is exact on the trimmed text.
func (d *Dispatcher) HandleMessage(ctx context.Context, msg transport.Message) {
	text := strings.TrimSpace(msg.Text)
	if text == "" {
		return
	}

	if d.sessions.MarkActive(msg.ChatID) {
		d.log.Debug("chat observed", logx.Int64("chat_id", msg.ChatID))
		if obs, ok := d.events.(ChatObserver); ok {
			obs.ChatSeen(ctx, msg.ChatID)
		}
	}

	user := User(msg.FromID)

	if desc, ok := d.reg.LookupCommand(text); ok {
		d.invoke(ctx, desc, msg.ChatID, user, ScopeCommand)
	}

	if desc, ok := d.reg.MatchAutoReply(text); ok {
		d.invoke(ctx, desc, msg.ChatID, user, ScopeAutoReply)
	}
}

func (d *Dispatcher) invoke(ctx context.Context, desc *Descriptor, chatID int64, user UserRef, scope string) {
	allowed, err := d.gate.Authorize(ctx, desc, chatID, user)
	if err != nil {
		d.events.LogError(ctx, err, ScopePermission)
		return
	}
	if !allowed {
		d.log.Debug("invocation denied",
			logx.String("trigger", desc.label()),
			logx.Int64("chat_id", chatID),
			logx.Int64("user_id", user.ID),
		)
		return
	}

	call := d.binder.Bind(desc, chatID, user)
	if err := Chain(desc.Invoke, d.mw...)(ctx, call); err != nil {
		d.events.LogError(ctx, err, scope)
	}
}

// Run consumes updates until the context is canceled or the channel
// closes, fanning HandleMessage out over a bounded worker pool. Queue
// overflow drops the update with a warning rather than stalling the
// transport poller.
func (d *Dispatcher) Run(ctx context.Context, updates <-chan transport.Update) error {
	workers := runtime.NumCPU()
	if workers < 2 {
		workers = 2
	}

	d.log.Info("dispatcher started", logx.Int("workers", workers), logx.Int("job_queue_cap", cap(d.jobs)))

	var (
		wg        sync.WaitGroup
		closeOnce sync.Once
	)
	closeJobs := func() {
		closeOnce.Do(func() { close(d.jobs) })
	}

	wg.Add(workers)
	for i := 0; i < workers; i++ {
		idx := i
		go func() {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					d.log.Error("panic in dispatch worker",
						logx.Int("worker", idx),
						logx.Any("panic", r),
						logx.String("stack", string(debug.Stack())),
					)
				}
			}()
			for {
				select {
				case <-ctx.Done():
					return
				case job, ok := <-d.jobs:
					if !ok {
						return
					}
					if job == nil {
						continue
					}
					job()
				}
			}
		}()
	}

	defer func() {
		closeJobs()
		wg.Wait()
		d.log.Info("dispatcher stopped")
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case up, ok := <-updates:
			if !ok {
				d.log.Info("dispatcher stopped (updates channel closed)")
				return nil
			}
			if up.Kind != transport.UpdateMessage || up.Message == nil {
				continue
			}
			msg := *up.Message
			select {
			case d.jobs <- func() { d.HandleMessage(ctx, msg) }:
			default:
				d.log.Warn("dispatch queue full, update dropped",
					logx.Int64("chat_id", msg.ChatID),
					logx.Int("queue_cap", cap(d.jobs)),
				)
			}
		}
	}
}
