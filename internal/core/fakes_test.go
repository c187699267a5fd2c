package core

import (
	"context"
	"fmt"
	"sync"

	"botlib/internal/transport"
	logx "botlib/pkg/logx"
)

func nopLogger() logx.Logger { return logx.Nop() }

type fakeMessenger struct {
	mu      sync.Mutex
	sent    []sentText
	photos  []sentFile
	docs    []sentFile
	edits   []sentText
	deleted []transport.MessageRef
	denials []int64
	denyErr error
}

type sentText struct {
	ChatID int64
	Text   string
}

type sentFile struct {
	ChatID  int64
	Ref     transport.FileRef
	Caption string
}

func (m *fakeMessenger) SendText(ctx context.Context, to transport.ChatTarget, text string, opt *transport.SendOptions) (transport.MessageRef, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, sentText{ChatID: to.ChatID, Text: text})
	return transport.MessageRef{ChatID: to.ChatID, MessageID: len(m.sent)}, nil
}

func (m *fakeMessenger) SendPhoto(ctx context.Context, to transport.ChatTarget, photo transport.FileRef, caption string, opt *transport.SendOptions) (transport.MessageRef, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.photos = append(m.photos, sentFile{ChatID: to.ChatID, Ref: photo, Caption: caption})
	return transport.MessageRef{ChatID: to.ChatID, MessageID: len(m.photos)}, nil
}

func (m *fakeMessenger) SendDocument(ctx context.Context, to transport.ChatTarget, doc transport.FileRef, caption string, opt *transport.SendOptions) (transport.MessageRef, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.docs = append(m.docs, sentFile{ChatID: to.ChatID, Ref: doc, Caption: caption})
	return transport.MessageRef{ChatID: to.ChatID, MessageID: len(m.docs)}, nil
}

func (m *fakeMessenger) EditText(ctx context.Context, ref transport.MessageRef, text string, opt *transport.SendOptions) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.edits = append(m.edits, sentText{ChatID: ref.ChatID, Text: text})
	return nil
}

func (m *fakeMessenger) DeleteMessage(ctx context.Context, ref transport.MessageRef) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deleted = append(m.deleted, ref)
	return nil
}

func (m *fakeMessenger) SendDeniedNotice(ctx context.Context, to transport.ChatTarget) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.denyErr != nil {
		return m.denyErr
	}
	m.denials = append(m.denials, to.ChatID)
	return nil
}

func (m *fakeMessenger) texts() []sentText {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]sentText(nil), m.sent...)
}

func (m *fakeMessenger) denialCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.denials)
}

type fakeOracle struct {
	admins   map[int64]bool
	botAdmin bool
	err      error
	calls    int
}

func (o *fakeOracle) IsAdmin(ctx context.Context, chatID, userID int64) (bool, error) {
	o.calls++
	if o.err != nil {
		return false, o.err
	}
	return o.admins[userID], nil
}

func (o *fakeOracle) IsBotAdmin(ctx context.Context, chatID int64) (bool, error) {
	if o.err != nil {
		return false, o.err
	}
	return o.botAdmin, nil
}

type loggedErr struct {
	Err   error
	Scope string
}

type fakeEventLog struct {
	mu       sync.Mutex
	errs     []loggedErr
	warnings []string
	actions  []string
	chats    []int64
}

func (l *fakeEventLog) LogError(ctx context.Context, err error, scope string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.errs = append(l.errs, loggedErr{Err: err, Scope: scope})
}

func (l *fakeEventLog) LogWarning(ctx context.Context, msg string, scope string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.warnings = append(l.warnings, msg)
}

func (l *fakeEventLog) LogUserAction(ctx context.Context, userID int64, action string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.actions = append(l.actions, fmt.Sprintf("user %d: %s", userID, action))
}

func (l *fakeEventLog) LogBotAction(ctx context.Context, action, detail string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.actions = append(l.actions, fmt.Sprintf("bot: %s: %s", action, detail))
}

func (l *fakeEventLog) ChatSeen(ctx context.Context, chatID int64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.chats = append(l.chats, chatID)
}

func (l *fakeEventLog) errors() []loggedErr {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]loggedErr(nil), l.errs...)
}

func (l *fakeEventLog) recordedActions() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.actions...)
}

func (l *fakeEventLog) seenChats() []int64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]int64(nil), l.chats...)
}

func newTestDeps() (*fakeMessenger, *fakeOracle, *fakeEventLog, *Binder) {
	m := &fakeMessenger{}
	o := &fakeOracle{admins: map[int64]bool{}}
	ev := &fakeEventLog{}
	return m, o, ev, NewBinder(m, o, ev)
}
