package storage

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	logx "botlib/pkg/logx"
)

// fileStore is a dependency-free persistence backend: one append-only
// JSON Lines file (<prefix>.events.jsonl).
type fileStore struct {
	log logx.Logger

	mu   sync.Mutex
	file *os.File
}

type eventRecord struct {
	At     string `json:"at"`
	Kind   string `json:"kind"`
	Scope  string `json:"scope,omitempty"`
	ChatID int64  `json:"chat_id,omitempty"`
	UserID int64  `json:"user_id,omitempty"`
	Detail string `json:"detail,omitempty"`
}

func openFile(cfg Config, log logx.Logger) (Store, error) {
	path := strings.TrimSpace(cfg.Path)
	if path == "" {
		return nil, errors.New("storage.path is required for file driver")
	}

	dir := filepath.Dir(path)
	base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(filepath.Base(path)))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}

	f, err := os.OpenFile(filepath.Join(dir, base)+".events.jsonl", os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		return nil, err
	}
	return &fileStore{log: log, file: f}, nil
}

func (s *fileStore) AppendEvent(ctx context.Context, e Event) error {
	if s == nil || s.file == nil {
		return ErrDisabled
	}
	if e.At.IsZero() {
		e.At = time.Now()
	}
	rec := eventRecord{
		At:     e.At.Format(time.RFC3339Nano),
		Kind:   e.Kind,
		Scope:  e.Scope,
		ChatID: e.ChatID,
		UserID: e.UserID,
		Detail: e.Detail,
	}
	b, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	b = append(b, '\n')

	s.mu.Lock()
	defer s.mu.Unlock()
	_, err = s.file.Write(b)
	return err
}

func (s *fileStore) Close() error {
	if s == nil || s.file == nil {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	err := s.file.Close()
	s.file = nil
	return err
}
