package storage

import (
	"bufio"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	logx "botlib/pkg/logx"
)

func TestOpenDisabled(t *testing.T) {
	t.Parallel()
	for _, driver := range []string{"", "none", "  "} {
		st, err := Open(Config{Driver: driver}, logx.Nop())
		if err != nil {
			t.Fatalf("driver %q: %v", driver, err)
		}
		if st != nil {
			t.Fatalf("driver %q: expected nil store", driver)
		}
	}
}

func TestOpenUnknownDriver(t *testing.T) {
	t.Parallel()
	if _, err := Open(Config{Driver: "redis"}, logx.Nop()); err == nil {
		t.Fatal("unknown driver accepted")
	}
}

func TestFileStoreAppend(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	st, err := Open(Config{Driver: "file", Path: filepath.Join(dir, "bot_store")}, logx.Nop())
	if err != nil {
		t.Fatal(err)
	}

	ctx := context.Background()
	events := []Event{
		{Kind: KindError, Scope: "command_invocation", ChatID: 42, Detail: "boom"},
		{Kind: KindChatSeen, ChatID: 42},
		{At: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC), Kind: KindBotAction, Detail: "started"},
	}
	for _, e := range events {
		if err := st.AppendEvent(ctx, e); err != nil {
			t.Fatal(err)
		}
	}
	if err := st.Close(); err != nil {
		t.Fatal(err)
	}

	f, err := os.Open(filepath.Join(dir, "bot_store.events.jsonl"))
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	var lines []eventRecord
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		var rec eventRecord
		if err := json.Unmarshal(sc.Bytes(), &rec); err != nil {
			t.Fatalf("line %d: %v", len(lines)+1, err)
		}
		lines = append(lines, rec)
	}
	if err := sc.Err(); err != nil {
		t.Fatal(err)
	}

	if len(lines) != 3 {
		t.Fatalf("lines = %d", len(lines))
	}
	if lines[0].Kind != KindError || lines[0].ChatID != 42 || lines[0].Scope != "command_invocation" {
		t.Fatalf("first line = %+v", lines[0])
	}
	if lines[0].At == "" || lines[1].At == "" {
		t.Fatal("missing timestamps")
	}
	if lines[2].At != "2026-01-02T03:04:05Z" {
		t.Fatalf("explicit timestamp = %q", lines[2].At)
	}
}

func TestFileStoreAppendAfterClose(t *testing.T) {
	t.Parallel()
	st, err := Open(Config{Driver: "file", Path: filepath.Join(t.TempDir(), "s")}, logx.Nop())
	if err != nil {
		t.Fatal(err)
	}
	if err := st.Close(); err != nil {
		t.Fatal(err)
	}
	if err := st.AppendEvent(context.Background(), Event{Kind: KindWarning}); err == nil {
		t.Fatal("append after close should fail")
	}
}

func TestFileStoreRequiresPath(t *testing.T) {
	t.Parallel()
	if _, err := Open(Config{Driver: "file"}, logx.Nop()); err == nil {
		t.Fatal("missing path accepted")
	}
}
