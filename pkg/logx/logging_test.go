package logx

import (
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestParseLevel(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in   string
		want zerolog.Level
	}{
		{"trace", zerolog.TraceLevel},
		{"DEBUG", zerolog.DebugLevel},
		{" info ", zerolog.InfoLevel},
		{"warn", zerolog.WarnLevel},
		{"warning", zerolog.WarnLevel},
		{"error", zerolog.ErrorLevel},
		{"", zerolog.InfoLevel},
		{"verbose", zerolog.InfoLevel},
	}
	for _, tc := range cases {
		if got := parseLevel(tc.in, zerolog.InfoLevel); got != tc.want {
			t.Errorf("parseLevel(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestFormatTelegramLine(t *testing.T) {
	t.Parallel()

	line := `{"level":"warn","time":"2026-01-02T03:04:05Z","message":"queue full","caller":"x.go:1","count":3}`
	got := formatTelegramLine([]byte(line))
	if !strings.HasPrefix(got, "[WARN] queue full") {
		t.Fatalf("got %q", got)
	}
	if !strings.Contains(got, "count=3") {
		t.Fatalf("field missing: %q", got)
	}
	if strings.Contains(got, "caller") || strings.Contains(got, "2026-01-02") {
		t.Fatalf("noise fields leaked: %q", got)
	}

	// Non-JSON input falls back to the raw line.
	if got := formatTelegramLine([]byte("plain text\n")); got != "plain text" {
		t.Fatalf("fallback = %q", got)
	}
}

func TestTruncate(t *testing.T) {
	t.Parallel()
	if got := truncate("short", 100); got != "short" {
		t.Fatalf("got %q", got)
	}
	long := strings.Repeat("a", 50)
	got := truncate(long, 20)
	if len(got) != 20 || !strings.HasSuffix(got, "...") {
		t.Fatalf("got %q", got)
	}
}

func TestNopLoggerIsSilentAndSafe(t *testing.T) {
	t.Parallel()
	l := Nop()
	l.Info("nothing", String("k", "v"), Err(nil))
	if l.IsZero() {
		t.Fatal("Nop logger should carry a base logger")
	}
	var zero Logger
	if !zero.IsZero() {
		t.Fatal("zero Logger should report IsZero")
	}
	zero.Warn("still must not panic")
}
