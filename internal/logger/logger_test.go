package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
)

func TestNew_JSONCarriesServiceAndLevel(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, "warn", true)

	l.Info("skipped")
	l.Warn("kept", "withdrawal_id", 5)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("expected one line, got %q", buf.String())
	}
	var rec map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &rec); err != nil {
		t.Fatal(err)
	}
	if rec["service"] != ServiceName || rec["msg"] != "kept" || rec["withdrawal_id"] != float64(5) {
		t.Fatalf("record = %v", rec)
	}
	if ts, _ := rec["time"].(string); !strings.HasSuffix(ts, "Z") {
		t.Fatalf("time not UTC: %v", rec["time"])
	}
}

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"WARNING": slog.LevelWarn,
		" error ": slog.LevelError,
		"":        slog.LevelInfo,
		"verbose": slog.LevelInfo,
	}
	for in, want := range cases {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestWithContext(t *testing.T) {
	var buf bytes.Buffer
	reqLog := New(&buf, "info", false).With("request_id", "abc")
	ctx := IntoContext(context.Background(), reqLog)

	WithContext(ctx).Info("hello")
	if !strings.Contains(buf.String(), "request_id=abc") {
		t.Fatalf("request logger not used: %q", buf.String())
	}
	if WithContext(context.Background()) != Get() {
		t.Fatal("empty context must fall back to the global logger")
	}
}
