package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestNewWritesServiceField(t *testing.T) {
	var buf bytes.Buffer
	logg := New(Options{ServiceName: "api", Output: &buf})

	logg.Info(context.Background(), "hello")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("log output is not json: %v", err)
	}
	if entry["service"] != "api" {
		t.Fatalf("expected service field api, got %v", entry["service"])
	}
	if entry["message"] != "hello" {
		t.Fatalf("expected message hello, got %v", entry["message"])
	}
}

func TestContextFieldsPropagate(t *testing.T) {
	var buf bytes.Buffer
	logg := New(Options{ServiceName: "api", Output: &buf})

	ctx := logg.WithRequestID(context.Background(), "req-1")
	ctx = logg.WithUserID(ctx, "user-1")
	ctx = logg.WithAnonymousID(ctx, "anon-1")
	logg.Info(ctx, "tagged")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("log output is not json: %v", err)
	}
	for key, want := range map[string]string{
		"request_id":   "req-1",
		"user_id":      "user-1",
		"anonymous_id": "anon-1",
	} {
		if entry[key] != want {
			t.Fatalf("expected %s=%s, got %v", key, want, entry[key])
		}
	}
}

func TestErrorIncludesStack(t *testing.T) {
	var buf bytes.Buffer
	logg := New(Options{ServiceName: "api", Output: &buf})

	logg.Error(context.Background(), "boom", nil)

	if !strings.Contains(buf.String(), "stack") {
		t.Fatal("expected stack field on error log")
	}
}

func TestParseLevel(t *testing.T) {
	if got := ParseLevel("warn"); got != zerolog.WarnLevel {
		t.Fatalf("expected warn level, got %v", got)
	}
	if got := ParseLevel(""); got != zerolog.InfoLevel {
		t.Fatalf("expected default info level, got %v", got)
	}
	if got := ParseLevel("nonsense"); got != zerolog.InfoLevel {
		t.Fatalf("expected fallback info level, got %v", got)
	}
}
