package pagination

import (
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestNormalizeLimit(t *testing.T) {
	cases := []struct {
		name string
		in   int
		want int
	}{
		{"zero uses default", 0, DefaultLimit},
		{"negative uses default", -5, DefaultLimit},
		{"within range untouched", 25, 25},
		{"above max capped", MaxLimit + 100, MaxLimit},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := NormalizeLimit(tc.in); got != tc.want {
				t.Fatalf("NormalizeLimit(%d) = %d, want %d", tc.in, got, tc.want)
			}
		})
	}
}

func TestLimitWithBuffer(t *testing.T) {
	if got := LimitWithBuffer(10); got != 11 {
		t.Fatalf("LimitWithBuffer(10) = %d, want 11", got)
	}
	if got := LimitWithBuffer(0); got != DefaultLimit+1 {
		t.Fatalf("LimitWithBuffer(0) = %d, want %d", got, DefaultLimit+1)
	}
}

func TestCursorRoundTrip(t *testing.T) {
	want := Cursor{
		Deadline: time.Date(2026, 3, 15, 12, 30, 45, 123456789, time.UTC),
		ID:       uuid.New(),
	}

	encoded := EncodeCursor(want)
	got, err := ParseCursor(encoded)
	if err != nil {
		t.Fatalf("ParseCursor returned error: %v", err)
	}
	if got == nil {
		t.Fatal("ParseCursor returned nil cursor")
	}
	if !got.Deadline.Equal(want.Deadline) {
		t.Fatalf("deadline = %v, want %v", got.Deadline, want.Deadline)
	}
	if got.ID != want.ID {
		t.Fatalf("id = %s, want %s", got.ID, want.ID)
	}
}

func TestParseCursorEmpty(t *testing.T) {
	got, err := ParseCursor("   ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != nil {
		t.Fatalf("expected nil cursor for blank input, got %+v", got)
	}
}

func TestParseCursorInvalid(t *testing.T) {
	cases := []struct {
		name  string
		value string
	}{
		{"not base64", "!!!not-base64!!!"},
		{"missing separator", "bm8tc2VwYXJhdG9y"},
		{"bad timestamp", "bm90LWEtdGltZXwxMjM0"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := ParseCursor(tc.value); err == nil {
				t.Fatal("expected error, got nil")
			}
		})
	}
}
