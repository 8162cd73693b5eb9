package logging

import (
	"context"
	"log/slog"
	"testing"
)

func TestParseLevel(t *testing.T) {
	cases := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"DEBUG", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"", slog.LevelInfo},
		{"bogus", slog.LevelInfo},
	}
	for _, tc := range cases {
		if got := parseLevel(tc.in); got != tc.want {
			t.Errorf("parseLevel(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestNewHonorsLevel(t *testing.T) {
	ctx := context.Background()
	logger := New("error", "json")
	if logger.Enabled(ctx, slog.LevelInfo) {
		t.Fatal("info must be suppressed at error level")
	}
	if !logger.Enabled(ctx, slog.LevelError) {
		t.Fatal("error must be enabled at error level")
	}

	logger = New("debug", "text")
	if !logger.Enabled(ctx, slog.LevelDebug) {
		t.Fatal("debug must be enabled at debug level")
	}
}
