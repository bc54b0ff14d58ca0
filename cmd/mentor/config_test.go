package main

import (
	"log/slog"
	"testing"
	"time"
)

func TestApplyFlags(t *testing.T) {
	cfg := &Config{HTTPAddr: "127.0.0.1:8087"}

	applyFlags(cfg, []string{"--addr=0.0.0.0:9000"})
	if cfg.HTTPAddr != "0.0.0.0:9000" {
		t.Errorf("HTTPAddr = %q; want 0.0.0.0:9000", cfg.HTTPAddr)
	}

	applyFlags(cfg, []string{"--other=x"})
	if cfg.HTTPAddr != "0.0.0.0:9000" {
		t.Errorf("HTTPAddr = %q; unrelated flag must not change it", cfg.HTTPAddr)
	}
}

func TestParseTimeoutSec(t *testing.T) {
	tests := []struct {
		in   string
		want time.Duration
	}{
		{"5", 5 * time.Second},
		{"0", 10 * time.Second},
		{"-3", 10 * time.Second},
		{"junk", 10 * time.Second},
	}
	for _, tt := range tests {
		if got := parseTimeoutSec(tt.in); got != tt.want {
			t.Errorf("parseTimeoutSec(%q) = %v; want %v", tt.in, got, tt.want)
		}
	}
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"error", slog.LevelError},
		{"bogus", slog.LevelInfo},
	}
	for _, tt := range tests {
		if got := parseLogLevel(tt.in); got != tt.want {
			t.Errorf("parseLogLevel(%q) = %v; want %v", tt.in, got, tt.want)
		}
	}
}
