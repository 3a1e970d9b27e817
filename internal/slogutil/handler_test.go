package slogutil

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"shift/internal/config"
)

func TestShiftHandler_Format(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, slog.LevelInfo)

	logger.Info("Rewrote file", "path", "app/User.php", "instances", 2)

	output := buf.String()

	// Check format: TIMESTAMP [level] Message | key=value
	for _, want := range []string{"[info]", "Rewrote file", " | ", "path=app/User.php", "instances=2"} {
		if !strings.Contains(output, want) {
			t.Errorf("expected %q in output, got: %s", want, output)
		}
	}
	if !strings.HasSuffix(output, "\n") {
		t.Errorf("expected trailing newline, got: %q", output)
	}
}

func TestTerminalHandler_NoTimestamp(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(NewTerminalHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	logger.Warn("Skipping file", "error", "syntax error")

	output := buf.String()
	if !strings.HasPrefix(output, "[warn] Skipping file") {
		t.Errorf("expected output to start with level, got: %q", output)
	}
	if !strings.Contains(output, `error="syntax error"`) {
		t.Errorf("expected quoted value with spaces, got: %q", output)
	}
}

func TestShiftHandler_Levels(t *testing.T) {
	tests := []struct {
		logFunc  func(*slog.Logger)
		expected string
	}{
		{func(l *slog.Logger) { l.Debug("debug") }, "[debug]"},
		{func(l *slog.Logger) { l.Info("info") }, "[info]"},
		{func(l *slog.Logger) { l.Warn("warn") }, "[warn]"},
		{func(l *slog.Logger) { l.Error("error") }, "[error]"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			var buf bytes.Buffer
			logger := NewLogger(&buf, slog.LevelDebug)
			tt.logFunc(logger)

			if !strings.Contains(buf.String(), tt.expected) {
				t.Errorf("expected %s in output, got: %s", tt.expected, buf.String())
			}
		})
	}
}

func TestShiftHandler_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, slog.LevelWarn)

	logger.Debug("debug message")
	logger.Info("info message")
	logger.Warn("warn message")
	logger.Error("error message")

	output := buf.String()

	if strings.Contains(output, "debug message") {
		t.Error("debug message should be filtered")
	}
	if strings.Contains(output, "info message") {
		t.Error("info message should be filtered")
	}
	if !strings.Contains(output, "warn message") {
		t.Error("warn message should be included")
	}
	if !strings.Contains(output, "error message") {
		t.Error("error message should be included")
	}
}

func TestShiftHandler_WithAttrsAndGroup(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, slog.LevelInfo).With("task", "debug-calls").WithGroup("file")

	logger.Info("done", "path", "a.php")

	output := buf.String()
	if !strings.Contains(output, "task=debug-calls") {
		t.Errorf("expected pre-set attr, got: %s", output)
	}
	if !strings.Contains(output, "file.path=a.php") {
		t.Errorf("expected grouped key, got: %s", output)
	}
}

func TestLevelFromString(t *testing.T) {
	tests := []struct {
		input    string
		expected slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"DEBUG", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{" error ", slog.LevelError},
		{"unknown", slog.LevelInfo},
		{"", slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := LevelFromString(tt.input); got != tt.expected {
				t.Errorf("LevelFromString(%q) = %v, want %v", tt.input, got, tt.expected)
			}
		})
	}
}

func TestLevelFromVerbosity(t *testing.T) {
	tests := []struct {
		verbosity int
		quiet     bool
		expected  slog.Level
	}{
		{0, false, slog.LevelWarn},
		{1, false, slog.LevelInfo},
		{2, false, slog.LevelDebug},
		{3, false, slog.LevelDebug},
		{0, true, LevelSilent},
		{5, true, LevelSilent},
	}

	for _, tt := range tests {
		if got := LevelFromVerbosity(tt.verbosity, tt.quiet); got != tt.expected {
			t.Errorf("LevelFromVerbosity(%d, %v) = %v, want %v", tt.verbosity, tt.quiet, got, tt.expected)
		}
	}
}

func TestNewDiscardLogger(t *testing.T) {
	logger := NewDiscardLogger()
	logger.Error("error")

	if OrDiscard(nil) == nil {
		t.Error("OrDiscard(nil) returned nil")
	}
	if OrDiscard(logger) != logger {
		t.Error("OrDiscard should return a non-nil logger unchanged")
	}
}

func TestTeeHandler(t *testing.T) {
	var buf1, buf2 bytes.Buffer
	h1 := NewShiftHandler(&buf1, &slog.HandlerOptions{Level: slog.LevelInfo})
	h2 := NewShiftHandler(&buf2, &slog.HandlerOptions{Level: slog.LevelWarn})

	logger := slog.New(NewTeeHandler(h1, h2))
	logger.Info("info message")
	logger.Warn("warn message")

	if !strings.Contains(buf1.String(), "info message") || !strings.Contains(buf1.String(), "warn message") {
		t.Errorf("buf1 should contain both messages, got: %s", buf1.String())
	}
	if strings.Contains(buf2.String(), "info message") {
		t.Error("buf2 should not contain info message")
	}
	if !strings.Contains(buf2.String(), "warn message") {
		t.Error("buf2 should contain warn message")
	}
}

func TestLoggerFactory_EffectiveLevel(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Logging.Level = "error"

	if got := NewLoggerFactory("", cfg, slog.LevelDebug, true).EffectiveLevel(); got != slog.LevelDebug {
		t.Errorf("CLI level should win, got %v", got)
	}
	if got := NewLoggerFactory("", cfg, slog.LevelDebug, false).EffectiveLevel(); got != slog.LevelError {
		t.Errorf("config level should apply without CLI flags, got %v", got)
	}

	cfg.Logging.Level = ""
	if got := NewLoggerFactory("", cfg, 0, false).EffectiveLevel(); got != slog.LevelWarn {
		t.Errorf("default should be warn, got %v", got)
	}
}

func TestLoggerFactory_FileTee(t *testing.T) {
	root := t.TempDir()
	cfg := config.DefaultConfig()
	cfg.Logging.File = "shift.log"

	factory := NewLoggerFactory(root, cfg, slog.LevelWarn, true)
	var stderr bytes.Buffer
	logger := factory.CLILogger(&stderr)

	logger.Info("scanning")
	logger.Warn("skipped file")
	if err := factory.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	if strings.Contains(stderr.String(), "scanning") {
		t.Error("info record should not reach the terminal at warn level")
	}

	data, err := os.ReadFile(filepath.Join(root, ".shift", "logs", "shift.log"))
	if err != nil {
		t.Fatalf("log file not written: %v", err)
	}
	if !strings.Contains(string(data), "scanning") || !strings.Contains(string(data), "skipped file") {
		t.Errorf("log file should capture info and warn records, got: %s", data)
	}
}
