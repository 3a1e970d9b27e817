package slogutil

import (
	"io"
	"log/slog"

	"shift/internal/config"
	"shift/internal/paths"
)

// LoggerFactory builds the CLI logger from flags and configuration.
// Precedence: CLI flags > logging.level in config > warn.
type LoggerFactory struct {
	repoRoot string
	config   *config.Config
	cliLevel slog.Level
	cliSet   bool
	closers  []io.Closer
}

// NewLoggerFactory creates a new logger factory. cliSet reports whether the
// user passed -v or -q; when false, cliLevel is ignored.
func NewLoggerFactory(repoRoot string, cfg *config.Config, cliLevel slog.Level, cliSet bool) *LoggerFactory {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	return &LoggerFactory{
		repoRoot: repoRoot,
		config:   cfg,
		cliLevel: cliLevel,
		cliSet:   cliSet,
	}
}

// CLILogger returns a logger writing to w (normally stderr). When
// logging.file is configured the records are also appended to that file
// with timestamps. A log file that cannot be opened is reported on the
// returned logger and otherwise ignored.
func (f *LoggerFactory) CLILogger(w io.Writer) *slog.Logger {
	level := f.EffectiveLevel()
	terminal := NewTerminalHandler(w, &slog.HandlerOptions{Level: level})

	logPath := paths.ResolveLogPath(f.repoRoot, f.config.Logging.File)
	if logPath == "" {
		return slog.New(terminal)
	}

	fileLevel := level
	if fileLevel > slog.LevelInfo {
		fileLevel = slog.LevelInfo
	}
	fileLogger, file, err := NewFileLogger(logPath, fileLevel)
	if err != nil {
		logger := slog.New(terminal)
		logger.Warn("Failed to open log file", "path", logPath, "error", err)
		return logger
	}
	f.closers = append(f.closers, file)

	return slog.New(NewTeeHandler(terminal, fileLogger.Handler()))
}

// EffectiveLevel returns the terminal log level.
func (f *LoggerFactory) EffectiveLevel() slog.Level {
	if f.cliSet {
		return f.cliLevel
	}
	if f.config.Logging.Level != "" {
		return LevelFromString(f.config.Logging.Level)
	}
	return slog.LevelWarn
}

// Close closes all open log files.
func (f *LoggerFactory) Close() error {
	var firstErr error
	for _, c := range f.closers {
		if err := c.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	f.closers = nil
	return firstErr
}
