// SPDX-License-Identifier: MPL-2.0
// Copyright (c) 2025 Daniel Schmidt

package catalystwan

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"strings"
	"unicode/utf8"
)

// MaxLogValueLength caps a single logged value; longer values are truncated.
const MaxLogValueLength = 1024

// Logger receives the client's structured log records as alternating
// key-value pairs. The context is the one passed to the API call, so
// handlers can attach request-scoped attributes.
//
// Implementations: DefaultLogger (standard log package), SlogLogger
// (log/slog) and NoOpLogger (default).
//
// Example:
//
//	client, _ := catalystwan.NewClient("https://vmanage.example.com",
//	    catalystwan.WithLogger(catalystwan.NewSlogLogger(slog.Default())))
type Logger interface {
	Debug(ctx context.Context, msg string, keysAndValues ...any)
	Info(ctx context.Context, msg string, keysAndValues ...any)
	Warn(ctx context.Context, msg string, keysAndValues ...any)
	Error(ctx context.Context, msg string, keysAndValues ...any)
}

// LogLevel represents the severity threshold for logging
type LogLevel int

// Log levels, most verbose first
const (
	LogLevelDebug LogLevel = iota
	LogLevelInfo
	LogLevelWarn
	LogLevelError
	LogLevelNone
)

func (l LogLevel) String() string {
	switch l {
	case LogLevelDebug:
		return "DEBUG"
	case LogLevelInfo:
		return "INFO"
	case LogLevelWarn:
		return "WARN"
	case LogLevelError:
		return "ERROR"
	case LogLevelNone:
		return "NONE"
	default:
		return fmt.Sprintf("UNKNOWN(%d)", l)
	}
}

// SlogLevel maps l onto slog's levels. LogLevelNone sits above
// slog.LevelError so nothing passes.
func (l LogLevel) SlogLevel() slog.Level {
	switch l {
	case LogLevelDebug:
		return slog.LevelDebug
	case LogLevelInfo:
		return slog.LevelInfo
	case LogLevelWarn:
		return slog.LevelWarn
	case LogLevelError:
		return slog.LevelError
	default:
		return slog.LevelError + 4
	}
}

// DefaultLogger writes "[LEVEL] message key=value ..." lines through the
// standard log package. Keys and values are sanitized; the message is not,
// since it always comes from library code.
//
// Example:
//
//	logger := catalystwan.NewDefaultLogger(catalystwan.LogLevelDebug)
//	client, _ := catalystwan.NewClient("https://vmanage.example.com",
//	    catalystwan.WithLogger(logger))
type DefaultLogger struct {
	level LogLevel
	out   *log.Logger
}

// NewDefaultLogger creates a DefaultLogger writing to the standard logger
func NewDefaultLogger(level LogLevel) *DefaultLogger {
	return &DefaultLogger{level: level}
}

// NewDefaultLoggerTo creates a DefaultLogger writing to out
func NewDefaultLoggerTo(out *log.Logger, level LogLevel) *DefaultLogger {
	return &DefaultLogger{level: level, out: out}
}

// Debug logs at LogLevelDebug
func (l *DefaultLogger) Debug(_ context.Context, msg string, keysAndValues ...any) {
	l.log(LogLevelDebug, msg, keysAndValues)
}

// Info logs at LogLevelInfo
func (l *DefaultLogger) Info(_ context.Context, msg string, keysAndValues ...any) {
	l.log(LogLevelInfo, msg, keysAndValues)
}

// Warn logs at LogLevelWarn
func (l *DefaultLogger) Warn(_ context.Context, msg string, keysAndValues ...any) {
	l.log(LogLevelWarn, msg, keysAndValues)
}

// Error logs at LogLevelError
func (l *DefaultLogger) Error(_ context.Context, msg string, keysAndValues ...any) {
	l.log(LogLevelError, msg, keysAndValues)
}

func (l *DefaultLogger) log(level LogLevel, msg string, kv []any) {
	if level < l.level {
		return
	}

	var b strings.Builder
	b.Grow(len(msg) + 8 + len(kv)*25)
	b.WriteString("[" + level.String() + "] ")
	b.WriteString(msg)
	for i := 0; i < len(kv); i += 2 {
		b.WriteByte(' ')
		b.WriteString(sanitizeLogValue(kv[i]))
		b.WriteByte('=')
		if i+1 < len(kv) {
			b.WriteString(sanitizeLogValue(kv[i+1]))
		} else {
			b.WriteString("<MISSING>")
		}
	}

	if l.out != nil {
		l.out.Println(b.String())
		return
	}
	log.Println(b.String())
}

// sanitizeLogValue renders val on a single line, truncated to
// MaxLogValueLength. Line breaks and tabs become spaces, other control
// characters and invalid UTF-8 become '.', zero-width characters are
// dropped and RTL overrides neutralized, so a device name or controller
// message cannot forge log entries.
func sanitizeLogValue(val any) string {
	str := fmt.Sprintf("%v", val)
	if len(str) > MaxLogValueLength {
		str = str[:MaxLogValueLength] + "...[TRUNCATED]"
	}
	return strings.Map(func(r rune) rune {
		switch {
		case r == '\n', r == '\r', r == '\t', r == '\f', r == 0x202E:
			return ' '
		case r == 0x200B, r == 0x200C, r == 0x200D, r == 0xFEFF:
			return -1
		case r == utf8.RuneError, r < 0x20, r == 0x7F:
			return '.'
		default:
			return r
		}
	}, str)
}

// NoOpLogger discards everything. It is the client default.
type NoOpLogger struct{}

// Debug discards the log message
func (n *NoOpLogger) Debug(_ context.Context, _ string, _ ...any) {}

// Info discards the log message
func (n *NoOpLogger) Info(_ context.Context, _ string, _ ...any) {}

// Warn discards the log message
func (n *NoOpLogger) Warn(_ context.Context, _ string, _ ...any) {}

// Error discards the log message
func (n *NoOpLogger) Error(_ context.Context, _ string, _ ...any) {}

// SlogLogger forwards log calls to a *slog.Logger, keeping the context so
// handlers can pick up trace or request attributes.
type SlogLogger struct {
	logger *slog.Logger
}

// NewSlogLogger wraps logger. A nil logger falls back to slog.Default().
func NewSlogLogger(logger *slog.Logger) *SlogLogger {
	if logger == nil {
		logger = slog.Default()
	}
	return &SlogLogger{logger: logger}
}

// Debug logs at slog.LevelDebug
func (s *SlogLogger) Debug(ctx context.Context, msg string, keysAndValues ...any) {
	s.logger.DebugContext(ctx, msg, keysAndValues...)
}

// Info logs at slog.LevelInfo
func (s *SlogLogger) Info(ctx context.Context, msg string, keysAndValues ...any) {
	s.logger.InfoContext(ctx, msg, keysAndValues...)
}

// Warn logs at slog.LevelWarn
func (s *SlogLogger) Warn(ctx context.Context, msg string, keysAndValues ...any) {
	s.logger.WarnContext(ctx, msg, keysAndValues...)
}

// Error logs at slog.LevelError
func (s *SlogLogger) Error(ctx context.Context, msg string, keysAndValues ...any) {
	s.logger.ErrorContext(ctx, msg, keysAndValues...)
}

// ParseLogLevel maps a level name (debug, info, warn, error, none) to a LogLevel.
func ParseLogLevel(name string) (LogLevel, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "debug":
		return LogLevelDebug, nil
	case "info", "":
		return LogLevelInfo, nil
	case "warn", "warning":
		return LogLevelWarn, nil
	case "error":
		return LogLevelError, nil
	case "none", "off":
		return LogLevelNone, nil
	default:
		return LogLevelNone, fmt.Errorf("unknown log level: %q", name)
	}
}
