// Package logging provides structured logging infrastructure for the tilekit
// core. It wraps Go's standard log/slog package with context-aware logging,
// correlation IDs, and domain-specific log attributes.
package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
	"sync"
	"time"
)

// contextKey is used for storing logger-related values in context.
type contextKey string

const (
	// CorrelationIDKey is the context key for correlation IDs.
	CorrelationIDKey contextKey = "correlation_id"
	// WorkspaceIDKey is the context key for workspace IDs.
	WorkspaceIDKey contextKey = "workspace_id"
	// MonitorIDKey is the context key for monitor IDs.
	MonitorIDKey contextKey = "monitor_id"
	// ActionKey is the context key for the shortcut action being handled.
	ActionKey contextKey = "action"
)

// Level represents log levels.
type Level string

const (
	LevelDebug Level = "debug"
	LevelInfo  Level = "info"
	LevelWarn  Level = "warn"
	LevelError Level = "error"
)

// Format represents log output formats.
type Format string

const (
	FormatJSON Format = "json"
	FormatText Format = "text"
)

// Config holds logging configuration.
type Config struct {
	Level      Level
	Format     Format
	Output     io.Writer
	AddSource  bool
	TimeFormat string
}

// DefaultConfig returns sensible default logging configuration.
func DefaultConfig() Config {
	return Config{
		Level:      LevelInfo,
		Format:     FormatText,
		Output:     os.Stderr,
		AddSource:  false,
		TimeFormat: time.RFC3339,
	}
}

// Logger wraps slog.Logger with additional functionality for tilekit.
type Logger struct {
	slogger *slog.Logger
	level   slog.Level
	mu      sync.RWMutex
}

// global is the package-level default logger.
var (
	global     *Logger
	globalOnce sync.Once
)

// Init initializes the global logger with the provided configuration.
func Init(cfg Config) *Logger {
	globalOnce.Do(func() {
		global = New(cfg)
	})
	return global
}

// Default returns the global logger, initializing it with defaults if necessary.
func Default() *Logger {
	if global == nil {
		Init(DefaultConfig())
	}
	return global
}

// New creates a new Logger with the provided configuration.
func New(cfg Config) *Logger {
	level := parseLevel(cfg.Level)

	var handler slog.Handler
	opts := &slog.HandlerOptions{
		Level:     level,
		AddSource: cfg.AddSource,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			// Customize time format
			if a.Key == slog.TimeKey && cfg.TimeFormat != "" {
				if t, ok := a.Value.Any().(time.Time); ok {
					return slog.String(slog.TimeKey, t.Format(cfg.TimeFormat))
				}
			}
			return a
		},
	}

	output := cfg.Output
	if output == nil {
		output = os.Stderr
	}

	switch cfg.Format {
	case FormatJSON:
		handler = slog.NewJSONHandler(output, opts)
	default:
		handler = slog.NewTextHandler(output, opts)
	}

	return &Logger{
		slogger: slog.New(handler),
		level:   level,
	}
}

// parseLevel converts a Level to slog.Level.
func parseLevel(l Level) slog.Level {
	switch l {
	case LevelDebug:
		return slog.LevelDebug
	case LevelInfo:
		return slog.LevelInfo
	case LevelWarn:
		return slog.LevelWarn
	case LevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// SetLevel dynamically changes the log level.
func (l *Logger) SetLevel(level Level) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.level = parseLevel(level)
}

// With returns a new Logger with the given attributes.
func (l *Logger) With(args ...any) *Logger {
	return &Logger{
		slogger: l.slogger.With(args...),
		level:   l.level,
	}
}

// WithGroup returns a new Logger with the given group name.
func (l *Logger) WithGroup(name string) *Logger {
	return &Logger{
		slogger: l.slogger.WithGroup(name),
		level:   l.level,
	}
}

// Debug logs at debug level.
func (l *Logger) Debug(msg string, args ...any) {
	l.slogger.Debug(msg, args...)
}

// Info logs at info level.
func (l *Logger) Info(msg string, args ...any) {
	l.slogger.Info(msg, args...)
}

// Warn logs at warn level.
func (l *Logger) Warn(msg string, args ...any) {
	l.slogger.Warn(msg, args...)
}

// Error logs at error level.
func (l *Logger) Error(msg string, args ...any) {
	l.slogger.Error(msg, args...)
}

// DebugContext logs at debug level with context.
func (l *Logger) DebugContext(ctx context.Context, msg string, args ...any) {
	l.slogger.DebugContext(ctx, msg, l.enrichArgs(ctx, args)...)
}

// InfoContext logs at info level with context.
func (l *Logger) InfoContext(ctx context.Context, msg string, args ...any) {
	l.slogger.InfoContext(ctx, msg, l.enrichArgs(ctx, args)...)
}

// WarnContext logs at warn level with context.
func (l *Logger) WarnContext(ctx context.Context, msg string, args ...any) {
	l.slogger.WarnContext(ctx, msg, l.enrichArgs(ctx, args)...)
}

// ErrorContext logs at error level with context.
func (l *Logger) ErrorContext(ctx context.Context, msg string, args ...any) {
	l.slogger.ErrorContext(ctx, msg, l.enrichArgs(ctx, args)...)
}

// enrichArgs extracts context values and adds them as log attributes.
func (l *Logger) enrichArgs(ctx context.Context, args []any) []any {
	enriched := make([]any, 0, len(args)+8)

	if v := ctx.Value(CorrelationIDKey); v != nil {
		enriched = append(enriched, "correlation_id", v)
	}
	if v := ctx.Value(WorkspaceIDKey); v != nil {
		enriched = append(enriched, "workspace_id", v)
	}
	if v := ctx.Value(MonitorIDKey); v != nil {
		enriched = append(enriched, "monitor_id", v)
	}
	if v := ctx.Value(ActionKey); v != nil {
		enriched = append(enriched, "action", v)
	}

	enriched = append(enriched, args...)
	return enriched
}

// Underlying returns the underlying slog.Logger.
func (l *Logger) Underlying() *slog.Logger {
	return l.slogger
}

// --- Context helpers ---

// WithCorrelationID adds a correlation ID to the context.
func WithCorrelationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, CorrelationIDKey, id)
}

// WithWorkspaceID adds a workspace ID to the context.
func WithWorkspaceID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, WorkspaceIDKey, id)
}

// WithMonitorID adds a monitor ID to the context.
func WithMonitorID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, MonitorIDKey, id)
}

// WithAction adds the shortcut action name to the context.
func WithAction(ctx context.Context, action string) context.Context {
	return context.WithValue(ctx, ActionKey, action)
}

// CorrelationID extracts the correlation ID from context.
func CorrelationID(ctx context.Context) string {
	if v := ctx.Value(CorrelationIDKey); v != nil {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// --- Domain-specific logging helpers ---

// LogSwitchStart logs the start of a workspace switch. The target workspace
// id comes from the enriched context.
func LogSwitchStart(ctx context.Context, logger *Logger, previousID string) {
	logger.InfoContext(ctx, "workspace switch started",
		"previous_id", previousID,
	)
}

// LogSwitchComplete logs a completed workspace switch.
func LogSwitchComplete(ctx context.Context, logger *Logger, duration time.Duration, windowCount int) {
	logger.InfoContext(ctx, "workspace switch completed",
		"latency_ms", duration.Milliseconds(),
		"window_count", windowCount,
	)
}

// LogSwitchFailed logs a failed workspace switch, including the rollback target.
func LogSwitchFailed(ctx context.Context, logger *Logger, rollbackID string, err error, duration time.Duration) {
	logger.ErrorContext(ctx, "workspace switch failed",
		"rollback_id", rollbackID,
		"error", err.Error(),
		"latency_ms", duration.Milliseconds(),
	)
}

// LogPlanComputed logs a computed placement plan.
func LogPlanComputed(ctx context.Context, logger *Logger, windowCount int, duration time.Duration) {
	logger.DebugContext(ctx, "placement plan computed",
		"window_count", windowCount,
		"duration_ms", duration.Milliseconds(),
	)
}

// LogPlanFailed logs a plan computation failure.
func LogPlanFailed(ctx context.Context, logger *Logger, err error) {
	logger.ErrorContext(ctx, "placement plan failed",
		"error", err.Error(),
	)
}

// LogShortcutDispatched logs a resolved shortcut invocation.
func LogShortcutDispatched(ctx context.Context, logger *Logger, chord, action string) {
	logger.DebugContext(ctx, "shortcut dispatched",
		"chord", chord,
		"action", action,
	)
}

// LogShortcutMigrated logs a legacy combination rewritten to the safe modifier.
func LogShortcutMigrated(ctx context.Context, logger *Logger, mappingID, oldChord, newChord string) {
	logger.WarnContext(ctx, "legacy shortcut migrated",
		"mapping_id", mappingID,
		"old_chord", oldChord,
		"new_chord", newChord,
	)
}

// LogDriverRetry logs a platform driver retry attempt.
func LogDriverRetry(ctx context.Context, logger *Logger, attempt int, err error) {
	logger.WarnContext(ctx, "platform driver retry",
		"attempt", attempt,
		"error", err.Error(),
	)
}
