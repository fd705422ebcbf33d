package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"latent-hq/callisto/pkg/config"
)

// LogFormat selects how records are rendered.
type LogFormat string

const (
	// FormatJSON renders one JSON object per record.
	FormatJSON LogFormat = "json"
	// FormatText renders logfmt-style key=value lines.
	FormatText LogFormat = "text"
	// FormatConsole renders for humans watching a terminal.
	FormatConsole LogFormat = "console"
)

// Logger wraps slog with secret redaction. All records pass through the
// redactor before they reach the handler, except those written via Slog.
type Logger struct {
	slog     *slog.Logger
	redactor *Redactor
}

// Config controls logger construction.
type Config struct {
	// Level is the minimum level to emit: debug, info, warn, or error.
	// Empty means info.
	Level string

	// Format is json, text, or console. Empty means json.
	Format string

	// AddSource attaches the file and line of the call site.
	AddSource bool

	// RedactSecrets scrubs tokens and credentials from log fields.
	RedactSecrets bool

	// RedactPatterns are extra redaction rules applied after the
	// built-in ones.
	RedactPatterns []config.RedactPattern

	// Writer receives the rendered records. Nil means os.Stdout.
	Writer io.Writer
}

// FromConfig maps the telemetry logging section of the application
// config onto a logger Config.
func FromConfig(cfg config.LoggingConfig) Config {
	return Config{
		Level:          cfg.Level,
		Format:         cfg.Format,
		AddSource:      cfg.AddSource,
		RedactSecrets:  cfg.RedactSecrets,
		RedactPatterns: cfg.RedactPatterns,
	}
}

// New builds a Logger from cfg. It fails on level or format strings it
// does not recognize, so typos in config surface at startup rather than
// as silently defaulted output.
func New(cfg Config) (*Logger, error) {
	level, err := parseLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level: %w", err)
	}
	format, err := parseFormat(cfg.Format)
	if err != nil {
		return nil, fmt.Errorf("invalid log format: %w", err)
	}

	writer := cfg.Writer
	if writer == nil {
		writer = os.Stdout
	}

	var redactor *Redactor
	if cfg.RedactSecrets {
		redactor = NewRedactor(cfg.RedactPatterns)
	}

	opts := &slog.HandlerOptions{
		Level:     level,
		AddSource: cfg.AddSource,
	}
	return &Logger{
		slog:     slog.New(newHandler(format, writer, opts)),
		redactor: redactor,
	}, nil
}

// newHandler picks the slog handler for a format. Console shares the
// text handler; the two differ only in intent, not rendering.
func newHandler(format LogFormat, w io.Writer, opts *slog.HandlerOptions) slog.Handler {
	switch format {
	case FormatText, FormatConsole:
		return slog.NewTextHandler(w, opts)
	default:
		return slog.NewJSONHandler(w, opts)
	}
}

// Slog returns the underlying slog.Logger for components that accept
// one directly. Fields logged through it bypass redaction.
func (l *Logger) Slog() *slog.Logger {
	return l.slog
}

// Debug logs at debug level.
func (l *Logger) Debug(msg string, args ...any) {
	l.log(context.Background(), slog.LevelDebug, msg, args...)
}

// Info logs at info level.
func (l *Logger) Info(msg string, args ...any) {
	l.log(context.Background(), slog.LevelInfo, msg, args...)
}

// Warn logs at warn level.
func (l *Logger) Warn(msg string, args ...any) {
	l.log(context.Background(), slog.LevelWarn, msg, args...)
}

// Error logs at error level.
func (l *Logger) Error(msg string, args ...any) {
	l.log(context.Background(), slog.LevelError, msg, args...)
}

// DebugContext logs at debug level with fields drawn from ctx.
func (l *Logger) DebugContext(ctx context.Context, msg string, args ...any) {
	l.log(ctx, slog.LevelDebug, msg, withContextFields(ctx, args)...)
}

// InfoContext logs at info level with fields drawn from ctx.
func (l *Logger) InfoContext(ctx context.Context, msg string, args ...any) {
	l.log(ctx, slog.LevelInfo, msg, withContextFields(ctx, args)...)
}

// WarnContext logs at warn level with fields drawn from ctx.
func (l *Logger) WarnContext(ctx context.Context, msg string, args ...any) {
	l.log(ctx, slog.LevelWarn, msg, withContextFields(ctx, args)...)
}

// ErrorContext logs at error level with fields drawn from ctx.
func (l *Logger) ErrorContext(ctx context.Context, msg string, args ...any) {
	l.log(ctx, slog.LevelError, msg, withContextFields(ctx, args)...)
}

// withContextFields prepends the context's known fields to args so they
// render before the caller's own attributes.
func withContextFields(ctx context.Context, args []any) []any {
	fields := extractContextFields(ctx)
	if len(fields) == 0 {
		return args
	}
	return append(fields, args...)
}

// log redacts and emits a record. Disabled levels return before the
// redactor runs, keeping filtered calls close to free.
func (l *Logger) log(ctx context.Context, level slog.Level, msg string, args ...any) {
	if !l.slog.Enabled(ctx, level) {
		return
	}
	if l.redactor != nil {
		args = l.redactor.RedactArgs(args...)
	}
	l.slog.Log(ctx, level, msg, args...)
}

// With returns a child logger carrying extra fields. The fields are
// redacted once here rather than on every record.
func (l *Logger) With(args ...any) *Logger {
	if l.redactor != nil {
		args = l.redactor.RedactArgs(args...)
	}
	return &Logger{
		slog:     l.slog.With(args...),
		redactor: l.redactor,
	}
}

// WithContext returns a child logger carrying the fields present in ctx
// (run_id, site, document, and trace correlation IDs).
func (l *Logger) WithContext(ctx context.Context) *Logger {
	fields := extractContextFields(ctx)
	if len(fields) == 0 {
		return l
	}
	return l.With(fields...)
}

// Shutdown releases logger resources. Handlers write synchronously,
// so there is nothing to flush.
func (l *Logger) Shutdown() error {
	return nil
}

// parseLevel maps a level name onto slog.Level, ignoring case.
func parseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return 0, fmt.Errorf("unknown log level %q", s)
}

// parseFormat maps a format name onto LogFormat, ignoring case.
func parseFormat(s string) (LogFormat, error) {
	switch strings.ToLower(s) {
	case "json", "":
		return FormatJSON, nil
	case "text":
		return FormatText, nil
	case "console":
		return FormatConsole, nil
	}
	return "", fmt.Errorf("unknown log format %q", s)
}
