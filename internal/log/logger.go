package log

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Logger is a slog.Logger bound to a component name.
type Logger struct {
	*slog.Logger
	base      *slog.Logger // same attrs minus the component
	component string
	closer    io.Closer
}

type Config struct {
	Level     slog.Level
	Format    string // "text" or "json"
	Component string
	// File, when set, receives log output through a rotating writer instead of stdout.
	File       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	// Output overrides the destination. Used by tests.
	Output io.Writer
}

func DefaultConfig() Config {
	return Config{
		Level:      slog.LevelInfo,
		Format:     "text",
		Component:  ComponentApp,
		MaxSizeMB:  10,
		MaxBackups: 3,
		MaxAgeDays: 28,
	}
}

// ParseLevel maps a LOG_LEVEL value to a slog level.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return slog.LevelInfo, fmt.Errorf("unknown log level %q", s)
}

func New(config Config) *Logger {
	var (
		out    io.Writer = os.Stdout
		closer io.Closer
	)
	switch {
	case config.Output != nil:
		out = config.Output
	case config.File != "":
		lj := &lumberjack.Logger{
			Filename:   config.File,
			MaxSize:    config.MaxSizeMB,
			MaxBackups: config.MaxBackups,
			MaxAge:     config.MaxAgeDays,
			Compress:   true,
		}
		out, closer = lj, lj
	}

	opts := &slog.HandlerOptions{Level: config.Level}
	var handler slog.Handler
	if strings.EqualFold(config.Format, "json") {
		handler = slog.NewJSONHandler(out, opts)
	} else {
		handler = slog.NewTextHandler(out, opts)
	}

	component := config.Component
	if component == "" {
		component = ComponentApp
	}
	return newLogger(slog.New(handler), component, closer)
}

func newLogger(base *slog.Logger, component string, closer io.Closer) *Logger {
	return &Logger{
		Logger:    base.With(FieldComponent, component),
		base:      base,
		component: component,
		closer:    closer,
	}
}

func (l *Logger) With(args ...any) *Logger {
	return newLogger(l.base.With(args...), l.component, l.closer)
}

// WithComponent derives a logger tagged with another component instead of
// the current one.
func (l *Logger) WithComponent(component string) *Logger {
	return newLogger(l.base, component, l.closer)
}

func (l *Logger) Component() string {
	return l.component
}

// Close flushes and closes the rotating file sink, if any.
func (l *Logger) Close() error {
	if l.closer == nil {
		return nil
	}
	return l.closer.Close()
}

func SetDefault(logger *Logger) {
	slog.SetDefault(logger.Logger)
}
