package logger

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"
)

const timeFormat = "2006-01-02T15:04:05.000-07:00"

// Log is the process-wide logger. It is usable before Init is called
// (INFO level, stderr) so library callers never see a nil logger.
var Log = newLogger(slog.LevelInfo)

type entry struct {
	level slog.Level
	line  string
}

var (
	history    []entry
	historyMu  sync.RWMutex
	maxHistory = 500
	logFile    *os.File
	logFileMu  sync.Mutex
)

// HistoryHandler wraps a slog.Handler, keeping a bounded copy of every record
// and mirroring it to the log file when one is open.
type HistoryHandler struct {
	slog.Handler
	attrs []string // preformatted " key=value" pairs from WithAttrs
	group string   // dotted prefix from WithGroup
}

func (h *HistoryHandler) Handle(ctx context.Context, r slog.Record) error {
	var b strings.Builder
	fmt.Fprintf(&b, "time=%s level=%s msg=%q", r.Time.Format(timeFormat), r.Level, r.Message)
	for _, a := range h.attrs {
		b.WriteString(a)
	}
	r.Attrs(func(a slog.Attr) bool {
		b.WriteString(formatAttr(h.group, a))
		return true
	})
	msg := b.String()

	historyMu.Lock()
	if len(history) >= maxHistory {
		history = history[1:]
	}
	history = append(history, entry{level: r.Level, line: msg})
	historyMu.Unlock()

	err := h.Handler.Handle(ctx, r)

	logFileMu.Lock()
	if logFile != nil {
		fmt.Fprintln(logFile, msg)
	}
	logFileMu.Unlock()

	return err
}

func (h *HistoryHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	formatted := slices.Clone(h.attrs)
	for _, a := range attrs {
		formatted = append(formatted, formatAttr(h.group, a))
	}
	return &HistoryHandler{Handler: h.Handler.WithAttrs(attrs), attrs: formatted, group: h.group}
}

func (h *HistoryHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	return &HistoryHandler{Handler: h.Handler.WithGroup(name), attrs: h.attrs, group: h.group + name + "."}
}

func formatAttr(prefix string, a slog.Attr) string {
	a.Value = a.Value.Resolve()
	if a.Value.Kind() == slog.KindGroup {
		var b strings.Builder
		for _, ga := range a.Value.Group() {
			b.WriteString(formatAttr(prefix+a.Key+".", ga))
		}
		return b.String()
	}
	return fmt.Sprintf(" %s%s=%v", prefix, a.Key, a.Value)
}

// ParseLevel maps DEBUG/INFO/WARN/ERROR (any case) to a slog level, defaulting to INFO.
func ParseLevel(levelStr string) slog.Level {
	switch strings.ToUpper(strings.TrimSpace(levelStr)) {
	case "DEBUG":
		return slog.LevelDebug
	case "WARN", "WARNING":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func newLogger(level slog.Level) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level: level,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey && len(groups) == 0 {
				return slog.String(slog.TimeKey, a.Value.Time().Format(timeFormat))
			}
			return a
		},
	}
	return slog.New(&HistoryHandler{Handler: slog.NewTextHandler(os.Stderr, opts)})
}

// Init initializes the global logger
func Init(levelStr string) {
	Log = newLogger(ParseLevel(levelStr))
	slog.SetDefault(Log)
}

// SetLogFile opens (or switches to) a dated log file, unnest-YYYY-MM-DD.log, in dir.
func SetLogFile(dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create log directory: %w", err)
	}

	path := filepath.Join(dir, fmt.Sprintf("unnest-%s.log", time.Now().Format("2006-01-02")))
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("failed to open log file %s: %w", path, err)
	}

	logFileMu.Lock()
	if logFile != nil {
		logFile.Close()
	}
	logFile = f
	logFileMu.Unlock()
	return nil
}

// GetHistory returns the current log history
func GetHistory() []string {
	return GetHistoryLevel(slog.LevelDebug)
}

// GetHistoryLevel returns the recorded lines at or above level, oldest first.
func GetHistoryLevel(level slog.Level) []string {
	historyMu.RLock()
	defer historyMu.RUnlock()
	lines := make([]string, 0, len(history))
	for _, e := range history {
		if e.level >= level {
			lines = append(lines, e.line)
		}
	}
	return lines
}

// ResetHistory drops all recorded lines.
func ResetHistory() {
	historyMu.Lock()
	history = nil
	historyMu.Unlock()
}

// Close closes the log file if one is open
func Close() {
	logFileMu.Lock()
	defer logFileMu.Unlock()
	if logFile != nil {
		logFile.Close()
		logFile = nil
	}
}

func Debug(msg string, args ...any) {
	Log.Debug(msg, args...)
}

func Info(msg string, args ...any) {
	Log.Info(msg, args...)
}

func Warn(msg string, args ...any) {
	Log.Warn(msg, args...)
}

func Error(msg string, args ...any) {
	Log.Error(msg, args...)
}

func Fatal(msg string, args ...any) {
	Log.Error(msg, args...)
	Close()
	os.Exit(1)
}
