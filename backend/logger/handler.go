package logger

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"art-platform/backend/models"
)

const errorKey = "error"

// Sink persists log entries.
type Sink interface {
	CreateLogEntry(ctx context.Context, entry *models.LogEntry) error
}

// Cleaner removes old log entries.
type Cleaner interface {
	DeleteLogEntriesBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// DBHandler writes every record as JSON to stdout and stores it through the
// sink so users can review their own security events. The error attribute is
// written to stdout only; stored entries are shown back to users.
type DBHandler struct {
	sink        Sink
	level       slog.Leveler
	jsonHandler slog.Handler
	attrs       []slog.Attr
}

func NewDBHandler(sink Sink, level slog.Leveler) *DBHandler {
	return newDBHandler(sink, level, os.Stdout)
}

func newDBHandler(sink Sink, level slog.Leveler, out io.Writer) *DBHandler {
	return &DBHandler{
		sink:        sink,
		level:       level,
		jsonHandler: slog.NewJSONHandler(out, &slog.HandlerOptions{Level: level}),
		attrs:       []slog.Attr{},
	}
}

// ParseLevel maps debug, info, warn and error to slog levels; anything else is info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func (h *DBHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

func (h *DBHandler) Handle(ctx context.Context, r slog.Record) error {
	// Write to stdout
	_ = h.jsonHandler.Handle(ctx, r)

	attrs := make(map[string]any)
	var source string
	var userID *string

	collect := func(a slog.Attr) {
		switch a.Key {
		case "source":
			source = a.Value.String()
		case "user_id":
			if id := a.Value.String(); id != "" {
				userID = &id
			}
		case errorKey:
		default:
			attrs[a.Key] = a.Value.Any()
		}
	}

	for _, a := range h.attrs {
		collect(a)
	}
	r.Attrs(func(a slog.Attr) bool {
		collect(a)
		return true
	})

	var data string
	if len(attrs) > 0 {
		b, _ := json.Marshal(attrs)
		data = string(b)
	}

	created := r.Time
	if created.IsZero() {
		created = time.Now()
	}

	entry := models.LogEntry{
		CreatedAt: created,
		Level:     r.Level.String(),
		Message:   r.Message,
		Source:    source,
		UserID:    userID,
		Data:      data,
	}

	return h.sink.CreateLogEntry(context.WithoutCancel(ctx), &entry)
}

func (h *DBHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	newAttrs := make([]slog.Attr, len(h.attrs)+len(attrs))
	copy(newAttrs, h.attrs)
	copy(newAttrs[len(h.attrs):], attrs)
	return &DBHandler{
		sink:        h.sink,
		level:       h.level,
		jsonHandler: h.jsonHandler.WithAttrs(attrs),
		attrs:       newAttrs,
	}
}

func (h *DBHandler) WithGroup(name string) slog.Handler {
	return h
}

// CleanupOldLogs removes entries older than maxAge every interval until ctx is done.
func CleanupOldLogs(ctx context.Context, store Cleaner, maxAge, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			cutoff := time.Now().Add(-maxAge)
			if _, err := store.DeleteLogEntriesBefore(ctx, cutoff); err != nil && ctx.Err() == nil {
				// Logging here would recurse into the failing store.
				slog.New(slog.NewJSONHandler(os.Stderr, nil)).Error("log cleanup failed", "source", "logger", "error", err.Error())
			}
		}
	}
}
