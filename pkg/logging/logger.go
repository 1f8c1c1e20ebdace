package logging

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"tonegen/pkg/config"
)

// RequestLogger writes the HTTP request log. It discards until Init runs.
var RequestLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

// Init installs the server logger as the slog default and sets RequestLogger.
// Existing log files are moved to .old first. The returned function closes
// both files.
func Init(cfg *config.LogConfig) (func(), error) {
	rotatePaths(cfg.Server.Path, cfg.Requests.Path)

	serverFile, err := openLogFile(cfg.Server.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to setup server logger: %w", err)
	}
	requestFile, err := openLogFile(cfg.Requests.Path)
	if err != nil {
		serverFile.Close()
		return nil, fmt.Errorf("failed to setup requests logger: %w", err)
	}

	slog.SetDefault(slog.New(serverHandler(serverFile, ParseLevel(cfg.Server.Level))))
	RequestLogger = slog.New(slog.NewTextHandler(requestFile, &slog.HandlerOptions{
		Level: ParseLevel(cfg.Requests.Level),
	}))

	return func() {
		RequestLogger = slog.New(slog.NewTextHandler(io.Discard, nil))
		if err := errors.Join(requestFile.Close(), serverFile.Close()); err != nil {
			fmt.Fprintf(os.Stderr, "failed to close log files: %v\n", err)
		}
	}, nil
}

// ParseLevel maps a config level string to a slog.Level. Unknown strings mean INFO.
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

// serverHandler sends records to the file at level, to the console and to
// the capture ring. The console and the ring never go below INFO.
func serverHandler(file io.Writer, level slog.Level) slog.Handler {
	return NewMultiHandler(
		slog.NewTextHandler(file, &slog.HandlerOptions{
			Level:     level,
			AddSource: level == slog.LevelDebug,
		}),
		slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: max(level, slog.LevelInfo)}),
		slog.NewTextHandler(GlobalLogCapture, &slog.HandlerOptions{Level: max(level, slog.LevelInfo)}),
	)
}

func openLogFile(path string) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	return os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
}

// NewMultiHandler fans records out to every handler that accepts their level.
func NewMultiHandler(handlers ...slog.Handler) slog.Handler {
	return &multiHandler{handlers: handlers}
}

type multiHandler struct {
	handlers []slog.Handler
}

func (m *multiHandler) Enabled(ctx context.Context, level slog.Level) bool {
	for _, h := range m.handlers {
		if h.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

// Handle implements slog.Handler. Every handler is tried; errors are joined.
// nolint:gocritic // r must be passed by value to implement slog.Handler
func (m *multiHandler) Handle(ctx context.Context, r slog.Record) error {
	var errs []error
	for _, h := range m.handlers {
		if !h.Enabled(ctx, r.Level) {
			continue
		}
		if err := h.Handle(ctx, r.Clone()); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (m *multiHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return m.derive(func(h slog.Handler) slog.Handler { return h.WithAttrs(attrs) })
}

func (m *multiHandler) WithGroup(name string) slog.Handler {
	return m.derive(func(h slog.Handler) slog.Handler { return h.WithGroup(name) })
}

func (m *multiHandler) derive(fn func(slog.Handler) slog.Handler) slog.Handler {
	next := make([]slog.Handler, len(m.handlers))
	for i, h := range m.handlers {
		next[i] = fn(h)
	}
	return &multiHandler{handlers: next}
}

// rotatePaths renames existing log files to .old so each run starts fresh.
func rotatePaths(paths ...string) {
	for _, p := range paths {
		if p == "" {
			continue
		}
		if _, err := os.Stat(p); err != nil {
			continue
		}
		old := p + ".old"
		_ = os.Remove(old)
		_ = os.Rename(p, old)
	}
}
