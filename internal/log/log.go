// Package log provides category-tagged structured logging for stimseq.
// It is a thin facade over log/slog so call sites stay terse:
//
//	log.Info(log.CatSequence, "order generated", "items", n)
//	log.ErrorErr(log.CatDB, "failed to open database", err, "path", path)
package log

import (
	"io"
	"log/slog"
	"os"
	"sync"
)

// Category identifies the subsystem a log entry belongs to.
type Category string

// Log categories used throughout stimseq.
const (
	CatSequence Category = "sequence"
	CatCorpus   Category = "corpus"
	CatExport   Category = "export"
	CatDB       Category = "db"
	CatConfig   Category = "config"
)

var (
	mu     sync.RWMutex
	logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))
	level  = new(slog.LevelVar)
)

// Configure replaces the process logger. Pass io.Discard to silence
// logging entirely (used by tests).
func Configure(w io.Writer, lv slog.Level) {
	mu.Lock()
	defer mu.Unlock()
	level.Set(lv)
	logger = slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// SetVerbose lowers the log level to debug.
func SetVerbose() {
	mu.Lock()
	defer mu.Unlock()
	level.Set(slog.LevelDebug)
	logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

func get() *slog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return logger
}

// Debug logs a debug-level message tagged with the given category.
func Debug(cat Category, msg string, args ...any) {
	get().Debug(msg, append([]any{"cat", string(cat)}, args...)...)
}

// Info logs an info-level message tagged with the given category.
func Info(cat Category, msg string, args ...any) {
	get().Info(msg, append([]any{"cat", string(cat)}, args...)...)
}

// Warn logs a warning-level message tagged with the given category.
func Warn(cat Category, msg string, args ...any) {
	get().Warn(msg, append([]any{"cat", string(cat)}, args...)...)
}

// ErrorErr logs an error-level message with the error attached.
func ErrorErr(cat Category, msg string, err error, args ...any) {
	get().Error(msg, append([]any{"cat", string(cat), "error", err}, args...)...)
}

// Silence discards all log output. Intended for tests.
func Silence() {
	Configure(io.Discard, slog.LevelError)
}
