package logger

import (
	"log/slog"
	"os"
	"strings"
	"sync"
)

// Config controls the global slog handler.
type Config struct {
	Level     string
	Format    string // "text" or "json"
	Component string
}

var (
	mu     sync.RWMutex
	global *slog.Logger
)

// Init sets up the global logger. Safe to call multiple times; the last
// call wins.
func Init(c Config) {
	opts := &slog.HandlerOptions{Level: parseLevel(c.Level)}

	var handler slog.Handler
	if strings.EqualFold(c.Format, "json") {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	log := slog.New(handler)
	if c.Component != "" {
		log = log.With("component", c.Component)
	}

	mu.Lock()
	global = log
	mu.Unlock()
}

// L returns the global logger, initializing a default one if needed.
func L() *slog.Logger {
	mu.RLock()
	log := global
	mu.RUnlock()
	if log != nil {
		return log
	}
	Init(Config{})
	mu.RLock()
	defer mu.RUnlock()
	return global
}

// With creates a child logger with additional attributes.
func With(args ...any) *slog.Logger { return L().With(args...) }

func parseLevel(s string) slog.Leveler {
	switch strings.ToLower(strings.TrimSpace(s)) {
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
