// Package logging builds the slog logger used by the CLI.
package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/lmittmann/tint"
)

// Config selects the handler and level.
type Config struct {
	Level  string
	JSON   bool
	Writer io.Writer
}

// New returns a tint text logger, or a JSON logger when cfg.JSON is set.
func New(cfg Config) *slog.Logger {
	w := cfg.Writer
	if w == nil {
		w = os.Stderr
	}
	level := ParseLevel(cfg.Level)
	var handler slog.Handler
	if cfg.JSON {
		handler = slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level})
	} else {
		handler = tint.NewHandler(w, &tint.Options{
			Level:      level,
			TimeFormat: "15:04:05",
			NoColor:    w != os.Stderr && w != os.Stdout,
		})
	}
	return slog.New(handler)
}

// ParseLevel maps debug/info/warn/error to a slog level, defaulting to info.
func ParseLevel(level string) slog.Level {
	var l slog.Level
	if err := l.UnmarshalText([]byte(strings.TrimSpace(level))); err != nil {
		return slog.LevelInfo
	}
	return l
}
