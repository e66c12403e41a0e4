// Package logging builds the process-wide slog logger.
package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/natefinch/lumberjack.v2"
)

type Params struct {
	Level  string // debug, info, warn, error
	Format string // text or json
	File   string // optional; rotated and written in addition to stdout
}

// New returns the logger and a close func for the log file, if any.
func New(p Params) (*slog.Logger, func() error) {
	var out io.Writer = os.Stdout
	closeFn := func() error { return nil }

	if p.File != "" {
		lj := &lumberjack.Logger{
			Filename: p.File,
			MaxSize:  50, // megabytes
			Compress: true,
		}
		out = io.MultiWriter(os.Stdout, lj)
		closeFn = lj.Close
	}
	return newLogger(out, p), closeFn
}

func newLogger(out io.Writer, p Params) *slog.Logger {
	opts := &slog.HandlerOptions{Level: ParseLevel(p.Level)}
	if strings.EqualFold(p.Format, "json") {
		return slog.New(slog.NewJSONHandler(out, opts))
	}
	return slog.New(slog.NewTextHandler(out, opts))
}

// ParseLevel maps a config value to a slog level. Unknown values mean info.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
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
