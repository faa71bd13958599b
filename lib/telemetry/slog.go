package telemetry

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/lmittmann/tint"
	slogmulti "github.com/samber/slog-multi"
)

type LogConfig struct {
	// one of "debug", "info", "warn", "error", defaults to "info"
	Level string `json:"level"`
	// if set, logs are also written to this file as json lines
	File string `json:"file"`
}

func ParseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
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

// NewHandler creates the handler used by the CLIs: tinted output to
// `console` and, when `file` is non-nil, json lines to `file`.
func NewHandler(console io.Writer, file io.Writer, level slog.Level) slog.Handler {
	tinted := tint.NewHandler(console, &tint.Options{
		Level:      level,
		TimeFormat: time.Kitchen,
	})
	if file == nil {
		return tinted
	}
	return slogmulti.Fanout(
		tinted,
		slog.NewJSONHandler(file, &slog.HandlerOptions{Level: level}),
	)
}

// InitSlog sets the default slog logger according to `config`, the returned
// function closes the log file if one was opened.
func InitSlog(config LogConfig) (func() error, error) {
	level := ParseLevel(config.Level)
	if config.File == "" {
		slog.SetDefault(slog.New(NewHandler(os.Stderr, nil, level)))
		return func() error { return nil }, nil
	}

	err := os.MkdirAll(filepath.Dir(config.File), 0777)
	if err != nil {
		return nil, err
	}
	f, err := os.OpenFile(config.File, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return nil, err
	}
	slog.SetDefault(slog.New(NewHandler(os.Stderr, f, level)))
	return f.Close, nil
}
