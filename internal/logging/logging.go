package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"time"
)

type Config struct {
	Level      string `envconfig:"LOG_LEVEL" default:"info"`
	Format     string `envconfig:"LOG_FORMAT" default:"text"`
	TimeZone   string `envconfig:"LOG_TIMEZONE" default:"Local"`
	TimeFormat string `envconfig:"LOG_TIME_FORMAT" default:"2006-01-02 15:04:05.000"`
}

// New builds the process logger and installs it as the slog default.
func New(cfg Config) *slog.Logger {
	return NewWithWriter(cfg, os.Stderr)
}

func NewWithWriter(cfg Config, w io.Writer) *slog.Logger {
	loc, err := time.LoadLocation(cfg.TimeZone)
	if err != nil {
		loc = time.Local
	}
	timeFormat := cfg.TimeFormat
	if timeFormat == "" {
		timeFormat = time.RFC3339
	}

	opts := &slog.HandlerOptions{
		Level: ParseLevel(cfg.Level),
		ReplaceAttr: func(_ []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey {
				if t, ok := a.Value.Any().(time.Time); ok {
					a.Value = slog.StringValue(t.In(loc).Format(timeFormat))
				}
			}
			return a
		},
	}

	var handler slog.Handler
	if strings.EqualFold(cfg.Format, "json") {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
}

func ParseLevel(s string) slog.Level {
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
