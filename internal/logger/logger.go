package logger

import (
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	lumberjack "gopkg.in/natefinch/lumberjack.v2"
)

// Options controls where and how the service logs.
type Options struct {
	Level       string
	File        string
	Development bool
}

// New builds the root logger. Development mode writes human readable console
// output; otherwise JSON lines go to stdout. When File is set, JSON lines are
// also written to a size-rotated file.
func New(opts Options) zerolog.Logger {
	zerolog.TimeFieldFormat = time.RFC3339

	var console io.Writer = os.Stdout
	if opts.Development {
		console = zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: "15:04:05"}
	}

	writers := []io.Writer{console}
	if opts.File != "" {
		if err := os.MkdirAll(filepath.Dir(opts.File), 0o755); err == nil {
			writers = append(writers, &lumberjack.Logger{
				Filename:   opts.File,
				MaxSize:    10, // MB
				MaxBackups: 3,
				MaxAge:     28,
				Compress:   true,
			})
		}
	}

	return zerolog.New(zerolog.MultiLevelWriter(writers...)).
		Level(ParseLevel(opts.Level)).
		With().
		Timestamp().
		Str("service", "market-analyst").
		Logger()
}

// ParseLevel falls back to info for empty or unknown levels.
func ParseLevel(level string) zerolog.Level {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || lvl == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return lvl
}
