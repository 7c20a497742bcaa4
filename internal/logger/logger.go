// Package logger provides the diagnostics logger for the CLI. User-facing
// command output goes straight to stdout; this is only for --verbose
// troubleshooting and the optional rotating log file.
package logger

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/loykin/timelog/internal/config"
	lj "gopkg.in/natefinch/lumberjack.v2"
)

// Rotation defaults, lumberjack semantics.
const (
	DefaultMaxSizeMB  = 10
	DefaultMaxBackups = 3
	DefaultMaxAgeDays = 7
)

// New builds the slog logger. Verbose enables debug level on stderr with
// colored level tags; when cfg.Dir is set, records are also written to a
// rotated file under it.
func New(cfg config.LogConfig, verbose bool) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	opts := &slog.HandlerOptions{Level: level}

	var w io.Writer = os.Stderr
	if cfg.Dir != "" {
		file := &lj.Logger{
			Filename:   filepath.Join(cfg.Dir, "timelog.log"),
			MaxSize:    valOr(cfg.MaxSizeMB, DefaultMaxSizeMB),
			MaxBackups: valOr(cfg.MaxBackups, DefaultMaxBackups),
			MaxAge:     valOr(cfg.MaxAgeDays, DefaultMaxAgeDays),
			Compress:   cfg.Compress,
		}
		w = io.MultiWriter(os.Stderr, file)
	}
	return slog.New(NewColorTextHandler(w, opts))
}

func valOr(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}
