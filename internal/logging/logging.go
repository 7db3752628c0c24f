// Package logging builds the engine's structured logger: a slog.Logger
// writing to a size-rotated file under the configured logging directory,
// named tri_arb_<YYYY-MM-DD>.log.
package logging

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/natefinch/lumberjack.v2"

	"triarb/internal/config"
)

// New builds the slog.Logger for cfg. Format "json" produces JSON records;
// anything else (including empty) produces slog's default text format.
// The file rotates once it passes cfg.MaxSizeMB; rotated backups are named
// by lumberjack with a timestamp, not a numeric suffix. cfg.Directory is
// created if it doesn't already exist.
func New(cfg config.LoggingConfig) (*slog.Logger, error) {
	if cfg.Directory == "" {
		cfg.Directory = "logs"
	}
	if err := os.MkdirAll(cfg.Directory, 0o755); err != nil {
		return nil, fmt.Errorf("create log directory: %w", err)
	}

	maxSize := cfg.MaxSizeMB
	if maxSize <= 0 {
		maxSize = 10
	}

	filename := filepath.Join(cfg.Directory, fmt.Sprintf("tri_arb_%s.log", time.Now().Format("2006-01-02")))
	writer := &lumberjack.Logger{
		Filename: filename,
		MaxSize:  maxSize, // megabytes
		Compress: false,
	}

	opts := &slog.HandlerOptions{Level: parseLevel(cfg.Level)}

	var handler slog.Handler
	if strings.EqualFold(cfg.Format, "json") {
		handler = slog.NewJSONHandler(writer, opts)
	} else {
		handler = slog.NewTextHandler(writer, opts)
	}

	return slog.New(handler), nil
}

func parseLevel(level string) slog.Level {
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
