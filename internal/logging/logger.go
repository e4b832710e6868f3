// Package logging builds the service logger from LoggingConfig.
package logging

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"

	"botrelay/internal/config"
)

// New returns a zerolog logger writing console output for format "text" and JSON otherwise.
// The returned closer releases the log file when OutputPath names one.
func New(cfg config.LoggingConfig) (zerolog.Logger, io.Closer, error) {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil || cfg.Level == "" {
		level = zerolog.InfoLevel
	}

	out, closer, err := openOutput(cfg.OutputPath)
	if err != nil {
		return zerolog.Nop(), nil, err
	}

	var w io.Writer = out
	if cfg.Format == "text" {
		w = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
	}

	logger := zerolog.New(w).
		Level(level).
		With().
		Timestamp().
		Str("service", "botrelay").
		Logger()

	return logger, closer, nil
}

func openOutput(path string) (io.Writer, io.Closer, error) {
	switch path {
	case "", "stdout":
		return os.Stdout, io.NopCloser(nil), nil
	case "stderr":
		return os.Stderr, io.NopCloser(nil), nil
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open log file: %w", err)
	}
	return f, f, nil
}
