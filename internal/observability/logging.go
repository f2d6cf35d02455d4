// Package observability owns the process-wide loggers and metrics.
package observability

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Package-level loggers. Nop until initialized so library code can log
// unconditionally.
var (
	// CLILogger is used by cobra commands for operator-facing diagnostics.
	CLILogger = zap.NewNop()

	// ServerLogger is used by the HTTP server, handlers, and the signing
	// service.
	ServerLogger = zap.NewNop()
)

// InitCLILogger builds a console logger at the given level.
func InitCLILogger(level string) error {
	logger, err := buildLogger(level, "CONSOLE")
	if err != nil {
		return err
	}
	CLILogger = logger
	return nil
}

// InitServerLogger builds the server logger. Profile "STRUCTURED" emits JSON;
// "CONSOLE" emits human-readable output for local development.
func InitServerLogger(level, profile string) error {
	logger, err := buildLogger(level, profile)
	if err != nil {
		return err
	}
	ServerLogger = logger
	return nil
}

// Sync flushes buffered log entries. Safe to call on shutdown.
func Sync() {
	_ = CLILogger.Sync()
	_ = ServerLogger.Sync()
}

func buildLogger(level, profile string) (*zap.Logger, error) {
	var lvl zapcore.Level
	if err := lvl.UnmarshalText([]byte(strings.ToLower(level))); err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}

	var cfg zap.Config
	switch strings.ToUpper(profile) {
	case "", "STRUCTURED":
		cfg = zap.NewProductionConfig()
	case "CONSOLE":
		cfg = zap.NewDevelopmentConfig()
	default:
		return nil, fmt.Errorf("invalid logging profile %q", profile)
	}
	cfg.Level = zap.NewAtomicLevelAt(lvl)

	return cfg.Build()
}
