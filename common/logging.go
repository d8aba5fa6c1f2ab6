// Package common holds shared service plumbing for the cmd binaries: logger
// setup and build metadata.
package common

import (
	"log/slog"
	"os"
)

// Version is set at build time via -ldflags and attached to all log lines.
var Version = "dev"

// LoggingOpts configures the process logger.
type LoggingOpts struct {
	// Debug enables debug-level messages.
	Debug bool

	// JSON switches the output to JSON format.
	JSON bool

	// Service is added as a 'service' tag to all log lines, if set.
	Service string

	// Version is added as a 'version' tag to all log lines, if set.
	Version string
}

// SetupLogger creates a slog logger writing to stderr per the given options.
func SetupLogger(opts *LoggingOpts) *slog.Logger {
	logLevel := slog.LevelInfo
	if opts.Debug {
		logLevel = slog.LevelDebug
	}

	var handler slog.Handler
	if opts.JSON {
		handler = slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel})
	} else {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel})
	}

	log := slog.New(handler)
	if opts.Service != "" {
		log = log.With("service", opts.Service)
	}
	if opts.Version != "" {
		log = log.With("version", opts.Version)
	}
	return log
}
