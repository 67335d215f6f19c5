// Package logging provides structured logging for the rice helpers.
//
// This package wraps Go's standard log/slog package so that every helper
// logs the same way.
//
// # Features
//
//   - Text output by default, JSON when configured
//   - Default fields (service, version) on all log entries
//   - Level-based filtering (debug, info, warn, error)
//   - Stderr by default, since stdout belongs to the status bar
//
// # Configuration
//
//	logging:
//	  level: "warn"      # debug, info, warn, error
//	  format: "text"     # json, text
//	  output: "stderr"   # stderr, stdout, discard
//
// # Usage
//
//	logger := logging.New(cfg.Logging, "ac", version)
//	logger.Warn("status read failed", "error", err)
//
// Never log the AC key or broker credentials.
package logging
