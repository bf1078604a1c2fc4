// Package logging provides structured logging utilities for the meetlink service.
//
// This package centralizes logging patterns to ensure consistent, structured logging
// throughout the codebase using the standard library's slog package.
//
// # Key Features
//
//   - Handler construction from level/format settings
//   - Consistent attribute naming across the codebase
//   - Token sanitization
//   - Logger adapter interface for flexibility
//
// # Usage Patterns
//
// Create a logger with standard attributes:
//
//	logger := logging.WithOperation(slog.Default(), "meet.create")
//	logger.Info("space created",
//	    logging.Status(logging.StatusSuccess))
//
// # Security Considerations
//
// OAuth tokens and client secrets are never logged directly; use SanitizeToken
// when a token needs to be referenced in a log line.
package logging
