// Package logger provides structured logging for the ingress server.
//
// This package wraps log/slog for structured logging:
//
//   - logger.go: slog-backed Logger implementation and global default
//   - context.go: Context-aware logging with request/trace IDs
//   - redact.go: Sensitive data redaction
//   - zap.go: reserved for a zap-backed implementation, unused today
//
// Features:
//
//   - JSON and text output formats
//   - Log level filtering, adjustable at runtime
//   - Automatic sensitive data masking
//   - Context propagation for request tracing
package logger
