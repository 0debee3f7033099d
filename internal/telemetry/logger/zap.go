// Package logger provides structured logging for the ingress server.
//
// Reserved for a zap-backed Logger implementation if the slog handler in
// logger.go ever becomes a throughput bottleneck under sustained load.
package logger
