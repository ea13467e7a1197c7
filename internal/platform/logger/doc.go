// Package logger provides structured logging functionality for the application.
//
// It uses the standard library log/slog package with a JSON handler, and
// carries request-scoped loggers (for example one tagged with a trace ID)
// through context.Context.
package logger
