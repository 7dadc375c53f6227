// Package logger wraps a zap SugaredLogger with a process-wide atomic level
// and helpers that take the logger from a context, so that per-episode fields
// attached with WithKV follow a download through every layer.
package logger
