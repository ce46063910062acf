// Package logger provides a central, ring-buffered log independent of the
// serial response stream. Every component logs
// diagnostics here rather than to the response writer, so a misbehaving
// subsystem never corrupts the ok/error/status protocol a sender depends on.
package logger
