// Package testutil provides shared testing utilities: a disposable
// PostgreSQL container with the vector extension, a deterministic fake
// embedder, and quiet loggers.
package testutil

import (
	"log/slog"
)

// DiscardLogger returns a slog.Logger that discards all output.
func DiscardLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}
