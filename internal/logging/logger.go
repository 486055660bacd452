// Package logging defines the structured-logging interface used across the
// wallet. Implementations wrap log/slog and zerolog.
package logging

import "context"

// Logger is a context-aware, structured logger.
//
// The variadic args are key–value pairs:
//
//	log.Info(ctx, "session created", "account_id", id)
//
// Values under keys that name secret material ("password", "mnemonic",
// "private_key", "hash_key" and the like) are written as "[REDACTED]" by
// both implementations. Secrets must still never be folded into msg.
type Logger interface {
	Debug(ctx context.Context, msg string, args ...any)
	Info(ctx context.Context, msg string, args ...any)

	// Warn logs unusual but non-fatal conditions.
	Warn(ctx context.Context, msg string, args ...any)

	Error(ctx context.Context, msg string, args ...any)

	// With returns a child logger that always includes the given key–value pairs.
	With(args ...any) Logger
}
