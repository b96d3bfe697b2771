// Package logging is the structured logging facade used by every server
// component. The production implementation is backed by log/slog.
package logging

import "context"

// Logger logs a message with alternating key/value attributes:
//
//	log.Info(ctx, "document stored", "claim_id", claimID, "size", n)
type Logger interface {
	Debug(ctx context.Context, msg string, args ...any)
	Info(ctx context.Context, msg string, args ...any)
	Warn(ctx context.Context, msg string, args ...any)
	Error(ctx context.Context, msg string, args ...any)

	// With returns a logger that adds args to every record.
	With(args ...any) Logger
}
