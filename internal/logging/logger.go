// Package logging is the structured logger used by every layer of the service.
package logging

import "context"

// Logger is context-aware; args are key-value pairs:
//
//	log.Info(ctx, "queue built", "viewer_id", id, "size", n)
type Logger interface {
	Debug(ctx context.Context, msg string, args ...any)
	Info(ctx context.Context, msg string, args ...any)
	Warn(ctx context.Context, msg string, args ...any)
	Error(ctx context.Context, msg string, args ...any)

	// With returns a child logger that always includes the given pairs.
	With(args ...any) Logger
}
