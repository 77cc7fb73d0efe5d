package service

import (
	"context"

	"github.com/google/uuid"
)

type contextKey string

const idempotencyKeyCtx contextKey = "idempotencyKey"

// WithIdempotencyKey attaches a caller-supplied idempotency key to the
// context. A client retrying a mutating request after a transient failure
// resends the same key, and the processor resolves both attempts to one
// side effect.
func WithIdempotencyKey(ctx context.Context, key string) context.Context {
	if key == "" {
		return ctx
	}
	return context.WithValue(ctx, idempotencyKeyCtx, key)
}

// idempotencyKey returns the caller-supplied key, or a fresh one when none
// was sent. Every mutating operation performs exactly one keyed processor
// call, so one key per request is unambiguous.
func idempotencyKey(ctx context.Context) string {
	if key, ok := ctx.Value(idempotencyKeyCtx).(string); ok && key != "" {
		return key
	}
	return uuid.New().String()
}
