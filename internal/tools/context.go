package tools

import (
	"context"

	"github.com/google/uuid"
)

type contextKey string

const invocationIDKey contextKey = "invocation_id"

// WithInvocationID adds an invocation id to the context.
func WithInvocationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, invocationIDKey, id)
}

// InvocationIDFromContext extracts the invocation id from the context.
// Returns the empty string if not set.
func InvocationIDFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(invocationIDKey).(string); ok {
		return id
	}
	return ""
}

// EnsureInvocationID returns a context carrying an invocation id,
// generating a fresh one when the caller did not supply any.
func EnsureInvocationID(ctx context.Context) context.Context {
	if InvocationIDFromContext(ctx) != "" {
		return ctx
	}
	return WithInvocationID(ctx, uuid.NewString())
}
