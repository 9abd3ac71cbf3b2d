package utils

import (
	"context"
)

type contextKey string

const ContextIdentityKey contextKey = "identity"

// Identity is the authenticated caller, taken from a validated bearer token.
type Identity struct {
	UserID   uint
	Username string
	Role     string
}

func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, ContextIdentityKey, id)
}

func GetIdentityFromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(ContextIdentityKey).(Identity)
	return id, ok
}

func GetUserIDFromContext(ctx context.Context) (uint, bool) {
	id, ok := GetIdentityFromContext(ctx)
	if !ok || id.UserID == 0 {
		return 0, false
	}
	return id.UserID, true
}
