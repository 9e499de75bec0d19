// Package context provides request-scoped values extraction.
package context

import (
	"context"

	"pharmstock/internal/core/id"
)

// UserContext identifies the acting user for audit trails.
// Transfers and home-use records store this id; authentication itself is
// handled by an upstream collaborator.
type UserContext struct {
	UserID id.ID
	Name   string
}

type userContextKey struct{}

// WithUser adds UserContext to context.
func WithUser(ctx context.Context, user *UserContext) context.Context {
	return context.WithValue(ctx, userContextKey{}, user)
}

// GetUser returns UserContext from context.
func GetUser(ctx context.Context) *UserContext {
	if v, ok := ctx.Value(userContextKey{}).(*UserContext); ok {
		return v
	}
	return nil
}

// GetUserID returns the acting user id from context or the nil id.
func GetUserID(ctx context.Context) id.ID {
	if u := GetUser(ctx); u != nil {
		return u.UserID
	}
	return id.Nil()
}
