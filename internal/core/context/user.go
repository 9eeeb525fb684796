// Package context provides request-scoped values extraction.
package context

import (
	"context"
)

// UserContext contains the authenticated owner identity for the request.
// Tokens are issued by an external collaborator; the service only consumes
// the validated claims.
type UserContext struct {
	UserID string
	Email  string
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

// GetUserID returns the owner ID from context or empty string.
// Every repository query is scoped by this value.
func GetUserID(ctx context.Context) string {
	if u := GetUser(ctx); u != nil {
		return u.UserID
	}
	return ""
}
