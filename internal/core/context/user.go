// Package context carries the caller and trace identifiers through a request
// or a background job.
package context

import (
	"context"
)

// SystemActor is recorded as creator of documents written without a caller.
const SystemActor = "system"

// UserContext is the authenticated caller as asserted by the identity provider.
type UserContext struct {
	UserID string
	Email  string
	Roles  []string
}

type userContextKey struct{}

// WithUser attaches the caller to ctx.
func WithUser(ctx context.Context, user *UserContext) context.Context {
	return context.WithValue(ctx, userContextKey{}, user)
}

// WithSystemUser marks ctx as running on behalf of a background component,
// e.g. "seed" or "worker".
func WithSystemUser(ctx context.Context, component string) context.Context {
	return WithUser(ctx, &UserContext{
		UserID: SystemActor + ":" + component,
		Roles:  []string{SystemActor},
	})
}

// GetUser returns the caller or nil.
func GetUser(ctx context.Context) *UserContext {
	u, _ := ctx.Value(userContextKey{}).(*UserContext)
	return u
}

// GetUserID returns the caller id or "".
func GetUserID(ctx context.Context) string {
	if u := GetUser(ctx); u != nil {
		return u.UserID
	}
	return ""
}

// Actor is the id written to createdBy/updatedBy.
func Actor(ctx context.Context) string {
	if id := GetUserID(ctx); id != "" {
		return id
	}
	return SystemActor
}
