package auth

import (
	"context"

	"github.com/lalith-99/questboard/internal/models"
)

// Identity is the authenticated caller of a request.
//
// The HTTP middleware builds it from the token claims and stores it on the
// request context. Services read it back with FromContext, so the same
// service code runs behind REST handlers, WebSocket streams and tests.
type Identity struct {
	UserID string
	Role   models.Role
	Email  string
}

// identityKey is unexported so no other package can collide with it.
type identityKey struct{}

// WithIdentity returns a copy of ctx carrying id.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

// FromContext returns the identity stored by WithIdentity.
func FromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey{}).(Identity)
	if !ok || id.UserID == "" {
		return Identity{}, false
	}
	return id, true
}

// IdentityProvider answers "who is calling?" for the services. It returns
// false when the caller is unauthenticated.
type IdentityProvider interface {
	CurrentIdentity(ctx context.Context) (Identity, bool)
}

// ContextIdentity reads the identity the auth middleware put on the
// request context.
type ContextIdentity struct{}

func (ContextIdentity) CurrentIdentity(ctx context.Context) (Identity, bool) {
	return FromContext(ctx)
}
