package auth

import "context"

// IdentityContextKey is the key used to store an Identity in the request context.
//
// Using an empty struct as the key prevents collisions with other context keys,
// as each empty struct type is distinct even if they share a name in different
// packages.
type IdentityContextKey struct{}

// WithIdentity stores an Identity in the context. If identity is nil, the
// original context is returned unchanged.
func WithIdentity(ctx context.Context, identity *Identity) context.Context {
	if identity == nil {
		return ctx
	}
	return context.WithValue(ctx, IdentityContextKey{}, identity)
}

// IdentityFromContext retrieves an Identity from the context.
// Returns the identity and true if present, nil and false otherwise.
func IdentityFromContext(ctx context.Context) (*Identity, bool) {
	identity, ok := ctx.Value(IdentityContextKey{}).(*Identity)
	return identity, ok
}
