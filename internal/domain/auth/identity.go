// Package auth holds the authenticated caller identity that scopes every
// cart, order and report operation.
package auth

import "context"

// Identity is the caller on whose behalf an operation runs. Carts are scoped
// by UserID; orders and reports by CompanyID.
type Identity struct {
	UserID    int64
	CompanyID int64
}

type identityKey struct{}

// WithIdentity returns a context carrying id.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

// FromContext extracts the identity stored by WithIdentity.
func FromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey{}).(Identity)
	return id, ok
}
