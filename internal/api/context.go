package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/hyperengineering/shopkeep/internal/types"
)

// principalContextKey is the context key for the authenticated principal.
type principalContextKey struct{}

// ErrNoPrincipalInContext indicates the request was not authenticated.
var ErrNoPrincipalInContext = errors.New("no principal in context")

// WithPrincipal returns a new context with the principal attached.
func WithPrincipal(ctx context.Context, p types.Principal) context.Context {
	return context.WithValue(ctx, principalContextKey{}, p)
}

// PrincipalFromContext extracts the principal from the context.
// Returns ErrNoPrincipalInContext if absent or without a user name.
func PrincipalFromContext(ctx context.Context) (types.Principal, error) {
	p, ok := ctx.Value(principalContextKey{}).(types.Principal)
	if !ok || p.UserName == "" {
		return types.Principal{}, ErrNoPrincipalInContext
	}
	return p, nil
}

// authenticatedHandler is a handler that requires a principal.
type authenticatedHandler func(w http.ResponseWriter, r *http.Request, p types.Principal)

// authenticated adapts fn to http.HandlerFunc, rejecting requests without a principal.
func authenticated(fn authenticatedHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, err := PrincipalFromContext(r.Context())
		if err != nil {
			WriteProblem(w, r, http.StatusUnauthorized, "Authentication required")
			return
		}
		fn(w, r, p)
	}
}
