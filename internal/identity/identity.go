// Package identity is the reference implementation of the scope
// resolver spec.md §6 marks as an external collaborator: it maps the
// x-tenant-id/x-namespace/x-user-id request headers onto a
// types.Scope. A real deployment is expected to replace this with its
// own authentication layer; this package exists so the repository runs
// end to end without one.
package identity

import (
	"context"
	"net/http"

	"github.com/dreamware/kvsync/internal/apperrors"
	"github.com/dreamware/kvsync/internal/types"
)

const (
	headerTenantID  = "x-tenant-id"
	headerNamespace = "x-namespace"
	headerUserID    = "x-user-id"
)

type contextKey struct{}

var scopeContextKey = contextKey{}

// Resolver derives a types.Scope from request headers, falling back to
// configured defaults for tenant and namespace when the corresponding
// header is absent. userId has no default: every request must identify
// its user.
type Resolver struct {
	DefaultTenantID  string
	DefaultNamespace string
}

// Resolve extracts a Scope from r's headers, or returns an
// apperrors.Unauthorized error if userId cannot be determined.
func (res Resolver) Resolve(r *http.Request) (types.Scope, error) {
	scope := types.Scope{
		TenantID:  firstNonEmpty(r.Header.Get(headerTenantID), res.DefaultTenantID),
		Namespace: firstNonEmpty(r.Header.Get(headerNamespace), res.DefaultNamespace),
		UserID:    r.Header.Get(headerUserID),
	}
	if !scope.Valid() {
		return types.Scope{}, apperrors.Unauthorized("missing tenant/namespace/user identity")
	}
	return scope, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// Middleware resolves a Scope for every request and stores it in the
// request context, responding 401 directly (bypassing the handler)
// when resolution fails.
func (res Resolver) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		scope, err := res.Resolve(r)
		if err != nil {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		ctx := context.WithValue(r.Context(), scopeContextKey, scope)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// FromContext returns the Scope stashed by Middleware, or (zero, false)
// if none is present (e.g. the handler under test did not run through
// Middleware).
func FromContext(ctx context.Context) (types.Scope, bool) {
	scope, ok := ctx.Value(scopeContextKey).(types.Scope)
	return scope, ok
}
