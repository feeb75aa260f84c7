package shared

import (
	"context"
	"time"
)

// Principal carries the authenticated caller through the request context.
// It is populated once by the authorization middleware; business logic reads
// it instead of re-parsing the token.
type Principal struct {
	Subject  string
	FullName string
	Email    string
	HasRole  bool
	Roles    []string

	// TokenID and ExpiresAt identify the bearer token itself, used by logout
	// to revoke it for the remainder of its lifetime.
	TokenID   string
	ExpiresAt time.Time
}

// HasAnyRole reports whether the principal holds at least one of the names.
func (p *Principal) HasAnyRole(names ...string) bool {
	if p == nil {
		return false
	}
	for _, want := range names {
		for _, have := range p.Roles {
			if have == want {
				return true
			}
		}
	}
	return false
}

// HasAllRoles reports whether the principal holds every one of the names.
func (p *Principal) HasAllRoles(names ...string) bool {
	if p == nil {
		return false
	}
	for _, want := range names {
		if !p.HasAnyRole(want) {
			return false
		}
	}
	return true
}

type principalContextKey struct{}

// ContextWithPrincipal stores the principal in context.
func ContextWithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, principalContextKey{}, p)
}

// PrincipalFromContext extracts the principal from context, nil when absent.
func PrincipalFromContext(ctx context.Context) *Principal {
	p, _ := ctx.Value(principalContextKey{}).(*Principal)
	return p
}
