// Package rbac implements the request authorization pipeline: access rules
// declared per operation, consulted by a single middleware in front of the
// business handlers.
package rbac

// Rule is the access declaration attached to an operation. The zero value
// means "any authenticated principal".
type Rule struct {
	Public     bool
	Roles      []string
	RequireAll bool
}

// Public marks an operation as open to unauthenticated callers.
func Public() Rule {
	return Rule{Public: true}
}

// Authenticated requires a valid token but no specific role.
func Authenticated() Rule {
	return Rule{}
}

// RequireRole requires at least one of the named roles.
func RequireRole(names ...string) Rule {
	return Rule{Roles: names}
}

// RequireAllRoles requires every one of the named roles.
func RequireAllRoles(names ...string) Rule {
	return Rule{Roles: names, RequireAll: true}
}
