package rbac

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/pcs8/orientasi/internal/platform/httpx"
	"github.com/pcs8/orientasi/internal/shared"
	"github.com/pcs8/orientasi/internal/token"
)

const bearerPrefix = "Bearer "

const (
	msgAuthenticationRequired = "Authentication required"
	msgInvalidToken           = "Invalid or expired token"
	msgNoRoleAssigned         = "You have not been assigned a role. Please contact an administrator."
)

// TokenVerifier verifies a bearer token string.
type TokenVerifier interface {
	Verify(tokenString string) (*token.Claims, error)
}

// RevocationChecker reports whether a token id has been revoked by logout.
type RevocationChecker interface {
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}

// Middleware gates every operation before its handler runs.
type Middleware struct {
	Verifier TokenVerifier
	Revoked  RevocationChecker
	Logger   *slog.Logger
}

// Require returns the authorization middleware for the given rule.
func (m Middleware) Require(rule Rule) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if rule.Public {
				next.ServeHTTP(w, r)
				return
			}

			authHeader := r.Header.Get("Authorization")
			if !strings.HasPrefix(authHeader, bearerPrefix) {
				m.warn("no bearer token in request", r)
				httpx.JSON(w, http.StatusUnauthorized, msgAuthenticationRequired, nil)
				return
			}

			claims, err := m.Verifier.Verify(strings.TrimPrefix(authHeader, bearerPrefix))
			if err != nil {
				// Any verification failure, malformed payloads included, ends
				// as a 401 and never propagates further.
				m.warn("token verification failed", r)
				httpx.JSON(w, http.StatusUnauthorized, msgInvalidToken, nil)
				return
			}

			if m.Revoked != nil && claims.TokenID != "" {
				revoked, err := m.Revoked.IsRevoked(r.Context(), claims.TokenID)
				if err != nil && m.Logger != nil {
					m.Logger.Error("revocation check", slog.Any("error", err))
				}
				if revoked {
					m.warn("revoked token presented", r)
					httpx.JSON(w, http.StatusUnauthorized, msgInvalidToken, nil)
					return
				}
			}

			principal := &shared.Principal{
				Subject:   claims.Subject,
				FullName:  claims.FullName,
				Email:     claims.Email,
				HasRole:   claims.HasRole,
				Roles:     claims.Roles,
				TokenID:   claims.TokenID,
				ExpiresAt: claims.ExpiresAt,
			}
			ctx := shared.ContextWithPrincipal(r.Context(), principal)

			if len(rule.Roles) > 0 {
				// The has_role gate runs before any role name comparison: a
				// token claiming names while has_role is false never passes.
				if !claims.HasRole || len(claims.Roles) == 0 {
					m.warn("principal has no role assigned", r)
					httpx.JSON(w, http.StatusForbidden, msgNoRoleAssigned, nil)
					return
				}
				allowed := principal.HasAnyRole(rule.Roles...)
				if rule.RequireAll {
					allowed = principal.HasAllRoles(rule.Roles...)
				}
				if !allowed {
					m.warn("principal lacks required roles", r)
					httpx.JSON(w, http.StatusForbidden, insufficientMessage(rule.Roles), nil)
					return
				}
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func (m Middleware) warn(msg string, r *http.Request) {
	if m.Logger != nil {
		m.Logger.Warn(msg, slog.String("path", r.URL.Path))
	}
}

func insufficientMessage(required []string) string {
	return "Insufficient permissions. Required role(s): [" + strings.Join(required, ", ") + "]"
}
