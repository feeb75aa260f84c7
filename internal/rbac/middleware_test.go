package rbac

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pcs8/orientasi/internal/shared"
	"github.com/pcs8/orientasi/internal/token"
)

type staticRevocation map[string]bool

func (s staticRevocation) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	return s[tokenID], nil
}

func newMiddleware(t *testing.T) (Middleware, *token.Manager) {
	t.Helper()
	manager := token.NewManager("test-secret", time.Hour)
	return Middleware{
		Verifier: manager,
		Logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	}, manager
}

func issue(t *testing.T, manager *token.Manager, hasRole bool, roles ...string) string {
	t.Helper()
	signed, _, err := manager.Issue(token.Claims{
		Subject: "0e2f3a4b-5c6d-4e7f-8a9b-0c1d2e3f4a5b",
		HasRole: hasRole,
		Roles:   roles,
	})
	require.NoError(t, err)
	return signed
}

func serve(m Middleware, rule Rule, authorization string) (*httptest.ResponseRecorder, *shared.Principal) {
	var seen *shared.Principal
	handler := m.Require(rule)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = shared.PrincipalFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/resource", nil)
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec, seen
}

func message(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Message string `json:"message"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body.Message
}

func TestPublicRuleSkipsAuthentication(t *testing.T) {
	m, _ := newMiddleware(t)
	rec, _ := serve(m, Public(), "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestMissingTokenRejected(t *testing.T) {
	m, _ := newMiddleware(t)
	rec, _ := serve(m, Authenticated(), "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Authentication required", message(t, rec))
}

func TestNonBearerSchemeRejected(t *testing.T) {
	m, _ := newMiddleware(t)
	rec, _ := serve(m, Authenticated(), "Basic dXNlcjpwYXNz")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Authentication required", message(t, rec))
}

func TestMalformedTokenRejected(t *testing.T) {
	m, _ := newMiddleware(t)
	rec, _ := serve(m, Authenticated(), "Bearer not-a-jwt")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Invalid or expired token", message(t, rec))
}

func TestValidTokenPopulatesPrincipal(t *testing.T) {
	m, manager := newMiddleware(t)
	rec, principal := serve(m, Authenticated(), "Bearer "+issue(t, manager, true, "SKPA"))
	assert.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, principal)
	assert.Equal(t, "0e2f3a4b-5c6d-4e7f-8a9b-0c1d2e3f4a5b", principal.Subject)
	assert.Equal(t, []string{"SKPA"}, principal.Roles)
	assert.NotEmpty(t, principal.TokenID)
}

func TestAnyOfRoleMatchAllows(t *testing.T) {
	m, manager := newMiddleware(t)
	rec, _ := serve(m, RequireRole("Admin", "SKPA"), "Bearer "+issue(t, manager, true, "SKPA"))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAnyOfRoleMismatchDenied(t *testing.T) {
	m, manager := newMiddleware(t)
	rec, _ := serve(m, RequireRole("Admin"), "Bearer "+issue(t, manager, true, "SKPA"))
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "Insufficient permissions. Required role(s): [Admin]", message(t, rec))
}

func TestRequireAllNeedsEveryRole(t *testing.T) {
	m, manager := newMiddleware(t)

	rec, _ := serve(m, RequireAllRoles("Admin", "SKPA"), "Bearer "+issue(t, manager, true, "SKPA"))
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "Insufficient permissions. Required role(s): [Admin, SKPA]", message(t, rec))

	rec, _ = serve(m, RequireAllRoles("Admin", "SKPA"), "Bearer "+issue(t, manager, true, "SKPA", "Admin"))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestHasRoleGateBeforeNameComparison(t *testing.T) {
	m, manager := newMiddleware(t)

	// has_role false blocks even when the token names the required role.
	rec, _ := serve(m, RequireRole("Admin"), "Bearer "+issue(t, manager, false, "Admin"))
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "You have not been assigned a role. Please contact an administrator.", message(t, rec))

	// has_role true with an empty set is blocked the same way.
	rec, _ = serve(m, RequireRole("Admin"), "Bearer "+issue(t, manager, true))
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "You have not been assigned a role. Please contact an administrator.", message(t, rec))
}

func TestRoleGateDoesNotApplyToAuthenticatedRule(t *testing.T) {
	m, manager := newMiddleware(t)
	rec, _ := serve(m, Authenticated(), "Bearer "+issue(t, manager, false))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRevokedTokenRejected(t *testing.T) {
	m, manager := newMiddleware(t)
	signed := issue(t, manager, true, "Admin")

	claims, err := manager.Verify(signed)
	require.NoError(t, err)
	m.Revoked = staticRevocation{claims.TokenID: true}

	rec, _ := serve(m, Authenticated(), "Bearer "+signed)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Invalid or expired token", message(t, rec))
}

