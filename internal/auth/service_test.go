package auth

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pcs8/orientasi/internal/directory"
	"github.com/pcs8/orientasi/internal/roles"
	"github.com/pcs8/orientasi/internal/secrets"
	"github.com/pcs8/orientasi/internal/shared"
	"github.com/pcs8/orientasi/internal/token"
	"github.com/pcs8/orientasi/internal/users"
)

type fakeDirectory struct {
	password string
	entry    directory.Entry
}

func (f *fakeDirectory) Authenticate(ctx context.Context, username, password string) (*directory.Entry, error) {
	if directory.CleanUsername(username) != f.entry.Username || password != f.password {
		return nil, errors.New("bind failed")
	}
	entry := f.entry
	return &entry, nil
}

type noopRevoker struct{}

func (noopRevoker) Revoke(ctx context.Context, tokenID string, expiresAt time.Time) error {
	return nil
}

type recordingRevoker struct {
	tokenID string
}

func (r *recordingRevoker) Revoke(ctx context.Context, tokenID string, expiresAt time.Time) error {
	r.tokenID = tokenID
	return nil
}

func newLoginFixture(t *testing.T) (*Service, *roles.Service, *roles.MemoryStore, *users.MemoryStore, *secrets.Codec) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	codec, err := secrets.NewCodec("")
	require.NoError(t, err)

	dir := &fakeDirectory{
		password: "rahasia123",
		entry: directory.Entry{
			Username:   "jdoe",
			FullName:   "John Doe",
			Email:      "jdoe@example.go.id",
			Department: "Perencanaan",
			Title:      "Analis",
		},
	}
	userStore := users.NewMemoryStore()
	roleStore := roles.NewMemoryStore()
	roleSvc := roles.NewService(roleStore, logger, nil)
	tokens := token.NewManager("test-secret", time.Hour)

	svc := NewService(codec, dir, userStore, roleSvc, tokens, noopRevoker{}, logger, nil)
	return svc, roleSvc, roleStore, userStore, codec
}

func TestLoginWithEncryptedPassword(t *testing.T) {
	svc, _, _, userStore, codec := newLoginFixture(t)

	sealed, err := codec.Encrypt("rahasia123")
	require.NoError(t, err)

	resp, err := svc.Login(context.Background(), LoginRequest{Username: `CORP\jdoe`, Password: sealed})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.Token)
	assert.Equal(t, "John Doe", resp.User.FullName)
	assert.False(t, resp.HasRole)
	assert.Empty(t, resp.Roles)

	// The account was upserted from the directory entry.
	stored, err := userStore.GetByUsername(context.Background(), "jdoe")
	require.NoError(t, err)
	assert.Equal(t, "Perencanaan", stored.Department)
}

func TestLoginWithPlainPasswordPassthrough(t *testing.T) {
	svc, _, _, _, _ := newLoginFixture(t)

	resp, err := svc.Login(context.Background(), LoginRequest{Username: "jdoe", Password: "rahasia123"})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.Token)
}

func TestLoginWrongPasswordIsInvalidCredentials(t *testing.T) {
	svc, _, _, _, _ := newLoginFixture(t)

	_, err := svc.Login(context.Background(), LoginRequest{Username: "jdoe", Password: "salah"})
	assert.True(t, errors.Is(err, shared.ErrInvalidCredentials))
}

func TestLoginCarriesAssignedRoles(t *testing.T) {
	svc, roleSvc, roleStore, userStore, _ := newLoginFixture(t)

	// First login creates the account without roles.
	first, err := svc.Login(context.Background(), LoginRequest{Username: "jdoe", Password: "rahasia123"})
	require.NoError(t, err)
	assert.False(t, first.HasRole)

	role, err := roleSvc.Create(context.Background(), roles.CreateRoleRequest{Name: "SKPA"})
	require.NoError(t, err)

	stored, err := userStore.GetByUsername(context.Background(), "jdoe")
	require.NoError(t, err)

	// Seed the identity the roles listing joins against, then assign.
	roleStore.AddUser(stored.ID, stored.Username, stored.FullName, stored.Email)
	_, err = roleSvc.Assign(context.Background(), roles.AssignRolesRequest{UserID: stored.ID, RoleIDs: []uuid.UUID{role.ID}})
	require.NoError(t, err)

	second, err := svc.Login(context.Background(), LoginRequest{Username: "jdoe", Password: "rahasia123"})
	require.NoError(t, err)
	assert.True(t, second.HasRole)
	assert.Equal(t, []string{"SKPA"}, second.Roles)

	// Repeated logins reuse the same account row.
	assert.Equal(t, first.User.ID, second.User.ID)
}

func TestLogoutRevokesToken(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	revoker := &recordingRevoker{}
	svc := NewService(nil, nil, nil, nil, nil, revoker, logger, nil)

	ctx := shared.ContextWithPrincipal(context.Background(), &shared.Principal{
		Subject:   uuid.NewString(),
		TokenID:   "jti-123",
		ExpiresAt: time.Now().Add(time.Hour),
	})
	require.NoError(t, svc.Logout(ctx))
	assert.Equal(t, "jti-123", revoker.tokenID)
}

func TestLogoutWithoutPrincipalRejected(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := NewService(nil, nil, nil, nil, nil, &recordingRevoker{}, logger, nil)

	err := svc.Logout(context.Background())
	assert.True(t, errors.Is(err, shared.ErrUnauthenticated))
}
