package roles

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pcs8/orientasi/internal/shared"
)

func newRoleService(t *testing.T) (*Service, *MemoryStore) {
	t.Helper()
	store := NewMemoryStore()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewService(store, logger, nil), store
}

func TestCreateDuplicateNameRejected(t *testing.T) {
	svc, _ := newRoleService(t)

	_, err := svc.Create(context.Background(), CreateRoleRequest{Name: "Admin"})
	require.NoError(t, err)

	_, err = svc.Create(context.Background(), CreateRoleRequest{Name: "Admin"})
	assert.True(t, errors.Is(err, shared.ErrBadRequest))
}

func TestAssignReplacesRoleSet(t *testing.T) {
	svc, store := newRoleService(t)
	ctx := context.Background()

	admin, err := svc.Create(ctx, CreateRoleRequest{Name: "Admin"})
	require.NoError(t, err)
	skpa, err := svc.Create(ctx, CreateRoleRequest{Name: "SKPA"})
	require.NoError(t, err)

	userID := uuid.New()
	store.AddUser(userID, "jdoe", "John Doe", "jdoe@example.go.id")

	resp, err := svc.Assign(ctx, AssignRolesRequest{UserID: userID, RoleIDs: []uuid.UUID{admin.ID, skpa.ID}})
	require.NoError(t, err)
	require.Len(t, resp.Roles, 2)

	// A second assignment replaces, not appends.
	resp, err = svc.Assign(ctx, AssignRolesRequest{UserID: userID, RoleIDs: []uuid.UUID{skpa.ID}})
	require.NoError(t, err)
	require.Len(t, resp.Roles, 1)
	assert.Equal(t, "SKPA", resp.Roles[0].Name)

	names, err := svc.RoleNamesForUser(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, []string{"SKPA"}, names)
}

func TestAssignUnknownRoleRejected(t *testing.T) {
	svc, store := newRoleService(t)
	userID := uuid.New()
	store.AddUser(userID, "jdoe", "John Doe", "jdoe@example.go.id")

	_, err := svc.Assign(context.Background(), AssignRolesRequest{UserID: userID, RoleIDs: []uuid.UUID{uuid.New()}})
	assert.True(t, errors.Is(err, shared.ErrNotFound))
}

func TestDeleteAssignedRoleProtected(t *testing.T) {
	svc, store := newRoleService(t)
	ctx := context.Background()

	role, err := svc.Create(ctx, CreateRoleRequest{Name: "SKPA"})
	require.NoError(t, err)

	userID := uuid.New()
	store.AddUser(userID, "jdoe", "John Doe", "jdoe@example.go.id")
	_, err = svc.Assign(ctx, AssignRolesRequest{UserID: userID, RoleIDs: []uuid.UUID{role.ID}})
	require.NoError(t, err)

	err = svc.Delete(ctx, role.ID)
	assert.True(t, errors.Is(err, shared.ErrBadRequest))

	// After the assignment is removed, the role can go.
	require.NoError(t, svc.Remove(ctx, userID, role.ID))
	require.NoError(t, svc.Delete(ctx, role.ID))

	_, err = svc.Get(ctx, role.ID)
	assert.True(t, errors.Is(err, shared.ErrNotFound))
}

func TestRemoveMissingAssignment(t *testing.T) {
	svc, store := newRoleService(t)
	userID := uuid.New()
	store.AddUser(userID, "jdoe", "John Doe", "jdoe@example.go.id")

	err := svc.Remove(context.Background(), userID, uuid.New())
	assert.True(t, errors.Is(err, shared.ErrNotFound))
}
