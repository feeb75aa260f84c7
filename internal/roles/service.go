package roles

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/pcs8/orientasi/internal/shared"
)

// CreateRoleRequest creates a named role.
type CreateRoleRequest struct {
	Name        string `json:"name" validate:"required,max=50"`
	Description string `json:"description" validate:"max=255"`
}

// UpdateRoleRequest renames a role.
type UpdateRoleRequest struct {
	Name        string `json:"name" validate:"required,max=50"`
	Description string `json:"description" validate:"max=255"`
}

// AssignRolesRequest replaces a user's role set with the named roles.
type AssignRolesRequest struct {
	UserID  uuid.UUID   `json:"uuid" validate:"required"`
	RoleIDs []uuid.UUID `json:"role_ids" validate:"required,min=1"`
}

// Service manages roles and user assignments.
type Service struct {
	store  Store
	logger *slog.Logger
	audit  *shared.AuditLogger
}

// NewService builds a role Service.
func NewService(store Store, logger *slog.Logger, audit *shared.AuditLogger) *Service {
	return &Service{store: store, logger: logger, audit: audit}
}

// Create registers a new role with a unique name.
func (s *Service) Create(ctx context.Context, req CreateRoleRequest) (*Role, error) {
	role := &Role{ID: uuid.New(), Name: req.Name, Description: req.Description}
	if err := s.store.Create(ctx, role); err != nil {
		return nil, err
	}
	s.logger.Info("role created", slog.String("id", role.ID.String()), slog.String("name", role.Name))
	s.record(ctx, "role.create", role.ID.String(), map[string]any{"name": role.Name})
	return role, nil
}

// List returns all roles.
func (s *Service) List(ctx context.Context) ([]Role, error) {
	list, err := s.store.List(ctx)
	if err != nil {
		return nil, err
	}
	if list == nil {
		list = []Role{}
	}
	return list, nil
}

// Get returns one role.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Role, error) {
	return s.store.Get(ctx, id)
}

// Update renames a role.
func (s *Service) Update(ctx context.Context, id uuid.UUID, req UpdateRoleRequest) (*Role, error) {
	role, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	role.Name = req.Name
	role.Description = req.Description
	if err := s.store.Update(ctx, role); err != nil {
		return nil, err
	}
	s.logger.Info("role updated", slog.String("id", id.String()))
	return role, nil
}

// Delete removes a role. A role still assigned to users is protected.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	role, err := s.store.Get(ctx, id)
	if err != nil {
		return err
	}
	assigned, err := s.store.AssignmentCount(ctx, id)
	if err != nil {
		return err
	}
	if assigned > 0 {
		return shared.BadRequestf("Role %s is assigned to %d user(s) and cannot be deleted", role.Name, assigned)
	}
	if err := s.store.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info("role deleted", slog.String("id", id.String()), slog.String("name", role.Name))
	s.record(ctx, "role.delete", id.String(), map[string]any{"name": role.Name})
	return nil
}

// Assign replaces the user's role set. Every referenced role must exist.
func (s *Service) Assign(ctx context.Context, req AssignRolesRequest) (*UserRoles, error) {
	for _, roleID := range req.RoleIDs {
		if _, err := s.store.Get(ctx, roleID); err != nil {
			return nil, err
		}
	}
	if _, err := s.store.UserWithRoles(ctx, req.UserID); err != nil {
		return nil, err
	}
	if err := s.store.ReplaceUserRoles(ctx, req.UserID, req.RoleIDs); err != nil {
		return nil, err
	}

	s.logger.Info("roles assigned", slog.String("user_id", req.UserID.String()), slog.Int("count", len(req.RoleIDs)))
	s.record(ctx, "role.assign", req.UserID.String(), map[string]any{"role_ids": req.RoleIDs})
	return s.store.UserWithRoles(ctx, req.UserID)
}

// Remove drops one role from a user.
func (s *Service) Remove(ctx context.Context, userID, roleID uuid.UUID) error {
	if err := s.store.RemoveUserRole(ctx, userID, roleID); err != nil {
		return err
	}
	s.logger.Info("role removed", slog.String("user_id", userID.String()), slog.String("role_id", roleID.String()))
	s.record(ctx, "role.remove", userID.String(), map[string]any{"role_id": roleID.String()})
	return nil
}

// UsersWithRoles pages over accounts with their role sets.
func (s *Service) UsersWithRoles(ctx context.Context, page, size int) ([]UserRoles, shared.Pagination, error) {
	pagination := shared.NewPagination(page, size, 0)
	list, total, err := s.store.UsersWithRoles(ctx, pagination.PerPage, pagination.Offset())
	if err != nil {
		return nil, shared.Pagination{}, err
	}
	if list == nil {
		list = []UserRoles{}
	}
	return list, shared.NewPagination(page, size, total), nil
}

// UserWithRoles returns one account with its role set.
func (s *Service) UserWithRoles(ctx context.Context, userID uuid.UUID) (*UserRoles, error) {
	return s.store.UserWithRoles(ctx, userID)
}

// RoleNamesForUser returns the role names held by a user, for the login
// flow and the profile endpoint.
func (s *Service) RoleNamesForUser(ctx context.Context, userID uuid.UUID) ([]string, error) {
	assigned, err := s.store.RolesForUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	names := make([]string, len(assigned))
	for i, r := range assigned {
		names[i] = r.Name
	}
	return names, nil
}

func (s *Service) record(ctx context.Context, action, entityID string, meta map[string]any) {
	if s.audit == nil {
		return
	}
	actor := ""
	if p := shared.PrincipalFromContext(ctx); p != nil {
		actor = p.Subject
	}
	if err := s.audit.Record(ctx, shared.AuditLog{
		ActorUUID: actor,
		Action:    action,
		Entity:    "role",
		EntityID:  entityID,
		Meta:      meta,
	}); err != nil {
		s.logger.Warn("audit record failed", slog.Any("error", err))
	}
}
