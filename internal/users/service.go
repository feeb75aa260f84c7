package users

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/pcs8/orientasi/internal/shared"
)

// RoleSource resolves the role names assigned to a user.
type RoleSource interface {
	RoleNamesForUser(ctx context.Context, userID uuid.UUID) ([]string, error)
}

// ProfileResponse is the authenticated caller's account with roles.
type ProfileResponse struct {
	User
	Roles []string `json:"roles"`
}

// Service reads accounts for the profile endpoint.
type Service struct {
	store  Store
	roles  RoleSource
	logger *slog.Logger
}

// NewService builds a user Service.
func NewService(store Store, roles RoleSource, logger *slog.Logger) *Service {
	return &Service{store: store, roles: roles, logger: logger}
}

// Profile returns the caller's stored account and current role set. The
// roles come from the database, not the token, so a grant made after login
// is visible immediately.
func (s *Service) Profile(ctx context.Context) (*ProfileResponse, error) {
	principal := shared.PrincipalFromContext(ctx)
	if principal == nil {
		return nil, shared.ErrUnauthenticated
	}
	id, err := uuid.Parse(principal.Subject)
	if err != nil {
		return nil, shared.ErrUnauthenticated
	}

	user, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	names, err := s.roles.RoleNamesForUser(ctx, id)
	if err != nil {
		return nil, err
	}
	if names == nil {
		names = []string{}
	}
	return &ProfileResponse{User: *user, Roles: names}, nil
}
