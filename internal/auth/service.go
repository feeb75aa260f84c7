// Package auth implements the login and logout flow: RSA password envelope,
// directory bind, account upsert and token issue.
package auth

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/pcs8/orientasi/internal/directory"
	"github.com/pcs8/orientasi/internal/shared"
	"github.com/pcs8/orientasi/internal/token"
	"github.com/pcs8/orientasi/internal/users"
)

// LoginRequest carries directory credentials. The password is normally an
// RSA envelope produced with the published public key.
type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// LoginResponse is the issued token with the identity it carries.
type LoginResponse struct {
	Token     string     `json:"token"`
	ExpiresAt time.Time  `json:"expires_at"`
	User      users.User `json:"user"`
	HasRole   bool       `json:"has_role"`
	Roles     []string   `json:"roles"`
}

// RoleSource resolves the role names assigned to a user.
type RoleSource interface {
	RoleNamesForUser(ctx context.Context, userID uuid.UUID) ([]string, error)
}

// PasswordOpener opens the password envelope sent by the client.
type PasswordOpener interface {
	Decrypt(value string) string
}

// Revoker invalidates issued tokens on logout.
type Revoker interface {
	Revoke(ctx context.Context, tokenID string, expiresAt time.Time) error
}

// Service drives the authentication flow.
type Service struct {
	codec      PasswordOpener
	dir        directory.Authenticator
	users      users.Store
	roles      RoleSource
	tokens     *token.Manager
	revocation Revoker
	logger     *slog.Logger
	audit      *shared.AuditLogger
}

// NewService builds an auth Service.
func NewService(codec PasswordOpener, dir directory.Authenticator, userStore users.Store, roles RoleSource, tokens *token.Manager, revocation Revoker, logger *slog.Logger, audit *shared.AuditLogger) *Service {
	return &Service{
		codec:      codec,
		dir:        dir,
		users:      userStore,
		roles:      roles,
		tokens:     tokens,
		revocation: revocation,
		logger:     logger,
		audit:      audit,
	}
}

// Login verifies credentials against the directory, refreshes the local
// account from the entry and issues a token carrying the current role set.
// Every directory failure collapses into invalid credentials so callers
// cannot probe which accounts exist.
func (s *Service) Login(ctx context.Context, req LoginRequest) (*LoginResponse, error) {
	password := s.codec.Decrypt(req.Password)

	entry, err := s.dir.Authenticate(ctx, req.Username, password)
	if err != nil {
		s.logger.Warn("directory authentication failed",
			slog.String("username", directory.CleanUsername(req.Username)),
			slog.Any("error", err))
		return nil, shared.ErrInvalidCredentials
	}

	account := &users.User{
		ID:         uuid.New(),
		Username:   entry.Username,
		FullName:   entry.FullName,
		Email:      entry.Email,
		Department: entry.Department,
		Title:      entry.Title,
	}
	if err := s.users.Upsert(ctx, account); err != nil {
		return nil, err
	}

	names, err := s.roles.RoleNamesForUser(ctx, account.ID)
	if err != nil {
		return nil, err
	}
	if names == nil {
		names = []string{}
	}
	hasRole := len(names) > 0

	signed, expiresAt, err := s.tokens.Issue(token.Claims{
		Subject:    account.ID.String(),
		FullName:   account.FullName,
		Email:      account.Email,
		Department: account.Department,
		Title:      account.Title,
		HasRole:    hasRole,
		Roles:      names,
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("login",
		slog.String("user_id", account.ID.String()),
		slog.String("username", account.Username),
		slog.Bool("has_role", hasRole))
	if s.audit != nil {
		if err := s.audit.Record(ctx, shared.AuditLog{
			ActorUUID: account.ID.String(),
			Action:    "auth.login",
			Entity:    "user",
			EntityID:  account.ID.String(),
		}); err != nil {
			s.logger.Warn("audit record failed", slog.Any("error", err))
		}
	}

	return &LoginResponse{
		Token:     signed,
		ExpiresAt: expiresAt,
		User:      *account,
		HasRole:   hasRole,
		Roles:     names,
	}, nil
}

// Logout revokes the caller's token for the remainder of its lifetime.
func (s *Service) Logout(ctx context.Context) error {
	principal := shared.PrincipalFromContext(ctx)
	if principal == nil || principal.TokenID == "" {
		return shared.ErrUnauthenticated
	}
	if err := s.revocation.Revoke(ctx, principal.TokenID, principal.ExpiresAt); err != nil {
		return err
	}
	s.logger.Info("logout", slog.String("user_id", principal.Subject))
	return nil
}
