package users

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/pcs8/orientasi/internal/shared"
)

// Store is the persistence boundary for accounts.
type Store interface {
	// Upsert inserts the user or refreshes the directory-sourced fields of
	// the existing row keyed by username. The stored id is written back.
	Upsert(ctx context.Context, u *User) error
	GetByID(ctx context.Context, id uuid.UUID) (*User, error)
	GetByUsername(ctx context.Context, username string) (*User, error)
	List(ctx context.Context, limit, offset int) ([]User, int, error)
}

// SQLStore is the PostgreSQL implementation of Store.
type SQLStore struct {
	pool *pgxpool.Pool
}

// NewStore constructs a pool-backed store.
func NewStore(pool *pgxpool.Pool) *SQLStore {
	return &SQLStore{pool: pool}
}

func (s *SQLStore) Upsert(ctx context.Context, u *User) error {
	return s.pool.QueryRow(ctx, `
		INSERT INTO users (id, username, full_name, email, department, title, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, TRUE)
		ON CONFLICT (username) DO UPDATE SET
			full_name  = EXCLUDED.full_name,
			email      = EXCLUDED.email,
			department = EXCLUDED.department,
			title      = EXCLUDED.title,
			is_active  = TRUE,
			updated_at = NOW()
		RETURNING id, created_at, updated_at`,
		u.ID, u.Username, u.FullName, u.Email, u.Department, u.Title,
	).Scan(&u.ID, &u.CreatedAt, &u.UpdatedAt)
}

func (s *SQLStore) GetByID(ctx context.Context, id uuid.UUID) (*User, error) {
	return s.get(ctx, `WHERE id = $1 AND is_active`, id)
}

func (s *SQLStore) GetByUsername(ctx context.Context, username string) (*User, error) {
	return s.get(ctx, `WHERE username = $1 AND is_active`, username)
}

func (s *SQLStore) get(ctx context.Context, where string, arg any) (*User, error) {
	var u User
	err := s.pool.QueryRow(ctx, `
		SELECT id, username, full_name, email, department, title, is_active, created_at, updated_at
		FROM users `+where, arg,
	).Scan(&u.ID, &u.Username, &u.FullName, &u.Email, &u.Department, &u.Title, &u.IsActive, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, shared.NotFoundf("User not found")
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (s *SQLStore) List(ctx context.Context, limit, offset int) ([]User, int, error) {
	var total int
	if err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM users WHERE is_active`).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := s.pool.Query(ctx, `
		SELECT id, username, full_name, email, department, title, is_active, created_at, updated_at
		FROM users WHERE is_active
		ORDER BY full_name
		LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []User
	for rows.Next() {
		var u User
		if err := rows.Scan(&u.ID, &u.Username, &u.FullName, &u.Email, &u.Department, &u.Title, &u.IsActive, &u.CreatedAt, &u.UpdatedAt); err != nil {
			return nil, 0, err
		}
		out = append(out, u)
	}
	return out, total, rows.Err()
}

var _ Store = (*SQLStore)(nil)
