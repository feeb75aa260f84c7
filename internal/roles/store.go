package roles

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/pcs8/orientasi/internal/shared"
)

// Store is the persistence boundary for roles and assignments.
type Store interface {
	Create(ctx context.Context, r *Role) error
	Get(ctx context.Context, id uuid.UUID) (*Role, error)
	GetByName(ctx context.Context, name string) (*Role, error)
	List(ctx context.Context) ([]Role, error)
	Update(ctx context.Context, r *Role) error
	Delete(ctx context.Context, id uuid.UUID) error
	AssignmentCount(ctx context.Context, roleID uuid.UUID) (int, error)

	ReplaceUserRoles(ctx context.Context, userID uuid.UUID, roleIDs []uuid.UUID) error
	RemoveUserRole(ctx context.Context, userID, roleID uuid.UUID) error
	RolesForUser(ctx context.Context, userID uuid.UUID) ([]Role, error)
	UsersWithRoles(ctx context.Context, limit, offset int) ([]UserRoles, int, error)
	UserWithRoles(ctx context.Context, userID uuid.UUID) (*UserRoles, error)
}

// SQLStore is the PostgreSQL implementation of Store.
type SQLStore struct {
	pool *pgxpool.Pool
}

// NewStore constructs a pool-backed store.
func NewStore(pool *pgxpool.Pool) *SQLStore {
	return &SQLStore{pool: pool}
}

func (s *SQLStore) Create(ctx context.Context, r *Role) error {
	err := s.pool.QueryRow(ctx, `
		INSERT INTO roles (id, name, description)
		VALUES ($1, $2, $3)
		RETURNING created_at, updated_at`,
		r.ID, r.Name, r.Description,
	).Scan(&r.CreatedAt, &r.UpdatedAt)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return shared.BadRequestf("Role %s already exists", r.Name)
	}
	return err
}

func (s *SQLStore) Get(ctx context.Context, id uuid.UUID) (*Role, error) {
	return s.get(ctx, `WHERE id = $1`, id)
}

func (s *SQLStore) GetByName(ctx context.Context, name string) (*Role, error) {
	return s.get(ctx, `WHERE name = $1`, name)
}

func (s *SQLStore) get(ctx context.Context, where string, arg any) (*Role, error) {
	var r Role
	err := s.pool.QueryRow(ctx, `
		SELECT id, name, description, created_at, updated_at
		FROM roles `+where, arg,
	).Scan(&r.ID, &r.Name, &r.Description, &r.CreatedAt, &r.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, shared.NotFoundf("Role not found")
	}
	if err != nil {
		return nil, err
	}
	return &r, nil
}

func (s *SQLStore) List(ctx context.Context) ([]Role, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, name, description, created_at, updated_at
		FROM roles ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanRoles(rows)
}

func (s *SQLStore) Update(ctx context.Context, r *Role) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE roles SET name = $2, description = $3, updated_at = NOW()
		WHERE id = $1`,
		r.ID, r.Name, r.Description)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.NotFoundf("Role not found")
	}
	return nil
}

func (s *SQLStore) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM roles WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.NotFoundf("Role not found")
	}
	return nil
}

func (s *SQLStore) AssignmentCount(ctx context.Context, roleID uuid.UUID) (int, error) {
	var n int
	err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM user_roles WHERE role_id = $1`, roleID).Scan(&n)
	return n, err
}

func (s *SQLStore) ReplaceUserRoles(ctx context.Context, userID uuid.UUID, roleIDs []uuid.UUID) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `DELETE FROM user_roles WHERE user_id = $1`, userID); err != nil {
		return err
	}
	for _, roleID := range roleIDs {
		if _, err := tx.Exec(ctx, `INSERT INTO user_roles (user_id, role_id) VALUES ($1, $2)`, userID, roleID); err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}

func (s *SQLStore) RemoveUserRole(ctx context.Context, userID, roleID uuid.UUID) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM user_roles WHERE user_id = $1 AND role_id = $2`, userID, roleID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.NotFoundf("Role assignment not found")
	}
	return nil
}

func (s *SQLStore) RolesForUser(ctx context.Context, userID uuid.UUID) ([]Role, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT r.id, r.name, r.description, r.created_at, r.updated_at
		FROM roles r
		JOIN user_roles ur ON ur.role_id = r.id
		WHERE ur.user_id = $1
		ORDER BY r.name`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanRoles(rows)
}

func (s *SQLStore) UsersWithRoles(ctx context.Context, limit, offset int) ([]UserRoles, int, error) {
	var total int
	if err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM users WHERE is_active`).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := s.pool.Query(ctx, `
		SELECT id, username, full_name, email
		FROM users WHERE is_active
		ORDER BY full_name
		LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []UserRoles
	for rows.Next() {
		var u UserRoles
		if err := rows.Scan(&u.UserID, &u.Username, &u.FullName, &u.Email); err != nil {
			return nil, 0, err
		}
		out = append(out, u)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	for i := range out {
		assigned, err := s.RolesForUser(ctx, out[i].UserID)
		if err != nil {
			return nil, 0, err
		}
		if assigned == nil {
			assigned = []Role{}
		}
		out[i].Roles = assigned
	}
	return out, total, nil
}

func (s *SQLStore) UserWithRoles(ctx context.Context, userID uuid.UUID) (*UserRoles, error) {
	var u UserRoles
	err := s.pool.QueryRow(ctx, `
		SELECT id, username, full_name, email
		FROM users WHERE id = $1 AND is_active`, userID,
	).Scan(&u.UserID, &u.Username, &u.FullName, &u.Email)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, shared.NotFoundf("User not found")
	}
	if err != nil {
		return nil, err
	}
	assigned, err := s.RolesForUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if assigned == nil {
		assigned = []Role{}
	}
	u.Roles = assigned
	return &u, nil
}

func scanRoles(rows pgx.Rows) ([]Role, error) {
	var out []Role
	for rows.Next() {
		var r Role
		if err := rows.Scan(&r.ID, &r.Name, &r.Description, &r.CreatedAt, &r.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

var _ Store = (*SQLStore)(nil)
