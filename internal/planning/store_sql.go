package planning

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/pcs8/orientasi/internal/platform/db"
	"github.com/pcs8/orientasi/internal/shared"
)

type dbtx interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// SQLStore is the PostgreSQL implementation of Store.
type SQLStore struct {
	db   dbtx
	pool *pgxpool.Pool
	tx   pgx.Tx
}

// NewStore constructs a pool-backed store.
func NewStore(pool *pgxpool.Pool) *SQLStore {
	return &SQLStore{db: pool, pool: pool}
}

// WithTx runs fn with a transaction-bound store.
func (s *SQLStore) WithTx(ctx context.Context, fn func(context.Context, Store) error) error {
	return db.WithTx(ctx, s.pool, func(tx pgx.Tx) error {
		return fn(ctx, &SQLStore{db: tx, pool: s.pool, tx: tx})
	})
}

// LockScope takes the advisory lock for a sibling scope.
func (s *SQLStore) LockScope(ctx context.Context, key string) error {
	if s.tx == nil {
		return errors.New("planning: scope lock requires a transaction")
	}
	return db.LockScope(ctx, s.tx, key)
}

// --- RBSI ---

func (s *SQLStore) CreateRbsi(ctx context.Context, r *Rbsi) error {
	return s.db.QueryRow(ctx, `
		INSERT INTO rbsi (id, periode, is_active)
		VALUES ($1, $2, TRUE)
		RETURNING created_at, updated_at`,
		r.ID, r.Periode,
	).Scan(&r.CreatedAt, &r.UpdatedAt)
}

func (s *SQLStore) GetRbsi(ctx context.Context, id uuid.UUID) (*Rbsi, error) {
	var r Rbsi
	err := s.db.QueryRow(ctx, `
		SELECT id, periode, is_active, created_at, updated_at
		FROM rbsi WHERE id = $1 AND is_active`,
		id,
	).Scan(&r.ID, &r.Periode, &r.IsActive, &r.CreatedAt, &r.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, shared.NotFoundf("RBSI %s not found", id)
	}
	if err != nil {
		return nil, err
	}
	return &r, nil
}

func (s *SQLStore) RbsiPeriodeExists(ctx context.Context, periode string) (bool, error) {
	var exists bool
	err := s.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM rbsi WHERE periode = $1 AND is_active)`, periode).Scan(&exists)
	return exists, err
}

func (s *SQLStore) ListRbsi(ctx context.Context, limit, offset int) ([]Rbsi, int, error) {
	var total int
	if err := s.db.QueryRow(ctx, `SELECT COUNT(*) FROM rbsi WHERE is_active`).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := s.db.Query(ctx, `
		SELECT id, periode, is_active, created_at, updated_at
		FROM rbsi WHERE is_active
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2`,
		limit, offset,
	)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var list []Rbsi
	for rows.Next() {
		var r Rbsi
		if err := rows.Scan(&r.ID, &r.Periode, &r.IsActive, &r.CreatedAt, &r.UpdatedAt); err != nil {
			return nil, 0, err
		}
		list = append(list, r)
	}
	return list, total, rows.Err()
}

func (s *SQLStore) SoftDeleteRbsi(ctx context.Context, id uuid.UUID) error {
	_, err := s.db.Exec(ctx, `UPDATE rbsi SET is_active = FALSE, updated_at = NOW() WHERE id = $1`, id)
	return err
}

func (s *SQLStore) CountProgramsByRbsi(ctx context.Context, id uuid.UUID) (int, error) {
	var n int
	err := s.db.QueryRow(ctx, `SELECT COUNT(*) FROM programs WHERE rbsi_id = $1 AND is_active`, id).Scan(&n)
	return n, err
}

// --- Programs ---

const programColumns = `id, rbsi_id, program_number, name, description, year_version, sort_order, status, start_date, is_active, created_at, updated_at`

func scanProgram(row pgx.Row) (*Program, error) {
	var p Program
	err := row.Scan(&p.ID, &p.RbsiID, &p.Number, &p.Name, &p.Description, &p.YearVersion,
		&p.SortOrder, &p.Status, &p.StartDate, &p.IsActive, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *SQLStore) CreateProgram(ctx context.Context, p *Program) error {
	return s.db.QueryRow(ctx, `
		INSERT INTO programs (id, rbsi_id, program_number, name, description, year_version, sort_order, status, start_date, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, TRUE)
		RETURNING created_at, updated_at`,
		p.ID, p.RbsiID, p.Number, p.Name, p.Description, p.YearVersion, p.SortOrder, p.Status, p.StartDate,
	).Scan(&p.CreatedAt, &p.UpdatedAt)
}

func (s *SQLStore) GetProgram(ctx context.Context, id uuid.UUID) (*Program, error) {
	p, err := scanProgram(s.db.QueryRow(ctx, `SELECT `+programColumns+` FROM programs WHERE id = $1 AND is_active`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, shared.NotFoundf("Program %s not found", id)
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (s *SQLStore) ListPrograms(ctx context.Context, rbsiID uuid.UUID, year int) ([]Program, error) {
	rows, err := s.db.Query(ctx, `
		SELECT `+programColumns+` FROM programs
		WHERE rbsi_id = $1 AND year_version = $2 AND is_active
		ORDER BY sort_order`,
		rbsiID, year,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []Program
	for rows.Next() {
		p, err := scanProgram(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, *p)
	}
	return list, rows.Err()
}

func (s *SQLStore) ShiftProgramsFrom(ctx context.Context, rbsiID uuid.UUID, year, position int) error {
	_, err := s.db.Exec(ctx, `
		UPDATE programs SET sort_order = sort_order + 1, updated_at = NOW()
		WHERE rbsi_id = $1 AND year_version = $2 AND is_active AND sort_order >= $3`,
		rbsiID, year, position,
	)
	return err
}

func (s *SQLStore) SetProgramOrder(ctx context.Context, id uuid.UUID, sortOrder int, number string) error {
	_, err := s.db.Exec(ctx, `
		UPDATE programs SET sort_order = $2, program_number = $3, updated_at = NOW() WHERE id = $1`,
		id, sortOrder, number,
	)
	return err
}

func (s *SQLStore) SetProgramYear(ctx context.Context, id uuid.UUID, year int) error {
	_, err := s.db.Exec(ctx, `UPDATE programs SET year_version = $2, updated_at = NOW() WHERE id = $1`, id, year)
	return err
}

func (s *SQLStore) UpdateProgram(ctx context.Context, p *Program) error {
	_, err := s.db.Exec(ctx, `
		UPDATE programs SET name = $2, description = $3, status = $4, start_date = $5, updated_at = NOW()
		WHERE id = $1 AND is_active`,
		p.ID, p.Name, p.Description, p.Status, p.StartDate,
	)
	return err
}

func (s *SQLStore) SoftDeleteProgram(ctx context.Context, id uuid.UUID) error {
	_, err := s.db.Exec(ctx, `UPDATE programs SET is_active = FALSE, updated_at = NOW() WHERE id = $1`, id)
	return err
}

func (s *SQLStore) SoftDeleteProgramsByRbsi(ctx context.Context, rbsiID uuid.UUID) error {
	_, err := s.db.Exec(ctx, `UPDATE programs SET is_active = FALSE, updated_at = NOW() WHERE rbsi_id = $1 AND is_active`, rbsiID)
	return err
}

func (s *SQLStore) ProgramNumberExists(ctx context.Context, rbsiID uuid.UUID, year int, number string) (bool, error) {
	var exists bool
	err := s.db.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM programs
			WHERE rbsi_id = $1 AND year_version = $2 AND program_number = $3 AND is_active
		)`,
		rbsiID, year, number,
	).Scan(&exists)
	return exists, err
}

func (s *SQLStore) ProgramYears(ctx context.Context, rbsiID uuid.UUID) ([]int, error) {
	rows, err := s.db.Query(ctx, `
		SELECT DISTINCT year_version FROM programs
		WHERE rbsi_id = $1 AND is_active ORDER BY year_version`,
		rbsiID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var years []int
	for rows.Next() {
		var y int
		if err := rows.Scan(&y); err != nil {
			return nil, err
		}
		years = append(years, y)
	}
	return years, rows.Err()
}

// --- Initiatives ---

const initiativeColumns = `id, program_id, initiative_number, name, description, year_version, sort_order, status, document_link, submit_date, is_active, created_at, updated_at`

func scanInitiative(row pgx.Row) (*Initiative, error) {
	var i Initiative
	err := row.Scan(&i.ID, &i.ProgramID, &i.Number, &i.Name, &i.Description, &i.YearVersion,
		&i.SortOrder, &i.Status, &i.DocumentLink, &i.SubmitDate, &i.IsActive, &i.CreatedAt, &i.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &i, nil
}

func (s *SQLStore) CreateInitiative(ctx context.Context, i *Initiative) error {
	return s.db.QueryRow(ctx, `
		INSERT INTO initiatives (id, program_id, initiative_number, name, description, year_version, sort_order, status, document_link, submit_date, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, TRUE)
		RETURNING created_at, updated_at`,
		i.ID, i.ProgramID, i.Number, i.Name, i.Description, i.YearVersion, i.SortOrder, i.Status, i.DocumentLink, i.SubmitDate,
	).Scan(&i.CreatedAt, &i.UpdatedAt)
}

func (s *SQLStore) GetInitiative(ctx context.Context, id uuid.UUID) (*Initiative, error) {
	i, err := scanInitiative(s.db.QueryRow(ctx, `SELECT `+initiativeColumns+` FROM initiatives WHERE id = $1 AND is_active`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, shared.NotFoundf("Initiative %s not found", id)
	}
	if err != nil {
		return nil, err
	}
	return i, nil
}

func (s *SQLStore) ListInitiatives(ctx context.Context, programID uuid.UUID, year int) ([]Initiative, error) {
	rows, err := s.db.Query(ctx, `
		SELECT `+initiativeColumns+` FROM initiatives
		WHERE program_id = $1 AND year_version = $2 AND is_active
		ORDER BY sort_order`,
		programID, year,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []Initiative
	for rows.Next() {
		i, err := scanInitiative(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, *i)
	}
	return list, rows.Err()
}

func (s *SQLStore) ShiftInitiativesFrom(ctx context.Context, programID uuid.UUID, year, position int) error {
	_, err := s.db.Exec(ctx, `
		UPDATE initiatives SET sort_order = sort_order + 1, updated_at = NOW()
		WHERE program_id = $1 AND year_version = $2 AND is_active AND sort_order >= $3`,
		programID, year, position,
	)
	return err
}

func (s *SQLStore) SetInitiativeOrder(ctx context.Context, id uuid.UUID, sortOrder int, number string) error {
	_, err := s.db.Exec(ctx, `
		UPDATE initiatives SET sort_order = $2, initiative_number = $3, updated_at = NOW() WHERE id = $1`,
		id, sortOrder, number,
	)
	return err
}

func (s *SQLStore) SetInitiativeScope(ctx context.Context, id, programID uuid.UUID, year int) error {
	_, err := s.db.Exec(ctx, `
		UPDATE initiatives SET program_id = $2, year_version = $3, updated_at = NOW() WHERE id = $1`,
		id, programID, year,
	)
	return err
}

func (s *SQLStore) UpdateInitiative(ctx context.Context, i *Initiative) error {
	_, err := s.db.Exec(ctx, `
		UPDATE initiatives SET name = $2, description = $3, status = $4, document_link = $5, submit_date = $6, updated_at = NOW()
		WHERE id = $1 AND is_active`,
		i.ID, i.Name, i.Description, i.Status, i.DocumentLink, i.SubmitDate,
	)
	return err
}

func (s *SQLStore) SetInitiativeStatus(ctx context.Context, id uuid.UUID, status string) error {
	_, err := s.db.Exec(ctx, `UPDATE initiatives SET status = $2, updated_at = NOW() WHERE id = $1 AND is_active`, id, status)
	return err
}

func (s *SQLStore) SoftDeleteInitiative(ctx context.Context, id uuid.UUID) error {
	_, err := s.db.Exec(ctx, `UPDATE initiatives SET is_active = FALSE, updated_at = NOW() WHERE id = $1`, id)
	return err
}

func (s *SQLStore) SoftDeleteInitiativesByProgram(ctx context.Context, programID uuid.UUID) error {
	_, err := s.db.Exec(ctx, `UPDATE initiatives SET is_active = FALSE, updated_at = NOW() WHERE program_id = $1 AND is_active`, programID)
	return err
}

func (s *SQLStore) SoftDeleteInitiativesByRbsi(ctx context.Context, rbsiID uuid.UUID) error {
	_, err := s.db.Exec(ctx, `
		UPDATE initiatives SET is_active = FALSE, updated_at = NOW()
		WHERE is_active AND program_id IN (SELECT id FROM programs WHERE rbsi_id = $1)`,
		rbsiID,
	)
	return err
}

func (s *SQLStore) InitiativeNumberExists(ctx context.Context, programID uuid.UUID, year int, number string) (bool, error) {
	var exists bool
	err := s.db.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM initiatives
			WHERE program_id = $1 AND year_version = $2 AND initiative_number = $3 AND is_active
		)`,
		programID, year, number,
	).Scan(&exists)
	return exists, err
}

var _ Store = (*SQLStore)(nil)
