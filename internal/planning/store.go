package planning

import (
	"context"

	"github.com/google/uuid"
)

// Store is the persistence boundary of the planning hierarchy. Read methods
// only ever see active rows; deletions are soft and flip is_active.
type Store interface {
	// WithTx runs fn against a transaction-bound store. Every structural
	// mutation (insert, delete, move, copy) goes through one WithTx call so
	// the renumber sweep commits atomically with the triggering write.
	WithTx(ctx context.Context, fn func(context.Context, Store) error) error
	// LockScope serializes concurrent writers of one sibling scope. Only
	// valid inside WithTx.
	LockScope(ctx context.Context, key string) error

	CreateRbsi(ctx context.Context, r *Rbsi) error
	GetRbsi(ctx context.Context, id uuid.UUID) (*Rbsi, error)
	RbsiPeriodeExists(ctx context.Context, periode string) (bool, error)
	ListRbsi(ctx context.Context, limit, offset int) ([]Rbsi, int, error)
	SoftDeleteRbsi(ctx context.Context, id uuid.UUID) error
	CountProgramsByRbsi(ctx context.Context, id uuid.UUID) (int, error)

	CreateProgram(ctx context.Context, p *Program) error
	GetProgram(ctx context.Context, id uuid.UUID) (*Program, error)
	ListPrograms(ctx context.Context, rbsiID uuid.UUID, year int) ([]Program, error)
	ShiftProgramsFrom(ctx context.Context, rbsiID uuid.UUID, year, position int) error
	SetProgramOrder(ctx context.Context, id uuid.UUID, sortOrder int, number string) error
	SetProgramYear(ctx context.Context, id uuid.UUID, year int) error
	UpdateProgram(ctx context.Context, p *Program) error
	SoftDeleteProgram(ctx context.Context, id uuid.UUID) error
	SoftDeleteProgramsByRbsi(ctx context.Context, rbsiID uuid.UUID) error
	ProgramNumberExists(ctx context.Context, rbsiID uuid.UUID, year int, number string) (bool, error)
	ProgramYears(ctx context.Context, rbsiID uuid.UUID) ([]int, error)

	CreateInitiative(ctx context.Context, i *Initiative) error
	GetInitiative(ctx context.Context, id uuid.UUID) (*Initiative, error)
	ListInitiatives(ctx context.Context, programID uuid.UUID, year int) ([]Initiative, error)
	ShiftInitiativesFrom(ctx context.Context, programID uuid.UUID, year, position int) error
	SetInitiativeOrder(ctx context.Context, id uuid.UUID, sortOrder int, number string) error
	SetInitiativeScope(ctx context.Context, id, programID uuid.UUID, year int) error
	UpdateInitiative(ctx context.Context, i *Initiative) error
	SetInitiativeStatus(ctx context.Context, id uuid.UUID, status string) error
	SoftDeleteInitiative(ctx context.Context, id uuid.UUID) error
	SoftDeleteInitiativesByProgram(ctx context.Context, programID uuid.UUID) error
	SoftDeleteInitiativesByRbsi(ctx context.Context, rbsiID uuid.UUID) error
	InitiativeNumberExists(ctx context.Context, programID uuid.UUID, year int, number string) (bool, error)
}
