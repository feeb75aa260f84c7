// Package planning tracks the RBSI, Program and Initiative hierarchy with
// contiguous sibling numbering per (parent, year) scope.
package planning

import (
	"time"

	"github.com/google/uuid"
)

// Rbsi is the top-level planning period, e.g. periode "2025-2027".
type Rbsi struct {
	ID        uuid.UUID `json:"id"`
	Periode   string    `json:"periode"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Program is a child of an RBSI, scoped to one year version and carrying a
// dotted display number "3.N" that always matches its sort order.
type Program struct {
	ID          uuid.UUID  `json:"id"`
	RbsiID      uuid.UUID  `json:"rbsi_id"`
	Number      string     `json:"program_number"`
	Name        string     `json:"name"`
	Description string     `json:"description"`
	YearVersion int        `json:"year_version"`
	SortOrder   int        `json:"sort_order"`
	Status      string     `json:"status"`
	StartDate   *time.Time `json:"start_date,omitempty"`
	IsActive    bool       `json:"is_active"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// Initiative is a child of a Program in the same year, numbered "3.N.M".
type Initiative struct {
	ID           uuid.UUID  `json:"id"`
	ProgramID    uuid.UUID  `json:"program_id"`
	Number       string     `json:"initiative_number"`
	Name         string     `json:"name"`
	Description  string     `json:"description"`
	YearVersion  int        `json:"year_version"`
	SortOrder    int        `json:"sort_order"`
	Status       string     `json:"status"`
	DocumentLink string     `json:"document_link,omitempty"`
	SubmitDate   *time.Time `json:"submit_date,omitempty"`
	IsActive     bool       `json:"is_active"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// Default lifecycle statuses.
const (
	ProgramStatusActive      = "active"
	InitiativeStatusPending  = "pending"
	InitiativeStatusOngoing  = "ongoing"
	InitiativeStatusDone     = "done"
	InitiativeStatusRejected = "rejected"
)
