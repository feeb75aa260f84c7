package planning

import (
	"time"

	"github.com/google/uuid"

	"github.com/pcs8/orientasi/internal/shared"
)

type CreateRbsiRequest struct {
	Periode string `json:"periode" validate:"required,max=20"`
}

type RbsiResponse struct {
	Rbsi
	TotalPrograms int `json:"total_programs"`
}

type RbsiListResponse struct {
	Data       []RbsiResponse    `json:"data"`
	Pagination shared.Pagination `json:"pagination"`
}

type InlineInitiativeRequest struct {
	Name         string `json:"name" validate:"required,max=500"`
	Description  string `json:"description"`
	Status       string `json:"status" validate:"omitempty,oneof=pending ongoing done rejected"`
	DocumentLink string `json:"document_link"`
	SubmitDate   string `json:"submit_date"`
}

type CreateProgramRequest struct {
	RbsiID           uuid.UUID                 `json:"rbsi_id" validate:"required"`
	YearVersion      int                       `json:"year_version" validate:"required,gte=2000,lte=2100"`
	Name             string                    `json:"name" validate:"required,max=500"`
	Description      string                    `json:"description"`
	Status           string                    `json:"status" validate:"omitempty,max=30"`
	StartDate        string                    `json:"start_date"`
	InsertAtPosition *int                      `json:"insert_at_position,omitempty" validate:"omitempty,gte=1"`
	Initiatives      []InlineInitiativeRequest `json:"initiatives,omitempty" validate:"omitempty,dive"`
}

type UpdateProgramRequest struct {
	Name        string `json:"name" validate:"required,max=500"`
	Description string `json:"description"`
	Status      string `json:"status" validate:"omitempty,max=30"`
	StartDate   string `json:"start_date"`
}

type MoveProgramRequest struct {
	TargetYear int  `json:"target_year" validate:"required,gte=2000,lte=2100"`
	Position   *int `json:"position,omitempty" validate:"omitempty,gte=1"`
}

type CopyProgramRequest struct {
	TargetYear int `json:"target_year" validate:"required,gte=2000,lte=2100"`
}

type ProgramResponse struct {
	Program
	TotalInitiatives int          `json:"total_initiatives"`
	Initiatives      []Initiative `json:"initiatives"`
}

type ProgramListResponse struct {
	RbsiID        uuid.UUID         `json:"rbsi_id"`
	Periode       string            `json:"periode"`
	YearVersion   int               `json:"year_version"`
	TotalPrograms int               `json:"total_programs"`
	Programs      []ProgramResponse `json:"programs"`
}

type CreateInitiativeRequest struct {
	ProgramID        uuid.UUID `json:"program_id" validate:"required"`
	YearVersion      int       `json:"year_version" validate:"required,gte=2000,lte=2100"`
	Name             string    `json:"name" validate:"required,max=500"`
	Description      string    `json:"description"`
	Status           string    `json:"status" validate:"omitempty,oneof=pending ongoing done rejected"`
	DocumentLink     string    `json:"document_link"`
	SubmitDate       string    `json:"submit_date"`
	InsertAtPosition *int      `json:"insert_at_position,omitempty" validate:"omitempty,gte=1"`
}

type UpdateInitiativeRequest struct {
	Name         string `json:"name" validate:"required,max=500"`
	Description  string `json:"description"`
	Status       string `json:"status" validate:"omitempty,oneof=pending ongoing done rejected"`
	DocumentLink string `json:"document_link"`
	SubmitDate   string `json:"submit_date"`
}

type UpdateInitiativeStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=pending ongoing done rejected"`
}

type MoveInitiativeRequest struct {
	TargetProgramID uuid.UUID `json:"target_program_id" validate:"required"`
	TargetYear      int       `json:"target_year" validate:"required,gte=2000,lte=2100"`
	Position        *int      `json:"position,omitempty" validate:"omitempty,gte=1"`
}

type CopyInitiativeRequest struct {
	TargetProgramID uuid.UUID `json:"target_program_id" validate:"required"`
	TargetYear      int       `json:"target_year" validate:"required,gte=2000,lte=2100"`
}

// parseDate accepts a bare date or a full RFC3339 timestamp. Empty or
// unparseable input yields nil, mirroring the lenient upstream behaviour.
func parseDate(value string) *time.Time {
	if value == "" {
		return nil
	}
	if len(value) == 10 {
		if t, err := time.Parse("2006-01-02", value); err == nil {
			return &t
		}
		return nil
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return &t
	}
	return nil
}
