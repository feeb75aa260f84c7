package planning

import (
	"context"
	"log/slog"
	"sort"

	"github.com/google/uuid"

	"github.com/pcs8/orientasi/internal/planning/sequence"
	"github.com/pcs8/orientasi/internal/platform/db"
	"github.com/pcs8/orientasi/internal/shared"
)

// ProgramService maintains programs and their sibling numbering within an
// RBSI year scope.
type ProgramService struct {
	store  Store
	logger *slog.Logger
	audit  *shared.AuditLogger
}

// NewProgramService builds a ProgramService.
func NewProgramService(store Store, logger *slog.Logger, audit *shared.AuditLogger) *ProgramService {
	return &ProgramService{store: store, logger: logger, audit: audit}
}

// Create inserts a program, either appended or at an explicit 1-based
// position. The scope is renumbered inside the same transaction so the
// contiguity invariant holds when it commits.
func (s *ProgramService) Create(ctx context.Context, req CreateProgramRequest) (*ProgramResponse, error) {
	var created *Program
	err := s.store.WithTx(ctx, func(ctx context.Context, st Store) error {
		if _, err := st.GetRbsi(ctx, req.RbsiID); err != nil {
			return err
		}
		if err := st.LockScope(ctx, db.PlanningScopeKey(req.RbsiID.String(), req.YearVersion)); err != nil {
			return err
		}

		siblings, err := st.ListPrograms(ctx, req.RbsiID, req.YearVersion)
		if err != nil {
			return err
		}

		order := len(siblings) + 1
		if req.InsertAtPosition != nil && *req.InsertAtPosition > 0 {
			order = sequence.ClampPosition(*req.InsertAtPosition, len(siblings))
			if err := st.ShiftProgramsFrom(ctx, req.RbsiID, req.YearVersion, order); err != nil {
				return err
			}
		}

		status := req.Status
		if status == "" {
			status = ProgramStatusActive
		}
		program := &Program{
			ID:          uuid.New(),
			RbsiID:      req.RbsiID,
			Number:      sequence.ProgramCode(order),
			Name:        req.Name,
			Description: req.Description,
			YearVersion: req.YearVersion,
			SortOrder:   order,
			Status:      status,
			StartDate:   parseDate(req.StartDate),
		}
		if err := st.CreateProgram(ctx, program); err != nil {
			return err
		}

		for idx, init := range req.Initiatives {
			childStatus := init.Status
			if childStatus == "" {
				childStatus = InitiativeStatusPending
			}
			child := &Initiative{
				ID:           uuid.New(),
				ProgramID:    program.ID,
				Number:       sequence.ChildCodeFunc(program.Number)(idx + 1),
				Name:         init.Name,
				Description:  init.Description,
				YearVersion:  req.YearVersion,
				SortOrder:    idx + 1,
				Status:       childStatus,
				DocumentLink: init.DocumentLink,
				SubmitDate:   parseDate(init.SubmitDate),
			}
			if err := st.CreateInitiative(ctx, child); err != nil {
				return err
			}
		}

		if err := sweepPrograms(ctx, st, req.RbsiID, req.YearVersion); err != nil {
			return err
		}

		created, err = st.GetProgram(ctx, program.ID)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("program created",
		slog.String("id", created.ID.String()),
		slog.String("number", created.Number),
		slog.Int("year", created.YearVersion))
	s.record(ctx, "program.create", created.ID.String(), map[string]any{"number": created.Number, "year": created.YearVersion})

	return s.respond(ctx, created)
}

// ListByRbsiAndYear returns the programs of one scope with their initiatives.
func (s *ProgramService) ListByRbsiAndYear(ctx context.Context, rbsiID uuid.UUID, year int) (*ProgramListResponse, error) {
	rbsi, err := s.store.GetRbsi(ctx, rbsiID)
	if err != nil {
		return nil, err
	}
	programs, err := s.store.ListPrograms(ctx, rbsiID, year)
	if err != nil {
		return nil, err
	}

	out := make([]ProgramResponse, 0, len(programs))
	for i := range programs {
		resp, err := s.respond(ctx, &programs[i])
		if err != nil {
			return nil, err
		}
		out = append(out, *resp)
	}
	return &ProgramListResponse{
		RbsiID:        rbsiID,
		Periode:       rbsi.Periode,
		YearVersion:   year,
		TotalPrograms: len(out),
		Programs:      out,
	}, nil
}

// Get returns one program with its initiatives.
func (s *ProgramService) Get(ctx context.Context, id uuid.UUID) (*ProgramResponse, error) {
	program, err := s.store.GetProgram(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.respond(ctx, program)
}

// Update edits a program in place. Names and statuses change, the sort
// order and display code do not.
func (s *ProgramService) Update(ctx context.Context, id uuid.UUID, req UpdateProgramRequest) (*ProgramResponse, error) {
	program, err := s.store.GetProgram(ctx, id)
	if err != nil {
		return nil, err
	}

	program.Name = req.Name
	program.Description = req.Description
	if req.Status != "" {
		program.Status = req.Status
	}
	if sd := parseDate(req.StartDate); sd != nil {
		program.StartDate = sd
	}
	if err := s.store.UpdateProgram(ctx, program); err != nil {
		return nil, err
	}

	s.logger.Info("program updated", slog.String("id", id.String()))
	return s.respond(ctx, program)
}

// Delete soft-deletes a program and its initiatives, then renumbers the
// remaining siblings back to 1..N.
func (s *ProgramService) Delete(ctx context.Context, id uuid.UUID) error {
	var scopeRbsi uuid.UUID
	var scopeYear int
	err := s.store.WithTx(ctx, func(ctx context.Context, st Store) error {
		program, err := st.GetProgram(ctx, id)
		if err != nil {
			return err
		}
		scopeRbsi, scopeYear = program.RbsiID, program.YearVersion

		if err := st.LockScope(ctx, db.PlanningScopeKey(program.RbsiID.String(), program.YearVersion)); err != nil {
			return err
		}
		if err := st.SoftDeleteInitiativesByProgram(ctx, id); err != nil {
			return err
		}
		if err := st.SoftDeleteProgram(ctx, id); err != nil {
			return err
		}
		return sweepPrograms(ctx, st, program.RbsiID, program.YearVersion)
	})
	if err != nil {
		return err
	}

	s.logger.Info("program deleted", slog.String("id", id.String()), slog.Int("year", scopeYear))
	s.record(ctx, "program.delete", id.String(), map[string]any{"rbsi_id": scopeRbsi.String(), "year": scopeYear})
	return nil
}

// Move reparents a program to another year version. Both the source and the
// destination scope are renumbered; the source never keeps a gap behind.
func (s *ProgramService) Move(ctx context.Context, id uuid.UUID, req MoveProgramRequest) (*ProgramResponse, error) {
	var moved *Program
	err := s.store.WithTx(ctx, func(ctx context.Context, st Store) error {
		program, err := st.GetProgram(ctx, id)
		if err != nil {
			return err
		}
		if program.YearVersion == req.TargetYear {
			return shared.BadRequestf("program %s is already in year %d", program.Number, req.TargetYear)
		}

		sourceYear := program.YearVersion
		keys := []string{
			db.PlanningScopeKey(program.RbsiID.String(), sourceYear),
			db.PlanningScopeKey(program.RbsiID.String(), req.TargetYear),
		}
		sort.Strings(keys)
		for _, key := range keys {
			if err := st.LockScope(ctx, key); err != nil {
				return err
			}
		}

		dest, err := st.ListPrograms(ctx, program.RbsiID, req.TargetYear)
		if err != nil {
			return err
		}
		order := len(dest) + 1
		if req.Position != nil && *req.Position > 0 {
			order = sequence.ClampPosition(*req.Position, len(dest))
			if err := st.ShiftProgramsFrom(ctx, program.RbsiID, req.TargetYear, order); err != nil {
				return err
			}
		}

		if err := st.SetProgramYear(ctx, id, req.TargetYear); err != nil {
			return err
		}
		if err := st.SetProgramOrder(ctx, id, order, sequence.ProgramCode(order)); err != nil {
			return err
		}
		// The program's initiatives travel with it into the target year.
		children, err := st.ListInitiatives(ctx, id, sourceYear)
		if err != nil {
			return err
		}
		for _, child := range children {
			if err := st.SetInitiativeScope(ctx, child.ID, id, req.TargetYear); err != nil {
				return err
			}
		}

		if err := sweepPrograms(ctx, st, program.RbsiID, sourceYear); err != nil {
			return err
		}
		if err := sweepPrograms(ctx, st, program.RbsiID, req.TargetYear); err != nil {
			return err
		}

		moved, err = st.GetProgram(ctx, id)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("program moved",
		slog.String("id", id.String()),
		slog.Int("target_year", req.TargetYear),
		slog.String("number", moved.Number))
	s.record(ctx, "program.move", id.String(), map[string]any{"target_year": req.TargetYear})

	return s.respond(ctx, moved)
}

// Copy clones a program (and its initiatives) into a target year, keeping
// the source display number. The source scope is never renumbered and the
// target must not already hold that number.
func (s *ProgramService) Copy(ctx context.Context, id uuid.UUID, req CopyProgramRequest) (*ProgramResponse, error) {
	var copied *Program
	err := s.store.WithTx(ctx, func(ctx context.Context, st Store) error {
		source, err := st.GetProgram(ctx, id)
		if err != nil {
			return err
		}
		if err := st.LockScope(ctx, db.PlanningScopeKey(source.RbsiID.String(), req.TargetYear)); err != nil {
			return err
		}

		exists, err := st.ProgramNumberExists(ctx, source.RbsiID, req.TargetYear, source.Number)
		if err != nil {
			return err
		}
		if exists {
			return shared.BadRequestf("program number %s already exists in year %d", source.Number, req.TargetYear)
		}

		clone := &Program{
			ID:          uuid.New(),
			RbsiID:      source.RbsiID,
			Number:      source.Number,
			Name:        source.Name,
			Description: source.Description,
			YearVersion: req.TargetYear,
			SortOrder:   source.SortOrder,
			Status:      source.Status,
			StartDate:   source.StartDate,
		}
		if err := st.CreateProgram(ctx, clone); err != nil {
			return err
		}

		children, err := st.ListInitiatives(ctx, source.ID, source.YearVersion)
		if err != nil {
			return err
		}
		for _, child := range children {
			childClone := child
			childClone.ID = uuid.New()
			childClone.ProgramID = clone.ID
			childClone.YearVersion = req.TargetYear
			if err := st.CreateInitiative(ctx, &childClone); err != nil {
				return err
			}
		}

		copied = clone
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("program copied",
		slog.String("source_id", id.String()),
		slog.String("id", copied.ID.String()),
		slog.Int("target_year", req.TargetYear))
	s.record(ctx, "program.copy", copied.ID.String(), map[string]any{"source_id": id.String(), "target_year": req.TargetYear})

	return s.respond(ctx, copied)
}

// AvailableYears lists the distinct year versions an RBSI has programs in.
func (s *ProgramService) AvailableYears(ctx context.Context, rbsiID uuid.UUID) ([]int, error) {
	if _, err := s.store.GetRbsi(ctx, rbsiID); err != nil {
		return nil, err
	}
	return s.store.ProgramYears(ctx, rbsiID)
}

func (s *ProgramService) respond(ctx context.Context, program *Program) (*ProgramResponse, error) {
	initiatives, err := s.store.ListInitiatives(ctx, program.ID, program.YearVersion)
	if err != nil {
		return nil, err
	}
	if initiatives == nil {
		initiatives = []Initiative{}
	}
	return &ProgramResponse{
		Program:          *program,
		TotalInitiatives: len(initiatives),
		Initiatives:      initiatives,
	}, nil
}

func (s *ProgramService) record(ctx context.Context, action, entityID string, meta map[string]any) {
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
		Entity:    "program",
		EntityID:  entityID,
		Meta:      meta,
	}); err != nil {
		s.logger.Warn("audit record failed", slog.Any("error", err))
	}
}

// sweepPrograms renumbers one program scope to 1..N and cascades the new
// display codes into every program's initiatives.
func sweepPrograms(ctx context.Context, st Store, rbsiID uuid.UUID, year int) error {
	programs, err := st.ListPrograms(ctx, rbsiID, year)
	if err != nil {
		return err
	}

	entities := make([]sequence.Entity, len(programs))
	for i, p := range programs {
		entities[i] = sequence.Entity{ID: p.ID, SortOrder: p.SortOrder, Number: p.Number}
	}
	for _, a := range sequence.Sweep(entities, sequence.ProgramCode) {
		if err := st.SetProgramOrder(ctx, a.ID, a.SortOrder, a.Number); err != nil {
			return err
		}
	}

	// Re-read so cascaded child codes use the post-sweep program numbers.
	programs, err = st.ListPrograms(ctx, rbsiID, year)
	if err != nil {
		return err
	}
	for _, p := range programs {
		if err := sweepInitiatives(ctx, st, p.ID, year, p.Number); err != nil {
			return err
		}
	}
	return nil
}

// sweepInitiatives renumbers one initiative scope to 1..N under the parent
// program's display code.
func sweepInitiatives(ctx context.Context, st Store, programID uuid.UUID, year int, parentNumber string) error {
	initiatives, err := st.ListInitiatives(ctx, programID, year)
	if err != nil {
		return err
	}
	entities := make([]sequence.Entity, len(initiatives))
	for i, item := range initiatives {
		entities[i] = sequence.Entity{ID: item.ID, SortOrder: item.SortOrder, Number: item.Number}
	}
	for _, a := range sequence.Sweep(entities, sequence.ChildCodeFunc(parentNumber)) {
		if err := st.SetInitiativeOrder(ctx, a.ID, a.SortOrder, a.Number); err != nil {
			return err
		}
	}
	return nil
}
