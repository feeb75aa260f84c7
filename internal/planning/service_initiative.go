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

// InitiativeService maintains initiatives under their parent program,
// keeping the sibling numbering derived from the parent's display code.
type InitiativeService struct {
	store  Store
	logger *slog.Logger
	audit  *shared.AuditLogger
}

// NewInitiativeService builds an InitiativeService.
func NewInitiativeService(store Store, logger *slog.Logger, audit *shared.AuditLogger) *InitiativeService {
	return &InitiativeService{store: store, logger: logger, audit: audit}
}

// Create inserts an initiative, appended or at an explicit position, and
// renumbers its sibling scope in the same transaction.
func (s *InitiativeService) Create(ctx context.Context, req CreateInitiativeRequest) (*Initiative, error) {
	var created *Initiative
	err := s.store.WithTx(ctx, func(ctx context.Context, st Store) error {
		parent, err := st.GetProgram(ctx, req.ProgramID)
		if err != nil {
			return err
		}
		if req.YearVersion != parent.YearVersion {
			return shared.BadRequestf("year %d does not match program year %d", req.YearVersion, parent.YearVersion)
		}
		// Lock the whole RBSI year, not just this program's children: a
		// concurrent program sweep could otherwise rewrite the parent's
		// number while this transaction derives codes from its snapshot.
		if err := st.LockScope(ctx, db.PlanningScopeKey(parent.RbsiID.String(), req.YearVersion)); err != nil {
			return err
		}

		siblings, err := st.ListInitiatives(ctx, parent.ID, req.YearVersion)
		if err != nil {
			return err
		}
		order := len(siblings) + 1
		if req.InsertAtPosition != nil && *req.InsertAtPosition > 0 {
			order = sequence.ClampPosition(*req.InsertAtPosition, len(siblings))
			if err := st.ShiftInitiativesFrom(ctx, parent.ID, req.YearVersion, order); err != nil {
				return err
			}
		}

		status := req.Status
		if status == "" {
			status = InitiativeStatusPending
		}
		initiative := &Initiative{
			ID:           uuid.New(),
			ProgramID:    parent.ID,
			Number:       sequence.ChildCodeFunc(parent.Number)(order),
			Name:         req.Name,
			Description:  req.Description,
			YearVersion:  req.YearVersion,
			SortOrder:    order,
			Status:       status,
			DocumentLink: req.DocumentLink,
			SubmitDate:   parseDate(req.SubmitDate),
		}
		if err := st.CreateInitiative(ctx, initiative); err != nil {
			return err
		}
		if err := sweepInitiatives(ctx, st, parent.ID, req.YearVersion, parent.Number); err != nil {
			return err
		}

		created, err = st.GetInitiative(ctx, initiative.ID)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("initiative created",
		slog.String("id", created.ID.String()),
		slog.String("number", created.Number))
	s.record(ctx, "initiative.create", created.ID.String(), map[string]any{"number": created.Number, "program_id": created.ProgramID.String()})
	return created, nil
}

// ListByProgram returns the initiatives of one program year in order.
func (s *InitiativeService) ListByProgram(ctx context.Context, programID uuid.UUID, year int) ([]Initiative, error) {
	parent, err := s.store.GetProgram(ctx, programID)
	if err != nil {
		return nil, err
	}
	if year == 0 {
		year = parent.YearVersion
	}
	items, err := s.store.ListInitiatives(ctx, programID, year)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []Initiative{}
	}
	return items, nil
}

// Get returns one initiative.
func (s *InitiativeService) Get(ctx context.Context, id uuid.UUID) (*Initiative, error) {
	return s.store.GetInitiative(ctx, id)
}

// Update edits an initiative in place, leaving its position untouched.
func (s *InitiativeService) Update(ctx context.Context, id uuid.UUID, req UpdateInitiativeRequest) (*Initiative, error) {
	initiative, err := s.store.GetInitiative(ctx, id)
	if err != nil {
		return nil, err
	}

	initiative.Name = req.Name
	initiative.Description = req.Description
	if req.Status != "" {
		initiative.Status = req.Status
	}
	initiative.DocumentLink = req.DocumentLink
	if sd := parseDate(req.SubmitDate); sd != nil {
		initiative.SubmitDate = sd
	}
	if err := s.store.UpdateInitiative(ctx, initiative); err != nil {
		return nil, err
	}

	s.logger.Info("initiative updated", slog.String("id", id.String()))
	return initiative, nil
}

// UpdateStatus flips just the workflow status.
func (s *InitiativeService) UpdateStatus(ctx context.Context, id uuid.UUID, req UpdateInitiativeStatusRequest) (*Initiative, error) {
	if _, err := s.store.GetInitiative(ctx, id); err != nil {
		return nil, err
	}
	if err := s.store.SetInitiativeStatus(ctx, id, req.Status); err != nil {
		return nil, err
	}
	s.record(ctx, "initiative.status", id.String(), map[string]any{"status": req.Status})
	return s.store.GetInitiative(ctx, id)
}

// Delete soft-deletes an initiative and closes the gap it leaves.
func (s *InitiativeService) Delete(ctx context.Context, id uuid.UUID) error {
	err := s.store.WithTx(ctx, func(ctx context.Context, st Store) error {
		initiative, err := st.GetInitiative(ctx, id)
		if err != nil {
			return err
		}
		parent, err := st.GetProgram(ctx, initiative.ProgramID)
		if err != nil {
			return err
		}
		if err := st.LockScope(ctx, db.PlanningScopeKey(parent.RbsiID.String(), initiative.YearVersion)); err != nil {
			return err
		}
		if err := st.SoftDeleteInitiative(ctx, id); err != nil {
			return err
		}
		return sweepInitiatives(ctx, st, parent.ID, initiative.YearVersion, parent.Number)
	})
	if err != nil {
		return err
	}

	s.logger.Info("initiative deleted", slog.String("id", id.String()))
	s.record(ctx, "initiative.delete", id.String(), nil)
	return nil
}

// Move reparents an initiative to another program and/or year. Both the
// source and destination sibling scopes are renumbered.
func (s *InitiativeService) Move(ctx context.Context, id uuid.UUID, req MoveInitiativeRequest) (*Initiative, error) {
	var moved *Initiative
	err := s.store.WithTx(ctx, func(ctx context.Context, st Store) error {
		initiative, err := st.GetInitiative(ctx, id)
		if err != nil {
			return err
		}
		source, err := st.GetProgram(ctx, initiative.ProgramID)
		if err != nil {
			return err
		}
		target, err := st.GetProgram(ctx, req.TargetProgramID)
		if err != nil {
			return err
		}
		if req.TargetYear != target.YearVersion {
			return shared.BadRequestf("year %d does not match program year %d", req.TargetYear, target.YearVersion)
		}
		if source.ID == target.ID && initiative.YearVersion == req.TargetYear {
			return shared.BadRequestf("initiative %s is already in that scope", initiative.Number)
		}

		keys := []string{
			db.PlanningScopeKey(source.RbsiID.String(), initiative.YearVersion),
			db.PlanningScopeKey(target.RbsiID.String(), req.TargetYear),
		}
		sort.Strings(keys)
		for _, key := range keys {
			if err := st.LockScope(ctx, key); err != nil {
				return err
			}
		}

		dest, err := st.ListInitiatives(ctx, target.ID, req.TargetYear)
		if err != nil {
			return err
		}
		order := len(dest) + 1
		if req.Position != nil && *req.Position > 0 {
			order = sequence.ClampPosition(*req.Position, len(dest))
			if err := st.ShiftInitiativesFrom(ctx, target.ID, req.TargetYear, order); err != nil {
				return err
			}
		}

		sourceYear := initiative.YearVersion
		if err := st.SetInitiativeScope(ctx, id, target.ID, req.TargetYear); err != nil {
			return err
		}
		if err := st.SetInitiativeOrder(ctx, id, order, sequence.ChildCodeFunc(target.Number)(order)); err != nil {
			return err
		}

		if err := sweepInitiatives(ctx, st, source.ID, sourceYear, source.Number); err != nil {
			return err
		}
		if err := sweepInitiatives(ctx, st, target.ID, req.TargetYear, target.Number); err != nil {
			return err
		}

		moved, err = st.GetInitiative(ctx, id)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("initiative moved",
		slog.String("id", id.String()),
		slog.String("target_program_id", req.TargetProgramID.String()),
		slog.String("number", moved.Number))
	s.record(ctx, "initiative.move", id.String(), map[string]any{"target_program_id": req.TargetProgramID.String(), "target_year": req.TargetYear})
	return moved, nil
}

// Copy clones an initiative into a target program year keeping its display
// number. The destination must not already hold that number and no scope is
// renumbered.
func (s *InitiativeService) Copy(ctx context.Context, id uuid.UUID, req CopyInitiativeRequest) (*Initiative, error) {
	var copied *Initiative
	err := s.store.WithTx(ctx, func(ctx context.Context, st Store) error {
		source, err := st.GetInitiative(ctx, id)
		if err != nil {
			return err
		}
		target, err := st.GetProgram(ctx, req.TargetProgramID)
		if err != nil {
			return err
		}
		if req.TargetYear != target.YearVersion {
			return shared.BadRequestf("year %d does not match program year %d", req.TargetYear, target.YearVersion)
		}
		if err := st.LockScope(ctx, db.PlanningScopeKey(target.RbsiID.String(), req.TargetYear)); err != nil {
			return err
		}

		exists, err := st.InitiativeNumberExists(ctx, target.ID, req.TargetYear, source.Number)
		if err != nil {
			return err
		}
		if exists {
			return shared.BadRequestf("initiative number %s already exists in the target program", source.Number)
		}

		clone := *source
		clone.ID = uuid.New()
		clone.ProgramID = target.ID
		clone.YearVersion = req.TargetYear
		if err := st.CreateInitiative(ctx, &clone); err != nil {
			return err
		}
		copied = &clone
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("initiative copied",
		slog.String("source_id", id.String()),
		slog.String("id", copied.ID.String()))
	s.record(ctx, "initiative.copy", copied.ID.String(), map[string]any{"source_id": id.String(), "target_program_id": req.TargetProgramID.String()})
	return copied, nil
}

func (s *InitiativeService) record(ctx context.Context, action, entityID string, meta map[string]any) {
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
		Entity:    "initiative",
		EntityID:  entityID,
		Meta:      meta,
	}); err != nil {
		s.logger.Warn("audit record failed", slog.Any("error", err))
	}
}
