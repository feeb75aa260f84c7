package planning

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/pcs8/orientasi/internal/shared"
)

// RbsiService handles the top-level planning periods.
type RbsiService struct {
	store  Store
	logger *slog.Logger
	audit  *shared.AuditLogger
}

// NewRbsiService builds an RbsiService.
func NewRbsiService(store Store, logger *slog.Logger, audit *shared.AuditLogger) *RbsiService {
	return &RbsiService{store: store, logger: logger, audit: audit}
}

// Create registers a new RBSI with a unique periode.
func (s *RbsiService) Create(ctx context.Context, req CreateRbsiRequest) (*RbsiResponse, error) {
	exists, err := s.store.RbsiPeriodeExists(ctx, req.Periode)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, shared.BadRequestf("RBSI with periode %s already exists", req.Periode)
	}

	rbsi := &Rbsi{ID: uuid.New(), Periode: req.Periode}
	if err := s.store.CreateRbsi(ctx, rbsi); err != nil {
		return nil, err
	}

	s.logger.Info("rbsi created", slog.String("id", rbsi.ID.String()), slog.String("periode", rbsi.Periode))
	s.record(ctx, "rbsi.create", rbsi.ID.String(), map[string]any{"periode": rbsi.Periode})

	return &RbsiResponse{Rbsi: *rbsi}, nil
}

// List returns active RBSIs, newest first.
func (s *RbsiService) List(ctx context.Context, page, size int) (*RbsiListResponse, error) {
	pagination := shared.NewPagination(page, size, 0)
	list, total, err := s.store.ListRbsi(ctx, pagination.PerPage, pagination.Offset())
	if err != nil {
		return nil, err
	}

	out := make([]RbsiResponse, 0, len(list))
	for _, r := range list {
		count, err := s.store.CountProgramsByRbsi(ctx, r.ID)
		if err != nil {
			return nil, err
		}
		out = append(out, RbsiResponse{Rbsi: r, TotalPrograms: count})
	}
	return &RbsiListResponse{Data: out, Pagination: shared.NewPagination(page, size, total)}, nil
}

// Get returns one active RBSI.
func (s *RbsiService) Get(ctx context.Context, id uuid.UUID) (*RbsiResponse, error) {
	rbsi, err := s.store.GetRbsi(ctx, id)
	if err != nil {
		return nil, err
	}
	count, err := s.store.CountProgramsByRbsi(ctx, id)
	if err != nil {
		return nil, err
	}
	return &RbsiResponse{Rbsi: *rbsi, TotalPrograms: count}, nil
}

// Delete soft-deletes the RBSI and cascades to its programs and initiatives.
// No initiative outlives its program, no program outlives its RBSI.
func (s *RbsiService) Delete(ctx context.Context, id uuid.UUID) error {
	err := s.store.WithTx(ctx, func(ctx context.Context, st Store) error {
		if _, err := st.GetRbsi(ctx, id); err != nil {
			return err
		}
		if err := st.SoftDeleteInitiativesByRbsi(ctx, id); err != nil {
			return err
		}
		if err := st.SoftDeleteProgramsByRbsi(ctx, id); err != nil {
			return err
		}
		return st.SoftDeleteRbsi(ctx, id)
	})
	if err != nil {
		return err
	}

	s.logger.Info("rbsi deleted", slog.String("id", id.String()))
	s.record(ctx, "rbsi.delete", id.String(), nil)
	return nil
}

func (s *RbsiService) record(ctx context.Context, action, entityID string, meta map[string]any) {
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
		Entity:    "rbsi",
		EntityID:  entityID,
		Meta:      meta,
	}); err != nil {
		s.logger.Warn("audit record failed", slog.Any("error", err))
	}
}
