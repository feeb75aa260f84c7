package planning

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/pcs8/orientasi/internal/platform/httpx"
	"github.com/pcs8/orientasi/internal/rbac"
	"github.com/pcs8/orientasi/internal/shared"
)

// Handler exposes the planning hierarchy over HTTP.
type Handler struct {
	rbsi        *RbsiService
	programs    *ProgramService
	initiatives *InitiativeService
	validate    *validator.Validate
	logger      *slog.Logger
}

// NewHandler builds the planning handler.
func NewHandler(rbsi *RbsiService, programs *ProgramService, initiatives *InitiativeService, validate *validator.Validate, logger *slog.Logger) *Handler {
	return &Handler{rbsi: rbsi, programs: programs, initiatives: initiatives, validate: validate, logger: logger}
}

// Mount attaches the planning routes. Reads need a valid token, writes need
// the planner roles.
func (h *Handler) Mount(r chi.Router, authz rbac.Middleware) {
	write := authz.Require(rbac.RequireRole("Admin", "SKPA"))
	read := authz.Require(rbac.Authenticated())
	admin := authz.Require(rbac.RequireRole("Admin"))

	r.Route("/rbsi", func(r chi.Router) {
		r.With(write).Post("/", h.createRbsi)
		r.With(read).Get("/", h.listRbsi)
		r.With(read).Get("/{id}", h.getRbsi)
		r.With(admin).Delete("/{id}", h.deleteRbsi)
	})

	r.Route("/program", func(r chi.Router) {
		r.With(write).Post("/", h.createProgram)
		r.With(read).Get("/list", h.listPrograms)
		r.With(read).Get("/years", h.programYears)
		r.With(read).Get("/{id}", h.getProgram)
		r.With(write).Put("/{id}", h.updateProgram)
		r.With(write).Delete("/{id}", h.deleteProgram)
		r.With(write).Post("/{id}/move", h.moveProgram)
		r.With(write).Post("/{id}/copy", h.copyProgram)
	})

	r.Route("/initiative", func(r chi.Router) {
		r.With(write).Post("/", h.createInitiative)
		r.With(read).Get("/list", h.listInitiatives)
		r.With(read).Get("/{id}", h.getInitiative)
		r.With(write).Put("/{id}", h.updateInitiative)
		r.With(write).Patch("/{id}/status", h.updateInitiativeStatus)
		r.With(write).Delete("/{id}", h.deleteInitiative)
		r.With(write).Post("/{id}/move", h.moveInitiative)
		r.With(write).Post("/{id}/copy", h.copyInitiative)
	})
}

func (h *Handler) createRbsi(w http.ResponseWriter, r *http.Request) {
	var req CreateRbsiRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, h.logger, shared.BadRequestf("invalid request body"))
		return
	}
	if err := httpx.Validate(h.validate, req); err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	resp, err := h.rbsi.Create(r.Context(), req)
	if err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	httpx.Created(w, "RBSI created successfully", resp)
}

func (h *Handler) listRbsi(w http.ResponseWriter, r *http.Request) {
	page := queryInt(r, "page", 1)
	size := queryInt(r, "size", 20)
	resp, err := h.rbsi.List(r.Context(), page, size)
	if err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	httpx.OK(w, "RBSI list retrieved successfully", resp)
}

func (h *Handler) getRbsi(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	resp, err := h.rbsi.Get(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	httpx.OK(w, "RBSI retrieved successfully", resp)
}

func (h *Handler) deleteRbsi(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	if err := h.rbsi.Delete(r.Context(), id); err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	httpx.OK(w, "RBSI deleted successfully", nil)
}

func (h *Handler) createProgram(w http.ResponseWriter, r *http.Request) {
	var req CreateProgramRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, h.logger, shared.BadRequestf("invalid request body"))
		return
	}
	if err := httpx.Validate(h.validate, req); err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	resp, err := h.programs.Create(r.Context(), req)
	if err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	httpx.Created(w, "Program created successfully", resp)
}

func (h *Handler) listPrograms(w http.ResponseWriter, r *http.Request) {
	rbsiID, err := uuid.Parse(r.URL.Query().Get("rbsi_id"))
	if err != nil {
		httpx.RespondError(w, h.logger, shared.BadRequestf("rbsi_id must be a valid UUID"))
		return
	}
	year := queryInt(r, "year", 0)
	if year == 0 {
		httpx.RespondError(w, h.logger, shared.BadRequestf("year is required"))
		return
	}
	resp, err := h.programs.ListByRbsiAndYear(r.Context(), rbsiID, year)
	if err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	httpx.OK(w, "Programs retrieved successfully", resp)
}

func (h *Handler) programYears(w http.ResponseWriter, r *http.Request) {
	rbsiID, err := uuid.Parse(r.URL.Query().Get("rbsi_id"))
	if err != nil {
		httpx.RespondError(w, h.logger, shared.BadRequestf("rbsi_id must be a valid UUID"))
		return
	}
	years, err := h.programs.AvailableYears(r.Context(), rbsiID)
	if err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	if years == nil {
		years = []int{}
	}
	httpx.OK(w, "Available years retrieved successfully", years)
}

func (h *Handler) getProgram(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	resp, err := h.programs.Get(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	httpx.OK(w, "Program retrieved successfully", resp)
}

func (h *Handler) updateProgram(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	var req UpdateProgramRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, h.logger, shared.BadRequestf("invalid request body"))
		return
	}
	if err := httpx.Validate(h.validate, req); err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	resp, err := h.programs.Update(r.Context(), id, req)
	if err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	httpx.OK(w, "Program updated successfully", resp)
}

func (h *Handler) deleteProgram(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	if err := h.programs.Delete(r.Context(), id); err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	httpx.OK(w, "Program deleted successfully", nil)
}

func (h *Handler) moveProgram(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	var req MoveProgramRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, h.logger, shared.BadRequestf("invalid request body"))
		return
	}
	if err := httpx.Validate(h.validate, req); err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	resp, err := h.programs.Move(r.Context(), id, req)
	if err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	httpx.OK(w, "Program moved successfully", resp)
}

func (h *Handler) copyProgram(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	var req CopyProgramRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, h.logger, shared.BadRequestf("invalid request body"))
		return
	}
	if err := httpx.Validate(h.validate, req); err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	resp, err := h.programs.Copy(r.Context(), id, req)
	if err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	httpx.Created(w, "Program copied successfully", resp)
}

func (h *Handler) createInitiative(w http.ResponseWriter, r *http.Request) {
	var req CreateInitiativeRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, h.logger, shared.BadRequestf("invalid request body"))
		return
	}
	if err := httpx.Validate(h.validate, req); err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	resp, err := h.initiatives.Create(r.Context(), req)
	if err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	httpx.Created(w, "Initiative created successfully", resp)
}

func (h *Handler) listInitiatives(w http.ResponseWriter, r *http.Request) {
	programID, err := uuid.Parse(r.URL.Query().Get("program_id"))
	if err != nil {
		httpx.RespondError(w, h.logger, shared.BadRequestf("program_id must be a valid UUID"))
		return
	}
	year := queryInt(r, "year", 0)
	resp, err := h.initiatives.ListByProgram(r.Context(), programID, year)
	if err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	httpx.OK(w, "Initiatives retrieved successfully", resp)
}

func (h *Handler) getInitiative(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	resp, err := h.initiatives.Get(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	httpx.OK(w, "Initiative retrieved successfully", resp)
}

func (h *Handler) updateInitiative(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	var req UpdateInitiativeRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, h.logger, shared.BadRequestf("invalid request body"))
		return
	}
	if err := httpx.Validate(h.validate, req); err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	resp, err := h.initiatives.Update(r.Context(), id, req)
	if err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	httpx.OK(w, "Initiative updated successfully", resp)
}

func (h *Handler) updateInitiativeStatus(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	var req UpdateInitiativeStatusRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, h.logger, shared.BadRequestf("invalid request body"))
		return
	}
	if err := httpx.Validate(h.validate, req); err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	resp, err := h.initiatives.UpdateStatus(r.Context(), id, req)
	if err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	httpx.OK(w, "Initiative status updated successfully", resp)
}

func (h *Handler) deleteInitiative(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	if err := h.initiatives.Delete(r.Context(), id); err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	httpx.OK(w, "Initiative deleted successfully", nil)
}

func (h *Handler) moveInitiative(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	var req MoveInitiativeRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, h.logger, shared.BadRequestf("invalid request body"))
		return
	}
	if err := httpx.Validate(h.validate, req); err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	resp, err := h.initiatives.Move(r.Context(), id, req)
	if err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	httpx.OK(w, "Initiative moved successfully", resp)
}

func (h *Handler) copyInitiative(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	var req CopyInitiativeRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, h.logger, shared.BadRequestf("invalid request body"))
		return
	}
	if err := httpx.Validate(h.validate, req); err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	resp, err := h.initiatives.Copy(r.Context(), id, req)
	if err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	httpx.Created(w, "Initiative copied successfully", resp)
}

func pathID(r *http.Request) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		return uuid.Nil, shared.BadRequestf("id must be a valid UUID")
	}
	return id, nil
}

func queryInt(r *http.Request, key string, fallback int) int {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return n
}
