package roles

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

// Handler exposes role administration over HTTP. Every route is
// admin-only.
type Handler struct {
	service  *Service
	validate *validator.Validate
	logger   *slog.Logger
}

// NewHandler builds the role handler.
func NewHandler(service *Service, validate *validator.Validate, logger *slog.Logger) *Handler {
	return &Handler{service: service, validate: validate, logger: logger}
}

// Mount attaches the role routes.
func (h *Handler) Mount(r chi.Router, authz rbac.Middleware) {
	admin := authz.Require(rbac.RequireRole("Admin"))

	r.Route("/roles", func(r chi.Router) {
		r.Use(admin)
		r.Post("/", h.create)
		r.Get("/", h.list)
		r.Post("/assign", h.assign)
		r.Get("/users", h.usersWithRoles)
		r.Get("/users/{uuid}", h.userWithRoles)
		r.Delete("/users/{uuid}/{roleId}", h.remove)
		r.Get("/{id}", h.get)
		r.Put("/{id}", h.update)
		r.Delete("/{id}", h.delete)
	})
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req CreateRoleRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, h.logger, shared.BadRequestf("invalid request body"))
		return
	}
	if err := httpx.Validate(h.validate, req); err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	role, err := h.service.Create(r.Context(), req)
	if err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	httpx.Created(w, "Role created successfully", role)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	list, err := h.service.List(r.Context())
	if err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	httpx.OK(w, "Roles retrieved successfully", list)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	role, err := h.service.Get(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	httpx.OK(w, "Role retrieved successfully", role)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	var req UpdateRoleRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, h.logger, shared.BadRequestf("invalid request body"))
		return
	}
	if err := httpx.Validate(h.validate, req); err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	role, err := h.service.Update(r.Context(), id, req)
	if err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	httpx.OK(w, "Role updated successfully", role)
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	if err := h.service.Delete(r.Context(), id); err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	httpx.OK(w, "Role deleted successfully", nil)
}

func (h *Handler) assign(w http.ResponseWriter, r *http.Request) {
	var req AssignRolesRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, h.logger, shared.BadRequestf("invalid request body"))
		return
	}
	if err := httpx.Validate(h.validate, req); err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	resp, err := h.service.Assign(r.Context(), req)
	if err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	httpx.OK(w, "Roles assigned successfully", resp)
}

func (h *Handler) remove(w http.ResponseWriter, r *http.Request) {
	userID, err := pathUUID(r, "uuid")
	if err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	roleID, err := pathUUID(r, "roleId")
	if err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	if err := h.service.Remove(r.Context(), userID, roleID); err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	httpx.OK(w, "Role removed successfully", nil)
}

func (h *Handler) usersWithRoles(w http.ResponseWriter, r *http.Request) {
	page := queryInt(r, "page", 1)
	size := queryInt(r, "size", 20)
	list, pagination, err := h.service.UsersWithRoles(r.Context(), page, size)
	if err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	httpx.OK(w, "Users retrieved successfully", map[string]any{
		"data":       list,
		"pagination": pagination,
	})
}

func (h *Handler) userWithRoles(w http.ResponseWriter, r *http.Request) {
	userID, err := pathUUID(r, "uuid")
	if err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	resp, err := h.service.UserWithRoles(r.Context(), userID)
	if err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	httpx.OK(w, "User roles retrieved successfully", resp)
}

func pathUUID(r *http.Request, key string) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, key))
	if err != nil {
		return uuid.Nil, shared.BadRequestf("%s must be a valid UUID", key)
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
