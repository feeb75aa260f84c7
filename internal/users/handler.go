package users

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/pcs8/orientasi/internal/platform/httpx"
	"github.com/pcs8/orientasi/internal/rbac"
)

// Handler serves the profile endpoint.
type Handler struct {
	service *Service
	logger  *slog.Logger
}

// NewHandler builds the user handler.
func NewHandler(service *Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Mount attaches the profile route.
func (h *Handler) Mount(r chi.Router, authz rbac.Middleware) {
	r.With(authz.Require(rbac.Authenticated())).Get("/profile", h.profile)
}

func (h *Handler) profile(w http.ResponseWriter, r *http.Request) {
	resp, err := h.service.Profile(r.Context())
	if err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	httpx.OK(w, "Profile retrieved successfully", resp)
}
