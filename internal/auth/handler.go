package auth

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"
	"github.com/go-playground/validator/v10"

	"github.com/pcs8/orientasi/internal/platform/httpx"
	"github.com/pcs8/orientasi/internal/rbac"
	"github.com/pcs8/orientasi/internal/shared"
)

// Handler serves login and logout.
type Handler struct {
	service  *Service
	validate *validator.Validate
	logger   *slog.Logger
}

// NewHandler builds the auth handler.
func NewHandler(service *Service, validate *validator.Validate, logger *slog.Logger) *Handler {
	return &Handler{service: service, validate: validate, logger: logger}
}

// Mount attaches the auth routes. Login is public but rate limited per
// client IP; logout needs the token it revokes.
func (h *Handler) Mount(r chi.Router, authz rbac.Middleware) {
	r.Route("/auth", func(r chi.Router) {
		r.With(
			httprate.LimitByIP(10, time.Minute),
			authz.Require(rbac.Public()),
		).Post("/login", h.login)
		r.With(authz.Require(rbac.Authenticated())).Post("/logout", h.logout)
	})
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, h.logger, shared.BadRequestf("invalid request body"))
		return
	}
	if err := httpx.Validate(h.validate, req); err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	resp, err := h.service.Login(r.Context(), req)
	if err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	httpx.OK(w, "Login successful", resp)
}

func (h *Handler) logout(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Logout(r.Context()); err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	httpx.OK(w, "Logout successful", nil)
}
