package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/pcs8/orientasi/internal/auth"
	"github.com/pcs8/orientasi/internal/observability"
	"github.com/pcs8/orientasi/internal/planning"
	"github.com/pcs8/orientasi/internal/rbac"
	"github.com/pcs8/orientasi/internal/roles"
	"github.com/pcs8/orientasi/internal/secrets"
	"github.com/pcs8/orientasi/internal/users"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger            *slog.Logger
	Config            *Config
	AuthHandler       *auth.Handler
	UsersHandler      *users.Handler
	RolesHandler      *roles.Handler
	PlanningHandler   *planning.Handler
	EncryptionHandler *secrets.Handler
	RBACMiddleware    rbac.Middleware
	Metrics           *observability.Metrics
}

// NewRouter constructs the chi.Router with application defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:  params.Logger,
		Config:  params.Config,
		Metrics: params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())

	params.AuthHandler.Mount(r, params.RBACMiddleware)
	params.UsersHandler.Mount(r, params.RBACMiddleware)
	params.RolesHandler.Mount(r, params.RBACMiddleware)
	params.PlanningHandler.Mount(r, params.RBACMiddleware)
	params.EncryptionHandler.Mount(r)

	return r
}
