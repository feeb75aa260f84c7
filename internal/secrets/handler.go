package secrets

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/pcs8/orientasi/internal/platform/httpx"
	"github.com/pcs8/orientasi/internal/shared"
)

// EncryptRequest seals a sample value with the server's public key.
type EncryptRequest struct {
	Value string `json:"value" validate:"required"`
}

// Handler exposes the encryption helper endpoints. Both are public: the
// key is public by definition and encrypt is a client-side development aid.
type Handler struct {
	codec    *Codec
	validate *validator.Validate
	logger   *slog.Logger
}

// NewHandler builds the encryption handler.
func NewHandler(codec *Codec, validate *validator.Validate, logger *slog.Logger) *Handler {
	return &Handler{codec: codec, validate: validate, logger: logger}
}

// Mount attaches the encryption routes.
func (h *Handler) Mount(r chi.Router) {
	r.Route("/encryption", func(r chi.Router) {
		r.Get("/public-key", h.publicKey)
		r.Post("/encrypt", h.encrypt)
	})
}

func (h *Handler) publicKey(w http.ResponseWriter, r *http.Request) {
	key, err := h.codec.PublicKeyBase64()
	if err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	httpx.OK(w, "Public key retrieved successfully", map[string]string{"public_key": key})
}

func (h *Handler) encrypt(w http.ResponseWriter, r *http.Request) {
	var req EncryptRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, h.logger, shared.BadRequestf("invalid request body"))
		return
	}
	if err := httpx.Validate(h.validate, req); err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	sealed, err := h.codec.Encrypt(req.Value)
	if err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	httpx.OK(w, "Value encrypted successfully", map[string]string{"encrypted": sealed})
}
