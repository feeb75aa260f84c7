package httpx

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/pcs8/orientasi/internal/shared"
)

// ValidationError carries per-field messages for a malformed payload.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	return "validation failed"
}

// Validate runs struct validation and converts failures into a
// ValidationError with a field name to message map.
func Validate(v *validator.Validate, s any) error {
	err := v.Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		name := strings.ToLower(fe.Field())
		if fe.Param() != "" {
			fields[name] = fmt.Sprintf("failed on the '%s=%s' rule", fe.Tag(), fe.Param())
		} else {
			fields[name] = fmt.Sprintf("failed on the '%s' rule", fe.Tag())
		}
	}
	return &ValidationError{Fields: fields}
}

// RespondError maps domain errors onto the envelope. Unexpected errors are
// logged in full and the client only sees a generic message.
func RespondError(w http.ResponseWriter, logger *slog.Logger, err error) {
	var verr *ValidationError
	switch {
	case errors.As(err, &verr):
		JSON(w, http.StatusBadRequest, "Validation failed", verr.Fields)
	case errors.Is(err, shared.ErrNotFound):
		JSON(w, http.StatusNotFound, err.Error(), nil)
	case errors.Is(err, shared.ErrBadRequest):
		JSON(w, http.StatusBadRequest, err.Error(), nil)
	case errors.Is(err, shared.ErrInvalidCredentials):
		JSON(w, http.StatusUnauthorized, "Invalid credentials", nil)
	case errors.Is(err, shared.ErrUnauthenticated):
		JSON(w, http.StatusUnauthorized, err.Error(), nil)
	case errors.Is(err, shared.ErrForbidden):
		JSON(w, http.StatusForbidden, err.Error(), nil)
	default:
		if logger != nil {
			logger.Error("unexpected error", slog.Any("error", err))
		}
		JSON(w, http.StatusInternalServerError, "Internal server error", nil)
	}
}
