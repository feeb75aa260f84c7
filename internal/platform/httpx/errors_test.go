package httpx

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http/httptest"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pcs8/orientasi/internal/shared"
)

func decode(t *testing.T, rec *httptest.ResponseRecorder) Envelope {
	t.Helper()
	var env Envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	return env
}

func TestRespondErrorMapsDomainErrors(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	cases := []struct {
		name    string
		err     error
		status  int
		message string
	}{
		{"not found", shared.NotFoundf("Program %s not found", "x"), 404, "Program x not found"},
		{"bad request", shared.BadRequestf("duplicate number"), 400, "duplicate number"},
		{"invalid credentials", shared.ErrInvalidCredentials, 401, "Invalid credentials"},
		{"unauthenticated", shared.ErrUnauthenticated, 401, "authentication required"},
		{"forbidden", shared.ErrForbidden, 403, "forbidden"},
		{"unexpected", io.ErrUnexpectedEOF, 500, "Internal server error"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			RespondError(rec, logger, tc.err)
			assert.Equal(t, tc.status, rec.Code)

			env := decode(t, rec)
			assert.Equal(t, tc.status, env.Status)
			assert.Equal(t, tc.message, env.Message)
			assert.Nil(t, env.Data)
		})
	}
}

func TestValidateReportsFieldMap(t *testing.T) {
	type payload struct {
		Periode string `json:"periode" validate:"required,max=20"`
		Year    int    `json:"year" validate:"gte=2000"`
	}

	v := validator.New()
	err := Validate(v, payload{Year: 1999})
	require.Error(t, err)

	rec := httptest.NewRecorder()
	RespondError(rec, nil, err)
	assert.Equal(t, 400, rec.Code)

	env := decode(t, rec)
	assert.Equal(t, "Validation failed", env.Message)

	fields, ok := env.Data.(map[string]any)
	require.True(t, ok)
	assert.Contains(t, fields, "periode")
	assert.Contains(t, fields, "year")
}

func TestValidateAcceptsValidPayload(t *testing.T) {
	type payload struct {
		Periode string `validate:"required"`
	}
	assert.NoError(t, Validate(validator.New(), payload{Periode: "2025-2029"}))
}
