package errorbank

import (
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
)

func TestAppError_StatusAndGRPCCode(t *testing.T) {
	tests := []struct {
		name   string
		err    *AppError
		status int
		code   codes.Code
	}{
		{name: "bad request", err: BadRequest("x"), status: http.StatusBadRequest, code: codes.InvalidArgument},
		{name: "conflict", err: Conflict("x"), status: http.StatusConflict, code: codes.AlreadyExists},
		{name: "not found", err: NotFound("x"), status: http.StatusNotFound, code: codes.NotFound},
		{name: "unprocessable", err: Unprocessable("x"), status: http.StatusUnprocessableEntity, code: codes.FailedPrecondition},
		{name: "internal", err: Internal("x"), status: http.StatusInternalServerError, code: codes.Internal},
		{name: "nil", err: nil, status: http.StatusInternalServerError, code: codes.Internal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.status, tt.err.StatusCode())
			assert.Equal(t, tt.code, tt.err.GRPCCode())
		})
	}
}

func TestAppError_WrapsCause(t *testing.T) {
	cause := errors.New("connection reset")
	err := Internal("failed to create order", WithCause(cause))

	assert.Equal(t, "failed to create order: connection reset", err.Error())
	assert.True(t, errors.Is(err, cause))
	assert.Equal(t, cause, err.Cause())
}

func TestValidation_FieldNamesSorted(t *testing.T) {
	err := Validation(map[string]string{
		"vehiclePlate": "is required",
		"clientName":   "is required",
		"km":           "is required",
	})

	assert.Equal(t, KindBadRequest, err.Kind())
	assert.Equal(t, []string{"clientName", "km", "vehiclePlate"}, err.FieldNames())
	assert.Equal(t, "is required", err.Fields()["km"])
}

func TestFrom(t *testing.T) {
	require.Nil(t, From(nil))

	plain := errors.New("boom")
	appErr := From(plain)
	assert.Equal(t, KindInternal, appErr.Kind())
	assert.True(t, errors.Is(appErr, plain))

	nf := NotFound("client not found")
	wrapped := errors.Join(errors.New("context"), nf)
	assert.Equal(t, nf, From(wrapped))
	assert.True(t, IsKind(wrapped, KindNotFound))
	assert.False(t, IsKind(plain, KindNotFound))
}

func TestPublic(t *testing.T) {
	cause := errors.New("pq: connection refused")

	assert.Equal(t, map[string]string{"km": "is required"}, Validation(map[string]string{"km": "is required"}).Public())
	assert.Equal(t, map[string]any{"partId": int64(7)}, Unprocessable("short", WithDetail("partId", int64(7))).Public())
	assert.Equal(t, "pq: connection refused", Internal("failed", WithCause(cause)).Public())
	assert.Nil(t, Conflict("dup", WithCause(cause)).Public())
	assert.Nil(t, NotFound("missing").Public())
	assert.Nil(t, (*AppError)(nil).Public())
}

func TestKind_UnknownFallsBackToInternal(t *testing.T) {
	assert.Equal(t, http.StatusInternalServerError, Kind("teapot").Status())
	assert.Equal(t, codes.Internal, Kind("teapot").Code())
}
