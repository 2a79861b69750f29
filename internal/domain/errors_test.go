package domain

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHTTPStatus(t *testing.T) {
	ref := TableRef{Schema: "public", Table: "parts"}
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"connectivity", ErrConnectivity("ping", errors.New("refused")), http.StatusServiceUnavailable},
		{"table", ErrTableNotFound(ref), http.StatusNotFound},
		{"session", ErrSessionNotFound("abc"), http.StatusNotFound},
		{"constraint", ErrConstraintViolation(errors.New("duplicate key")), http.StatusConflict},
		{"invalid", ErrInvalidRequest("bad"), http.StatusBadRequest},
		{"audit", ErrAuditTableReadOnly(ref), http.StatusBadRequest},
		{"auth", ErrUnauthorized("missing token"), http.StatusUnauthorized},
		{"wrapped", fmt.Errorf("reconcile: %w", ErrTableNotFound(ref)), http.StatusNotFound},
		{"plain", errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, HTTPStatus(tt.err))
		})
	}
}

func TestAppError_IsAndUnwrap(t *testing.T) {
	cause := errors.New("duplicate key value violates unique constraint")
	err := fmt.Errorf("apply: %w", ErrConstraintViolation(cause))

	assert.ErrorIs(t, err, ErrConstraint)
	assert.ErrorIs(t, err, cause)
	assert.NotErrorIs(t, err, ErrNotFound)
	assert.Contains(t, err.Error(), "DATA_3001")
	assert.Contains(t, err.Error(), cause.Error())
}

func TestAsAppError(t *testing.T) {
	appErr := AsAppError(errors.New("boom"))
	assert.Equal(t, ErrCodeInternal, appErr.Code)
	assert.Equal(t, "boom", appErr.Details)

	orig := ErrSessionNotFound("s1")
	assert.Same(t, orig, AsAppError(fmt.Errorf("wrap: %w", orig)))
}
