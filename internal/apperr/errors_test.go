package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSentinelsSurviveCopies(t *testing.T) {
	err := fmt.Errorf("apply: %w", ErrAlreadyApplied.WithDetails(map[string]string{"job_id": "j1"}))

	assert.True(t, errors.Is(err, ErrAlreadyApplied))
	assert.False(t, errors.Is(err, ErrJobNotOpen))
	assert.Equal(t, KindConflict, KindOf(err))
	assert.True(t, Is(err, KindConflict))

	// The sentinel itself is untouched.
	assert.Nil(t, ErrAlreadyApplied.Details)
}

func TestTransientUnwrapsCause(t *testing.T) {
	cause := errors.New("connection reset")
	err := Transient(cause)

	assert.ErrorIs(t, err, cause)
	assert.Equal(t, KindTransient, err.Kind)
	assert.Equal(t, http.StatusServiceUnavailable, err.HTTPStatus())
	assert.Contains(t, err.Error(), "connection reset")
}

func TestHTTPStatusByKind(t *testing.T) {
	tests := []struct {
		err  *Error
		want int
	}{
		{ErrValidation, http.StatusBadRequest},
		{ErrNotAuthenticated, http.StatusUnauthorized},
		{ErrJobNotFound, http.StatusNotFound},
		{ErrNotParticipant, http.StatusForbidden},
		{ErrAlreadyApplied, http.StatusConflict},
		{ErrInvalidTransition, http.StatusConflict},
		{New(KindInternal, "X", "x"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.err.Code, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.HTTPStatus())
		})
	}
}

func TestKindOfPlainError(t *testing.T) {
	assert.Equal(t, KindInternal, KindOf(errors.New("boom")))
	assert.False(t, Is(nil, KindInternal))
}
