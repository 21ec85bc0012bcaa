package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHTTPStatus(t *testing.T) {
	assert.Equal(t, http.StatusNotFound, HTTPStatus(ErrCategoryNotFound))
	assert.Equal(t, http.StatusBadRequest, HTTPStatus(ErrUsernameTaken))
	assert.Equal(t, http.StatusUnauthorized, HTTPStatus(fmt.Errorf("login: %w", ErrInvalidCredentials)))
	assert.Equal(t, http.StatusTooManyRequests, HTTPStatus(ErrTooManyRequests))
	assert.Equal(t, http.StatusInternalServerError, HTTPStatus(errors.New("boom")))
}

func TestPublicMessage_HidesInternalErrors(t *testing.T) {
	internal := Wrap(errors.New("pq: connection refused"), ErrCodeDatabaseError, "db down")

	assert.Equal(t, "Something went wrong. Please try again later.", PublicMessage(internal))
	assert.Equal(t, "Skill not found.", PublicMessage(ErrSkillNotFound))
}

func TestFieldError(t *testing.T) {
	err := fmt.Errorf("auth service: %w", ErrUsernameTaken)

	var appErr *AppError
	assert.True(t, errors.As(err, &appErr))
	assert.Equal(t, "username", appErr.Field)
	assert.True(t, errors.Is(err, FieldError("username", "The requested username is already taken")))
}

func TestIsNotFound_IsForbidden(t *testing.T) {
	assert.True(t, IsNotFound(fmt.Errorf("update skill: %w", ErrSkillNotFound)))
	assert.False(t, IsNotFound(ErrForbidden))
	assert.True(t, IsForbidden(ErrForbidden))
	assert.False(t, IsForbidden(errors.New("forbidden")))
}

func TestWrap_Unwrap(t *testing.T) {
	cause := errors.New("cause")
	err := Wrap(cause, ErrCodeInternal, "failed")

	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "caused by: cause")
}
