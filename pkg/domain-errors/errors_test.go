package domainerrors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHasCode(t *testing.T) {
	t.Run("matches wrapped coded error", func(t *testing.T) {
		err := fmt.Errorf("outer: %w", New(CodeNotFound, "token not found"))
		assert.True(t, HasCode(err, CodeNotFound))
		assert.False(t, HasCode(err, CodeConflict))
	})

	t.Run("plain errors carry no code", func(t *testing.T) {
		assert.False(t, HasCode(errors.New("boom"), CodeInternal))
	})

	t.Run("wrap keeps the cause reachable", func(t *testing.T) {
		cause := errors.New("connection refused")
		err := Wrap(cause, CodeInternal, "failed to list tokens")
		assert.ErrorIs(t, err, cause)
		assert.Equal(t, "failed to list tokens: connection refused", err.Error())
	})

	t.Run("wrap of nil is nil", func(t *testing.T) {
		assert.NoError(t, Wrap(nil, CodeInternal, "ignored"))
	})
}

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		code     Code
		expected int
	}{
		{CodeValidation, http.StatusBadRequest},
		{CodeBadRequest, http.StatusBadRequest},
		{CodeNotFound, http.StatusNotFound},
		{CodeConflict, http.StatusConflict},
		{CodeUnauthorized, http.StatusUnauthorized},
		{CodeForbidden, http.StatusForbidden},
		{CodeInternal, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(string(tt.code), func(t *testing.T) {
			assert.Equal(t, tt.expected, HTTPStatus(tt.code))
		})
	}
}
