package apperrors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHTTPStatus(t *testing.T) {
	cases := []struct {
		err  error
		code int
	}{
		{Validation("bad"), http.StatusBadRequest},
		{Unauthenticated("who"), http.StatusUnauthorized},
		{Forbidden("no"), http.StatusForbidden},
		{NotFound("gone"), http.StatusNotFound},
		{Conflict("stale"), http.StatusConflict},
		{Internal(errors.New("db down")), http.StatusInternalServerError},
		{errors.New("plain"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.code, HTTPStatus(tc.err), tc.err.Error())
	}
}

func TestKindSurvivesWrapping(t *testing.T) {
	err := fmt.Errorf("loading: %w", NotFound("Notification not found"))

	assert.True(t, IsKind(err, KindNotFound))
	assert.Equal(t, "Notification not found", PublicMessage(err))
}

func TestPublicMessageFlattensInternal(t *testing.T) {
	err := Internal(errors.New("dial tcp 10.0.0.1:3306: connection refused"))

	assert.Equal(t, "Internal server error", PublicMessage(err))
	assert.Equal(t, "Internal server error", PublicMessage(errors.New("raw")))
	assert.ErrorContains(t, err, "connection refused")
}
