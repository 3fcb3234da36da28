package Controllers_test

import (
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yeremiapane/notification-hub/models"
	"github.com/yeremiapane/notification-hub/services"
)

func registerUser(t *testing.T, s *testServer, username string) services.AuthResult {
	t.Helper()
	w := s.do(t, http.MethodPost, "/auth/register", "", gin.H{
		"username": username,
		"email":    username + "@example.com",
		"password": "password123",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var result services.AuthResult
	decode(t, w, &result)
	return result
}

func TestRegisterLoginAndMe(t *testing.T) {
	s := setupTestServer(t)
	registered := registerUser(t, s, "alice")
	assert.NotEmpty(t, registered.AccessToken)
	assert.Equal(t, "Bearer", registered.TokenType)

	w := s.do(t, http.MethodPost, "/auth/login", "", gin.H{"login": "alice@example.com", "password": "password123"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var login services.AuthResult
	decode(t, w, &login)

	w = s.do(t, http.MethodPost, "/auth/login", "", gin.H{"login": "alice", "password": "wrong-password"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "Invalid credentials", decode(t, w, nil).Message)

	w = s.do(t, http.MethodGet, "/auth/me", login.AccessToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var me models.User
	decode(t, w, &me)
	assert.Equal(t, "alice", me.Username)
	assert.NotContains(t, w.Body.String(), "password123")

	w = s.do(t, http.MethodGet, "/auth/me", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRegisterRejectsDuplicatesAndBadInput(t *testing.T) {
	s := setupTestServer(t)
	registerUser(t, s, "alice")

	w := s.do(t, http.MethodPost, "/auth/register", "", gin.H{"username": "alice", "email": "other@example.com", "password": "password123"})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = s.do(t, http.MethodPost, "/auth/register", "", gin.H{"username": "bob", "email": "not-an-email", "password": "password123"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRefreshRotatesToken(t *testing.T) {
	s := setupTestServer(t)
	registered := registerUser(t, s, "alice")

	w := s.do(t, http.MethodPost, "/auth/refresh", "", gin.H{"refresh_token": registered.RefreshToken})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var refreshed services.AuthResult
	decode(t, w, &refreshed)
	assert.NotEqual(t, registered.RefreshToken, refreshed.RefreshToken)

	w = s.do(t, http.MethodPost, "/auth/refresh", "", gin.H{"refresh_token": registered.RefreshToken})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = s.do(t, http.MethodPost, "/auth/logout", "", gin.H{"refresh_token": refreshed.RefreshToken})
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAuthRoutesAreRateLimited(t *testing.T) {
	s := setupTestServer(t)

	codes := make([]int, 0, 6)
	for i := 0; i < 6; i++ {
		w := s.do(t, http.MethodPost, "/auth/login", "", gin.H{"login": "nobody", "password": "password123"})
		codes = append(codes, w.Code)
	}
	assert.Equal(t, http.StatusUnauthorized, codes[0])
	assert.Equal(t, http.StatusTooManyRequests, codes[5])
}
