package Controllers_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"github.com/yeremiapane/notification-hub/config"
	"github.com/yeremiapane/notification-hub/hub"
	"github.com/yeremiapane/notification-hub/models"
	"github.com/yeremiapane/notification-hub/router"
	"github.com/yeremiapane/notification-hub/testutil"
	"github.com/yeremiapane/notification-hub/utils"
	"gorm.io/gorm"
)

type envelope struct {
	Status  bool            `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type testServer struct {
	db     *gorm.DB
	hub    *hub.Hub
	jwt    *utils.JWTManager
	router *gin.Engine
}

// setupTestServer wires the full router against an in-memory database.
func setupTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db := testutil.NewDB(t)
	cfg := &config.Config{
		JWTSecret:            "controller-test-secret-0123456789abcdef",
		JWTIssuer:            "notification-hub",
		AccessTokenTTL:       15 * time.Minute,
		AppTokenTTL:          time.Hour,
		AllowedOrigins:       []string{"*"},
		WSWriteTimeout:       time.Second,
		WebhookRatePerMinute: 1000,
	}
	h := hub.New(cfg.WSWriteTimeout)
	t.Cleanup(h.Close)

	return &testServer{
		db:     db,
		hub:    h,
		jwt:    cfg.JWTManager(),
		router: router.SetupRouter(db, cfg, h),
	}
}

func (s *testServer) userToken(t *testing.T, user *models.User) string {
	t.Helper()
	token, _, err := s.jwt.GenerateAccessToken(user.ID, user.Role)
	require.NoError(t, err)
	return token
}

func (s *testServer) appToken(t *testing.T, appID string) string {
	t.Helper()
	token, _, err := s.jwt.GenerateAppToken(appID)
	require.NoError(t, err)
	return token
}

func (s *testServer) do(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	return serve(t, s.router, method, path, token, body, nil)
}

func serve(t *testing.T, r http.Handler, method, path, token string, body interface{}, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, path, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, data interface{}) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	if data != nil {
		require.NoError(t, json.Unmarshal(env.Data, data), string(env.Data))
	}
	return env
}

func seedNotification(t *testing.T, db *gorm.DB, userID, title string) *models.Notification {
	t.Helper()
	n := &models.Notification{
		AppID:   "billing-app",
		UserID:  userID,
		Title:   title,
		Message: title + " body",
		Type:    models.TypeInfo,
	}
	require.NoError(t, db.Create(n).Error)
	return n
}
