package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/yeremiapane/notification-hub/repositories"
	"github.com/yeremiapane/notification-hub/testutil"
	"github.com/yeremiapane/notification-hub/utils"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type mockPublisher struct {
	mock.Mock
}

func (m *mockPublisher) Publish(topic, event string, payload interface{}) error {
	args := m.Called(topic, event, payload)
	return args.Error(0)
}

type testEnv struct {
	db            *gorm.DB
	notifRepo     repositories.NotificationRepository
	prefRepo      repositories.PreferencesRepository
	publisher     *mockPublisher
	jwt           *utils.JWTManager
	preferences   *PreferenceService
	dispatcher    *Dispatcher
	notifications *NotificationService
	apps          *ApplicationService
	ingestion     *IngestionService
	auth          *AuthService
}

var noon = time.Date(2024, 5, 1, 12, 0, 0, 0, time.Local)

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db := testutil.NewDB(t)

	users := repositories.NewUserRepository(db)
	notifRepo := repositories.NewNotificationRepository(db)
	prefRepo := repositories.NewPreferencesRepository(db)
	appRepo := repositories.NewApplicationRepository(db)
	tokenRepo := repositories.NewRefreshTokenRepository(db)

	jwt := utils.NewJWTManager("test-secret-key-with-enough-bytes!", "notification-hub", "", 15*time.Minute, time.Hour)
	publisher := new(mockPublisher)

	preferences := NewPreferenceService(prefRepo, users)
	preferences.now = func() time.Time { return noon }
	dispatcher := NewDispatcher(publisher, notifRepo)
	notifications := NewNotificationService(notifRepo, users, preferences, dispatcher)
	apps := NewApplicationService(appRepo, notifRepo, jwt)
	auth := NewAuthService(users, tokenRepo, jwt)
	auth.hashCost = bcrypt.MinCost

	return &testEnv{
		db:            db,
		notifRepo:     notifRepo,
		prefRepo:      prefRepo,
		publisher:     publisher,
		jwt:           jwt,
		preferences:   preferences,
		dispatcher:    dispatcher,
		notifications: notifications,
		apps:          apps,
		ingestion:     NewIngestionService(apps, notifications),
		auth:          auth,
	}
}
