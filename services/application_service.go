package services

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/yeremiapane/notification-hub/apperrors"
	"github.com/yeremiapane/notification-hub/models"
	"github.com/yeremiapane/notification-hub/repositories"
	"github.com/yeremiapane/notification-hub/utils"
)

var appIDPattern = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9_-]{1,99}$`)

var (
	errInvalidApplication = apperrors.Unauthenticated("Invalid application ID")
	errInvalidAppToken    = apperrors.Unauthenticated("Invalid or expired token")
)

const (
	defaultRecentLimit = 20
	maxRecentLimit     = 100
)

type ApplicationService struct {
	apps          repositories.ApplicationRepository
	notifications repositories.NotificationRepository
	jwt           *utils.JWTManager
	now           func() time.Time
}

func NewApplicationService(apps repositories.ApplicationRepository, notifications repositories.NotificationRepository, jwt *utils.JWTManager) *ApplicationService {
	return &ApplicationService{apps: apps, notifications: notifications, jwt: jwt, now: time.Now}
}

type RegisterApplicationInput struct {
	AppID        string   `json:"app_id" binding:"required"`
	Name         string   `json:"name" binding:"required,max=255"`
	Description  string   `json:"description"`
	AllowedTypes []string `json:"allowed_types" binding:"omitempty,dive,notiftype"`
	TenantID     string   `json:"tenant_id"`
}

type AppToken struct {
	AppID     string    `json:"app_id"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

type ApplicationStatus struct {
	AppID                  string     `json:"app_id"`
	Name                   string     `json:"name"`
	Status                 string     `json:"status"`
	TotalNotificationsSent int64      `json:"total_notifications_sent"`
	LastUsedAt             *time.Time `json:"last_used_at,omitempty"`
}

func (s *ApplicationService) Register(ctx context.Context, ownerID string, in RegisterApplicationInput) (*models.Application, error) {
	appID := strings.TrimSpace(in.AppID)
	if !appIDPattern.MatchString(appID) {
		return nil, apperrors.Validation("app_id must be 2-100 letters, digits, '-' or '_'")
	}
	allowed, err := parseTypes(in.AllowedTypes)
	if err != nil {
		return nil, apperrors.Validation(err.Error())
	}

	app := &models.Application{
		AppID:        appID,
		Name:         strings.TrimSpace(in.Name),
		Description:  in.Description,
		AllowedTypes: allowed,
		Enabled:      true,
		OwnerID:      ownerID,
		TenantID:     in.TenantID,
	}
	if err := s.apps.Create(ctx, app); err != nil {
		if errors.Is(err, repositories.ErrAlreadyExists) {
			return nil, apperrors.Conflict("Application already exists: " + appID)
		}
		return nil, apperrors.Internal(err)
	}

	utils.InfoLogger.WithFields(logrus.Fields{"app_id": app.AppID, "owner_id": ownerID}).Info("Application registered")
	return app, nil
}

// GetOwned returns the application if ownerID registered it.
func (s *ApplicationService) GetOwned(ctx context.Context, appID, ownerID string) (*models.Application, error) {
	app, err := s.apps.FindByAppID(ctx, appID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, apperrors.NotFound("Application not found")
		}
		return nil, apperrors.Internal(err)
	}
	if app.OwnerID != ownerID {
		return nil, apperrors.Forbidden("Application belongs to another user")
	}
	return app, nil
}

func (s *ApplicationService) ListOwned(ctx context.Context, ownerID string) ([]models.Application, error) {
	apps, err := s.apps.FindByOwner(ctx, ownerID)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	if apps == nil {
		apps = []models.Application{}
	}
	return apps, nil
}

func (s *ApplicationService) SetEnabled(ctx context.Context, appID, ownerID string, enabled bool) (*models.Application, error) {
	app, err := s.GetOwned(ctx, appID, ownerID)
	if err != nil {
		return nil, err
	}
	if err := s.apps.SetEnabled(ctx, appID, enabled); err != nil {
		return nil, apperrors.Internal(err)
	}
	app.Enabled = enabled
	return app, nil
}

// RecentNotifications lists the latest notifications the application sent,
// newest first. Only the owner may look.
func (s *ApplicationService) RecentNotifications(ctx context.Context, appID, ownerID string, limit int) ([]models.Notification, error) {
	if limit == 0 {
		limit = defaultRecentLimit
	}
	if limit < 1 || limit > maxRecentLimit {
		return nil, apperrors.Validation(fmt.Sprintf("limit must be between 1 and %d", maxRecentLimit))
	}
	if _, err := s.GetOwned(ctx, appID, ownerID); err != nil {
		return nil, err
	}
	notifications, err := s.notifications.FindByApp(ctx, appID, limit)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	if notifications == nil {
		notifications = []models.Notification{}
	}
	return notifications, nil
}

// IssueToken mints a webhook credential whose subject is the application id.
func (s *ApplicationService) IssueToken(ctx context.Context, appID, ownerID string) (*AppToken, error) {
	if _, err := s.GetOwned(ctx, appID, ownerID); err != nil {
		return nil, err
	}
	token, expiresAt, err := s.jwt.GenerateAppToken(appID)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	return &AppToken{AppID: appID, Token: token, ExpiresAt: expiresAt}, nil
}

// Authenticate checks that appID names an enabled application and that token was
// issued for it.
func (s *ApplicationService) Authenticate(ctx context.Context, appID, token string) (*models.Application, error) {
	app, err := s.apps.FindByAppID(ctx, appID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, errInvalidApplication
		}
		return nil, apperrors.Internal(err)
	}
	if !app.Enabled {
		return nil, errInvalidApplication
	}

	claims, err := s.jwt.ParseToken(token, utils.TokenTypeApp)
	if err != nil || claims.Subject != appID {
		return nil, errInvalidAppToken
	}
	return app, nil
}

// RecordUsage bumps the sent counter and last use time once a notification
// is stored. Failures are logged only.
func (s *ApplicationService) RecordUsage(ctx context.Context, appID string) {
	if err := s.apps.RecordUse(ctx, appID, s.now()); err != nil {
		utils.ErrorLogger.WithField("app_id", appID).WithError(err).Error("Failed to update application usage")
	}
}

func (s *ApplicationService) Status(ctx context.Context, appID string) (*ApplicationStatus, error) {
	app, err := s.apps.FindByAppID(ctx, appID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, apperrors.NotFound("Application not found")
		}
		return nil, apperrors.Internal(err)
	}
	status := "disabled"
	if app.Enabled {
		status = "active"
	}
	return &ApplicationStatus{
		AppID:                  app.AppID,
		Name:                   app.Name,
		Status:                 status,
		TotalNotificationsSent: app.TotalNotificationsSent,
		LastUsedAt:             app.LastUsedAt,
	}, nil
}
