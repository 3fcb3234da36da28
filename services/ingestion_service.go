package services

import (
	"context"
	"fmt"

	"github.com/yeremiapane/notification-hub/apperrors"
	"github.com/yeremiapane/notification-hub/models"
)

// WebhookRequest is the body a sending application posts.
type WebhookRequest struct {
	UserID   string                 `json:"user_id" binding:"required"`
	Title    string                 `json:"title" binding:"required,max=255"`
	Message  string                 `json:"message" binding:"required"`
	Type     string                 `json:"type" binding:"required,notiftype"`
	Priority string                 `json:"priority" binding:"omitempty,notifpriority"`
	Data     map[string]interface{} `json:"data"`
	TenantID string                 `json:"tenant_id"`
}

// RequestSource describes the caller of a webhook request.
type RequestSource struct {
	IP        string
	UserAgent string
}

type IngestionService struct {
	apps          *ApplicationService
	notifications *NotificationService
}

func NewIngestionService(apps *ApplicationService, notifications *NotificationService) *IngestionService {
	return &IngestionService{apps: apps, notifications: notifications}
}

// Ingest authenticates the sender, creates the notification and records usage.
// Nothing is persisted when any step before creation fails.
func (s *IngestionService) Ingest(ctx context.Context, appID, token string, req WebhookRequest, src RequestSource) (*models.Notification, error) {
	app, err := s.apps.Authenticate(ctx, appID, token)
	if err != nil {
		return nil, err
	}

	typ, err := models.ParseNotificationType(req.Type)
	if err != nil {
		return nil, apperrors.Validation(err.Error())
	}
	if !app.AllowsType(typ) {
		return nil, apperrors.Forbidden(fmt.Sprintf("Notification type %s is not allowed for application %s", typ, appID))
	}

	tenantID := req.TenantID
	if tenantID == "" {
		tenantID = app.TenantID
	}

	n, err := s.notifications.Create(ctx, CreateNotificationInput{
		AppID:     appID,
		UserID:    req.UserID,
		Title:     req.Title,
		Message:   req.Message,
		Type:      string(typ),
		Priority:  req.Priority,
		Data:      req.Data,
		TenantID:  tenantID,
		SourceIP:  src.IP,
		UserAgent: src.UserAgent,
	})
	if err != nil {
		return nil, err
	}

	s.apps.RecordUsage(ctx, appID)
	return n, nil
}
