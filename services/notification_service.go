package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/yeremiapane/notification-hub/apperrors"
	"github.com/yeremiapane/notification-hub/models"
	"github.com/yeremiapane/notification-hub/repositories"
	"github.com/yeremiapane/notification-hub/utils"
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

var (
	errNotificationNotFound = apperrors.NotFound("Notification not found")
	errNotificationForeign  = apperrors.Forbidden("Unauthorized access to notification")
	errNotificationConflict = apperrors.Conflict("Notification was modified concurrently, retry the request")
)

type NotificationService struct {
	notifications repositories.NotificationRepository
	users         repositories.UserRepository
	preferences   *PreferenceService
	dispatcher    *Dispatcher
	now           func() time.Time
}

func NewNotificationService(
	notifications repositories.NotificationRepository,
	users repositories.UserRepository,
	preferences *PreferenceService,
	dispatcher *Dispatcher,
) *NotificationService {
	return &NotificationService{
		notifications: notifications,
		users:         users,
		preferences:   preferences,
		dispatcher:    dispatcher,
		now:           time.Now,
	}
}

type CreateNotificationInput struct {
	AppID     string
	UserID    string
	Title     string
	Message   string
	Type      string
	Priority  string
	Data      map[string]interface{}
	TenantID  string
	SourceIP  string
	UserAgent string
}

// Create builds a notification for an existing recipient, runs it through the
// recipient's preferences, persists it and dispatches it when eligible.
// A suppressed notification is stored ARCHIVED and never dispatched.
func (s *NotificationService) Create(ctx context.Context, in CreateNotificationInput) (*models.Notification, error) {
	if strings.TrimSpace(in.UserID) == "" {
		return nil, apperrors.Validation("user_id is required")
	}
	if strings.TrimSpace(in.Title) == "" || strings.TrimSpace(in.Message) == "" {
		return nil, apperrors.Validation("title and message are required")
	}
	typ, err := models.ParseNotificationType(in.Type)
	if err != nil {
		return nil, apperrors.Validation(err.Error())
	}
	priority := models.PriorityNormal
	if in.Priority != "" {
		if priority, err = models.ParsePriority(in.Priority); err != nil {
			return nil, apperrors.Validation(err.Error())
		}
	}

	exists, err := s.users.Exists(ctx, in.UserID)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	if !exists {
		return nil, apperrors.NotFound("User not found: " + in.UserID)
	}

	n := &models.Notification{
		AppID:     in.AppID,
		UserID:    in.UserID,
		Title:     in.Title,
		Message:   in.Message,
		Type:      typ,
		Priority:  priority,
		Data:      in.Data,
		Status:    models.StatusUnread,
		TenantID:  in.TenantID,
		SourceIP:  in.SourceIP,
		UserAgent: in.UserAgent,
	}

	deliver, err := s.preferences.ShouldDeliver(ctx, n, in.UserID)
	if err != nil {
		return nil, err
	}
	if !deliver {
		n.Archive(s.now())
	}

	if err := s.notifications.Create(ctx, n); err != nil {
		return nil, apperrors.Internal(err)
	}

	if deliver {
		s.dispatcher.Dispatch(ctx, n)
	}

	utils.InfoLogger.WithFields(logrus.Fields{
		"notification_id": n.ID,
		"user_id":         n.UserID,
		"app_id":          n.AppID,
		"status":          n.Status,
		"delivered":       n.Delivered,
	}).Info("Notification created")
	return n, nil
}

type FeedQuery struct {
	UserID   string
	Page     int
	Size     int
	Status   string
	Type     string
	Priority string
}

type FeedPage struct {
	Notifications []models.Notification `json:"notifications"`
	TotalElements int64                 `json:"total_elements"`
	TotalPages    int                   `json:"total_pages"`
	CurrentPage   int                   `json:"current_page"`
	PageSize      int                   `json:"page_size"`
	HasNext       bool                  `json:"has_next"`
	HasPrevious   bool                  `json:"has_previous"`
	UnreadCount   int64                 `json:"unread_count"`
	TotalCount    int64                 `json:"total_count"`
}

type Counts struct {
	Unread int64 `json:"unread"`
	Total  int64 `json:"total"`
}

func (q FeedQuery) filter() (repositories.NotificationFilter, error) {
	var f repositories.NotificationFilter
	var err error
	if q.Status != "" {
		if f.Status, err = models.ParseNotificationStatus(q.Status); err != nil {
			return f, err
		}
	}
	if q.Type != "" {
		if f.Type, err = models.ParseNotificationType(q.Type); err != nil {
			return f, err
		}
	}
	if q.Priority != "" {
		if f.Priority, err = models.ParsePriority(q.Priority); err != nil {
			return f, err
		}
	}
	return f, nil
}

// Feed returns one page of the recipient's notifications, newest first.
func (s *NotificationService) Feed(ctx context.Context, q FeedQuery) (*FeedPage, error) {
	if q.Page < 0 {
		return nil, apperrors.Validation("page must not be negative")
	}
	if q.Size == 0 {
		q.Size = DefaultPageSize
	}
	if q.Size < 0 || q.Size > MaxPageSize {
		return nil, apperrors.Validation("size must be between 1 and 100")
	}
	filter, err := q.filter()
	if err != nil {
		return nil, apperrors.Validation(err.Error())
	}

	if _, err := s.preferences.Ensure(ctx, q.UserID); err != nil {
		return nil, err
	}

	items, total, err := s.notifications.FindByUser(ctx, q.UserID, filter, q.Page*q.Size, q.Size)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	counts, err := s.Counts(ctx, q.UserID)
	if err != nil {
		return nil, err
	}

	totalPages := int((total + int64(q.Size) - 1) / int64(q.Size))
	if items == nil {
		items = []models.Notification{}
	}
	return &FeedPage{
		Notifications: items,
		TotalElements: total,
		TotalPages:    totalPages,
		CurrentPage:   q.Page,
		PageSize:      q.Size,
		HasNext:       q.Page+1 < totalPages,
		HasPrevious:   q.Page > 0,
		UnreadCount:   counts.Unread,
		TotalCount:    counts.Total,
	}, nil
}

func (s *NotificationService) Counts(ctx context.Context, userID string) (Counts, error) {
	unread, err := s.notifications.CountByUserAndStatus(ctx, userID, models.StatusUnread)
	if err != nil {
		return Counts{}, apperrors.Internal(err)
	}
	total, err := s.notifications.CountByUser(ctx, userID)
	if err != nil {
		return Counts{}, apperrors.Internal(err)
	}
	return Counts{Unread: unread, Total: total}, nil
}

// getOwned loads a notification and checks that userID is its recipient.
func (s *NotificationService) getOwned(ctx context.Context, id, userID string) (*models.Notification, error) {
	n, err := s.notifications.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, errNotificationNotFound
		}
		return nil, apperrors.Internal(err)
	}
	if !n.IsOwnedBy(userID) {
		return nil, errNotificationForeign
	}
	return n, nil
}

func (s *NotificationService) Get(ctx context.Context, id, userID string) (*models.Notification, error) {
	return s.getOwned(ctx, id, userID)
}

func (s *NotificationService) save(ctx context.Context, n *models.Notification) error {
	err := s.notifications.Update(ctx, n)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repositories.ErrConflict):
		return errNotificationConflict
	case errors.Is(err, repositories.ErrNotFound):
		return errNotificationNotFound
	default:
		return apperrors.Internal(err)
	}
}

func (s *NotificationService) transition(ctx context.Context, id, userID string, apply func(*models.Notification) bool) (*models.Notification, error) {
	n, err := s.getOwned(ctx, id, userID)
	if err != nil {
		return nil, err
	}
	if !apply(n) {
		return n, nil
	}
	if err := s.save(ctx, n); err != nil {
		return nil, err
	}
	return n, nil
}

func (s *NotificationService) MarkAsRead(ctx context.Context, id, userID string) (*models.Notification, error) {
	return s.transition(ctx, id, userID, func(n *models.Notification) bool {
		return n.MarkAsRead(s.now())
	})
}

func (s *NotificationService) MarkAsUnread(ctx context.Context, id, userID string) (*models.Notification, error) {
	return s.transition(ctx, id, userID, (*models.Notification).MarkAsUnread)
}

func (s *NotificationService) Archive(ctx context.Context, id, userID string) (*models.Notification, error) {
	return s.transition(ctx, id, userID, func(n *models.Notification) bool {
		return n.Archive(s.now())
	})
}

func (s *NotificationService) Delete(ctx context.Context, id, userID string) error {
	if _, err := s.getOwned(ctx, id, userID); err != nil {
		return err
	}
	if err := s.notifications.Delete(ctx, id); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return errNotificationNotFound
		}
		return apperrors.Internal(err)
	}
	return nil
}
