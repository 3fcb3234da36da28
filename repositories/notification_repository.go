package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/yeremiapane/notification-hub/models"
	"gorm.io/gorm"
)

// NotificationFilter narrows a recipient's feed. Empty fields match everything.
type NotificationFilter struct {
	Status   models.NotificationStatus
	Type     models.NotificationType
	Priority models.Priority
}

type NotificationRepository interface {
	Create(ctx context.Context, n *models.Notification) error
	FindByID(ctx context.Context, id string) (*models.Notification, error)
	// Update persists lifecycle fields if the stored version still matches n.Version.
	Update(ctx context.Context, n *models.Notification) error
	MarkDelivered(ctx context.Context, id string, at time.Time) error
	Delete(ctx context.Context, id string) error
	FindByUser(ctx context.Context, userID string, filter NotificationFilter, offset, limit int) ([]models.Notification, int64, error)
	FindByApp(ctx context.Context, appID string, limit int) ([]models.Notification, error)
	CountByUser(ctx context.Context, userID string) (int64, error)
	CountByUserAndStatus(ctx context.Context, userID string, status models.NotificationStatus) (int64, error)
	ArchiveCreatedBefore(ctx context.Context, userID string, before, now time.Time) (int64, error)
	DeleteArchivedBefore(ctx context.Context, userID string, before time.Time) (int64, error)
}

type notificationRepository struct {
	db *gorm.DB
}

func NewNotificationRepository(db *gorm.DB) NotificationRepository {
	return &notificationRepository{db: db}
}

func (r *notificationRepository) Create(ctx context.Context, n *models.Notification) error {
	if err := r.db.WithContext(ctx).Create(n).Error; err != nil {
		return fmt.Errorf("create notification: %w", err)
	}
	return nil
}

func (r *notificationRepository) FindByID(ctx context.Context, id string) (*models.Notification, error) {
	var n models.Notification
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&n).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find notification %s: %w", id, err)
	}
	return &n, nil
}

func (r *notificationRepository) Update(ctx context.Context, n *models.Notification) error {
	result := r.db.WithContext(ctx).
		Model(&models.Notification{}).
		Where("id = ? AND version = ?", n.ID, n.Version).
		Updates(map[string]interface{}{
			"status":      n.Status,
			"archived":    n.Archived,
			"read_at":     n.ReadAt,
			"archived_at": n.ArchivedAt,
			"version":     n.Version + 1,
		})
	if result.Error != nil {
		return fmt.Errorf("update notification %s: %w", n.ID, result.Error)
	}
	if result.RowsAffected == 0 {
		var count int64
		if err := r.db.WithContext(ctx).Model(&models.Notification{}).Where("id = ?", n.ID).Count(&count).Error; err != nil {
			return fmt.Errorf("update notification %s: %w", n.ID, err)
		}
		if count == 0 {
			return ErrNotFound
		}
		return ErrConflict
	}
	n.Version++
	return nil
}

func (r *notificationRepository) MarkDelivered(ctx context.Context, id string, at time.Time) error {
	result := r.db.WithContext(ctx).
		Model(&models.Notification{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{"delivered": true, "delivered_at": at})
	if result.Error != nil {
		return fmt.Errorf("mark notification %s delivered: %w", id, result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *notificationRepository) Delete(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Notification{})
	if result.Error != nil {
		return fmt.Errorf("delete notification %s: %w", id, result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *notificationRepository) FindByUser(ctx context.Context, userID string, filter NotificationFilter, offset, limit int) ([]models.Notification, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.Notification{}).Where("user_id = ?", userID)
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.Type != "" {
		query = query.Where("type = ?", filter.Type)
	}
	if filter.Priority != "" {
		query = query.Where("priority = ?", filter.Priority)
	}
	query = query.Session(&gorm.Session{})

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count notifications for %s: %w", userID, err)
	}

	var notifications []models.Notification
	err := query.Order("created_at DESC").Order("id DESC").
		Offset(offset).Limit(limit).
		Find(&notifications).Error
	if err != nil {
		return nil, 0, fmt.Errorf("list notifications for %s: %w", userID, err)
	}
	return notifications, total, nil
}

func (r *notificationRepository) FindByApp(ctx context.Context, appID string, limit int) ([]models.Notification, error) {
	var notifications []models.Notification
	err := r.db.WithContext(ctx).Where("app_id = ?", appID).
		Order("created_at DESC").Limit(limit).
		Find(&notifications).Error
	if err != nil {
		return nil, fmt.Errorf("list notifications for app %s: %w", appID, err)
	}
	return notifications, nil
}

func (r *notificationRepository) CountByUser(ctx context.Context, userID string) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.Notification{}).Where("user_id = ?", userID).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("count notifications for %s: %w", userID, err)
	}
	return count, nil
}

func (r *notificationRepository) CountByUserAndStatus(ctx context.Context, userID string, status models.NotificationStatus) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Notification{}).
		Where("user_id = ? AND status = ?", userID, status).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("count %s notifications for %s: %w", status, userID, err)
	}
	return count, nil
}

func (r *notificationRepository) ArchiveCreatedBefore(ctx context.Context, userID string, before, now time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Notification{}).
		Where("user_id = ? AND status IN ? AND created_at < ?", userID,
			[]models.NotificationStatus{models.StatusUnread, models.StatusRead}, before).
		Updates(map[string]interface{}{
			"status":      models.StatusArchived,
			"archived":    true,
			"archived_at": now,
			"version":     gorm.Expr("version + 1"),
		})
	if result.Error != nil {
		return 0, fmt.Errorf("archive notifications for %s: %w", userID, result.Error)
	}
	return result.RowsAffected, nil
}

func (r *notificationRepository) DeleteArchivedBefore(ctx context.Context, userID string, before time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("user_id = ? AND status = ? AND COALESCE(archived_at, created_at) < ?", userID, models.StatusArchived, before).
		Delete(&models.Notification{})
	if result.Error != nil {
		return 0, fmt.Errorf("delete archived notifications for %s: %w", userID, result.Error)
	}
	return result.RowsAffected, nil
}
