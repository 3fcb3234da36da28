package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/yeremiapane/notification-hub/models"
	"gorm.io/gorm"
)

type ApplicationRepository interface {
	Create(ctx context.Context, app *models.Application) error
	FindByAppID(ctx context.Context, appID string) (*models.Application, error)
	FindByOwner(ctx context.Context, ownerID string) ([]models.Application, error)
	SetEnabled(ctx context.Context, appID string, enabled bool) error
	RecordUse(ctx context.Context, appID string, at time.Time) error
}

type applicationRepository struct {
	db *gorm.DB
}

func NewApplicationRepository(db *gorm.DB) ApplicationRepository {
	return &applicationRepository{db: db}
}

func (r *applicationRepository) Create(ctx context.Context, app *models.Application) error {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.Application{}).Where("app_id = ?", app.AppID).Count(&count).Error; err != nil {
		return fmt.Errorf("create application %s: %w", app.AppID, err)
	}
	if count > 0 {
		return ErrAlreadyExists
	}
	if err := r.db.WithContext(ctx).Create(app).Error; err != nil {
		return fmt.Errorf("create application %s: %w", app.AppID, err)
	}
	return nil
}

func (r *applicationRepository) FindByAppID(ctx context.Context, appID string) (*models.Application, error) {
	var app models.Application
	if err := r.db.WithContext(ctx).Where("app_id = ?", appID).First(&app).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find application %s: %w", appID, err)
	}
	return &app, nil
}

func (r *applicationRepository) FindByOwner(ctx context.Context, ownerID string) ([]models.Application, error) {
	var apps []models.Application
	if err := r.db.WithContext(ctx).Where("owner_id = ?", ownerID).Order("created_at DESC").Find(&apps).Error; err != nil {
		return nil, fmt.Errorf("list applications for %s: %w", ownerID, err)
	}
	return apps, nil
}

func (r *applicationRepository) SetEnabled(ctx context.Context, appID string, enabled bool) error {
	result := r.db.WithContext(ctx).Model(&models.Application{}).Where("app_id = ?", appID).Update("enabled", enabled)
	if result.Error != nil {
		return fmt.Errorf("update application %s: %w", appID, result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// RecordUse bumps the sent counter and stamps last_used_at in one statement.
func (r *applicationRepository) RecordUse(ctx context.Context, appID string, at time.Time) error {
	err := r.db.WithContext(ctx).Model(&models.Application{}).Where("app_id = ?", appID).
		Updates(map[string]interface{}{
			"total_notifications_sent": gorm.Expr("total_notifications_sent + ?", 1),
			"last_used_at":             at,
		}).Error
	if err != nil {
		return fmt.Errorf("record application %s usage: %w", appID, err)
	}
	return nil
}
