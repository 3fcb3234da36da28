package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/yeremiapane/notification-hub/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type PreferencesRepository interface {
	FindByUserID(ctx context.Context, userID string) (*models.UserPreferences, error)
	// CreateIfAbsent inserts p unless a row for p.UserID already exists.
	CreateIfAbsent(ctx context.Context, p *models.UserPreferences) error
	Save(ctx context.Context, p *models.UserPreferences) error
	// Replace swaps the stored row for p in one transaction.
	Replace(ctx context.Context, p *models.UserPreferences) error
	FindWithRetention(ctx context.Context) ([]models.UserPreferences, error)
}

type preferencesRepository struct {
	db *gorm.DB
}

func NewPreferencesRepository(db *gorm.DB) PreferencesRepository {
	return &preferencesRepository{db: db}
}

func (r *preferencesRepository) FindByUserID(ctx context.Context, userID string) (*models.UserPreferences, error) {
	var p models.UserPreferences
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&p).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find preferences for %s: %w", userID, err)
	}
	return &p, nil
}

func (r *preferencesRepository) CreateIfAbsent(ctx context.Context, p *models.UserPreferences) error {
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "user_id"}}, DoNothing: true}).
		Create(p).Error
	if err != nil {
		return fmt.Errorf("create preferences for %s: %w", p.UserID, err)
	}
	return nil
}

func (r *preferencesRepository) Save(ctx context.Context, p *models.UserPreferences) error {
	if err := r.db.WithContext(ctx).Save(p).Error; err != nil {
		return fmt.Errorf("save preferences for %s: %w", p.UserID, err)
	}
	return nil
}

func (r *preferencesRepository) Replace(ctx context.Context, p *models.UserPreferences) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := deleteByUserID(tx, p.UserID); err != nil {
			return err
		}
		if err := tx.Create(p).Error; err != nil {
			return fmt.Errorf("reset preferences for %s: %w", p.UserID, err)
		}
		return nil
	})
}

func deleteByUserID(tx *gorm.DB, userID string) error {
	if err := tx.Where("user_id = ?", userID).Delete(&models.UserPreferences{}).Error; err != nil {
		return fmt.Errorf("delete preferences for %s: %w", userID, err)
	}
	return nil
}

func (r *preferencesRepository) FindWithRetention(ctx context.Context) ([]models.UserPreferences, error) {
	var prefs []models.UserPreferences
	err := r.db.WithContext(ctx).
		Where("auto_archive_enabled = ? OR auto_delete_enabled = ?", true, true).
		Find(&prefs).Error
	if err != nil {
		return nil, fmt.Errorf("list retention preferences: %w", err)
	}
	return prefs, nil
}
