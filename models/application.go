package models

import (
	"time"

	"gorm.io/datatypes"
)

// Application is a registered sender allowed to push notifications through the webhook.
type Application struct {
	ID                     uint                                  `gorm:"primaryKey" json:"-"`
	AppID                  string                                `gorm:"type:varchar(100);uniqueIndex;not null" json:"app_id"`
	Name                   string                                `gorm:"type:varchar(255);not null" json:"name"`
	Description            string                                `gorm:"type:text" json:"description,omitempty"`
	AllowedTypes           datatypes.JSONSlice[NotificationType] `json:"allowed_types"`
	Enabled                bool                                  `gorm:"not null" json:"enabled"`
	OwnerID                string                                `gorm:"type:varchar(36);index;not null" json:"owner_id"`
	TenantID               string                                `gorm:"type:varchar(100)" json:"tenant_id,omitempty"`
	TotalNotificationsSent int64                                 `gorm:"not null;default:0" json:"total_notifications_sent"`
	LastUsedAt             *time.Time                            `json:"last_used_at,omitempty"`
	CreatedAt              time.Time                             `json:"created_at"`
	UpdatedAt              time.Time                             `json:"updated_at"`
}

// AllowsType reports whether the application may send t. An empty list allows every type.
func (a *Application) AllowsType(t NotificationType) bool {
	if len(a.AllowedTypes) == 0 {
		return true
	}
	for _, allowed := range a.AllowedTypes {
		if allowed == t {
			return true
		}
	}
	return false
}
