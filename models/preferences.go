package models

import (
	"fmt"
	"strings"
	"time"

	"gorm.io/datatypes"
)

// TimeOfDay is a wall-clock time formatted HH:MM or HH:MM:SS.
type TimeOfDay string

// Offset returns the time elapsed since midnight.
func (t TimeOfDay) Offset() (time.Duration, error) {
	s := strings.TrimSpace(string(t))
	layout := "15:04"
	if strings.Count(s, ":") == 2 {
		layout = "15:04:05"
	}
	parsed, err := time.Parse(layout, s)
	if err != nil {
		return 0, fmt.Errorf("invalid time of day %q: expected HH:MM", string(t))
	}
	return time.Duration(parsed.Hour())*time.Hour +
		time.Duration(parsed.Minute())*time.Minute +
		time.Duration(parsed.Second())*time.Second, nil
}

func (t TimeOfDay) Valid() bool {
	_, err := t.Offset()
	return err == nil
}

func sinceMidnight(now time.Time) time.Duration {
	return time.Duration(now.Hour())*time.Hour +
		time.Duration(now.Minute())*time.Minute +
		time.Duration(now.Second())*time.Second +
		time.Duration(now.Nanosecond())
}

var weekdays = map[string]bool{
	"MONDAY": true, "TUESDAY": true, "WEDNESDAY": true, "THURSDAY": true,
	"FRIDAY": true, "SATURDAY": true, "SUNDAY": true,
}

// ParseWeekday normalizes a weekday name such as "monday" to "MONDAY".
func ParseWeekday(s string) (string, error) {
	d := strings.ToUpper(strings.TrimSpace(s))
	if !weekdays[d] {
		return "", fmt.Errorf("invalid day: %s", s)
	}
	return d, nil
}

const (
	DefaultMaxNotificationsPerHour = 50
	DefaultGroupingWindowMinutes   = 30
	DefaultAutoArchiveDays         = 30
	DefaultAutoDeleteDays          = 90
)

// UserPreferences holds one recipient's delivery settings. Exactly one row exists per user.
type UserPreferences struct {
	ID                      uint                                  `gorm:"primaryKey" json:"-"`
	UserID                  string                                `gorm:"type:varchar(36);uniqueIndex;not null" json:"user_id"`
	NotificationsEnabled    bool                                  `gorm:"not null" json:"notifications_enabled"`
	EmailNotifications      bool                                  `gorm:"not null" json:"email_notifications"`
	PushNotifications       bool                                  `gorm:"not null" json:"push_notifications"`
	SoundEnabled            bool                                  `gorm:"not null" json:"sound_enabled"`
	MutedApps               datatypes.JSONSlice[string]           `json:"muted_apps"`
	FavoriteApps            datatypes.JSONSlice[string]           `json:"favorite_apps"`
	EnabledTypes            datatypes.JSONSlice[NotificationType] `json:"enabled_types"`
	MutedTypes              datatypes.JSONSlice[NotificationType] `json:"muted_types"`
	MinimumPriority         Priority                              `gorm:"type:varchar(20);not null" json:"minimum_priority"`
	QuietHoursEnabled       bool                                  `gorm:"not null" json:"quiet_hours_enabled"`
	QuietHoursStart         TimeOfDay                             `gorm:"type:varchar(8)" json:"quiet_hours_start,omitempty"`
	QuietHoursEnd           TimeOfDay                             `gorm:"type:varchar(8)" json:"quiet_hours_end,omitempty"`
	QuietHoursDays          datatypes.JSONSlice[string]           `json:"quiet_hours_days"`
	MutedKeywords           datatypes.JSONSlice[string]           `json:"muted_keywords"`
	PriorityKeywords        datatypes.JSONSlice[string]           `json:"priority_keywords"`
	MaxNotificationsPerHour int                                   `gorm:"not null" json:"max_notifications_per_hour"`
	GroupSimilar            bool                                  `gorm:"not null" json:"group_similar"`
	GroupingWindowMinutes   int                                   `gorm:"not null" json:"grouping_window_minutes"`
	AutoArchiveEnabled      bool                                  `gorm:"not null" json:"auto_archive_enabled"`
	AutoArchiveAfterDays    int                                   `gorm:"not null" json:"auto_archive_after_days"`
	AutoDeleteEnabled       bool                                  `gorm:"not null" json:"auto_delete_enabled"`
	AutoDeleteAfterDays     int                                   `gorm:"not null" json:"auto_delete_after_days"`
	CustomRules             datatypes.JSONMap                     `json:"custom_rules,omitempty"`
	TenantID                string                                `gorm:"type:varchar(100)" json:"tenant_id,omitempty"`
	CreatedAt               time.Time                             `json:"created_at"`
	UpdatedAt               time.Time                             `json:"updated_at"`
}

func (UserPreferences) TableName() string {
	return "user_preferences"
}

// DefaultPreferences returns the record materialized for a recipient who never saved settings.
func DefaultPreferences(userID string) *UserPreferences {
	enabled := make([]NotificationType, len(AllNotificationTypes))
	copy(enabled, AllNotificationTypes)
	return &UserPreferences{
		UserID:                  userID,
		NotificationsEnabled:    true,
		EmailNotifications:      true,
		PushNotifications:       true,
		SoundEnabled:            true,
		MutedApps:               datatypes.JSONSlice[string]{},
		FavoriteApps:            datatypes.JSONSlice[string]{},
		EnabledTypes:            enabled,
		MutedTypes:              datatypes.JSONSlice[NotificationType]{},
		MinimumPriority:         PriorityLow,
		QuietHoursDays:          datatypes.JSONSlice[string]{},
		MutedKeywords:           datatypes.JSONSlice[string]{},
		PriorityKeywords:        datatypes.JSONSlice[string]{},
		MaxNotificationsPerHour: DefaultMaxNotificationsPerHour,
		GroupSimilar:            true,
		GroupingWindowMinutes:   DefaultGroupingWindowMinutes,
		AutoArchiveEnabled:      true,
		AutoArchiveAfterDays:    DefaultAutoArchiveDays,
		AutoDeleteEnabled:       false,
		AutoDeleteAfterDays:     DefaultAutoDeleteDays,
		CustomRules:             datatypes.JSONMap{},
	}
}

func (p *UserPreferences) IsAppMuted(appID string) bool {
	for _, a := range p.MutedApps {
		if a == appID {
			return true
		}
	}
	return false
}

func (p *UserPreferences) IsTypeMuted(t NotificationType) bool {
	for _, m := range p.MutedTypes {
		if m == t {
			return true
		}
	}
	return false
}

// IsPriorityMet reports whether p admits a notification of the given priority.
// An unset minimum admits everything.
func (p *UserPreferences) IsPriorityMet(priority Priority) bool {
	if p.MinimumPriority == "" {
		return true
	}
	return priority.AtLeast(p.MinimumPriority)
}

// IsInQuietHours evaluates the window against the wall clock of now. Bounds are
// exclusive. A window whose start is not before its end wraps past midnight.
// Invalid or missing bounds mean no quiet hours.
func (p *UserPreferences) IsInQuietHours(now time.Time) bool {
	if !p.QuietHoursEnabled || p.QuietHoursStart == "" || p.QuietHoursEnd == "" {
		return false
	}
	start, err := p.QuietHoursStart.Offset()
	if err != nil {
		return false
	}
	end, err := p.QuietHoursEnd.Offset()
	if err != nil {
		return false
	}
	t := sinceMidnight(now)
	if start < end {
		return t > start && t < end
	}
	return t > start || t < end
}

// MatchedKeyword returns the first muted keyword contained in text, ignoring case.
func (p *UserPreferences) MatchedKeyword(text string) (string, bool) {
	lower := strings.ToLower(text)
	for _, kw := range p.MutedKeywords {
		kw = strings.TrimSpace(kw)
		if kw == "" {
			continue
		}
		if strings.Contains(lower, strings.ToLower(kw)) {
			return kw, true
		}
	}
	return "", false
}
