package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/yeremiapane/notification-hub/apperrors"
	"github.com/yeremiapane/notification-hub/models"
	"github.com/yeremiapane/notification-hub/repositories"
	"gorm.io/datatypes"
)

type PreferenceService struct {
	prefs repositories.PreferencesRepository
	users repositories.UserRepository
	now   func() time.Time
}

func NewPreferenceService(prefs repositories.PreferencesRepository, users repositories.UserRepository) *PreferenceService {
	return &PreferenceService{prefs: prefs, users: users, now: time.Now}
}

// Ensure returns the recipient's preferences, creating the default record on first use.
// Concurrent first calls converge on a single row.
func (s *PreferenceService) Ensure(ctx context.Context, userID string) (*models.UserPreferences, error) {
	p, err := s.prefs.FindByUserID(ctx, userID)
	if err == nil {
		return p, nil
	}
	if !errors.Is(err, repositories.ErrNotFound) {
		return nil, apperrors.Internal(err)
	}

	if err := s.prefs.CreateIfAbsent(ctx, s.defaultsFor(ctx, userID)); err != nil {
		return nil, apperrors.Internal(err)
	}
	p, err = s.prefs.FindByUserID(ctx, userID)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	return p, nil
}

func (s *PreferenceService) defaultsFor(ctx context.Context, userID string) *models.UserPreferences {
	p := models.DefaultPreferences(userID)
	if user, err := s.users.FindByID(ctx, userID); err == nil {
		p.TenantID = user.TenantID
	}
	return p
}

// PreferencesUpdate is a partial update: nil fields are left unchanged.
type PreferencesUpdate struct {
	NotificationsEnabled    *bool                  `json:"notifications_enabled"`
	EmailNotifications      *bool                  `json:"email_notifications"`
	PushNotifications       *bool                  `json:"push_notifications"`
	SoundEnabled            *bool                  `json:"sound_enabled"`
	MutedApps               *[]string              `json:"muted_apps"`
	FavoriteApps            *[]string              `json:"favorite_apps"`
	EnabledTypes            *[]string              `json:"enabled_types"`
	MutedTypes              *[]string              `json:"muted_types"`
	MinimumPriority         *string                `json:"minimum_priority"`
	QuietHoursEnabled       *bool                  `json:"quiet_hours_enabled"`
	QuietHoursStart         *string                `json:"quiet_hours_start"`
	QuietHoursEnd           *string                `json:"quiet_hours_end"`
	QuietHoursDays          *[]string              `json:"quiet_hours_days"`
	MutedKeywords           *[]string              `json:"muted_keywords"`
	PriorityKeywords        *[]string              `json:"priority_keywords"`
	MaxNotificationsPerHour *int                   `json:"max_notifications_per_hour"`
	GroupSimilar            *bool                  `json:"group_similar"`
	GroupingWindowMinutes   *int                   `json:"grouping_window_minutes"`
	AutoArchiveEnabled      *bool                  `json:"auto_archive_enabled"`
	AutoArchiveAfterDays    *int                   `json:"auto_archive_after_days"`
	AutoDeleteEnabled       *bool                  `json:"auto_delete_enabled"`
	AutoDeleteAfterDays     *int                   `json:"auto_delete_after_days"`
	CustomRules             map[string]interface{} `json:"custom_rules"`
}

// QuietHoursUpdate touches only the quiet-hours subset.
type QuietHoursUpdate struct {
	Enabled *bool     `json:"enabled"`
	Start   *string   `json:"start" binding:"omitempty,timeofday"`
	End     *string   `json:"end" binding:"omitempty,timeofday"`
	Days    *[]string `json:"days"`
}

func setBool(dst *bool, src *bool) {
	if src != nil {
		*dst = *src
	}
}

func cleanStrings(in []string) datatypes.JSONSlice[string] {
	out := datatypes.JSONSlice[string]{}
	seen := make(map[string]bool, len(in))
	for _, s := range in {
		s = strings.TrimSpace(s)
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}

func parseTypes(in []string) (datatypes.JSONSlice[models.NotificationType], error) {
	out := datatypes.JSONSlice[models.NotificationType]{}
	seen := make(map[models.NotificationType]bool, len(in))
	for _, raw := range in {
		t, err := models.ParseNotificationType(raw)
		if err != nil {
			return nil, err
		}
		if !seen[t] {
			seen[t] = true
			out = append(out, t)
		}
	}
	return out, nil
}

func parseDays(in []string) (datatypes.JSONSlice[string], error) {
	out := datatypes.JSONSlice[string]{}
	for _, raw := range in {
		d, err := models.ParseWeekday(raw)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return cleanStrings(out), nil
}

func nonNegative(name string, v *int) error {
	if v != nil && *v < 0 {
		return fmt.Errorf("%s must not be negative", name)
	}
	return nil
}

func positive(name string, v *int) error {
	if v != nil && *v < 1 {
		return fmt.Errorf("%s must be at least 1", name)
	}
	return nil
}

// apply validates the whole update before mutating p.
func (u *PreferencesUpdate) apply(p *models.UserPreferences) error {
	for _, check := range []error{
		nonNegative("max_notifications_per_hour", u.MaxNotificationsPerHour),
		nonNegative("grouping_window_minutes", u.GroupingWindowMinutes),
		positive("auto_archive_after_days", u.AutoArchiveAfterDays),
		positive("auto_delete_after_days", u.AutoDeleteAfterDays),
	} {
		if check != nil {
			return check
		}
	}

	var enabledTypes, mutedTypes datatypes.JSONSlice[models.NotificationType]
	var err error
	if u.EnabledTypes != nil {
		if enabledTypes, err = parseTypes(*u.EnabledTypes); err != nil {
			return err
		}
	}
	if u.MutedTypes != nil {
		if mutedTypes, err = parseTypes(*u.MutedTypes); err != nil {
			return err
		}
	}
	var minimum models.Priority
	if u.MinimumPriority != nil {
		if minimum, err = models.ParsePriority(*u.MinimumPriority); err != nil {
			return err
		}
	}
	var days datatypes.JSONSlice[string]
	if u.QuietHoursDays != nil {
		if days, err = parseDays(*u.QuietHoursDays); err != nil {
			return err
		}
	}
	for _, tod := range []*string{u.QuietHoursStart, u.QuietHoursEnd} {
		if tod != nil && *tod != "" {
			if _, err := models.TimeOfDay(*tod).Offset(); err != nil {
				return err
			}
		}
	}

	quietEnabled, quietStart, quietEnd := p.QuietHoursEnabled, p.QuietHoursStart, p.QuietHoursEnd
	if u.QuietHoursEnabled != nil {
		quietEnabled = *u.QuietHoursEnabled
	}
	if u.QuietHoursStart != nil {
		quietStart = models.TimeOfDay(strings.TrimSpace(*u.QuietHoursStart))
	}
	if u.QuietHoursEnd != nil {
		quietEnd = models.TimeOfDay(strings.TrimSpace(*u.QuietHoursEnd))
	}
	if quietEnabled && (quietStart == "" || quietEnd == "") {
		return errors.New("quiet hours need both a start and an end time")
	}

	setBool(&p.NotificationsEnabled, u.NotificationsEnabled)
	setBool(&p.EmailNotifications, u.EmailNotifications)
	setBool(&p.PushNotifications, u.PushNotifications)
	setBool(&p.SoundEnabled, u.SoundEnabled)
	setBool(&p.QuietHoursEnabled, u.QuietHoursEnabled)
	setBool(&p.GroupSimilar, u.GroupSimilar)
	setBool(&p.AutoArchiveEnabled, u.AutoArchiveEnabled)
	setBool(&p.AutoDeleteEnabled, u.AutoDeleteEnabled)

	if u.MutedApps != nil {
		p.MutedApps = cleanStrings(*u.MutedApps)
	}
	if u.FavoriteApps != nil {
		p.FavoriteApps = cleanStrings(*u.FavoriteApps)
	}
	if u.MutedKeywords != nil {
		p.MutedKeywords = cleanStrings(*u.MutedKeywords)
	}
	if u.PriorityKeywords != nil {
		p.PriorityKeywords = cleanStrings(*u.PriorityKeywords)
	}
	if u.EnabledTypes != nil {
		p.EnabledTypes = enabledTypes
	}
	if u.MutedTypes != nil {
		p.MutedTypes = mutedTypes
	}
	if u.MinimumPriority != nil {
		p.MinimumPriority = minimum
	}
	if u.QuietHoursDays != nil {
		p.QuietHoursDays = days
	}
	p.QuietHoursStart, p.QuietHoursEnd = quietStart, quietEnd
	if u.MaxNotificationsPerHour != nil {
		p.MaxNotificationsPerHour = *u.MaxNotificationsPerHour
	}
	if u.GroupingWindowMinutes != nil {
		p.GroupingWindowMinutes = *u.GroupingWindowMinutes
	}
	if u.AutoArchiveAfterDays != nil {
		p.AutoArchiveAfterDays = *u.AutoArchiveAfterDays
	}
	if u.AutoDeleteAfterDays != nil {
		p.AutoDeleteAfterDays = *u.AutoDeleteAfterDays
	}
	if u.CustomRules != nil {
		p.CustomRules = datatypes.JSONMap(u.CustomRules)
	}
	return nil
}

func (s *PreferenceService) Update(ctx context.Context, userID string, update PreferencesUpdate) (*models.UserPreferences, error) {
	p, err := s.Ensure(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := update.apply(p); err != nil {
		return nil, apperrors.Validation(err.Error())
	}
	if err := s.prefs.Save(ctx, p); err != nil {
		return nil, apperrors.Internal(err)
	}
	return p, nil
}

func (s *PreferenceService) UpdateQuietHours(ctx context.Context, userID string, update QuietHoursUpdate) (*models.UserPreferences, error) {
	return s.Update(ctx, userID, PreferencesUpdate{
		QuietHoursEnabled: update.Enabled,
		QuietHoursStart:   update.Start,
		QuietHoursEnd:     update.End,
		QuietHoursDays:    update.Days,
	})
}

// Reset replaces the stored preferences with defaults.
func (s *PreferenceService) Reset(ctx context.Context, userID string) (*models.UserPreferences, error) {
	p := s.defaultsFor(ctx, userID)
	if err := s.prefs.Replace(ctx, p); err != nil {
		return nil, apperrors.Internal(err)
	}
	return p, nil
}

func (s *PreferenceService) MuteApp(ctx context.Context, userID, appID string) (*models.UserPreferences, error) {
	appID = strings.TrimSpace(appID)
	if appID == "" {
		return nil, apperrors.Validation("app id is required")
	}
	p, err := s.Ensure(ctx, userID)
	if err != nil {
		return nil, err
	}
	if p.IsAppMuted(appID) {
		return p, nil
	}
	p.MutedApps = append(p.MutedApps, appID)
	if err := s.prefs.Save(ctx, p); err != nil {
		return nil, apperrors.Internal(err)
	}
	return p, nil
}

func (s *PreferenceService) UnmuteApp(ctx context.Context, userID, appID string) (*models.UserPreferences, error) {
	p, err := s.Ensure(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !p.IsAppMuted(appID) {
		return p, nil
	}
	kept := datatypes.JSONSlice[string]{}
	for _, a := range p.MutedApps {
		if a != appID {
			kept = append(kept, a)
		}
	}
	p.MutedApps = kept
	if err := s.prefs.Save(ctx, p); err != nil {
		return nil, apperrors.Internal(err)
	}
	return p, nil
}

// ToggleNotifications flips the global enable switch.
func (s *PreferenceService) ToggleNotifications(ctx context.Context, userID string) (*models.UserPreferences, error) {
	p, err := s.Ensure(ctx, userID)
	if err != nil {
		return nil, err
	}
	p.NotificationsEnabled = !p.NotificationsEnabled
	if err := s.prefs.Save(ctx, p); err != nil {
		return nil, apperrors.Internal(err)
	}
	return p, nil
}
