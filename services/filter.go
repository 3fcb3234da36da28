package services

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/yeremiapane/notification-hub/models"
	"github.com/yeremiapane/notification-hub/utils"
)

const (
	RuleNotificationsDisabled = "notifications_disabled"
	RuleAppMuted              = "app_muted"
	RuleTypeMuted             = "type_muted"
	RuleBelowMinimumPriority  = "below_minimum_priority"
	RuleQuietHours            = "quiet_hours"
	RuleMutedKeyword          = "muted_keyword"
)

// Decision is the outcome of running a notification through the delivery rules.
// Rule names the first rule that suppressed it and is empty when Deliver is true.
type Decision struct {
	Deliver bool
	Rule    string
}

type deliveryRule struct {
	name   string
	blocks func(n *models.Notification, p *models.UserPreferences, now time.Time) bool
}

// Evaluated in order; the first match suppresses.
var deliveryRules = []deliveryRule{
	{RuleNotificationsDisabled, func(_ *models.Notification, p *models.UserPreferences, _ time.Time) bool {
		return !p.NotificationsEnabled
	}},
	{RuleAppMuted, func(n *models.Notification, p *models.UserPreferences, _ time.Time) bool {
		return p.IsAppMuted(n.AppID)
	}},
	{RuleTypeMuted, func(n *models.Notification, p *models.UserPreferences, _ time.Time) bool {
		return p.IsTypeMuted(n.Type)
	}},
	{RuleBelowMinimumPriority, func(n *models.Notification, p *models.UserPreferences, _ time.Time) bool {
		return !p.IsPriorityMet(n.Priority)
	}},
	{RuleQuietHours, func(n *models.Notification, p *models.UserPreferences, now time.Time) bool {
		return n.Priority != models.PriorityUrgent && p.IsInQuietHours(now)
	}},
	{RuleMutedKeyword, func(n *models.Notification, p *models.UserPreferences, _ time.Time) bool {
		_, hit := p.MatchedKeyword(n.Title + " " + n.Message)
		return hit
	}},
}

// Evaluate decides delivery without side effects.
func Evaluate(n *models.Notification, p *models.UserPreferences, now time.Time) Decision {
	for _, rule := range deliveryRules {
		if rule.blocks(n, p, now) {
			return Decision{Deliver: false, Rule: rule.name}
		}
	}
	return Decision{Deliver: true}
}

// ShouldDeliver loads (or materializes) the recipient's preferences and evaluates n against them.
func (s *PreferenceService) ShouldDeliver(ctx context.Context, n *models.Notification, recipientID string) (bool, error) {
	p, err := s.Ensure(ctx, recipientID)
	if err != nil {
		return false, err
	}

	decision := Evaluate(n, p, s.now())
	if !decision.Deliver {
		utils.InfoLogger.WithFields(logrus.Fields{
			"user_id":  recipientID,
			"app_id":   n.AppID,
			"type":     n.Type,
			"priority": n.Priority,
			"rule":     decision.Rule,
		}).Debug("Notification suppressed by preferences")
	}
	return decision.Deliver, nil
}
