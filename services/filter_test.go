package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yeremiapane/notification-hub/models"
	"github.com/yeremiapane/notification-hub/testutil"
)

func sample(priority models.Priority) *models.Notification {
	return &models.Notification{
		AppID:    "billing-app",
		UserID:   "u-1",
		Title:    "Invoice ready",
		Message:  "Your invoice for May is available",
		Type:     models.TypeInfo,
		Priority: priority,
	}
}

func TestEvaluateEachRuleBlocksAlone(t *testing.T) {
	cases := []struct {
		rule   string
		mutate func(p *models.UserPreferences)
	}{
		{RuleNotificationsDisabled, func(p *models.UserPreferences) { p.NotificationsEnabled = false }},
		{RuleAppMuted, func(p *models.UserPreferences) { p.MutedApps = append(p.MutedApps, "billing-app") }},
		{RuleTypeMuted, func(p *models.UserPreferences) { p.MutedTypes = append(p.MutedTypes, models.TypeInfo) }},
		{RuleBelowMinimumPriority, func(p *models.UserPreferences) { p.MinimumPriority = models.PriorityHigh }},
		{RuleQuietHours, func(p *models.UserPreferences) {
			p.QuietHoursEnabled, p.QuietHoursStart, p.QuietHoursEnd = true, "09:00", "17:00"
		}},
		{RuleMutedKeyword, func(p *models.UserPreferences) { p.MutedKeywords = append(p.MutedKeywords, "INVOICE") }},
	}
	for _, tc := range cases {
		t.Run(tc.rule, func(t *testing.T) {
			p := models.DefaultPreferences("u-1")
			tc.mutate(p)

			d := Evaluate(sample(models.PriorityNormal), p, noon)
			assert.False(t, d.Deliver)
			assert.Equal(t, tc.rule, d.Rule)
		})
	}
}

func TestEvaluateDeliversWhenAllRulesPass(t *testing.T) {
	d := Evaluate(sample(models.PriorityNormal), models.DefaultPreferences("u-1"), noon)
	assert.True(t, d.Deliver)
	assert.Empty(t, d.Rule)
}

func TestEvaluateReportsFirstFailingRule(t *testing.T) {
	p := models.DefaultPreferences("u-1")
	p.MutedApps = append(p.MutedApps, "billing-app")
	p.MutedKeywords = append(p.MutedKeywords, "invoice")

	assert.Equal(t, RuleAppMuted, Evaluate(sample(models.PriorityNormal), p, noon).Rule)
}

func TestUrgentBypassesQuietHoursOnly(t *testing.T) {
	p := models.DefaultPreferences("u-1")
	p.QuietHoursEnabled, p.QuietHoursStart, p.QuietHoursEnd = true, "22:00", "08:00"
	lateEvening := time.Date(2024, 5, 1, 23, 0, 0, 0, time.Local)

	assert.False(t, Evaluate(sample(models.PriorityHigh), p, lateEvening).Deliver)
	assert.True(t, Evaluate(sample(models.PriorityUrgent), p, lateEvening).Deliver)

	p.MutedApps = append(p.MutedApps, "billing-app")
	d := Evaluate(sample(models.PriorityUrgent), p, lateEvening)
	assert.False(t, d.Deliver)
	assert.Equal(t, RuleAppMuted, d.Rule)
}

func TestMinimumPriorityHigh(t *testing.T) {
	p := models.DefaultPreferences("u-1")
	p.MinimumPriority = models.PriorityHigh

	for priority, want := range map[models.Priority]bool{
		models.PriorityLow:    false,
		models.PriorityNormal: false,
		models.PriorityHigh:   true,
		models.PriorityUrgent: true,
	} {
		assert.Equal(t, want, Evaluate(sample(priority), p, noon).Deliver, priority)
	}
}

func TestShouldDeliverMaterializesDefaults(t *testing.T) {
	env := newTestEnv(t)
	user := testutil.CreateUser(t, env.db, "alice")

	ok, err := env.preferences.ShouldDeliver(context.Background(), sample(models.PriorityNormal), user.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	stored, err := env.prefRepo.FindByUserID(context.Background(), user.ID)
	require.NoError(t, err)
	assert.True(t, stored.NotificationsEnabled)
}
