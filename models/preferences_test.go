package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func at(hour, minute int) time.Time {
	return time.Date(2024, 5, 1, hour, minute, 0, 0, time.Local)
}

func TestIsInQuietHours(t *testing.T) {
	cases := []struct {
		name       string
		start, end TimeOfDay
		now        time.Time
		inside     bool
	}{
		{"overnight late evening", "22:00", "08:00", at(23, 0), true},
		{"overnight morning after end", "22:00", "08:00", at(9, 0), false},
		{"overnight just before end", "22:00", "08:00", at(7, 59), true},
		{"overnight exact start is outside", "22:00", "08:00", at(22, 0), false},
		{"same day inside", "09:00", "17:00", at(12, 0), true},
		{"same day after", "09:00", "17:00", at(18, 0), false},
		{"same day exact end is outside", "09:00", "17:00", at(17, 0), false},
		{"seconds precision", "09:00:30", "17:00:00", at(9, 0), false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p := DefaultPreferences("u-1")
			p.QuietHoursEnabled = true
			p.QuietHoursStart = tc.start
			p.QuietHoursEnd = tc.end
			assert.Equal(t, tc.inside, p.IsInQuietHours(tc.now))
		})
	}
}

func TestQuietHoursDisabledOrIncomplete(t *testing.T) {
	p := DefaultPreferences("u-1")
	p.QuietHoursStart = "22:00"
	p.QuietHoursEnd = "08:00"
	assert.False(t, p.IsInQuietHours(at(23, 0)), "disabled")

	p.QuietHoursEnabled = true
	p.QuietHoursEnd = ""
	assert.False(t, p.IsInQuietHours(at(23, 0)), "missing end")

	p.QuietHoursEnd = "25:99"
	assert.False(t, p.IsInQuietHours(at(23, 0)), "unparseable end")
}

func TestIsPriorityMet(t *testing.T) {
	p := DefaultPreferences("u-1")
	p.MinimumPriority = PriorityHigh

	assert.False(t, p.IsPriorityMet(PriorityLow))
	assert.False(t, p.IsPriorityMet(PriorityNormal))
	assert.True(t, p.IsPriorityMet(PriorityHigh))
	assert.True(t, p.IsPriorityMet(PriorityUrgent))

	p.MinimumPriority = ""
	assert.True(t, p.IsPriorityMet(PriorityLow))
}

func TestTimeOfDayOffset(t *testing.T) {
	d, err := TimeOfDay("07:30").Offset()
	require.NoError(t, err)
	assert.Equal(t, 7*time.Hour+30*time.Minute, d)

	d, err = TimeOfDay("23:59:59").Offset()
	require.NoError(t, err)
	assert.Equal(t, 24*time.Hour-time.Second, d)

	assert.False(t, TimeOfDay("7pm").Valid())
	assert.False(t, TimeOfDay("24:00").Valid())
}

func TestDefaultPreferences(t *testing.T) {
	p := DefaultPreferences("u-1")

	assert.True(t, p.NotificationsEnabled)
	assert.Equal(t, PriorityLow, p.MinimumPriority)
	assert.Len(t, p.EnabledTypes, len(AllNotificationTypes))
	assert.Empty(t, p.MutedApps)
	assert.False(t, p.QuietHoursEnabled)
	assert.Equal(t, 50, p.MaxNotificationsPerHour)
	assert.True(t, p.AutoArchiveEnabled)
	assert.Equal(t, 30, p.AutoArchiveAfterDays)
	assert.False(t, p.AutoDeleteEnabled)
	assert.Equal(t, 90, p.AutoDeleteAfterDays)
}

func TestMutesAndKeywords(t *testing.T) {
	p := DefaultPreferences("u-1")
	p.MutedApps = append(p.MutedApps, "billing-app")
	p.MutedTypes = append(p.MutedTypes, TypeSystem)
	p.MutedKeywords = append(p.MutedKeywords, "Promo")

	assert.True(t, p.IsAppMuted("billing-app"))
	assert.False(t, p.IsAppMuted("chat-app"))
	assert.True(t, p.IsTypeMuted(TypeSystem))
	assert.False(t, p.IsTypeMuted(TypeAlert))

	kw, ok := p.MatchedKeyword("Big PROMO today")
	assert.True(t, ok)
	assert.Equal(t, "Promo", kw)
	_, ok = p.MatchedKeyword("Invoice ready")
	assert.False(t, ok)
}

func TestParseWeekday(t *testing.T) {
	d, err := ParseWeekday("saturday")
	require.NoError(t, err)
	assert.Equal(t, "SATURDAY", d)

	_, err = ParseWeekday("someday")
	assert.Error(t, err)
}
