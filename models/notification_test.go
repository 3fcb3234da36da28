package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newUnread() *Notification {
	return &Notification{ID: "n-1", UserID: "u-1", AppID: "billing-app", Status: StatusUnread, Priority: PriorityNormal}
}

func TestMarkAsReadIsIdempotent(t *testing.T) {
	n := newUnread()
	first := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

	assert.True(t, n.MarkAsRead(first))
	assert.Equal(t, StatusRead, n.Status)
	require.NotNil(t, n.ReadAt)

	assert.False(t, n.MarkAsRead(first.Add(time.Hour)))
	assert.Equal(t, StatusRead, n.Status)
	assert.Equal(t, first, *n.ReadAt)
}

func TestMarkAsUnreadClearsReadAt(t *testing.T) {
	n := newUnread()
	assert.False(t, n.MarkAsUnread())

	n.MarkAsRead(time.Now())
	assert.True(t, n.MarkAsUnread())
	assert.Equal(t, StatusUnread, n.Status)
	assert.Nil(t, n.ReadAt)
}

func TestArchiveKeepsFlagAndStatusTogether(t *testing.T) {
	n := newUnread()
	now := time.Now()
	n.MarkAsRead(now)

	assert.True(t, n.Archive(now))
	assert.Equal(t, StatusArchived, n.Status)
	assert.True(t, n.Archived)
	assert.NotNil(t, n.ArchivedAt)
	assert.NotNil(t, n.ReadAt, "archiving keeps the read timestamp")

	assert.False(t, n.Archive(now.Add(time.Minute)))

	assert.True(t, n.MarkAsUnread())
	assert.False(t, n.Archived)
	assert.Nil(t, n.ArchivedAt)
}

func TestMarkAsReadLeavesArchive(t *testing.T) {
	n := newUnread()
	n.Archive(time.Now())

	assert.True(t, n.MarkAsRead(time.Now()))
	assert.Equal(t, StatusRead, n.Status)
	assert.False(t, n.Archived)
}

func TestMarkAsDeliveredIsMonotonic(t *testing.T) {
	n := newUnread()
	at := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

	assert.True(t, n.MarkAsDelivered(at))
	assert.False(t, n.MarkAsDelivered(at.Add(time.Hour)))
	assert.True(t, n.Delivered)
	assert.Equal(t, at, *n.DeliveredAt)
}

func TestPriorityOrdering(t *testing.T) {
	assert.True(t, PriorityUrgent.AtLeast(PriorityHigh))
	assert.True(t, PriorityHigh.AtLeast(PriorityHigh))
	assert.False(t, PriorityNormal.AtLeast(PriorityHigh))
	assert.False(t, PriorityLow.AtLeast(PriorityNormal))
	assert.Less(t, Priority("BOGUS").Rank(), PriorityLow.Rank())
}

func TestParseEnums(t *testing.T) {
	typ, err := ParseNotificationType(" alert ")
	require.NoError(t, err)
	assert.Equal(t, TypeAlert, typ)

	_, err = ParseNotificationType("PROMO")
	assert.Error(t, err)

	p, err := ParsePriority("urgent")
	require.NoError(t, err)
	assert.Equal(t, PriorityUrgent, p)

	_, err = ParseNotificationStatus("SNOOZED")
	assert.EqualError(t, err, "invalid status value: SNOOZED")

	st, err := ParseNotificationStatus("deleted")
	require.NoError(t, err)
	assert.Equal(t, StatusDeleted, st)
}
