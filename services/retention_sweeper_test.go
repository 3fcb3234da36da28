package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yeremiapane/notification-hub/models"
	"github.com/yeremiapane/notification-hub/repositories"
	"github.com/yeremiapane/notification-hub/testutil"
)

func seedAged(t *testing.T, env *testEnv, userID string, status models.NotificationStatus, age time.Duration) *models.Notification {
	t.Helper()
	n := &models.Notification{
		AppID: "billing-app", UserID: userID, Title: "t", Message: "m",
		Type: models.TypeInfo, Priority: models.PriorityNormal,
		Status: status, CreatedAt: time.Now().Add(-age),
	}
	if status == models.StatusArchived {
		archivedAt := n.CreatedAt
		n.ArchivedAt = &archivedAt
	}
	require.NoError(t, env.notifRepo.Create(context.Background(), n))
	return n
}

func TestSweepAppliesRetentionSettings(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := testutil.CreateUser(t, env.db, "alice")
	day := 24 * time.Hour

	old := seedAged(t, env, alice.ID, models.StatusUnread, 40*day)
	fresh := seedAged(t, env, alice.ID, models.StatusRead, 2*day)
	ancient := seedAged(t, env, alice.ID, models.StatusArchived, 100*day)

	_, err := env.preferences.Update(ctx, alice.ID, PreferencesUpdate{AutoDeleteEnabled: ptr(true)})
	require.NoError(t, err)

	sweeper := NewRetentionSweeper(env.prefRepo, env.notifRepo, env.auth)
	result, err := sweeper.Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), result.Archived)
	assert.Equal(t, int64(1), result.Deleted)

	archived, err := env.notifRepo.FindByID(ctx, old.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusArchived, archived.Status)
	assert.True(t, archived.Archived)

	kept, err := env.notifRepo.FindByID(ctx, fresh.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusRead, kept.Status)

	_, err = env.notifRepo.FindByID(ctx, ancient.ID)
	assert.ErrorIs(t, err, repositories.ErrNotFound)
}

func TestSweepPurgesExpiredRefreshTokens(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	register(t, env)

	env.auth.now = func() time.Time { return time.Now().Add(365 * 24 * time.Hour) }
	sweeper := NewRetentionSweeper(env.prefRepo, env.notifRepo, env.auth)
	result, err := sweeper.Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), result.TokensPurged)
}

func TestSweeperStartStop(t *testing.T) {
	env := newTestEnv(t)
	sweeper := NewRetentionSweeper(env.prefRepo, env.notifRepo, env.auth)
	sweeper.Interval = 10 * time.Millisecond

	sweeper.Start()
	time.Sleep(30 * time.Millisecond)
	sweeper.Stop()
	sweeper.Stop()
}
