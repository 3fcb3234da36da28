package services

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/yeremiapane/notification-hub/repositories"
	"github.com/yeremiapane/notification-hub/utils"
)

type SweepResult struct {
	Archived     int64
	Deleted      int64
	TokensPurged int64
}

// RetentionSweeper periodically applies each recipient's auto-archive and
// auto-delete settings and drops expired refresh tokens.
type RetentionSweeper struct {
	prefs         repositories.PreferencesRepository
	notifications repositories.NotificationRepository
	auth          *AuthService
	StopChan      chan struct{}
	Interval      time.Duration
	stopOnce      sync.Once
	now           func() time.Time
}

func NewRetentionSweeper(prefs repositories.PreferencesRepository, notifications repositories.NotificationRepository, auth *AuthService) *RetentionSweeper {
	return &RetentionSweeper{
		prefs:         prefs,
		notifications: notifications,
		auth:          auth,
		StopChan:      make(chan struct{}),
		Interval:      time.Hour,
		now:           time.Now,
	}
}

func (rs *RetentionSweeper) Start() {
	go func() {
		ticker := time.NewTicker(rs.Interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				ctx, cancel := context.WithTimeout(context.Background(), rs.Interval)
				if _, err := rs.Sweep(ctx); err != nil {
					utils.ErrorLogger.WithError(err).Error("Retention sweep failed")
				}
				cancel()
			case <-rs.StopChan:
				return
			}
		}
	}()
}

func (rs *RetentionSweeper) Stop() {
	rs.stopOnce.Do(func() { close(rs.StopChan) })
}

// Sweep runs one pass. A failure for one recipient is logged and the pass continues.
func (rs *RetentionSweeper) Sweep(ctx context.Context) (SweepResult, error) {
	var result SweepResult
	now := rs.now()

	prefs, err := rs.prefs.FindWithRetention(ctx)
	if err != nil {
		return result, err
	}

	for _, p := range prefs {
		fields := logrus.Fields{"user_id": p.UserID}
		if p.AutoArchiveEnabled && p.AutoArchiveAfterDays > 0 {
			cutoff := now.AddDate(0, 0, -p.AutoArchiveAfterDays)
			n, err := rs.notifications.ArchiveCreatedBefore(ctx, p.UserID, cutoff, now)
			if err != nil {
				utils.ErrorLogger.WithFields(fields).WithError(err).Error("Auto-archive failed")
			}
			result.Archived += n
		}
		if p.AutoDeleteEnabled && p.AutoDeleteAfterDays > 0 {
			cutoff := now.AddDate(0, 0, -p.AutoDeleteAfterDays)
			n, err := rs.notifications.DeleteArchivedBefore(ctx, p.UserID, cutoff)
			if err != nil {
				utils.ErrorLogger.WithFields(fields).WithError(err).Error("Auto-delete failed")
			}
			result.Deleted += n
		}
	}

	purged, err := rs.auth.PurgeExpiredTokens(ctx)
	if err != nil {
		utils.ErrorLogger.WithError(err).Error("Refresh token cleanup failed")
	}
	result.TokensPurged = purged

	if result.Archived > 0 || result.Deleted > 0 || result.TokensPurged > 0 {
		utils.InfoLogger.WithFields(logrus.Fields{
			"archived":      result.Archived,
			"deleted":       result.Deleted,
			"tokens_purged": result.TokensPurged,
		}).Info("Retention sweep completed")
	}
	return result, nil
}
