package services

import (
	"context"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/yeremiapane/notification-hub/apperrors"
	"github.com/yeremiapane/notification-hub/utils"
)

// BulkAction is one of the transitions a bulk request may apply.
type BulkAction int

const (
	BulkRead BulkAction = iota + 1
	BulkUnread
	BulkArchive
	BulkDelete
)

var bulkActionNames = map[BulkAction]string{
	BulkRead:    "read",
	BulkUnread:  "unread",
	BulkArchive: "archive",
	BulkDelete:  "delete",
}

func (a BulkAction) String() string {
	if name, ok := bulkActionNames[a]; ok {
		return name
	}
	return "unknown"
}

// ParseBulkAction accepts read, unread, archive or delete in any case.
func ParseBulkAction(s string) (BulkAction, error) {
	want := strings.ToLower(strings.TrimSpace(s))
	for action, name := range bulkActionNames {
		if name == want {
			return action, nil
		}
	}
	return 0, apperrors.Validation("Invalid action: " + s)
}

// PerformBulkAction applies action to every id owned by userID and returns how many
// notifications actually changed. Each item stands alone: a missing, foreign or
// conflicting item is logged and skipped without affecting the others.
func (s *NotificationService) PerformBulkAction(ctx context.Context, action BulkAction, ids []string, userID string) int {
	changed := 0
	for _, id := range ids {
		ok, err := s.applyBulk(ctx, action, id, userID)
		if err != nil {
			utils.InfoLogger.WithFields(logrus.Fields{
				"notification_id": id,
				"user_id":         userID,
				"action":          action.String(),
			}).WithError(err).Warn("Bulk action skipped item")
			continue
		}
		if ok {
			changed++
		}
	}

	utils.InfoLogger.WithFields(logrus.Fields{
		"user_id":   userID,
		"action":    action.String(),
		"requested": len(ids),
		"changed":   changed,
	}).Info("Bulk action completed")
	return changed
}

func (s *NotificationService) applyBulk(ctx context.Context, action BulkAction, id, userID string) (bool, error) {
	n, err := s.getOwned(ctx, id, userID)
	if err != nil {
		return false, err
	}

	var changed bool
	switch action {
	case BulkRead:
		changed = n.MarkAsRead(s.now())
	case BulkUnread:
		changed = n.MarkAsUnread()
	case BulkArchive:
		changed = n.Archive(s.now())
	case BulkDelete:
		if err := s.notifications.Delete(ctx, n.ID); err != nil {
			return false, err
		}
		return true, nil
	default:
		return false, apperrors.Validation("Invalid action: " + action.String())
	}

	if !changed {
		return false, nil
	}
	if err := s.save(ctx, n); err != nil {
		return false, err
	}
	return true, nil
}
