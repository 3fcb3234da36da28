package services

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/yeremiapane/notification-hub/models"
	"github.com/yeremiapane/notification-hub/repositories"
	"github.com/yeremiapane/notification-hub/utils"
)

// EventNotification is the event name carried by real-time notification pushes.
const EventNotification = "notification"

// NotificationTopic is the per-recipient real-time topic.
func NotificationTopic(userID string) string {
	return "notifications/" + userID
}

// Publisher hands a payload to the real-time transport.
type Publisher interface {
	Publish(topic, event string, payload interface{}) error
}

// Dispatcher pushes persisted notifications to their recipient and records the outcome.
type Dispatcher struct {
	publisher     Publisher
	notifications repositories.NotificationRepository
	now           func() time.Time
}

func NewDispatcher(publisher Publisher, notifications repositories.NotificationRepository) *Dispatcher {
	return &Dispatcher{publisher: publisher, notifications: notifications, now: time.Now}
}

// Dispatch publishes n and, if the transport accepted it, marks it delivered.
// Failures are logged and reported as false; nothing is retried or rolled back.
func (d *Dispatcher) Dispatch(ctx context.Context, n *models.Notification) bool {
	fields := logrus.Fields{
		"notification_id": n.ID,
		"user_id":         n.UserID,
		"app_id":          n.AppID,
	}

	if err := d.publisher.Publish(NotificationTopic(n.UserID), EventNotification, n); err != nil {
		utils.ErrorLogger.WithFields(fields).WithError(err).Error("Real-time publish failed")
		return false
	}

	at := d.now()
	if err := d.notifications.MarkDelivered(ctx, n.ID, at); err != nil {
		utils.ErrorLogger.WithFields(fields).WithError(err).Error("Failed to record delivery")
		return false
	}
	n.MarkAsDelivered(at)

	utils.InfoLogger.WithFields(fields).Debug("Notification delivered")
	return true
}
