package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type NotificationType string

const (
	TypeInfo    NotificationType = "INFO"
	TypeSuccess NotificationType = "SUCCESS"
	TypeWarning NotificationType = "WARNING"
	TypeError   NotificationType = "ERROR"
	TypeAlert   NotificationType = "ALERT"
	TypeSystem  NotificationType = "SYSTEM"
)

// AllNotificationTypes lists every type in declaration order.
var AllNotificationTypes = []NotificationType{TypeInfo, TypeSuccess, TypeWarning, TypeError, TypeAlert, TypeSystem}

func ParseNotificationType(s string) (NotificationType, error) {
	t := NotificationType(strings.ToUpper(strings.TrimSpace(s)))
	for _, known := range AllNotificationTypes {
		if t == known {
			return t, nil
		}
	}
	return "", fmt.Errorf("invalid notification type: %s", s)
}

type Priority string

const (
	PriorityLow    Priority = "LOW"
	PriorityNormal Priority = "NORMAL"
	PriorityHigh   Priority = "HIGH"
	PriorityUrgent Priority = "URGENT"
)

var priorityRank = map[Priority]int{
	PriorityLow:    0,
	PriorityNormal: 1,
	PriorityHigh:   2,
	PriorityUrgent: 3,
}

// Rank orders priorities by severity. Unknown values rank below LOW.
func (p Priority) Rank() int {
	if r, ok := priorityRank[p]; ok {
		return r
	}
	return -1
}

// AtLeast reports whether p is as severe as min.
func (p Priority) AtLeast(min Priority) bool {
	return p.Rank() >= min.Rank()
}

func ParsePriority(s string) (Priority, error) {
	p := Priority(strings.ToUpper(strings.TrimSpace(s)))
	if _, ok := priorityRank[p]; !ok {
		return "", fmt.Errorf("invalid priority: %s", s)
	}
	return p, nil
}

type NotificationStatus string

const (
	StatusUnread   NotificationStatus = "UNREAD"
	StatusRead     NotificationStatus = "READ"
	StatusArchived NotificationStatus = "ARCHIVED"
	// StatusDeleted is accepted as a filter value but no transition produces it; deletion is physical.
	StatusDeleted NotificationStatus = "DELETED"
)

func ParseNotificationStatus(s string) (NotificationStatus, error) {
	st := NotificationStatus(strings.ToUpper(strings.TrimSpace(s)))
	switch st {
	case StatusUnread, StatusRead, StatusArchived, StatusDeleted:
		return st, nil
	}
	return "", fmt.Errorf("invalid status value: %s", s)
}

type Notification struct {
	ID          string             `gorm:"type:varchar(36);primaryKey" json:"id"`
	AppID       string             `gorm:"type:varchar(100);not null;index" json:"app_id"`
	UserID      string             `gorm:"type:varchar(36);not null;index;index:idx_notifications_user_status,priority:1" json:"user_id"`
	Title       string             `gorm:"type:varchar(255);not null" json:"title"`
	Message     string             `gorm:"type:text;not null" json:"message"`
	Type        NotificationType   `gorm:"type:varchar(20);not null" json:"type"`
	Priority    Priority           `gorm:"type:varchar(20);not null" json:"priority"`
	Data        datatypes.JSONMap  `json:"data,omitempty"`
	Status      NotificationStatus `gorm:"type:varchar(20);not null;index;index:idx_notifications_user_status,priority:2" json:"status"`
	Archived    bool               `gorm:"not null;default:false" json:"archived"`
	Delivered   bool               `gorm:"not null;default:false" json:"delivered"`
	DeliveredAt *time.Time         `json:"delivered_at,omitempty"`
	ReadAt      *time.Time         `json:"read_at,omitempty"`
	ArchivedAt  *time.Time         `json:"archived_at,omitempty"`
	TenantID    string             `gorm:"type:varchar(100);index" json:"tenant_id,omitempty"`
	SourceIP    string             `gorm:"type:varchar(64)" json:"-"`
	UserAgent   string             `gorm:"type:varchar(512)" json:"-"`
	Version     uint               `gorm:"not null;default:1" json:"version"`
	CreatedAt   time.Time          `gorm:"not null;index" json:"created_at"`
	UpdatedAt   time.Time          `json:"updated_at"`
}

func (n *Notification) BeforeCreate(tx *gorm.DB) error {
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	if n.Status == "" {
		n.Status = StatusUnread
	}
	if n.Priority == "" {
		n.Priority = PriorityNormal
	}
	if n.Version == 0 {
		n.Version = 1
	}
	n.Archived = n.Status == StatusArchived
	return nil
}

// IsOwnedBy reports whether userID is the recipient.
func (n *Notification) IsOwnedBy(userID string) bool {
	return n.UserID == userID
}

func (n *Notification) setStatus(s NotificationStatus) {
	n.Status = s
	n.Archived = s == StatusArchived
}

// MarkAsRead moves the notification to READ. It returns false and leaves
// readAt untouched when the notification is already read.
func (n *Notification) MarkAsRead(now time.Time) bool {
	if n.Status == StatusRead {
		return false
	}
	n.setStatus(StatusRead)
	n.ArchivedAt = nil
	n.ReadAt = &now
	return true
}

// MarkAsUnread moves the notification back to UNREAD and clears readAt.
func (n *Notification) MarkAsUnread() bool {
	if n.Status == StatusUnread {
		return false
	}
	n.setStatus(StatusUnread)
	n.ReadAt = nil
	n.ArchivedAt = nil
	return true
}

// Archive moves the notification to ARCHIVED. readAt is kept.
func (n *Notification) Archive(now time.Time) bool {
	if n.Archived {
		return false
	}
	n.setStatus(StatusArchived)
	n.ArchivedAt = &now
	return true
}

// MarkAsDelivered is monotonic: once delivered, later calls change nothing.
func (n *Notification) MarkAsDelivered(at time.Time) bool {
	if n.Delivered {
		return false
	}
	n.Delivered = true
	n.DeliveredAt = &at
	return true
}
