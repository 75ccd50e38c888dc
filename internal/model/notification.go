package model

import "time"

type NotificationType string

const (
	NotificationLike    NotificationType = "like"
	NotificationComment NotificationType = "comment"
	NotificationFollow  NotificationType = "follow"
	NotificationMessage NotificationType = "message"
	NotificationOther   NotificationType = "other"
)

// ParseNotificationType приводит неизвестные значения к other.
func ParseNotificationType(s string) NotificationType {
	switch t := NotificationType(s); t {
	case NotificationLike, NotificationComment, NotificationFollow, NotificationMessage:
		return t
	default:
		return NotificationOther
	}
}

type Notification struct {
	ID          int64            `json:"id"`
	Type        NotificationType `json:"type"`
	Content     string           `json:"content"`
	IsRead      bool             `json:"isRead"`
	Timestamp   time.Time        `json:"timestamp"`
	RecipientID int64            `json:"recipientId"`
	Username    string           `json:"username"`
	AvatarURL   string           `json:"avatar"`
}

type NotificationInput struct {
	Type        NotificationType `json:"type"`
	Content     string           `json:"content"`
	RecipientID int64            `json:"recipientId"`
}

// NotificationUpdate — частичное изменение: nil-поля не записываются.
type NotificationUpdate struct {
	Type    *NotificationType `json:"type,omitempty"`
	Content *string           `json:"content,omitempty"`
	IsRead  *bool             `json:"isRead,omitempty"`
}
