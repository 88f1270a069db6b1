package notification

import "time"

type Type string

const (
	TypeTargetLevelChanged   Type = "target_level_changed"
	TypeTargetLevelReset     Type = "target_level_reset"
	TypePaymentStatusChanged Type = "payment_status_changed"
)

// Notification is an in-app message addressed to one user.
type Notification struct {
	ID        int64      `json:"id" gorm:"primaryKey"`
	UserID    int64      `json:"userId" gorm:"not null;index:idx_notifications_user_unread"`
	Type      Type       `json:"type" gorm:"type:varchar(64);not null"`
	Message   string     `json:"message" gorm:"type:text;not null"`
	Link      string     `json:"link" gorm:"type:varchar(512)"`
	IsRead    bool       `json:"isRead" gorm:"not null;default:false;index:idx_notifications_user_unread"`
	ReadAt    *time.Time `json:"readAt,omitempty"`
	CreatedAt time.Time  `json:"createdAt" gorm:"index"`
}

func (Notification) TableName() string {
	return "notifications"
}

// Event is the wire form pushed to websocket clients and the message broker.
type Event struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"userId"`
	Type      Type      `json:"type"`
	Message   string    `json:"message"`
	Link      string    `json:"link,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

func (n *Notification) Event() Event {
	return Event{
		ID:        n.ID,
		UserID:    n.UserID,
		Type:      n.Type,
		Message:   n.Message,
		Link:      n.Link,
		CreatedAt: n.CreatedAt,
	}
}
