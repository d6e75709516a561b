package model

import "time"

// NotificationType event kind that produced a notification.
// It is display metadata only; no transition depends on it.
type NotificationType string

const (
	NotificationJobApplied    NotificationType = "job_applied"
	NotificationJobAssigned   NotificationType = "job_assigned"
	NotificationJobCompleted  NotificationType = "job_completed"
	NotificationPayment       NotificationType = "payment"
	NotificationGoalCreated   NotificationType = "goal_created"
	NotificationGoalCompleted NotificationType = "goal_completed"
	NotificationRating        NotificationType = "rating"
	NotificationMessage       NotificationType = "message"
	NotificationAdmin         NotificationType = "admin"
)

var notificationTypes = map[NotificationType]struct{}{
	NotificationJobApplied:    {},
	NotificationJobAssigned:   {},
	NotificationJobCompleted:  {},
	NotificationPayment:       {},
	NotificationGoalCreated:   {},
	NotificationGoalCompleted: {},
	NotificationRating:        {},
	NotificationMessage:       {},
	NotificationAdmin:         {},
}

// IsValidNotificationType reports whether t is a known notification type
func IsValidNotificationType(t string) bool {
	_, ok := notificationTypes[NotificationType(t)]
	return ok
}

// Notification notifications table / collection.
// IsRead implies IsSeen on every stored row.
type Notification struct {
	ID        string           `gorm:"type:uuid;primaryKey"                 bson:"_id"              json:"id"`
	Recipient string           `gorm:"type:varchar(64);not null"            bson:"recipient"        json:"recipient"`
	Sender    *string          `gorm:"type:varchar(64)"                     bson:"sender,omitempty" json:"sender,omitempty"`
	Type      NotificationType `gorm:"type:varchar(32);not null"            bson:"type"             json:"type"`
	Title     string           `gorm:"type:varchar(255);not null"           bson:"title"            json:"title"`
	Message   string           `gorm:"type:text;not null"                   bson:"message"          json:"message"`
	IsRead    bool             `gorm:"not null;default:false"               bson:"isRead"           json:"isRead"`
	IsSeen    bool             `gorm:"not null;default:false"               bson:"isSeen"           json:"isSeen"`
	CreatedAt time.Time        `gorm:"not null;default:CURRENT_TIMESTAMP"   bson:"createdAt"        json:"createdAt"`
}

// TableName table name
func (Notification) TableName() string { return "notifications" }
