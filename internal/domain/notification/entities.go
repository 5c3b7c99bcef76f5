package notification

import (
	"errors"
	"time"
)

var ErrNotFound = errors.New("notification not found")

type Type string

const (
	TypeInfo           Type = "info"
	TypeWarning        Type = "warning"
	TypeDanger         Type = "danger"
	TypeSuccess        Type = "success"
	TypeActionRequired Type = "action_required"
)

// ActionType tags a notification that expects a response from its recipient.
type ActionType string

const (
	ActionReviewDelay   ActionType = "review_delay"
	ActionReviewPayment ActionType = "review_payment"
)

type Notification struct {
	ID             uint64     `gorm:"primaryKey;column:id" json:"-"`
	NotificationID string     `gorm:"size:64;uniqueIndex:ux_notifications_notification_id" json:"notification_id"`
	UserID         string     `gorm:"size:255;index:idx_notifications_user_id" json:"user_id"`
	LoanID         string     `gorm:"size:64;index:idx_notifications_loan_id" json:"loan_id"`
	Type           Type       `gorm:"size:32" json:"type"`
	Title          string     `gorm:"size:255" json:"title"`
	Message        string     `gorm:"type:text" json:"message"`
	ActionType     ActionType `gorm:"size:32" json:"action_type,omitempty"`
	Read           bool       `gorm:"not null;default:false" json:"read"`
	Date           time.Time  `json:"date"`
}

func (Notification) TableName() string { return "notifications" }
