package notification

import "context"

type Repository interface {
	Create(ctx context.Context, n *Notification) error
	// ListByUserID returns the recipient's notifications, newest first.
	ListByUserID(ctx context.Context, userID string) ([]Notification, error)
	// MarkRead flips the read flag; ErrNotFound when the id is unknown.
	MarkRead(ctx context.Context, notificationID string) error
}
