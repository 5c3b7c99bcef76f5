package notification

import (
	"context"
	"errors"
	"time"

	domain "ckmoney-backend/internal/domain/notification"

	"github.com/google/uuid"
)

type Usecase struct {
	repo domain.Repository
	now  func() time.Time
}

func NewUsecase(r domain.Repository) *Usecase {
	return &Usecase{repo: r, now: time.Now}
}

type SendInput struct {
	UserID     string
	LoanID     string
	Type       domain.Type
	Title      string
	Message    string
	ActionType domain.ActionType
}

// Send stores an unread notification for the recipient, timestamped now.
// There is no delivery pipeline behind it; recipients poll.
func (u *Usecase) Send(ctx context.Context, in SendInput) error {
	if in.UserID == "" {
		return errors.New("notification recipient required")
	}
	n := &domain.Notification{
		NotificationID: uuid.NewString(),
		UserID:         in.UserID,
		LoanID:         in.LoanID,
		Type:           in.Type,
		Title:          in.Title,
		Message:        in.Message,
		ActionType:     in.ActionType,
		Read:           false,
		Date:           u.now().UTC(),
	}
	return u.repo.Create(ctx, n)
}

func (u *Usecase) ListForUser(ctx context.Context, userID string) ([]domain.Notification, error) {
	if userID == "" {
		return nil, errors.New("user id required")
	}
	return u.repo.ListByUserID(ctx, userID)
}

func (u *Usecase) MarkRead(ctx context.Context, notificationID string) error {
	if notificationID == "" {
		return domain.ErrNotFound
	}
	return u.repo.MarkRead(ctx, notificationID)
}
