package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/sakif/cookbook/internal/access"
	"github.com/sakif/cookbook/internal/model"
	"github.com/sakif/cookbook/internal/repository"
)

type NotificationService struct {
	notifications repository.NotificationRepository
	logger        *slog.Logger
}

func NewNotificationService(notifications repository.NotificationRepository, logger *slog.Logger) *NotificationService {
	return &NotificationService{notifications: notifications, logger: logger}
}

var _ Notifier = (*NotificationService)(nil)

// Notify stores an unread message for userID. It is a system action with no
// actor; users cannot call it directly.
func (s *NotificationService) Notify(ctx context.Context, userID, message string) error {
	n := &model.Notification{UserID: userID, Message: message}
	if err := s.notifications.Create(ctx, n); err != nil {
		return fmt.Errorf("service/notification: creating: %w", err)
	}
	s.logger.Debug("notification created", slog.String("user_id", userID))
	return nil
}

type NotificationList struct {
	Notifications []model.Notification `json:"notifications"`
	UnreadCount   int                  `json:"unreadCount"`
}

// List returns the actor's own notifications, newest first.
func (s *NotificationService) List(ctx context.Context, actor *model.User) (*NotificationList, error) {
	if err := s.authorizeOwn(actor); err != nil {
		return nil, err
	}
	list, err := s.notifications.ListByUser(ctx, actor.ID)
	if err != nil {
		return nil, fmt.Errorf("service/notification: listing: %w", err)
	}
	unread, err := s.notifications.CountUnread(ctx, actor.ID)
	if err != nil {
		return nil, fmt.Errorf("service/notification: counting unread: %w", err)
	}
	return &NotificationList{Notifications: list, UnreadCount: unread}, nil
}

func (s *NotificationService) UnreadCount(ctx context.Context, actor *model.User) (int, error) {
	if err := s.authorizeOwn(actor); err != nil {
		return 0, err
	}
	return s.notifications.CountUnread(ctx, actor.ID)
}

func (s *NotificationService) MarkRead(ctx context.Context, actor *model.User, id string) error {
	if err := s.loadAndAuthorize(ctx, actor, access.Update, id); err != nil {
		return err
	}
	return s.notifications.MarkRead(ctx, id)
}

// MarkAllRead flags every unread notification of the actor and reports how
// many changed.
func (s *NotificationService) MarkAllRead(ctx context.Context, actor *model.User) (int64, error) {
	if err := s.authorizeOwn(actor); err != nil {
		return 0, err
	}
	return s.notifications.MarkAllRead(ctx, actor.ID)
}

func (s *NotificationService) Delete(ctx context.Context, actor *model.User, id string) error {
	if err := s.loadAndAuthorize(ctx, actor, access.Delete, id); err != nil {
		return err
	}
	return s.notifications.Delete(ctx, id)
}

func (s *NotificationService) authorizeOwn(actor *model.User) error {
	if err := requireActor(actor); err != nil {
		return err
	}
	return access.Authorize(actor, access.Read, access.Resource{Kind: access.KindNotification, OwnerID: actor.ID})
}

func (s *NotificationService) loadAndAuthorize(ctx context.Context, actor *model.User, action access.Action, id string) error {
	if err := requireActor(actor); err != nil {
		return err
	}
	n, err := s.notifications.GetByID(ctx, id)
	if err != nil {
		return err
	}
	return access.Authorize(actor, action, access.Resource{Kind: access.KindNotification, OwnerID: n.UserID})
}
