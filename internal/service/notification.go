package service

import (
	"context"
	"fmt"
	"strconv"

	"golang.org/x/sync/errgroup"

	"github.com/miamiwave/internal/mapper"
	"github.com/miamiwave/internal/model"
	"github.com/miamiwave/internal/record"
)

type NotificationService struct {
	base
	pusher Pusher
}

func (s *NotificationService) list(ctx context.Context, where ...record.Condition) ([]model.Notification, error) {
	recs, err := s.gw.List(ctx, record.CollectionNotification, record.Query{
		Fields:  mapper.NotificationSchema.Fields(),
		Where:   where,
		OrderBy: []record.Order{{Field: record.FieldCreatedOn, Dir: record.Desc}},
	})
	if err != nil {
		return nil, err
	}
	return mapper.Notifications(recs), nil
}

// GetAll — новые сверху.
func (s *NotificationService) GetAll(ctx context.Context) ([]model.Notification, error) {
	out, err := s.list(ctx)
	if err != nil {
		return nil, fmt.Errorf("notifications.GetAll: %w", err)
	}
	return out, nil
}

func (s *NotificationService) GetByID(ctx context.Context, id int64) (model.Notification, error) {
	rec, err := s.gw.GetByID(ctx, record.CollectionNotification, id, mapper.NotificationSchema.Fields())
	if err != nil {
		return model.Notification{}, fmt.Errorf("notifications.GetByID: %w", err)
	}
	return mapper.Notification(rec), nil
}

func (s *NotificationService) GetUnread(ctx context.Context) ([]model.Notification, error) {
	out, err := s.list(ctx, record.Eq(mapper.NotificationIsRead, false))
	if err != nil {
		return nil, fmt.Errorf("notifications.GetUnread: %w", err)
	}
	return out, nil
}

func (s *NotificationService) GetByType(ctx context.Context, typ model.NotificationType) ([]model.Notification, error) {
	out, err := s.list(ctx, record.Eq(mapper.NotificationType, string(typ)))
	if err != nil {
		return nil, fmt.Errorf("notifications.GetByType: %w", err)
	}
	return out, nil
}

// Create сохраняет уведомление и отправляет web push получателю (best effort).
func (s *NotificationService) Create(ctx context.Context, in model.NotificationInput) (model.Notification, error) {
	if in.Content == "" {
		return model.Notification{}, fmt.Errorf("notifications.Create: empty content: %w", ErrInvalidInput)
	}
	created, err := s.co.Create(ctx, record.CollectionNotification, mapper.NotificationRecord(in))
	if err != nil {
		return model.Notification{}, fmt.Errorf("notifications.Create: %w", err)
	}
	n, err := s.GetByID(ctx, created.ID())
	if err != nil {
		n = mapper.Notification(created)
	}
	if s.pusher != nil && in.RecipientID > 0 {
		s.pusher.Notify(ctx, in.RecipientID, pushTitle(n.Type), n.Content, map[string]string{
			"notificationId": strconv.FormatInt(n.ID, 10),
			"type":           string(n.Type),
		})
	}
	return n, nil
}

func pushTitle(t model.NotificationType) string {
	switch t {
	case model.NotificationLike:
		return "New like"
	case model.NotificationComment:
		return "New comment"
	case model.NotificationFollow:
		return "New follower"
	case model.NotificationMessage:
		return "New message"
	default:
		return "MiamiWave"
	}
}

// Update пишет только переданные поля и перечитывает запись, чтобы разрешить получателя.
func (s *NotificationService) Update(ctx context.Context, id int64, in model.NotificationUpdate) (model.Notification, error) {
	patch := record.Record{}
	if in.Type != nil {
		patch[mapper.NotificationType] = string(model.ParseNotificationType(string(*in.Type)))
	}
	if in.Content != nil {
		patch[mapper.NotificationContent] = *in.Content
	}
	if in.IsRead != nil {
		patch[mapper.NotificationIsRead] = *in.IsRead
	}
	if len(patch) > 0 {
		if _, err := s.co.Update(ctx, record.CollectionNotification, id, patch); err != nil {
			return model.Notification{}, fmt.Errorf("notifications.Update: %w", err)
		}
	}
	return s.GetByID(ctx, id)
}

func (s *NotificationService) Delete(ctx context.Context, id int64) error {
	if err := s.co.Delete(ctx, record.CollectionNotification, id); err != nil {
		return fmt.Errorf("notifications.Delete: %w", err)
	}
	return nil
}

func (s *NotificationService) MarkAsRead(ctx context.Context, id int64) (model.Notification, error) {
	read := true
	return s.Update(ctx, id, model.NotificationUpdate{IsRead: &read})
}

func (s *NotificationService) MarkAsUnread(ctx context.Context, id int64) (model.Notification, error) {
	read := false
	return s.Update(ctx, id, model.NotificationUpdate{IsRead: &read})
}

// MarkAllAsRead обновляет каждое непрочитанное уведомление отдельным параллельным вызовом.
// Без непрочитанных путь записи не вызывается. Возвращает число помеченных.
func (s *NotificationService) MarkAllAsRead(ctx context.Context) (int, error) {
	unread, err := s.GetUnread(ctx)
	if err != nil {
		return 0, fmt.Errorf("notifications.MarkAllAsRead: %w", err)
	}
	if len(unread) == 0 {
		return 0, nil
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(8)
	for _, n := range unread {
		n := n
		g.Go(func() error {
			_, err := s.co.Update(gctx, record.CollectionNotification, n.ID, record.Record{mapper.NotificationIsRead: true})
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return 0, fmt.Errorf("notifications.MarkAllAsRead: %w", err)
	}
	return len(unread), nil
}
