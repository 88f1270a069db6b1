package notification

import (
	"context"
	"log/slog"
	"time"

	"certhub/internal/metrics"
	"certhub/internal/pkg/sl"
)

// AdminDirectory lists the accounts that receive administrative alerts.
type AdminDirectory interface {
	ListAdminIDs(ctx context.Context) ([]int64, error)
}

// Publisher forwards events to an external broker.
type Publisher interface {
	Publish(ctx context.Context, ev Event) error
}

type Service struct {
	repo      *Repository
	admins    AdminDirectory
	hub       *Hub
	publisher Publisher
	logger    *slog.Logger
	now       func() time.Time
}

func NewService(repo *Repository, admins AdminDirectory, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, admins: admins, logger: logger, now: time.Now}
}

// WithHub enables websocket push of new notifications.
func (s *Service) WithHub(h *Hub) *Service {
	s.hub = h
	return s
}

// WithPublisher enables broker fan-out of new notifications.
func (s *Service) WithPublisher(p Publisher) *Service {
	s.publisher = p
	return s
}

func (s *Service) Notify(ctx context.Context, userID int64, t Type, message, link string) error {
	return s.deliver(ctx, []Notification{{UserID: userID, Type: t, Message: message, Link: link}})
}

// NotifyAdmins stores one notification per administrator and returns how
// many were created. Zero admins is not an error.
func (s *Service) NotifyAdmins(ctx context.Context, t Type, message, link string) (int, error) {
	ids, err := s.admins.ListAdminIDs(ctx)
	if err != nil {
		metrics.NotificationFailures.WithLabelValues("directory").Inc()
		return 0, err
	}
	if len(ids) == 0 {
		return 0, nil
	}

	items := make([]Notification, 0, len(ids))
	for _, id := range ids {
		items = append(items, Notification{UserID: id, Type: t, Message: message, Link: link})
	}
	if err := s.deliver(ctx, items); err != nil {
		return 0, err
	}
	return len(items), nil
}

func (s *Service) NotifyPaymentStatus(ctx context.Context, userID int64, message, link string) error {
	return s.Notify(ctx, userID, TypePaymentStatusChanged, message, link)
}

// deliver persists items, then pushes and publishes them. Only the
// persistence error is returned; push and publish are fire-and-forget.
func (s *Service) deliver(ctx context.Context, items []Notification) error {
	if err := s.repo.CreateBatch(ctx, items); err != nil {
		metrics.NotificationFailures.WithLabelValues("persist").Inc()
		return err
	}

	for i := range items {
		ev := items[i].Event()
		if s.hub != nil {
			s.hub.Push(ev)
		}
		if s.publisher != nil {
			if err := s.publisher.Publish(ctx, ev); err != nil {
				metrics.NotificationFailures.WithLabelValues("publish").Inc()
				s.logger.Warn("notification publish failed",
					slog.Int64("notification_id", ev.ID),
					slog.Int64("user_id", ev.UserID),
					sl.Err(err),
				)
			}
		}
	}
	return nil
}

func (s *Service) List(ctx context.Context, userID int64, limit, offset int) ([]Notification, int64, int64, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	list, total, err := s.repo.ListByUser(ctx, userID, limit, offset)
	if err != nil {
		return nil, 0, 0, err
	}

	unread, err := s.repo.CountUnread(ctx, userID)
	if err != nil {
		return nil, 0, 0, err
	}
	return list, unread, total, nil
}

func (s *Service) UnreadCount(ctx context.Context, userID int64) (int64, error) {
	return s.repo.CountUnread(ctx, userID)
}

func (s *Service) MarkAsRead(ctx context.Context, notificationID, userID int64) error {
	return s.repo.MarkAsRead(ctx, notificationID, userID, s.now().UTC())
}

func (s *Service) MarkAllAsRead(ctx context.Context, userID int64) (int64, error) {
	return s.repo.MarkAllAsRead(ctx, userID, s.now().UTC())
}
