package payment

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"gorm.io/gorm"

	"certhub/internal/pkg/dberr"
	"certhub/internal/pkg/sl"
)

// UserNotifier delivers a message to a single user. Delivery is best-effort.
type UserNotifier interface {
	NotifyPaymentStatus(ctx context.Context, userID int64, message, link string) error
}

type Service struct {
	db       *gorm.DB
	repo     *Repository
	notifier UserNotifier
	logger   *slog.Logger
	now      func() time.Time
}

func NewService(db *gorm.DB, repo *Repository, notifier UserNotifier, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{db: db, repo: repo, notifier: notifier, logger: logger, now: time.Now}
}

func (s *Service) ListMine(ctx context.Context, userID int64) ([]Payment, error) {
	return s.repo.ListByUser(ctx, userID)
}

func (s *Service) ListByUser(ctx context.Context, userID int64) ([]Payment, error) {
	return s.repo.ListByUser(ctx, userID)
}

// Request marks the user's payment of type t as PENDING, creating the row on
// first use. A row already PENDING or PAID is left untouched.
func (s *Service) Request(ctx context.Context, userID int64, t Type, amount int64) (*Payment, error) {
	if !t.Valid() {
		return nil, ErrInvalidType
	}
	if amount < 0 {
		return nil, ErrInvalidAmount
	}

	var out Payment
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		p, err := repo.lockByUserAndType(ctx, userID, t)
		switch {
		case errors.Is(err, ErrPaymentNotFound):
			p = &Payment{UserID: userID, Type: t}
		case err != nil:
			return err
		case p.Status != StatusUnpaid:
			return ErrAlreadyRequested
		}

		p.Status = StatusPending
		p.Amount = amount
		p.ConfirmedAt = nil
		p.Comment = ""
		if err := repo.save(ctx, p); err != nil {
			return err
		}
		out = *p
		return nil
	})
	if err != nil {
		if dberr.IsUniqueViolation(err) {
			return nil, ErrAlreadyRequested
		}
		return nil, err
	}
	return &out, nil
}

// SetStatus is the admin review step. PAID stamps confirmed_at; any other
// status clears it. The owner is notified after commit.
func (s *Service) SetStatus(ctx context.Context, id int64, status Status, comment string) (*Payment, error) {
	if !status.Valid() {
		return nil, ErrInvalidStatus
	}

	var out Payment
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		p, err := repo.lockByID(ctx, id)
		if err != nil {
			return err
		}

		var confirmedAt *time.Time
		if status == StatusPaid {
			now := s.now().UTC()
			confirmedAt = &now
		}
		if err := repo.setStatus(ctx, id, status, confirmedAt, comment); err != nil {
			return err
		}

		p.Status = status
		p.ConfirmedAt = confirmedAt
		p.Comment = comment
		out = *p
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.notifier != nil {
		msg := fmt.Sprintf("Статус оплаты %s: %s", out.Type, out.Status)
		if err := s.notifier.NotifyPaymentStatus(ctx, out.UserID, msg, "/payments"); err != nil {
			s.logger.Warn("payment status notification failed",
				slog.Int64("payment_id", out.ID),
				slog.Int64("user_id", out.UserID),
				sl.Err(err),
			)
		}
	}
	return &out, nil
}
