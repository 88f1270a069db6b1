package target

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"gorm.io/gorm"

	"certhub/internal/domain/notification"
	"certhub/internal/domain/payment"
	"certhub/internal/domain/ranking"
	"certhub/internal/domain/user"
	"certhub/internal/metrics"
	"certhub/internal/pkg/sl"
)

// Payment types reset when the target is cleared, and when it is changed.
var (
	resetPathTypes = []payment.Type{
		payment.TypeDocumentReview,
		payment.TypeExamAccess,
		payment.TypeRegistration,
		payment.TypeFullPackage,
	}
	setPathTypes    = []payment.Type{payment.TypeExamAccess}
	settledStatuses = []payment.Status{payment.StatusPending, payment.StatusPaid}
)

const (
	resetComment  = "Reset automatically: target level was cleared"
	changeComment = "Reset automatically: target level was changed"
)

// AdminNotifier fans a message out to every administrator.
type AdminNotifier interface {
	NotifyAdmins(ctx context.Context, t notification.Type, message, link string) (int, error)
}

type Service struct {
	db       *gorm.DB
	users    *user.Repository
	groups   *ranking.Repository
	payments *payment.Repository
	notifier AdminNotifier
	logger   *slog.Logger
}

func NewService(
	db *gorm.DB,
	users *user.Repository,
	groups *ranking.Repository,
	payments *payment.Repository,
	notifier AdminNotifier,
	logger *slog.Logger,
) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		db:       db,
		users:    users,
		groups:   groups,
		payments: payments,
		notifier: notifier,
		logger:   logger,
	}
}

func authorize(actor Actor, userID int64) error {
	if actor.ID == 0 {
		return ErrUnauthorized
	}
	if actor.ID != userID && !actor.IsAdmin() {
		return ErrForbidden
	}
	return nil
}

// GetState returns the target of userID together with the active rank.
func (s *Service) GetState(ctx context.Context, actor Actor, userID int64) (*View, error) {
	if err := authorize(actor, userID); err != nil {
		return nil, err
	}

	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	active, err := s.groups.ActiveRank(ctx, userID)
	if err != nil {
		return nil, err
	}

	st := stateOf(u)
	return &View{State: st, ActiveRank: active, LockedNow: st.lockedAt(active)}, nil
}

// SetTarget sets the target of userID to requested, or clears it when
// requested is nil. The target and the payment resets it causes commit
// together; admins are notified after the commit.
func (s *Service) SetTarget(ctx context.Context, actor Actor, userID int64, requested *Level) (*Result, error) {
	if err := authorize(actor, userID); err != nil {
		return nil, err
	}
	if requested != nil && !requested.Valid() {
		return nil, ErrInvalidTargetLevel
	}

	var (
		out     Result
		changed bool
	)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		u, err := s.users.WithTx(tx).LockByID(ctx, userID)
		if err != nil {
			return err
		}

		groups := s.groups.WithTx(tx)
		active, err := groups.ActiveRank(ctx, userID)
		if err != nil {
			return err
		}

		if requested != nil {
			targetRank, err := groups.GetGroupRankByName(ctx, requested.GroupName())
			if errors.Is(err, ranking.ErrGroupNotFound) {
				s.logger.Error("target group is not configured",
					slog.String("level", string(*requested)),
					slog.String("group", requested.GroupName()),
				)
				return fmt.Errorf("%w: %s", ErrTargetGroupNotConfigured, requested.GroupName())
			}
			if err != nil {
				return err
			}
			if targetRank < active {
				return ErrTargetBelowActive
			}
		}

		current := stateOf(u)
		if current.satisfies(requested, active) {
			out = Result{State: current}
			return nil
		}
		if current.lockedAt(active) && !actor.IsAdmin() {
			return ErrTargetLocked
		}

		types, comment := resetPathTypes, resetComment
		next := State{ID: userID}
		if requested != nil {
			level, rank := *requested, active
			next.TargetLevel, next.TargetLockRank = &level, &rank
			types, comment = setPathTypes, changeComment
		}

		var levelCol *string
		if next.TargetLevel != nil {
			v := string(*next.TargetLevel)
			levelCol = &v
		}
		if err := s.users.WithTx(tx).UpdateTarget(ctx, userID, levelCol, next.TargetLockRank); err != nil {
			return err
		}

		reset, err := s.payments.WithTx(tx).ResetPayments(ctx, userID, types, settledStatuses, comment)
		if err != nil {
			return err
		}

		out = Result{State: next, ResetCount: reset}
		changed = true
		return nil
	})
	if err != nil {
		if isDomainError(err) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %w", ErrTransactionFailed, err)
	}
	if !changed {
		return &out, nil
	}

	kind := "set"
	if requested == nil {
		kind = "reset"
	}
	metrics.TargetTransitions.WithLabelValues(kind).Inc()
	metrics.PaymentsReset.WithLabelValues(kind).Add(float64(out.ResetCount))

	s.logger.Info("target level changed",
		slog.Int64("user_id", userID),
		slog.Int64("actor_id", actor.ID),
		slog.String("kind", kind),
		slog.Int64("payments_reset", out.ResetCount),
	)

	s.notifyAdmins(ctx, actor, out)
	return &out, nil
}

// notifyAdmins is best-effort. The change is already committed.
func (s *Service) notifyAdmins(ctx context.Context, actor Actor, res Result) {
	if s.notifier == nil {
		return
	}

	t := notification.TypeTargetLevelReset
	msg := fmt.Sprintf("User #%d target level cleared by user #%d; payments reset: %d",
		res.ID, actor.ID, res.ResetCount)
	if res.TargetLevel != nil {
		t = notification.TypeTargetLevelChanged
		msg = fmt.Sprintf("User #%d target level set to %s by user #%d; payments reset: %d",
			res.ID, *res.TargetLevel, actor.ID, res.ResetCount)
	}
	link := fmt.Sprintf("/admin/users/%d", res.ID)

	if _, err := s.notifier.NotifyAdmins(ctx, t, msg, link); err != nil {
		s.logger.Warn("failed to notify admins about target change",
			slog.Int64("user_id", res.ID),
			sl.Err(err),
		)
	}
}

// ReconcileRankChange clears the target of userID when the user's active
// rank no longer equals the lock rank. It runs on tx, which must hold the
// membership change that may have moved the rank, and reports whether the
// target was cleared.
func (s *Service) ReconcileRankChange(ctx context.Context, tx *gorm.DB, userID int64) (bool, error) {
	users := s.users.WithTx(tx)
	u, err := users.LockByID(ctx, userID)
	if err != nil {
		return false, err
	}
	if u.TargetLevel == nil && u.TargetLockRank == nil {
		return false, nil
	}

	active, err := s.groups.WithTx(tx).ActiveRank(ctx, userID)
	if err != nil {
		return false, err
	}
	if u.TargetLockRank != nil && *u.TargetLockRank == active {
		return false, nil
	}

	if err := users.UpdateTarget(ctx, userID, nil, nil); err != nil {
		return false, err
	}

	metrics.TargetTransitions.WithLabelValues("reconcile").Inc()
	s.logger.Info("target cleared after rank change",
		slog.Int64("user_id", userID),
		slog.Int("active_rank", active),
	)
	return true, nil
}
