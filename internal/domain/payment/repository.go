package payment

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{db: tx}
}

// ResetPayments moves every row of userID whose type is in types and whose
// status is in statuses back to UNPAID, clearing confirmed_at. It returns
// the number of rows changed.
func (r *Repository) ResetPayments(ctx context.Context, userID int64, types []Type, statuses []Status, comment string) (int64, error) {
	if len(types) == 0 || len(statuses) == 0 {
		return 0, nil
	}
	res := r.db.WithContext(ctx).
		Model(&Payment{}).
		Where("user_id = ? AND type IN ? AND status IN ?", userID, types, statuses).
		Updates(map[string]any{
			"status":       StatusUnpaid,
			"confirmed_at": nil,
			"comment":      comment,
		})
	return res.RowsAffected, res.Error
}

func (r *Repository) ListByUser(ctx context.Context, userID int64) ([]Payment, error) {
	var out []Payment
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).Order("id ASC").Find(&out).Error
	return out, err
}

func (r *Repository) GetByID(ctx context.Context, id int64) (*Payment, error) {
	var p Payment
	if err := r.db.WithContext(ctx).First(&p, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPaymentNotFound
		}
		return nil, err
	}
	return &p, nil
}

func (r *Repository) lockByUserAndType(ctx context.Context, userID int64, t Type) (*Payment, error) {
	var p Payment
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("user_id = ? AND type = ?", userID, t).
		First(&p).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPaymentNotFound
		}
		return nil, err
	}
	return &p, nil
}

func (r *Repository) lockByID(ctx context.Context, id int64) (*Payment, error) {
	var p Payment
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		First(&p).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPaymentNotFound
		}
		return nil, err
	}
	return &p, nil
}

func (r *Repository) save(ctx context.Context, p *Payment) error {
	return r.db.WithContext(ctx).Save(p).Error
}

func (r *Repository) setStatus(ctx context.Context, id int64, status Status, confirmedAt *time.Time, comment string) error {
	return r.db.WithContext(ctx).
		Model(&Payment{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"status":       status,
			"confirmed_at": confirmedAt,
			"comment":      comment,
		}).Error
}
