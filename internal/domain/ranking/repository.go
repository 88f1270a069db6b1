package ranking

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"certhub/internal/pkg/dberr"
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

func (r *Repository) List(ctx context.Context) ([]Group, error) {
	var groups []Group
	err := r.db.WithContext(ctx).Order("rank ASC").Find(&groups).Error
	return groups, err
}

func (r *Repository) Create(ctx context.Context, g *Group) error {
	if err := r.db.WithContext(ctx).Create(g).Error; err != nil {
		if dberr.IsUniqueViolation(err) {
			return ErrGroupExists
		}
		return err
	}
	return nil
}

func (r *Repository) GetByIDs(ctx context.Context, ids []int64) ([]Group, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var groups []Group
	err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&groups).Error
	return groups, err
}

// GetGroupRankByName returns ErrGroupNotFound when no group carries name.
func (r *Repository) GetGroupRankByName(ctx context.Context, name string) (int, error) {
	var g Group
	if err := r.db.WithContext(ctx).Where("name = ?", name).First(&g).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, ErrGroupNotFound
		}
		return 0, err
	}
	return g.Rank, nil
}

// GetUserGroupsAndRanks lists the user's groups, most senior first.
func (r *Repository) GetUserGroupsAndRanks(ctx context.Context, userID int64) ([]GroupRank, error) {
	var rows []GroupRank
	err := r.db.WithContext(ctx).
		Table("user_groups AS ug").
		Select("g.id AS group_id, g.name AS name, g.rank AS rank").
		Joins("JOIN member_groups g ON g.id = ug.group_id").
		Where("ug.user_id = ?", userID).
		Order("g.rank DESC").
		Scan(&rows).Error
	return rows, err
}

func (r *Repository) ActiveRank(ctx context.Context, userID int64) (int, error) {
	groups, err := r.GetUserGroupsAndRanks(ctx, userID)
	if err != nil {
		return 0, err
	}
	return ActiveRank(groups), nil
}

// ReplaceUserGroups swaps the user's memberships for groupIDs.
func (r *Repository) ReplaceUserGroups(ctx context.Context, userID int64, groupIDs []int64) error {
	db := r.db.WithContext(ctx)
	if err := db.Where("user_id = ?", userID).Delete(&Membership{}).Error; err != nil {
		return err
	}
	if len(groupIDs) == 0 {
		return nil
	}

	rows := make([]Membership, 0, len(groupIDs))
	for _, id := range groupIDs {
		rows = append(rows, Membership{UserID: userID, GroupID: id})
	}
	return db.Create(&rows).Error
}

// AddMembership is idempotent. ON CONFLICT keeps a PostgreSQL transaction
// usable when the row already exists.
func (r *Repository) AddMembership(ctx context.Context, userID, groupID int64) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&Membership{UserID: userID, GroupID: groupID}).Error
}

func (r *Repository) RemoveMembership(ctx context.Context, userID, groupID int64) error {
	return r.db.WithContext(ctx).
		Where("user_id = ? AND group_id = ?", userID, groupID).
		Delete(&Membership{}).Error
}
