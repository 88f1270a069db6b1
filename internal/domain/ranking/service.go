package ranking

import (
	"context"
	"log/slog"
	"strings"

	"gorm.io/gorm"

	"certhub/internal/domain/user"
)

// RankReconciler re-validates a user's target after their active rank may
// have changed. It runs on the caller's transaction.
type RankReconciler interface {
	ReconcileRankChange(ctx context.Context, tx *gorm.DB, userID int64) (bool, error)
}

type Service struct {
	db         *gorm.DB
	groups     *Repository
	users      *user.Repository
	reconciler RankReconciler
	logger     *slog.Logger
}

func NewService(db *gorm.DB, groups *Repository, users *user.Repository, reconciler RankReconciler, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		db:         db,
		groups:     groups,
		users:      users,
		reconciler: reconciler,
		logger:     logger,
	}
}

// UserGroups is the membership view returned after reads and mutations.
type UserGroups struct {
	UserID      int64       `json:"userId"`
	Groups      []GroupRank `json:"groups"`
	ActiveRank  int         `json:"activeRank"`
	TargetReset bool        `json:"targetReset"`
}

func (s *Service) ListGroups(ctx context.Context) ([]Group, error) {
	return s.groups.List(ctx)
}

func (s *Service) CreateGroup(ctx context.Context, name string, rank int) (*Group, error) {
	name = strings.TrimSpace(name)
	if name == "" || rank <= 0 {
		return nil, ErrInvalidGroup
	}
	g := &Group{Name: name, Rank: rank}
	if err := s.groups.Create(ctx, g); err != nil {
		return nil, err
	}
	return g, nil
}

func (s *Service) GetUserGroups(ctx context.Context, userID int64) (*UserGroups, error) {
	if _, err := s.users.GetByID(ctx, userID); err != nil {
		return nil, err
	}
	groups, err := s.groups.GetUserGroupsAndRanks(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &UserGroups{UserID: userID, Groups: groups, ActiveRank: ActiveRank(groups)}, nil
}

// SetUserGroups replaces the user's memberships with groupIDs.
func (s *Service) SetUserGroups(ctx context.Context, userID int64, groupIDs []int64) (*UserGroups, error) {
	ids := dedupe(groupIDs)
	return s.mutate(ctx, userID, ids, func(repo *Repository) error {
		return repo.ReplaceUserGroups(ctx, userID, ids)
	})
}

func (s *Service) AddUserToGroup(ctx context.Context, userID, groupID int64) (*UserGroups, error) {
	return s.mutate(ctx, userID, []int64{groupID}, func(repo *Repository) error {
		return repo.AddMembership(ctx, userID, groupID)
	})
}

func (s *Service) RemoveUserFromGroup(ctx context.Context, userID, groupID int64) (*UserGroups, error) {
	return s.mutate(ctx, userID, nil, func(repo *Repository) error {
		return repo.RemoveMembership(ctx, userID, groupID)
	})
}

// mutate runs change and the rank reconciliation in one transaction with
// the user row locked, so a concurrent target change sees either the old
// or the new membership, never a mix.
func (s *Service) mutate(ctx context.Context, userID int64, mustExist []int64, change func(repo *Repository) error) (*UserGroups, error) {
	var out UserGroups

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := s.users.WithTx(tx).LockByID(ctx, userID); err != nil {
			return err
		}

		repo := s.groups.WithTx(tx)
		if len(mustExist) > 0 {
			found, err := repo.GetByIDs(ctx, mustExist)
			if err != nil {
				return err
			}
			if len(found) != len(mustExist) {
				return ErrUnknownGroup
			}
		}

		if err := change(repo); err != nil {
			return err
		}

		reset := false
		if s.reconciler != nil {
			var err error
			reset, err = s.reconciler.ReconcileRankChange(ctx, tx, userID)
			if err != nil {
				return err
			}
		}

		groups, err := repo.GetUserGroupsAndRanks(ctx, userID)
		if err != nil {
			return err
		}

		out = UserGroups{UserID: userID, Groups: groups, ActiveRank: ActiveRank(groups), TargetReset: reset}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("user groups changed",
		slog.Int64("user_id", userID),
		slog.Int("active_rank", out.ActiveRank),
		slog.Bool("target_reset", out.TargetReset),
	)
	return &out, nil
}

func dedupe(ids []int64) []int64 {
	seen := make(map[int64]struct{}, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
