package target

import "certhub/internal/domain/user"

// Actor is the authenticated caller. ID 0 means anonymous.
type Actor struct {
	ID   int64
	Role user.Role
}

func (a Actor) IsAdmin() bool {
	return a.Role == user.RoleAdmin
}

// State is the persisted target of one user. Both fields are nil on the ladder.
type State struct {
	ID             int64  `json:"id"`
	TargetLevel    *Level `json:"targetLevel"`
	TargetLockRank *int   `json:"targetLockRank"`
}

type Result struct {
	State
	ResetCount int64 `json:"resetCount"`
}

// View is State plus values derived from the user's current memberships.
type View struct {
	State
	ActiveRank int  `json:"activeRank"`
	LockedNow  bool `json:"lockedNow"`
}

func stateOf(u *user.User) State {
	s := State{ID: u.ID, TargetLockRank: u.TargetLockRank}
	if u.TargetLevel != nil {
		l := Level(*u.TargetLevel)
		s.TargetLevel = &l
	}
	return s
}

func (s State) lockedAt(activeRank int) bool {
	return s.TargetLevel != nil && s.TargetLockRank != nil && *s.TargetLockRank == activeRank
}

// satisfies reports whether s already is the outcome of requesting level at activeRank.
func (s State) satisfies(level *Level, activeRank int) bool {
	if level == nil {
		return s.TargetLevel == nil && s.TargetLockRank == nil
	}
	return s.TargetLevel != nil && *s.TargetLevel == *level && s.lockedAt(activeRank)
}
