package user

import "time"

type Role string

const (
	RoleStudent  Role = "STUDENT"
	RoleReviewer Role = "REVIEWER"
	RoleAdmin    Role = "ADMIN"
)

func (r Role) Valid() bool {
	switch r {
	case RoleStudent, RoleReviewer, RoleAdmin:
		return true
	}
	return false
}

// User is a member of the association. TargetLevel and TargetLockRank are
// owned by the target package; both are nil while the user is on the ladder.
type User struct {
	ID             int64     `json:"id" gorm:"primaryKey"`
	Email          string    `json:"email" gorm:"type:varchar(255);not null;uniqueIndex"`
	PasswordHash   string    `json:"-" gorm:"not null"`
	Name           string    `json:"name" gorm:"type:varchar(255);not null"`
	Role           Role      `json:"role" gorm:"type:varchar(16);not null;default:'STUDENT';index"`
	TargetLevel    *string   `json:"targetLevel" gorm:"column:target_level;type:varchar(16)"`
	TargetLockRank *int      `json:"targetLockRank" gorm:"column:target_lock_rank"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

func (User) TableName() string {
	return "users"
}

func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}
