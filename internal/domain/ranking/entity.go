package ranking

import "time"

// Group is a certification tier. Rank strictly orders groups; a higher
// rank is more senior.
type Group struct {
	ID        int64     `json:"id" gorm:"primaryKey"`
	Name      string    `json:"name" gorm:"type:varchar(128);not null;uniqueIndex"`
	Rank      int       `json:"rank" gorm:"not null;uniqueIndex"`
	CreatedAt time.Time `json:"created_at"`
}

func (Group) TableName() string {
	return "member_groups"
}

// Membership is one row per (user, group) pair.
type Membership struct {
	UserID    int64     `json:"user_id" gorm:"primaryKey;autoIncrement:false"`
	GroupID   int64     `json:"group_id" gorm:"primaryKey;autoIncrement:false;index"`
	CreatedAt time.Time `json:"created_at"`

	Group *Group `json:"group,omitempty" gorm:"foreignKey:GroupID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

func (Membership) TableName() string {
	return "user_groups"
}

// GroupRank is a membership flattened to what rank computations need.
type GroupRank struct {
	GroupID int64  `json:"groupId" gorm:"column:group_id"`
	Name    string `json:"name" gorm:"column:name"`
	Rank    int    `json:"rank" gorm:"column:rank"`
}

// ActiveRank is the highest rank among groups, or 0 without memberships.
func ActiveRank(groups []GroupRank) int {
	active := 0
	for _, g := range groups {
		if g.Rank > active {
			active = g.Rank
		}
	}
	return active
}
