package models

import "time"

// User is one row of the balance table. The column names match the table the
// first bot revision created, so existing databases migrate in place.
type User struct {
	// ID is the chat platform user ID. Externally issued, never generated here.
	ID string `gorm:"column:id;primaryKey;size:32" json:"id"`
	// Name is the display name, refreshed on awards and registration.
	Name string `gorm:"column:username;size:100" json:"name"`
	// Balance is the doubloon count. Never negative.
	Balance int64 `gorm:"column:doubloons;not null;default:0" json:"balance"`
	// Rank is always the tier label of Balance after a committed change.
	Rank string `gorm:"column:rank;size:32;not null;default:''" json:"rank"`

	CreatedAt time.Time `gorm:"column:created_at" json:"created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at;index" json:"updated_at"`
}

// TableName pins the table name used by every bot revision.
func (User) TableName() string {
	return "users"
}

// Columns lists the columns the store reads and writes.
var Columns = []string{"id", "username", "doubloons", "rank", "created_at", "updated_at"}

// Mutation is the outcome of one committed balance change.
type Mutation struct {
	UserID     string `json:"user_id"`
	Name       string `json:"name"`
	OldBalance int64  `json:"old_balance"`
	NewBalance int64  `json:"new_balance"`
	OldRank    string `json:"old_rank"`
	NewRank    string `json:"new_rank"`
	Created    bool   `json:"created"`
}

// RankChanged reports whether the change moved the user to another tier.
func (m Mutation) RankChanged() bool {
	return m.OldRank != m.NewRank
}
