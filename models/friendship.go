package models

import "time"

const (
	FriendshipPending  = "pending"
	FriendshipAccepted = "accepted"
)

// Friendship is the request/accept relation between two profiles.
// UserLowID/UserHighID hold the canonicalized pair (low < high) so the
// unique index allows at most one row per unordered pair.
type Friendship struct {
	ID          int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	RequesterID int64     `gorm:"index" json:"requester_id"`
	AddresseeID int64     `gorm:"index" json:"addressee_id"`
	UserLowID   int64     `gorm:"uniqueIndex:friendships_pair_key,priority:1" json:"-"`
	UserHighID  int64     `gorm:"uniqueIndex:friendships_pair_key,priority:2" json:"-"`
	Status      string    `gorm:"size:20" json:"status"`
	CreatedAt   time.Time `json:"created_at"`
	AcceptedAt  *time.Time `json:"accepted_at,omitempty"`
}

func (Friendship) TableName() string {
	return "friendships"
}
