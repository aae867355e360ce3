package models

import "time"

// Block is a directed suppression edge. Only current state is kept,
// there is no history of past blocks.
type Block struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	BlockerID int64     `gorm:"index:blocks_pair_key,unique,priority:1" json:"blocker_id"`
	BlockedID int64     `gorm:"index:blocks_pair_key,unique,priority:2" json:"blocked_id"`
	CreatedAt time.Time `json:"created_at"`
}

func (Block) TableName() string {
	return "blocks"
}
