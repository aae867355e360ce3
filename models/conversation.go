package models

import "time"

// Conversation is a 2-party thread. The canonicalized pair carries a
// unique index so concurrent creates collapse to a single row.
type Conversation struct {
	ID         int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	UserLowID  int64     `gorm:"uniqueIndex:conversations_pair_key,priority:1" json:"user_low_id"`
	UserHighID int64     `gorm:"uniqueIndex:conversations_pair_key,priority:2" json:"user_high_id"`
	CreatedAt  time.Time `json:"created_at"`
}

func (Conversation) TableName() string {
	return "conversations"
}

type ConversationParticipant struct {
	ID             int64 `gorm:"primaryKey;autoIncrement" json:"id"`
	ConversationID int64 `gorm:"index:conversation_user_idx,unique,priority:1" json:"conversation_id"`
	UserID         int64 `gorm:"index:conversation_user_idx,unique,priority:2;index" json:"user_id"`
}

func (ConversationParticipant) TableName() string {
	return "conversation_participants"
}

// ConversationRead is the viewer's last-read marker for a conversation.
type ConversationRead struct {
	ID             int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	ConversationID int64     `gorm:"index:conversation_read_idx,unique,priority:1" json:"conversation_id"`
	UserID         int64     `gorm:"index:conversation_read_idx,unique,priority:2" json:"user_id"`
	LastReadAt     time.Time `json:"last_read_at"`
}

func (ConversationRead) TableName() string {
	return "conversation_reads"
}
