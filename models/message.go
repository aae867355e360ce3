package models

import (
	"time"
)

// Message is immutable once created. Total order within a conversation
// is (created_at, id).
type Message struct {
	ID             int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	ConversationID int64     `gorm:"index:messages_conversation_created_idx,priority:1" json:"conversation_id"`
	SenderID       int64     `gorm:"index" json:"sender_id"`
	Content        string    `gorm:"type:text;not null" json:"content"`
	CreatedAt      time.Time `gorm:"index:messages_conversation_created_idx,priority:2" json:"created_at"`
}

func (Message) TableName() string {
	return "messages"
}
