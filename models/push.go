package models

import "time"

// PushToken is one device delivery target. A user may have many.
type PushToken struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID    int64     `gorm:"index:push_token_idx,unique,priority:1" json:"user_id"`
	Token     string    `gorm:"size:255;index:push_token_idx,unique,priority:2" json:"token"`
	CreatedAt time.Time `json:"created_at"`
}

func (PushToken) TableName() string {
	return "push_tokens"
}

type Notification struct {
	ID          int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	RecipientID int64     `gorm:"index" json:"recipient_id"`
	Type        string    `gorm:"size:40" json:"type"`
	Data        string    `gorm:"type:text" json:"data"`
	Read        bool      `gorm:"default:false" json:"read"`
	CreatedAt   time.Time `json:"created_at"`
}

func (Notification) TableName() string {
	return "notifications"
}
