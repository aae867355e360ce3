package models

import (
	"time"
)

type Profile struct {
	ID          int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	Nickname    string    `gorm:"size:60;uniqueIndex" json:"nickname"`
	DisplayName string    `gorm:"size:255" json:"display_name"`
	AvatarURL   string    `gorm:"size:512" json:"avatar_url"`
	Password    string    `gorm:"size:255" json:"-"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (Profile) TableName() string {
	return "profiles"
}

type UserToken struct {
	ID     int64  `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID int64  `gorm:"index:user_token_idx,unique" json:"user_id"`
	Token  string `gorm:"size:255;index:user_token_idx,unique" json:"token"`
}

func (UserToken) TableName() string {
	return "user_tokens"
}
