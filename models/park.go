package models

import "time"

type Park struct {
	ID    int64  `gorm:"primaryKey;autoIncrement" json:"id"`
	Name  string `gorm:"size:255" json:"name"`
	State string `gorm:"size:60" json:"state"`
	City  string `gorm:"size:255" json:"city"`
}

func (Park) TableName() string {
	return "parks"
}

// Checkin records a user announcing presence at a park.
type Checkin struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID    int64     `gorm:"index" json:"user_id"`
	ParkID    int64     `gorm:"index" json:"park_id"`
	CreatedAt time.Time `json:"created_at"`
}

func (Checkin) TableName() string {
	return "checkins"
}

type Review struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	ParkID    int64     `gorm:"index" json:"park_id"`
	AuthorID  int64     `gorm:"index" json:"author_id"`
	Rating    int       `json:"rating"`
	Content   string    `gorm:"type:text" json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

func (Review) TableName() string {
	return "reviews"
}

type ReviewReply struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	ReviewID  int64     `gorm:"index" json:"review_id"`
	ReplierID int64     `json:"replier_id"`
	Content   string    `gorm:"type:text" json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

func (ReviewReply) TableName() string {
	return "review_replies"
}
