package model

import "time"

// swagger:model Announcement
type Announcement struct {
	ID       uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID   uint      `gorm:"index;not null" json:"userId"`
	User     *User     `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Content  string    `gorm:"type:text;not null" json:"content"`
	PostedAt time.Time `gorm:"index;not null;<-:create" json:"postedAt"`
}

func (Announcement) TableName() string {
	return "announcements"
}
