package models

import "time"

// Comment is a user's text reply on a post. Once Disabled it stays hidden.
type Comment struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	PostID    uint      `gorm:"not null;index" json:"post"`
	UserID    uint      `gorm:"not null;index" json:"user"`
	User      *User     `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	Username  string    `gorm:"->;-:migration" json:"username,omitempty"`
	Body      string    `gorm:"type:text;not null" json:"body"`
	Disabled  bool      `gorm:"not null;default:false;index" json:"disabled"`
	CreatedAt time.Time `json:"created_at"`
}
