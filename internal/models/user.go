// Package models contains data structures for the application's domain models.
package models

import (
	"time"
)

// User is an account that can own posts and react to other users' posts.
type User struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	Username   string    `gorm:"size:150;uniqueIndex;not null" json:"username"`
	Email      string    `gorm:"size:254" json:"-"`
	Password   string    `gorm:"not null" json:"-"`
	IsActive   bool      `gorm:"not null;default:true" json:"-"`
	IsStaff    bool      `gorm:"not null;default:false" json:"-"`
	DateJoined time.Time `gorm:"autoCreateTime" json:"-"`

	Profile  *Profile  `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	Posts    []Post    `gorm:"foreignKey:OwnerID;constraint:OnDelete:CASCADE" json:"-"`
	Sessions []Session `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
}

// UserSummary is the public shape of a user returned by the account endpoints.
type UserSummary struct {
	ID       uint   `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

// UserRef is the view of a user shown on other people's content. It never
// carries contact details.
type UserRef struct {
	ID       uint   `json:"id"`
	Username string `json:"username"`
}

// Ref returns the public reference to the user.
func (u *User) Ref() UserRef {
	return UserRef{ID: u.ID, Username: u.Username}
}

// Summary returns the public fields of the user.
func (u *User) Summary() UserSummary {
	return UserSummary{ID: u.ID, Username: u.Username, Email: u.Email}
}
