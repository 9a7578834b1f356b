package models

import "time"

// Gender codes accepted on a profile.
const (
	GenderMale   = "M"
	GenderFemale = "F"
	GenderOther  = "O"
)

// Profile holds optional personal details for a user. A user has at most one.
type Profile struct {
	ID               uint       `gorm:"primaryKey" json:"id"`
	UserID           uint       `gorm:"not null;uniqueIndex" json:"user"`
	DOB              *time.Time `gorm:"type:date" json:"dob"`
	Phone            string     `gorm:"size:15" json:"phone"`
	PhoneAlt         string     `gorm:"size:15" json:"phone_alt"`
	Gender           string     `gorm:"size:1" json:"gender"`
	IsStudent        bool       `gorm:"not null;default:false" json:"is_student"`
	WorkplaceName    string     `gorm:"size:100" json:"workplace_name"`
	WorkplaceAddress string     `gorm:"type:text" json:"workplace_address"`
	Address          string     `gorm:"type:text" json:"address"`
	City             string     `gorm:"size:30" json:"city"`
	State            string     `gorm:"size:30" json:"state"`
	Zipcode          string     `gorm:"size:10" json:"zipcode"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}
