package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// DateLayout is the wire format of Post.DueDate.
const DateLayout = "2006-01-02"

// Post is a fundraising request published by its owner.
type Post struct {
	ID              uint       `gorm:"primaryKey" json:"id"`
	OwnerID         uint       `gorm:"not null;index" json:"owner"`
	Owner           *User      `gorm:"foreignKey:OwnerID" json:"-"`
	OwnerDetail     *UserRef   `gorm:"-" json:"owner_detail,omitempty"`
	Title           string     `gorm:"size:200;not null" json:"title"`
	DueDate         time.Time  `gorm:"type:date;not null" json:"due_date"`
	Description     string     `gorm:"type:text;not null" json:"description"`
	Active          bool       `gorm:"not null;default:true;index" json:"active"`
	Verified        bool       `gorm:"not null;default:false" json:"verified"`
	VerifiedAt      *time.Time `json:"verified_at"`
	RequiredAmount  int64      `gorm:"not null" json:"required_amount"`
	CollectedAmount int64      `gorm:"not null;default:0" json:"collected_amount"`
	CreatedAt       time.Time  `json:"created_at"`
	ModifiedAt      time.Time  `gorm:"autoUpdateTime" json:"modified_at"`

	Likes    []Like    `gorm:"foreignKey:PostID;constraint:OnDelete:CASCADE" json:"-"`
	Dislikes []Dislike `gorm:"foreignKey:PostID;constraint:OnDelete:CASCADE" json:"-"`
	Comments []Comment `gorm:"foreignKey:PostID;constraint:OnDelete:CASCADE" json:"-"`

	// LikesCount is not persisted; computed at query time
	LikesCount int64 `gorm:"->;-:migration" json:"likes_count"`
	// DislikesCount is not persisted; computed at query time
	DislikesCount int64 `gorm:"->;-:migration" json:"dislikes_count"`
	// CommentsCount counts enabled comments only
	CommentsCount int64 `gorm:"->;-:migration" json:"comments_count"`
	// Progress is collected/required as a percentage with two decimal places
	Progress string `gorm:"-" json:"progress"`
}

// AfterFind fills the derived funding progress and the public owner view.
func (p *Post) AfterFind(_ *gorm.DB) error {
	p.ComputeProgress()
	if p.Owner != nil {
		ref := p.Owner.Ref()
		p.OwnerDetail = &ref
	}
	return nil
}

// ComputeProgress sets Progress from the current amounts, rounded to two places.
// Collected amounts above the target are reported as-is (over 100).
func (p *Post) ComputeProgress() {
	if p.RequiredAmount <= 0 {
		p.Progress = decimal.Zero.StringFixed(2)
		return
	}
	p.Progress = decimal.NewFromInt(p.CollectedAmount).
		Mul(decimal.NewFromInt(100)).
		Div(decimal.NewFromInt(p.RequiredAmount)).
		StringFixed(2)
}

// OwnedBy reports whether userID owns the post.
func (p *Post) OwnedBy(userID uint) bool {
	return userID != 0 && p.OwnerID == userID
}

// VisibleTo reports whether the post may be shown to userID. Inactive posts
// are visible to their owner only.
func (p *Post) VisibleTo(userID uint) bool {
	return p.Active || p.OwnedBy(userID)
}
