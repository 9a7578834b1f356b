package models

import "time"

// ReactionKind names one of the two mutually exclusive reactions.
type ReactionKind string

const (
	ReactionLike    ReactionKind = "like"
	ReactionDislike ReactionKind = "dislike"
)

// Like records that a user endorsed a post.
type Like struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	PostID    uint      `gorm:"not null;uniqueIndex:idx_likes_post_user" json:"post"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_likes_post_user;index" json:"user"`
	User      *User     `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	CreatedAt time.Time `json:"created_at"`
}

// Dislike records that a user did not endorse a post.
type Dislike struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	PostID    uint      `gorm:"not null;uniqueIndex:idx_dislikes_post_user" json:"post"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_dislikes_post_user;index" json:"user"`
	User      *User     `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	CreatedAt time.Time `json:"created_at"`
}

// ReactionCounts is the aggregate returned by the likecount action.
type ReactionCounts struct {
	PostID   uint  `json:"post"`
	Likes    int64 `json:"likes"`
	Dislikes int64 `json:"dislikes"`
}

// UserReaction is the requester's own reaction state on a post.
type UserReaction struct {
	PostID   uint `json:"post"`
	Liked    bool `json:"liked"`
	Disliked bool `json:"disliked"`
}
