package models

import (
	"time"
)

// Like attaches an account's like to a content variant.
// (AccountID, Kind, TargetID) is unique.
type Like struct {
	ID        uint        `gorm:"primaryKey" json:"id"`
	AccountID uint        `gorm:"not null;uniqueIndex:idx_likes_account_target" json:"account_id"`
	Kind      ContentKind `gorm:"type:varchar(16);not null;uniqueIndex:idx_likes_account_target;index:idx_likes_target" json:"kind"`
	TargetID  uint        `gorm:"not null;uniqueIndex:idx_likes_account_target;index:idx_likes_target" json:"target_id"`
	CreatedAt time.Time   `json:"created_at"`
}

// MaxCommentLength is the longest comment accepted.
const MaxCommentLength = 2000

// Comment is an account's comment on a content variant.
type Comment struct {
	ID        uint        `gorm:"primaryKey" json:"id"`
	AccountID uint        `gorm:"not null;index" json:"account_id"`
	Account   Account     `gorm:"foreignKey:AccountID;constraint:OnDelete:CASCADE" json:"account"`
	Kind      ContentKind `gorm:"type:varchar(16);not null;index:idx_comments_target" json:"kind"`
	TargetID  uint        `gorm:"not null;index:idx_comments_target" json:"target_id"`
	Content   string      `gorm:"type:text;not null" json:"content"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
}

// LikeState is the result of a like toggle.
type LikeState struct {
	Liked     bool  `json:"liked"`
	LikeCount int64 `json:"like_count"`
}
