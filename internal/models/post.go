package models

import (
	"time"
)

// ContentKind tags a content variant for likes, comments and feed items.
type ContentKind string

const (
	// KindPost tags an ImagePost.
	KindPost ContentKind = "post"
	// KindVerbal tags a TextPost.
	KindVerbal ContentKind = "verbal"
)

// ContentKinds lists every kind in a stable order.
var ContentKinds = []ContentKind{KindPost, KindVerbal}

// Valid reports whether k is a known content kind.
func (k ContentKind) Valid() bool {
	switch k {
	case KindPost, KindVerbal:
		return true
	}
	return false
}

// ParseContentKind converts a route or payload value into a ContentKind.
func ParseContentKind(raw string) (ContentKind, error) {
	k := ContentKind(raw)
	if !k.Valid() {
		return "", NewValidationError("unknown content kind: " + raw)
	}
	return k, nil
}

// Content is implemented by every variant that can be liked or commented on.
type Content interface {
	Kind() ContentKind
	ContentID() uint
	OwnerID() uint
}

// KindFor returns the tag of a content variant.
func KindFor(c Content) ContentKind {
	return c.Kind()
}

// MaxTextPostLength is the longest TextPost body accepted.
const MaxTextPostLength = 280

// ImagePost is an image with a caption.
type ImagePost struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	AccountID uint      `gorm:"not null;index" json:"account_id"`
	Account   Account   `gorm:"foreignKey:AccountID;constraint:OnDelete:CASCADE" json:"account"`
	ImageURL  string    `gorm:"not null" json:"image_url"`
	Caption   string    `gorm:"type:text" json:"caption"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (p *ImagePost) Kind() ContentKind { return KindPost }
func (p *ImagePost) ContentID() uint   { return p.ID }
func (p *ImagePost) OwnerID() uint     { return p.AccountID }

// TextPost is a short text-only post.
type TextPost struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	AccountID uint      `gorm:"not null;index" json:"account_id"`
	Account   Account   `gorm:"foreignKey:AccountID;constraint:OnDelete:CASCADE" json:"account"`
	Content   string    `gorm:"size:280;not null" json:"content"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (p *TextPost) Kind() ContentKind { return KindVerbal }
func (p *TextPost) ContentID() uint   { return p.ID }
func (p *TextPost) OwnerID() uint     { return p.AccountID }
