package models

import (
	"time"
)

// Message is a direct message between two accounts. Replies point at their
// parent.
type Message struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	SenderID    uint      `gorm:"not null;index" json:"sender_id"`
	Sender      Account   `gorm:"foreignKey:SenderID;constraint:OnDelete:CASCADE" json:"sender"`
	RecipientID uint      `gorm:"not null;index" json:"recipient_id"`
	Recipient   Account   `gorm:"foreignKey:RecipientID;constraint:OnDelete:CASCADE" json:"recipient"`
	Subject     string    `gorm:"size:255;not null" json:"subject"`
	Body        string    `gorm:"type:text;not null" json:"body"`
	IsRead      bool      `gorm:"not null;default:false" json:"is_read"`
	ParentID    *uint     `gorm:"index" json:"parent_id,omitempty"`
	Parent      *Message  `gorm:"foreignKey:ParentID;constraint:OnDelete:CASCADE" json:"-"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
