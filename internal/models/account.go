// Package models contains data structures for the application's domain models.
package models

import (
	"time"
)

// ProfileRole describes what kind of member an account is.
type ProfileRole string

const (
	// RoleArtist is the default role for new accounts.
	RoleArtist ProfileRole = "artist"
	// RoleCollector marks collectors.
	RoleCollector ProfileRole = "collector"
	// RoleGallery marks galleries and venues.
	RoleGallery ProfileRole = "gallery"
)

// Valid reports whether r is one of the known roles.
func (r ProfileRole) Valid() bool {
	switch r {
	case RoleArtist, RoleCollector, RoleGallery:
		return true
	}
	return false
}

// MaxBioLength is the longest profile bio accepted.
const MaxBioLength = 1500

// Account is a registered member of the platform.
type Account struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Username  string    `gorm:"uniqueIndex;size:150;not null" json:"username"`
	Email     string    `gorm:"uniqueIndex;size:254;not null" json:"-"`
	Password  string    `gorm:"not null" json:"-"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Profile *Profile `gorm:"foreignKey:AccountID;constraint:OnDelete:CASCADE" json:"profile,omitempty"`
}

// Profile holds the public presentation of an account.
type Profile struct {
	AccountID uint        `gorm:"primaryKey;autoIncrement:false" json:"account_id"`
	Role      ProfileRole `gorm:"type:varchar(20);not null;default:'artist'" json:"role"`
	Bio       string      `gorm:"type:text" json:"bio"`
	ImageURL  string      `json:"image_url"`
	JoinedAt  time.Time   `gorm:"not null" json:"joined_at"`
}

// AccountSummary is the compact owner view embedded in feed items, comments
// and lists.
type AccountSummary struct {
	ID       uint   `json:"id"`
	Username string `json:"username"`
	ImageURL string `json:"image_url,omitempty"`
}

// Summary returns the compact view of a.
func (a Account) Summary() AccountSummary {
	s := AccountSummary{ID: a.ID, Username: a.Username}
	if a.Profile != nil {
		s.ImageURL = a.Profile.ImageURL
	}
	return s
}

// ProfileStats are the follow and post counters shown on a profile.
type ProfileStats struct {
	Followers int64 `json:"followers_count"`
	Following int64 `json:"following_count"`
	Posts     int64 `json:"posts_count"`
}

// ProfileView is the public profile page of an account as seen by a viewer.
type ProfileView struct {
	ID          uint         `json:"id"`
	Username    string       `json:"username"`
	Role        ProfileRole  `json:"role"`
	Bio         string       `json:"bio"`
	ImageURL    string       `json:"image_url"`
	JoinedAt    time.Time    `json:"joined_at"`
	Stats       ProfileStats `json:"stats"`
	IsSelf      bool         `json:"is_self"`
	IsFollowing bool         `json:"is_following"`
	FollowsYou  bool         `json:"follows_you"`
}
