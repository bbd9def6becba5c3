package models

import (
	"time"
)

// ImagePayload is the variant payload of an image post feed item.
type ImagePayload struct {
	ImageURL string `json:"image_url"`
	Caption  string `json:"caption"`
}

// TextPayload is the variant payload of a text post feed item.
type TextPayload struct {
	Content string `json:"content"`
}

// FeedItem is one entry of a merged feed. Exactly one of Image or Text is set,
// matching Kind.
type FeedItem struct {
	ID           uint           `json:"id"`
	Kind         ContentKind    `json:"kind"`
	Owner        AccountSummary `json:"owner"`
	CreatedAt    time.Time      `json:"created_at"`
	LikeCount    int64          `json:"like_count"`
	CommentCount int64          `json:"comment_count"`
	IsLiked      bool           `json:"is_liked"`
	Image        *ImagePayload  `json:"image,omitempty"`
	Text         *TextPayload   `json:"text,omitempty"`
}
