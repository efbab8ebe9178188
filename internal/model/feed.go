package model

import "time"

// FeedItem is a media post shown on the public storefront carousel.
type FeedItem struct {
	ID          int64     `json:"id"`
	Type        string    `json:"type"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	URL         string    `json:"url"`
	CreatedAt   time.Time `json:"created_at"`
}

// Feed media types.
const (
	FeedTypeImage = "image"
	FeedTypeVideo = "video"
)
