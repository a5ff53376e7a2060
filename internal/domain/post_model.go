package domain

import "time"

// Post is the minimal shape the public read endpoints need. Content
// management happens elsewhere; the backend only lists, counts views and
// records likes.
type Post struct {
	ID      uint   `gorm:"primaryKey;autoIncrement"`
	Title   string `gorm:"size:255;not null"`
	Body    string `gorm:"type:text;not null;default:''"`
	UserID  uint   `gorm:"not null;index"`
	Views  uint64 `gorm:"not null;default:0"`
	Likes  uint64 `gorm:"not null;default:0"`
	// No column default here: gorm drops zero-value fields that carry one,
	// which would silently store a draft as published.
	Publish bool `gorm:"not null"`

	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

// PostLike deduplicates likes per user and post.
type PostLike struct {
	ID     uint64 `gorm:"primaryKey;autoIncrement"`
	PostID uint   `gorm:"not null;uniqueIndex:idx_post_like"`
	UserID uint   `gorm:"not null;uniqueIndex:idx_post_like"`

	CreatedAt time.Time `gorm:"autoCreateTime"`
}
