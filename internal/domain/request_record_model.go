package domain

import "time"

// RequestRecord tracks request activity per client IP. One row per IP; the
// counters are incremented atomically on every request. Each counter belongs
// to a window anchored at WindowStart: once that anchor is older than the
// configured window the next hit restarts the counter and the anchor, so
// steady traffic below the limit can never accumulate an unbounded count.
// Rows older than the tracking retention window are pruned.
type RequestRecord struct {
	ID uint64 `gorm:"primaryKey;autoIncrement"`

	// IP holds the client address string (IPv4 or IPv6).
	IP string `gorm:"size:45;uniqueIndex;not null"`

	RequestCount uint64    `gorm:"not null;default:1"`
	WindowStart  time.Time `gorm:"not null"`
	LastRequest  time.Time `gorm:"not null;index"`

	// POST hits are counted separately to detect form-submission bursts.
	PostCount       uint64 `gorm:"not null;default:0"`
	PostWindowStart *time.Time

	// Descriptive fields are last-write-wins.
	RequestMethod string `gorm:"size:10;not null;default:'GET'"`
	UserAgent     string `gorm:"size:255;not null;default:''"`
	RequestURI    string `gorm:"size:255;not null;default:''"`

	FirstSeenAt time.Time `gorm:"autoCreateTime"`
}
