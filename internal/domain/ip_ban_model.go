package domain

import "time"

// IPBan blocks a client address from reaching page logic. The unique index on
// IP makes re-banning an upsert: reason and expiry are overwritten and
// OccurrenceCount is incremented instead of inserting a duplicate row.
type IPBan struct {
	ID uint64 `gorm:"primaryKey;autoIncrement"`

	IP string `gorm:"size:45;uniqueIndex;not null"`

	Reason string `gorm:"size:512;not null;default:''"`

	// ExpiresAt is ignored while IsPermanent is set.
	ExpiresAt   *time.Time
	IsPermanent bool `gorm:"not null;default:false"`

	OccurrenceCount uint32 `gorm:"not null;default:1"`

	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

// Active reports whether the ban still blocks requests at the given time.
func (b IPBan) Active(now time.Time) bool {
	if b.IsPermanent {
		return true
	}
	return b.ExpiresAt != nil && b.ExpiresAt.After(now)
}
