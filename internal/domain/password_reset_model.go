package domain

import "time"

// PasswordReset stores a single-use reset token per request. Tokens are kept
// hashed; the plain value only ever leaves the server inside the reset mail.
type PasswordReset struct {
	ID        uint64    `gorm:"primaryKey;autoIncrement"`
	UserID    uint      `gorm:"not null;index"`
	TokenHash string    `gorm:"size:64;uniqueIndex;not null"`
	ExpiresAt time.Time `gorm:"not null"`
	UsedAt    *time.Time

	CreatedAt time.Time `gorm:"autoCreateTime"`
}
