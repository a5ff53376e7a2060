package domain

import "time"

type ChatMessage struct {
	ID      uint64 `gorm:"primaryKey;autoIncrement"`
	UserID  uint   `gorm:"not null;index"`
	Message string `gorm:"size:1000;not null"`

	CreatedAt time.Time `gorm:"autoCreateTime;index"`
}
