package domain

import "time"

type ContactMessage struct {
	ID      uint64 `gorm:"primaryKey;autoIncrement"`
	Name    string `gorm:"size:100;not null"`
	Email   string `gorm:"size:255;not null"`
	Subject string `gorm:"size:255;not null;default:''"`
	Message string `gorm:"type:text;not null"`
	IP      string `gorm:"size:45;not null;default:''"`

	CreatedAt time.Time `gorm:"autoCreateTime"`
}
