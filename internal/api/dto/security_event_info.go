package dto

import "time"

type SecurityEventInfo struct {
	ID          uint64    `json:"id"`
	IP          string    `json:"ip"`
	EventType   string    `json:"event_type"`
	Description string    `json:"description"`
	UserAgent   string    `json:"user_agent"`
	CountryCode string    `json:"country_code,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}
