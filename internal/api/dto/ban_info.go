package dto

import "time"

type BanInfo struct {
	ID              uint64     `json:"id"`
	IP              string     `json:"ip"`
	Reason          string     `json:"reason"`
	ExpiresAt       *time.Time `json:"expires_at"`
	IsPermanent     bool       `json:"is_permanent"`
	OccurrenceCount uint32     `json:"occurrence_count"`
	CountryCode     string     `json:"country_code,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
}

type BanRequest struct {
	IP              string `json:"ip"`
	Reason          string `json:"reason"`
	DurationSeconds uint32 `json:"duration_seconds"`
	Permanent       bool   `json:"permanent"`
}
