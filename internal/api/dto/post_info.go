package dto

import "time"

type PostInfo struct {
	ID        uint      `json:"id"`
	Title     string    `json:"title"`
	Body      string    `json:"body,omitempty"`
	Views     uint64    `json:"views"`
	Likes     uint64    `json:"likes"`
	CreatedAt time.Time `json:"created_at"`
}
