package model

import (
	"slices"
	"time"
)

var Moods = []string{
	"happy", "content", "neutral", "tired", "stressed", "sick", "busy", "bored",
	"accomplished", "proud", "excited", "productive", "overwhelmed", "motivated",
	"cozy", "inspired",
}

func ValidMood(m string) bool {
	return slices.Contains(Moods, m)
}

type Mood struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	Mood      string    `json:"mood"`
	UpdatedAt time.Time `json:"updated_at"`
}
