package model

import (
	"time"

	"github.com/guregu/null/v5"
)

const AnnouncementMaxLen = 120

type Announcement struct {
	ID          int64     `json:"id"`
	UserID      int64     `json:"user_id"`
	HouseholdID int64     `json:"household_id"`
	Text        string    `json:"text"`
	Pinned      bool      `json:"is_pinned"`
	PublishedAt null.Time `json:"published_at"`
	ExpiresAt   null.Time `json:"expires_at"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Expired reports whether the announcement's expiry is at or before now.
func (a *Announcement) Expired(now time.Time) bool {
	return a.ExpiresAt.Valid && !a.ExpiresAt.Time.After(now)
}
