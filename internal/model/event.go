package model

import "time"

const EventTitleMaxLen = 120

type Event struct {
	ID          int64     `json:"id"`
	HouseholdID int64     `json:"household_id"`
	Title       string    `json:"title"`
	StartUTC    time.Time `json:"start_utc"`
	EndUTC      time.Time `json:"end_utc"`
	TZID        string    `json:"tzid"`
	CreatedAt   time.Time `json:"created_at"`
}
