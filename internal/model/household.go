package model

import (
	"time"

	"github.com/guregu/null/v5"
)

type Household struct {
	ID         int64       `json:"id"`
	Name       string      `json:"name"`
	CreatorID  null.Int    `json:"creator_id"`
	InviteCode null.String `json:"invite_code"`
	CreatedAt  time.Time   `json:"created_at"`
	UpdatedAt  time.Time   `json:"updated_at"`
}

type User struct {
	ID          int64     `json:"id"`
	Email       string    `json:"email"`
	Name        string    `json:"name"`
	DisplayName string    `json:"display_name"`
	Timezone    string    `json:"timezone"`
	HouseholdID null.Int  `json:"household_id"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// InHousehold reports whether the user currently belongs to householdID.
func (u *User) InHousehold(householdID int64) bool {
	return u.HouseholdID.Valid && u.HouseholdID.Int64 == householdID
}
