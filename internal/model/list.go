package model

import (
	"fmt"
	"time"

	"github.com/guregu/null/v5"

	"github.com/dukerupert/hearth/internal/apperr"
)

type ListKind string

const (
	ListKindTodo     ListKind = "todo"
	ListKindShopping ListKind = "shopping"
)

func (k ListKind) Valid() bool {
	return k == ListKindTodo || k == ListKindShopping
}

type OwnerKind string

const (
	OwnerUser      OwnerKind = "user"
	OwnerHousehold OwnerKind = "household"
)

// Owner is the single owner of a list: a user or a household, never both.
type Owner struct {
	Kind OwnerKind `json:"kind"`
	ID   int64     `json:"id"`
}

func UserOwner(userID int64) Owner {
	return Owner{Kind: OwnerUser, ID: userID}
}

func HouseholdOwner(householdID int64) Owner {
	return Owner{Kind: OwnerHousehold, ID: householdID}
}

func (o Owner) IsHousehold() bool { return o.Kind == OwnerHousehold }

func (o Owner) String() string { return fmt.Sprintf("%s:%d", o.Kind, o.ID) }

// Columns splits the owner into the two nullable storage columns.
func (o Owner) Columns() (userID, householdID null.Int) {
	switch o.Kind {
	case OwnerUser:
		return null.IntFrom(o.ID), null.Int{}
	case OwnerHousehold:
		return null.Int{}, null.IntFrom(o.ID)
	}
	return null.Int{}, null.Int{}
}

// OwnerFromColumns rebuilds the owner from storage columns. Exactly one
// column must be set.
func OwnerFromColumns(userID, householdID null.Int) (Owner, error) {
	switch {
	case userID.Valid && !householdID.Valid:
		return UserOwner(userID.Int64), nil
	case householdID.Valid && !userID.Valid:
		return HouseholdOwner(householdID.Int64), nil
	}
	return Owner{}, fmt.Errorf("%w: user_id set=%t, household_id set=%t", apperr.ErrInvalidOwnership, userID.Valid, householdID.Valid)
}

type List struct {
	ID         int64     `json:"id"`
	Kind       ListKind  `json:"kind"`
	Title      string    `json:"title"`
	Icon       string    `json:"icon"`
	Owner      Owner     `json:"owner"`
	AllMembers bool      `json:"all_members"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}
