package lists

import (
	"fmt"

	"github.com/dukerupert/hearth/internal/apperr"
	"github.com/dukerupert/hearth/internal/model"
)

// ValidateOwner accepts a proposed (user, household) owner pair and returns
// the owner iff exactly one side is set.
func ValidateOwner(userID, householdID *int64) (model.Owner, error) {
	switch {
	case userID != nil && householdID == nil:
		return model.UserOwner(*userID), nil
	case userID == nil && householdID != nil:
		return model.HouseholdOwner(*householdID), nil
	case userID == nil:
		return model.Owner{}, fmt.Errorf("%w: a list needs a user or a household owner", apperr.ErrInvalidOwnership)
	default:
		return model.Owner{}, fmt.Errorf("%w: a list cannot be owned by both a user and a household", apperr.ErrInvalidOwnership)
	}
}

// CheckOwnerUnchanged rejects an update that names an owner different from
// current. Leaving both fields unset proposes no change.
func CheckOwnerUnchanged(current model.Owner, userID, householdID *int64) error {
	if userID == nil && householdID == nil {
		return nil
	}
	proposed, err := ValidateOwner(userID, householdID)
	if err != nil || proposed != current {
		return fmt.Errorf("%w: list is owned by %s", apperr.ErrImmutableOwnership, current)
	}
	return nil
}
