// Package apperr holds the error taxonomy shared by the list kernel, the
// check-in ledger and the HTTP layer. Callers match with errors.Is.
package apperr

import (
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"
)

var (
	ErrInvalidOwnership    = errors.New("invalid ownership")
	ErrImmutableOwnership  = errors.New("immutable ownership")
	ErrForeignMember       = errors.New("foreign member")
	ErrDuplicateName       = errors.New("duplicate name")
	ErrEmptyReorderRequest = errors.New("empty reorder request")
	ErrNotFound            = errors.New("not found")
	ErrConstraintRace      = errors.New("constraint race")
	ErrForbidden           = errors.New("forbidden")
	ErrInvalidInput        = errors.New("invalid input")
)

// ForeignMemberError reports the user ids that are not members of the list's
// owning household.
type ForeignMemberError struct {
	HouseholdID int64
	UserIDs     []int64
}

func NewForeignMemberError(householdID int64, userIDs []int64) *ForeignMemberError {
	ids := slices.Clone(userIDs)
	slices.Sort(ids)
	return &ForeignMemberError{HouseholdID: householdID, UserIDs: slices.Compact(ids)}
}

func (e *ForeignMemberError) Error() string {
	parts := make([]string, len(e.UserIDs))
	for i, id := range e.UserIDs {
		parts[i] = strconv.FormatInt(id, 10)
	}
	return fmt.Sprintf("foreign member: users [%s] do not belong to household %d", strings.Join(parts, ", "), e.HouseholdID)
}

func (e *ForeignMemberError) Is(target error) bool {
	return target == ErrForeignMember
}

// Invalid wraps ErrInvalidInput with a caller-facing message.
func Invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}
