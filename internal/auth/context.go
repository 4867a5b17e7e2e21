package auth

import (
	"context"

	"github.com/guregu/null/v5"
)

type contextKey struct{}

// Actor is the already-authenticated caller of a kernel operation. The
// household is a snapshot taken when the request was accepted; services
// re-read it inside their transaction before relying on it.
type Actor struct {
	UserID      int64
	HouseholdID null.Int
}

func WithActor(ctx context.Context, a Actor) context.Context {
	return context.WithValue(ctx, contextKey{}, a)
}

func FromContext(ctx context.Context) (Actor, bool) {
	a, ok := ctx.Value(contextKey{}).(Actor)
	return a, ok
}

func UserID(ctx context.Context) int64 {
	a, ok := FromContext(ctx)
	if !ok {
		return 0
	}
	return a.UserID
}

func HouseholdID(ctx context.Context) int64 {
	a, ok := FromContext(ctx)
	if !ok || !a.HouseholdID.Valid {
		return 0
	}
	return a.HouseholdID.Int64
}
