// Package clock supplies the current time and converts it to a user's local
// calendar day.
package clock

import (
	"fmt"
	"time"

	"github.com/dukerupert/hearth/internal/model"
)

type Clock interface {
	Now() time.Time
}

type System struct{}

func (System) Now() time.Time { return time.Now() }

// Fixed always reports the same instant. Used in tests.
type Fixed time.Time

func (f Fixed) Now() time.Time { return time.Time(f) }

// LoadLocation resolves an IANA zone name, falling back to fallback when name
// is empty.
func LoadLocation(name, fallback string) (*time.Location, error) {
	if name == "" {
		name = fallback
	}
	if name == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", name, err)
	}
	return loc, nil
}

// LocalDate returns the calendar day of now in loc.
func LocalDate(now time.Time, loc *time.Location) model.Date {
	return model.DateOf(now.In(loc))
}
