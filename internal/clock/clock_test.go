package clock

import (
	"testing"
	"time"

	"github.com/dukerupert/hearth/internal/model"
)

func TestLocalDateCrossesMidnight(t *testing.T) {
	// 23:30 UTC on March 9 is already March 10 in Berlin.
	now := time.Date(2025, 3, 9, 23, 30, 0, 0, time.UTC)
	berlin, err := LoadLocation("Europe/Berlin", "")
	if err != nil {
		t.Fatalf("load location: %v", err)
	}

	if got := LocalDate(now, time.UTC); got != (model.Date{Year: 2025, Month: 3, Day: 9}) {
		t.Errorf("utc date = %s, want 2025-03-09", got)
	}
	if got := LocalDate(now, berlin); got != (model.Date{Year: 2025, Month: 3, Day: 10}) {
		t.Errorf("berlin date = %s, want 2025-03-10", got)
	}
}

func TestLoadLocationFallback(t *testing.T) {
	loc, err := LoadLocation("", "America/New_York")
	if err != nil {
		t.Fatalf("load location: %v", err)
	}
	if loc.String() != "America/New_York" {
		t.Errorf("location = %s, want America/New_York", loc)
	}

	loc, err = LoadLocation("", "")
	if err != nil {
		t.Fatalf("load location: %v", err)
	}
	if loc != time.UTC {
		t.Errorf("location = %s, want UTC", loc)
	}

	if _, err := LoadLocation("Not/AZone", ""); err == nil {
		t.Error("expected error for unknown zone")
	}
}

func TestFixed(t *testing.T) {
	at := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	var c Clock = Fixed(at)
	if !c.Now().Equal(at) {
		t.Errorf("now = %v, want %v", c.Now(), at)
	}
}
