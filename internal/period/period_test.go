package period_test

import (
	"testing"
	"time"

	"apd/internal/period"
)

func TestParseValid(t *testing.T) {
	id, err := period.Parse("2026-03")
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if id.Year != 2026 || id.Week != 3 {
		t.Fatalf("unexpected id: %+v", id)
	}
	if got := id.String(); got != "2026-03" {
		t.Fatalf("String = %q", got)
	}
	if got := id.ISOWeek(); got != "2026-W03" {
		t.Fatalf("ISOWeek = %q", got)
	}
}

func TestParseRejectsDates(t *testing.T) {
	cases := []string{"2026-01-15", "2026", "26-01", "2026-00", "2026-54", ""}
	for _, value := range cases {
		if _, err := period.Parse(value); err == nil {
			t.Fatalf("expected error for %q", value)
		}
	}
}

func TestDatesCoverISOWeek(t *testing.T) {
	id := period.ID{Year: 2026, Week: 1}
	dates := id.Dates()
	if len(dates) != 7 {
		t.Fatalf("expected 7 dates, got %d", len(dates))
	}
	monday, err := time.Parse("2006-01-02", dates[0])
	if err != nil {
		t.Fatalf("parse monday: %v", err)
	}
	if monday.Weekday() != time.Monday {
		t.Fatalf("first date %s is not a Monday", dates[0])
	}
	year, week := monday.ISOWeek()
	if year != 2026 || week != 1 {
		t.Fatalf("monday %s maps to ISO week %d-%d", dates[0], year, week)
	}
}

func TestCurrentRoundTrips(t *testing.T) {
	now := time.Date(2026, time.January, 14, 12, 0, 0, 0, time.UTC)
	id := period.Current(now)
	if !period.IsValid(id.String()) {
		t.Fatalf("Current produced invalid id %q", id)
	}
}
