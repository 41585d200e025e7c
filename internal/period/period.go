// Package period handles the weekly batch identifiers that partition the
// paper ledger. A period is an ISO week written as "YYYY-WW" (e.g. "2026-03");
// the upstream paper listing addresses the same week as "YYYY-WNN".
package period

import (
	"fmt"
	"regexp"
	"time"
)

var weekPattern = regexp.MustCompile(`^(\d{4})-(\d{2})$`)

// ID is a validated week identifier in "YYYY-WW" form.
type ID struct {
	Year int
	Week int
}

// Parse validates and decomposes a week identifier.
func Parse(value string) (ID, error) {
	match := weekPattern.FindStringSubmatch(value)
	if match == nil {
		return ID{}, fmt.Errorf("period %q: expected YYYY-WW", value)
	}
	var id ID
	if _, err := fmt.Sscanf(value, "%d-%d", &id.Year, &id.Week); err != nil {
		return ID{}, fmt.Errorf("period %q: %w", value, err)
	}
	if id.Week < 1 || id.Week > 53 {
		return ID{}, fmt.Errorf("period %q: week out of range", value)
	}
	return id, nil
}

// IsValid reports whether value parses as a week identifier.
func IsValid(value string) bool {
	_, err := Parse(value)
	return err == nil
}

// String renders the canonical "YYYY-WW" form.
func (id ID) String() string {
	return fmt.Sprintf("%04d-%02d", id.Year, id.Week)
}

// ISOWeek renders the "YYYY-WNN" form used by the upstream listing URLs.
func (id ID) ISOWeek() string {
	return fmt.Sprintf("%04d-W%02d", id.Year, id.Week)
}

// Monday returns the Monday that starts the ISO week. ISO week 1 is the week
// containing January 4th.
func (id ID) Monday() time.Time {
	jan4 := time.Date(id.Year, time.January, 4, 0, 0, 0, 0, time.UTC)
	weekday := int(jan4.Weekday())
	if weekday == 0 {
		weekday = 7
	}
	startOfWeek1 := jan4.AddDate(0, 0, -(weekday - 1))
	return startOfWeek1.AddDate(0, 0, (id.Week-1)*7)
}

// Dates returns the seven "YYYY-MM-DD" dates of the week, Monday first.
func (id ID) Dates() []string {
	monday := id.Monday()
	dates := make([]string, 0, 7)
	for i := 0; i < 7; i++ {
		dates = append(dates, monday.AddDate(0, 0, i).Format("2006-01-02"))
	}
	return dates
}

// Current returns the identifier for the ISO week containing now.
func Current(now time.Time) ID {
	year, week := now.ISOWeek()
	return ID{Year: year, Week: week}
}
