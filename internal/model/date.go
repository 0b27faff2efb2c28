package model

import (
	"fmt"
	"strings"
	"time"
)

// DateFormat is the stored text form of a trading day.
const DateFormat = "2006-01-02"

// legacyDateFormat is the day/month/year form accepted on input.
const legacyDateFormat = "02/01/2006"

// DefaultWindow is the trailing window used when no start date is given.
const DefaultWindow = 30 * 24 * time.Hour

// Day truncates t to its calendar day at UTC midnight.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// FormatDate renders a day in DateFormat.
func FormatDate(t time.Time) string { return t.Format(DateFormat) }

// ParseDate accepts YYYY-MM-DD or DD/MM/YYYY.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	layout := DateFormat
	if strings.Contains(s, "/") {
		layout = legacyDateFormat
	}
	t, err := time.Parse(layout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, want %s or %s: %w", s, DateFormat, legacyDateFormat, ErrValidation)
	}
	return Day(t), nil
}

// ResolveRange turns optional user input into a concrete [start, end] range.
// An empty end means today; an empty start means DefaultWindow before end.
// today is supplied by the caller so no default is captured at init time.
func ResolveRange(startText, endText string, today time.Time) (start, end time.Time, err error) {
	end = Day(today)
	if endText != "" {
		if end, err = ParseDate(endText); err != nil {
			return
		}
	}
	start = Day(end.Add(-DefaultWindow))
	if startText != "" {
		if start, err = ParseDate(startText); err != nil {
			return
		}
	}
	err = CheckRange(start, end)
	return
}

// CheckRange rejects ranges whose start falls after their end.
func CheckRange(start, end time.Time) error {
	if Day(start).After(Day(end)) {
		return fmt.Errorf("start %s is after end %s: %w", FormatDate(start), FormatDate(end), ErrValidation)
	}
	return nil
}
