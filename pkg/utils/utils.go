package utils

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// DateLayout is the calendar-date format used for every stored date.
const DateLayout = "2006-01-02"

var fallbackLayouts = []string{
	"02/01/2006",
	"2006-01-02T15:04:05",
}

// ParseDate parses a stored calendar date in loc. ISO dates, RFC 3339 timestamps and
// DD/MM/YYYY are accepted; the result is truncated to midnight.
func ParseDate(s string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.UTC
	}

	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("empty date")
	}

	if t, err := time.ParseInLocation(DateLayout, s, loc); err == nil {
		return t, nil
	}

	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return StartOfDay(t.In(loc)), nil
	}

	for _, layout := range fallbackLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return StartOfDay(t), nil
		}
	}

	return time.Time{}, fmt.Errorf("unrecognised date %q", s)
}

// FormatDate renders t as a stored calendar date.
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

// StartOfDay returns midnight of t's calendar day in t's location.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// DaysInMonth returns the number of days of the given month.
func DaysInMonth(year int, month time.Month) int {
	// Day 0 of the next month is the last day of this one.
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// AddMonthsClamped moves t by months calendar months and pins the result to anchorDay,
// clamped to the last day of the target month. Unlike time.AddDate it never overflows
// into the following month.
func AddMonthsClamped(t time.Time, months int, anchorDay int) time.Time {
	total := int(t.Month()) - 1 + months
	year := t.Year() + floorDiv(total, 12)
	month := time.Month(total - floorDiv(total, 12)*12 + 1)

	day := anchorDay
	if day < 1 {
		day = t.Day()
	}
	if last := DaysInMonth(year, month); day > last {
		day = last
	}

	return time.Date(year, month, day, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
}

func floorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

// SameMonth reports whether a and b fall in the same calendar month.
func SameMonth(a, b time.Time) bool {
	return a.Year() == b.Year() && a.Month() == b.Month()
}

// DaysBetween counts calendar days from `from` to `to`; negative when `to` is earlier.
func DaysBetween(from, to time.Time) int {
	fy, fm, fd := from.Date()
	ty, tm, td := to.Date()
	a := time.Date(fy, fm, fd, 0, 0, 0, 0, time.UTC)
	b := time.Date(ty, tm, td, 0, 0, 0, 0, time.UTC)
	return int(b.Sub(a).Hours() / 24)
}

// IsDateOverdue checks if dueDate is a calendar day before now
func IsDateOverdue(dueDate time.Time, now time.Time) bool {
	return DaysBetween(dueDate, now) > 0
}

// CalculateInstallmentAmount splits a total repayment into equal installments
// Formula: Total / Installments, rounded to cents
func CalculateInstallmentAmount(total decimal.Decimal, installments int) decimal.Decimal {
	if installments <= 0 || total.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero
	}

	return total.Div(decimal.NewFromInt(int64(installments))).Round(2)
}
