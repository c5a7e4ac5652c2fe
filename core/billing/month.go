// Package billing computes which monthly course fees are still due.
// Nothing in here performs I/O: callers fetch the enrollment and supply the current time.
package billing

import (
	"errors"
	"time"
)

const monthLayout = "2006-01"

var (
	// errors
	ErrInvalidEnrollmentDate = errors.New("invalid enrollment date")
	ErrInvalidMonth          = errors.New("invalid month")
)

// MonthID identifies a calendar month as "YYYY-MM".
type MonthID string

// MonthOf returns the MonthID of t, in UTC.
func MonthOf(t time.Time) MonthID {
	return MonthID(t.UTC().Format(monthLayout))
}

func ParseMonthID(s string) (MonthID, error) {
	t, err := time.Parse(monthLayout, s)
	if err != nil {
		return "", ErrInvalidMonth
	}
	return MonthOf(t), nil
}

func (m MonthID) String() string { return string(m) }

// index maps a month to year*12 + (month-1); ok is false if m is malformed.
func (m MonthID) index() (int, bool) {
	t, err := time.Parse(monthLayout, string(m))
	if err != nil {
		return 0, false
	}
	return monthIndex(t), true
}

func monthIndex(t time.Time) int {
	return t.Year()*12 + int(t.Month()) - 1
}

func monthFromIndex(idx int) MonthID {
	t := time.Date(idx/12, time.Month(idx%12+1), 1, 0, 0, 0, 0, time.UTC)
	return MonthID(t.Format(monthLayout))
}

// MonthRange lists every month from `from` through `to`, both inclusive.
// It is empty when from is after to.
func MonthRange(from, to time.Time) []MonthID {
	start, end := monthIndex(from.UTC()), monthIndex(to.UTC())
	if start > end {
		return []MonthID{}
	}
	months := make([]MonthID, 0, end-start+1)
	for idx := start; idx <= end; idx++ {
		months = append(months, monthFromIndex(idx))
	}
	return months
}

// ComputeDueMonths returns, in chronological order, the months between the enrollment
// month and the month of now that are not in paidMonths.
// A zero enrolledAt fails with ErrInvalidEnrollmentDate. paidMonths is never modified.
func ComputeDueMonths(enrolledAt time.Time, paidMonths []MonthID, now time.Time) ([]MonthID, error) {
	if enrolledAt.IsZero() {
		return nil, ErrInvalidEnrollmentDate
	}

	paid := make(map[MonthID]struct{}, len(paidMonths))
	for _, m := range paidMonths {
		paid[m] = struct{}{}
	}

	due := make([]MonthID, 0)
	for _, m := range MonthRange(enrolledAt, now) {
		if _, ok := paid[m]; !ok {
			due = append(due, m)
		}
	}
	return due, nil
}

// InRange reports whether m lies between the enrollment month and the month of now.
func InRange(m MonthID, enrolledAt, now time.Time) bool {
	idx, ok := m.index()
	if !ok {
		return false
	}
	return idx >= monthIndex(enrolledAt.UTC()) && idx <= monthIndex(now.UTC())
}
