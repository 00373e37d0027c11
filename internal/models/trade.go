// Package models provides domain models for insider trade analysis.
package models

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	apperrors "insider-graph/internal/errors"
)

// Direction represents whether a trade acquired or disposed of shares.
type Direction int

const (
	DirectionUnknown Direction = iota
	DirectionAcquire
	DirectionDispose
)

// Direction codes as they appear in the transaction filings.
const (
	CodeAcquire = "A"
	CodeDispose = "D"
)

// ParseDirection maps a raw acquired/disposed code to a Direction.
// Matching is exact; anything other than "A" or "D" is DirectionUnknown.
func ParseDirection(code string) Direction {
	switch code {
	case CodeAcquire:
		return DirectionAcquire
	case CodeDispose:
		return DirectionDispose
	default:
		return DirectionUnknown
	}
}

// String returns the filing code for the direction.
func (d Direction) String() string {
	switch d {
	case DirectionAcquire:
		return CodeAcquire
	case DirectionDispose:
		return CodeDispose
	default:
		return "?"
	}
}

// Date is a calendar date as written in the filing. It is not validated
// against a real calendar: month 13 or day 31 of February are accepted.
type Date struct {
	Year  int
	Month int
	Day   int
}

// ParseDate reads the year, month and day from the fixed substrings
// [0:4], [5:7] and [8:10] of s. Each substring is clipped at the end of s
// and read up to its first non-digit, so "2024-1-05" is 2024-01-05. A
// substring that starts past the end of s or holds no leading integer is
// an error.
func ParseDate(s string) (Date, error) {
	year, err := dateField(s, 0, 4)
	if err != nil {
		return Date{}, apperrors.NewParseError(0, "date", s, "invalid year", err)
	}
	month, err := dateField(s, 5, 2)
	if err != nil {
		return Date{}, apperrors.NewParseError(0, "date", s, "invalid month", err)
	}
	day, err := dateField(s, 8, 2)
	if err != nil {
		return Date{}, apperrors.NewParseError(0, "date", s, "invalid day", err)
	}
	return Date{Year: year, Month: month, Day: day}, nil
}

var errShortDate = errors.New("expected YYYY-MM-DD")

func dateField(s string, pos, n int) (int, error) {
	if pos > len(s) {
		return 0, errShortDate
	}
	end := pos + n
	if end > len(s) {
		end = len(s)
	}
	return leadingInt(s[pos:end])
}

// leadingInt parses the integer at the start of s after any white space,
// with an optional sign. Trailing characters are ignored.
func leadingInt(s string) (int, error) {
	i := 0
	for i < len(s) && strings.IndexByte(" \t\n\v\f\r", s[i]) >= 0 {
		i++
	}
	start := i
	if i < len(s) && (s[i] == '+' || s[i] == '-') {
		i++
	}
	digits := i
	for i < len(s) && s[i] >= '0' && s[i] <= '9' {
		i++
	}
	if i == digits {
		return 0, strconv.ErrSyntax
	}
	return strconv.Atoi(s[start:i])
}

// MustParseDate is like ParseDate but panics on error. Intended for tests
// and literals.
func MustParseDate(s string) Date {
	d, err := ParseDate(s)
	if err != nil {
		panic(err)
	}
	return d
}

// String renders the date as YYYY-MM-DD.
func (d Date) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, d.Month, d.Day)
}

// TradeEvent is a single insider transaction.
type TradeEvent struct {
	Symbol    string
	Insider   string
	Direction Direction
	Date      Date
}
