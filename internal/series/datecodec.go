package series

import (
	"fmt"
	"strings"
	"time"
)

const (
	// ISOLayout is the canonical calendar date layout.
	ISOLayout = "2006-01-02"

	// PeriodSeparator is the letter written between year and month by Encode.
	PeriodSeparator = 'M'
)

// Decode converts a period-encoded month ("1960M01") or an ISO calendar
// date ("1960-01-01") into a UTC midnight time. Period dates resolve to the
// first day of the month.
func Decode(raw string) (time.Time, error) {
	s := strings.TrimSpace(raw)

	if IsPeriodDate(s) {
		year := atoiDigits(s[:4])
		month := atoiDigits(s[5:7])
		if month < 1 || month > 12 {
			return time.Time{}, &FormatError{Input: raw, Reason: fmt.Sprintf("month %d out of range", month)}
		}
		return time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC), nil
	}

	if len(s) == len(ISOLayout) {
		t, err := time.Parse(ISOLayout, s)
		if err != nil {
			return time.Time{}, &FormatError{Input: raw, Reason: err.Error()}
		}
		return t, nil
	}

	return time.Time{}, &FormatError{Input: raw, Reason: "expected YYYY<sep>MM or YYYY-MM-DD"}
}

// Encode renders the month of t in period form, e.g. 1960M01.
func Encode(t time.Time) string {
	return fmt.Sprintf("%04d%c%02d", t.Year(), PeriodSeparator, int(t.Month()))
}

// IsPeriodDate reports whether s has the shape of a period date: four
// digits, one non-digit separator, two digits. Month range is not checked.
func IsPeriodDate(s string) bool {
	if len(s) != 7 {
		return false
	}
	for i := 0; i < 7; i++ {
		if (i == 4) == isDigit(s[i]) {
			return false
		}
	}
	return true
}

func isDigit(b byte) bool {
	return b >= '0' && b <= '9'
}

func atoiDigits(s string) int {
	n := 0
	for i := 0; i < len(s); i++ {
		n = n*10 + int(s[i]-'0')
	}
	return n
}
