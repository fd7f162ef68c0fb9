// Package numparse converts the textual numeric fields of broker API
// responses into Go values. KIS delivers every number as a string and
// larger figures carry thousands separators ("12,345").
package numparse

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Float parses s into a float64. Thousands separators are stripped.
// Empty or unparseable input yields nil, not an error: optional fields
// are simply absent in that case.
func Float(s string) *float64 {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	if s == "" {
		return nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return &f
}

// Int64 parses s into an int64 with the same rules as Float.
func Int64(s string) *int64 {
	f := Float(s)
	if f == nil {
		return nil
	}
	n := int64(*f)
	return &n
}

// FloatOrZero is Float for required fields: absent or malformed input
// degrades to 0 instead of dropping the row.
func FloatOrZero(s string) float64 {
	if f := Float(s); f != nil {
		return *f
	}
	return 0
}

// Int64OrZero is Int64 with the same zero-default rule as FloatOrZero.
func Int64OrZero(s string) int64 {
	if n := Int64(s); n != nil {
		return *n
	}
	return 0
}

// Date8 parses a "YYYYMMDD" trade date as midnight UTC.
func Date8(s string) (time.Time, error) {
	t, err := time.Parse("20060102", strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, fmt.Errorf("parse date %q: %w", s, err)
	}
	return t, nil
}
