package validation

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// dateLayouts are the accepted date formats in priority order; the first match wins.
//
//	yyyy-MM-dd
//	yyyy-MM-ddTHH:mm:ss
//	yyyy-MM-ddTHH:mm:ss.fff
//	dd.MM.yyyy           (legacy clients)
//	dd.MM.yyyy HH:mm:ss
var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04:05.000",
	"02.01.2006",
	"02.01.2006 15:04:05",
}

// timeOfDayLayouts are the accepted formats for a time-of-day value.
var timeOfDayLayouts = []string{
	"15:04:05",
	"15:04",
}

// TimeOfDayLayout is the normalised form returned by ValidateTimeOfDay.
const TimeOfDayLayout = "15:04:05"

// maxScale is the largest accepted scale number (small integer).
const maxScale = 1<<15 - 1

// ValidateDate parses raw as a date or date-time.
//
// Parsing does not depend on any server locale. Surrounding whitespace is
// ignored and values without a zone are taken as local time.
//
// Parameters:
//   - raw: The untrusted input
//   - parameter: Name of the parameter, echoed in the outcome
//
// Returns:
//   - Outcome[time.Time]: Valid with the parsed time, or Invalid
func ValidateDate(raw, parameter string) Outcome[time.Time] {
	value := strings.TrimSpace(raw)
	if value == "" {
		return Failure(parameter,
			fmt.Sprintf("parameter %s must not be empty", parameter),
			"date is not specified",
			raw)
	}

	for _, layout := range dateLayouts {
		if t, ok := parseExact(layout, value); ok {
			return Success(time.Date(t.Year(), t.Month(), t.Day(),
				t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), time.Local), parameter)
		}
	}

	return Failure(parameter,
		fmt.Sprintf("invalid date format in parameter %s: %s", parameter, raw),
		"invalid date format",
		raw)
}

// ValidateRequired fails when raw is empty or whitespace-only.
// The valid value is trimmed.
func ValidateRequired(raw, parameter string) Outcome[string] {
	value := strings.TrimSpace(raw)
	if value == "" {
		return Failure(parameter,
			fmt.Sprintf("parameter %s must not be empty", parameter),
			fmt.Sprintf("%s is not specified", parameter),
			raw)
	}
	return Success(value, parameter)
}

// ValidateTimeOfDay accepts HH:mm:ss or HH:mm and normalises to HH:mm:ss.
func ValidateTimeOfDay(raw, parameter string) Outcome[string] {
	req := ValidateRequired(raw, parameter)
	v, ok := req.(Valid[string])
	if !ok {
		return req
	}

	normalised, ok := parseTimeOfDay(v.Value)
	if !ok {
		return Failure(parameter,
			fmt.Sprintf("invalid time format in parameter %s: %s", parameter, raw),
			"invalid time format",
			raw)
	}
	return Success(normalised, parameter)
}

// ValidateScale parses a scale (weighbridge) number: a small non-negative integer.
func ValidateScale(raw, parameter string) Outcome[int16] {
	req := ValidateRequired(raw, parameter)
	v, ok := req.(Valid[string])
	if !ok {
		return Failure(parameter,
			fmt.Sprintf("parameter %s must not be empty", parameter),
			"scale is not specified",
			raw)
	}

	n, err := strconv.ParseInt(v.Value, 10, 16)
	if err != nil || n < 0 || n > maxScale {
		return Failure(parameter,
			fmt.Sprintf("parameter %s must be an integer between 0 and %d: %s", parameter, maxScale, raw),
			"invalid scale number",
			raw)
	}
	return Success(int16(n), parameter)
}

// ValidateID parses a positive record identifier.
func ValidateID(raw, parameter string) Outcome[int64] {
	value := strings.TrimSpace(raw)
	n, err := strconv.ParseInt(value, 10, 64)
	if err != nil || n <= 0 {
		return Failure(parameter,
			fmt.Sprintf("parameter %s must be a positive integer: %s", parameter, raw),
			"invalid identifier",
			raw)
	}
	return Success(n, parameter)
}

// parseTimeOfDay returns s in TimeOfDayLayout when it matches an accepted layout.
func parseTimeOfDay(s string) (string, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range timeOfDayLayouts {
		if t, ok := parseExact(layout, s); ok {
			return t.Format(TimeOfDayLayout), true
		}
	}
	return "", false
}

// parseExact parses s in UTC and accepts it only when it formats back to s.
// time.Parse on its own lets a fraction of any length, with either '.' or
// ',' as separator, follow a seconds field the layout does not declare.
func parseExact(layout, s string) (time.Time, bool) {
	t, err := time.Parse(layout, s)
	if err != nil || t.Format(layout) != s {
		return time.Time{}, false
	}
	return t, true
}
