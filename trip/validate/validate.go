// Package validate normalizes and checks user-typed field values.
//
// Validators never fail loudly: they report a boolean (or return the input
// unchanged) and leave the user-facing consequence to the caller.
package validate

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var (
	dateTimePattern = regexp.MustCompile(`^(\d{4})/(\d{1,2})/(\d{1,2})\s+(\d{1,2})(\d{2})$`)
	datePattern     = regexp.MustCompile(`^(\d{4})/(\d{1,2})/(\d{1,2})$`)
	numberPattern   = regexp.MustCompile(`^[0-9]+(\.[0-9]+)?$`)
	hourPattern     = regexp.MustCompile(`^\d{1,2}$`)
)

// NormalizeDigits maps full-width decimal digits (U+FF10..U+FF19) to ASCII.
func NormalizeDigits(s string) string {
	if s == "" {
		return s
	}
	return strings.Map(func(r rune) rune {
		if r >= '０' && r <= '９' {
			return r - '０' + '0'
		}
		return r
	}, s)
}

func clean(s string) string {
	return NormalizeDigits(strings.TrimSpace(s))
}

// DateTime reports whether s is a "YYYY/M/D HMM" timestamp, or also a bare
// "YYYY/M/D" date when requireTime is false. Day is checked against 1..31 only.
func DateTime(s string, requireTime bool) bool {
	v := clean(s)
	if v == "" {
		return false
	}
	if m := dateTimePattern.FindStringSubmatch(v); m != nil {
		return inRange(m[2], 1, 12) && inRange(m[3], 1, 31) &&
			inRange(m[4], 0, 23) && inRange(m[5], 0, 59)
	}
	if requireTime {
		return false
	}
	if m := datePattern.FindStringSubmatch(v); m != nil {
		return inRange(m[2], 1, 12) && inRange(m[3], 1, 31)
	}
	return false
}

// Date reports whether s is a bare "YYYY/M/D" date.
func Date(s string) bool {
	m := datePattern.FindStringSubmatch(clean(s))
	return m != nil && inRange(m[2], 1, 12) && inRange(m[3], 1, 31)
}

// NormalizeDateTime renders a "YYYY/M/D HMM" value as "YYYY/MM/DD HH:MM".
// Anything else comes back digit-normalized and trimmed.
func NormalizeDateTime(s string) string {
	v := clean(s)
	m := dateTimePattern.FindStringSubmatch(v)
	if m == nil {
		return v
	}
	return fmt.Sprintf("%s/%s/%s %s:%s", m[1], pad2(m[2]), pad2(m[3]), pad2(m[4]), m[5])
}

// NormalizeDate renders a "YYYY/M/D" value as "YYYY/MM/DD".
func NormalizeDate(s string) string {
	v := clean(s)
	m := datePattern.FindStringSubmatch(v)
	if m == nil {
		return v
	}
	return fmt.Sprintf("%s/%s/%s", m[1], pad2(m[2]), pad2(m[3]))
}

// Number accepts unsigned integers and decimals.
func Number(s string) bool {
	v := clean(s)
	return v != "" && numberPattern.MatchString(v)
}

// Hour parses an hour of day in 0..23.
func Hour(s string) (int, bool) {
	v := clean(s)
	if !hourPattern.MatchString(v) {
		return 0, false
	}
	h, err := strconv.Atoi(v)
	if err != nil || h < 0 || h > 23 {
		return 0, false
	}
	return h, true
}

func inRange(s string, lo, hi int) bool {
	n, err := strconv.Atoi(s)
	if err != nil {
		return false
	}
	return n >= lo && n <= hi
}

func pad2(s string) string {
	if len(s) >= 2 {
		return s
	}
	return "0" + s
}
