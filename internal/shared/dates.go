package shared

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// ISODate is the canonical layout for calendar dates.
const ISODate = "2006-01-02"

var (
	isoPrefix = regexp.MustCompile(`^(\d{4})-(\d{1,2})-(\d{1,2})(?:$|[T ])`)
	brDate    = regexp.MustCompile(`^(\d{1,2})/(\d{1,2})/(\d{4})(?:$|[ T])`)
)

var timestampLayouts = []string{
	time.RFC1123Z,
	time.RFC1123,
	time.RFC850,
	time.UnixDate,
	time.ANSIC,
	"Mon Jan 2 2006 15:04:05 GMT-0700",
	"Mon Jan 2 2006",
	"Jan 2, 2006",
	"January 2, 2006",
}

// ParseDate resolves a loosely formatted date to its calendar day, returned as
// midnight UTC. Accepted inputs are ISO dates (a trailing time part is ignored),
// DD/MM/YYYY, common timestamp layouts and time.Time values. Timestamps without
// an ISO prefix are read in loc.
func ParseDate(v any, loc *time.Location) (time.Time, bool) {
	if loc == nil {
		loc = time.Local
	}
	switch val := v.(type) {
	case nil:
		return time.Time{}, false
	case time.Time:
		if val.IsZero() {
			return time.Time{}, false
		}
		return civil(val, loc), true
	case *time.Time:
		if val == nil {
			return time.Time{}, false
		}
		return ParseDate(*val, loc)
	case string:
		return parseDateString(val, loc)
	default:
		return time.Time{}, false
	}
}

func parseDateString(raw string, loc *time.Location) (time.Time, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return time.Time{}, false
	}
	if m := isoPrefix.FindStringSubmatch(s); m != nil {
		return makeDate(m[1], m[2], m[3])
	}
	if m := brDate.FindStringSubmatch(s); m != nil {
		return makeDate(m[3], m[2], m[1])
	}
	for _, layout := range timestampLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return civil(t, loc), true
		}
	}
	return time.Time{}, false
}

func makeDate(year, month, day string) (time.Time, bool) {
	y, err := strconv.Atoi(year)
	if err != nil {
		return time.Time{}, false
	}
	m, err := strconv.Atoi(month)
	if err != nil || m < 1 || m > 12 {
		return time.Time{}, false
	}
	d, err := strconv.Atoi(day)
	if err != nil || d < 1 {
		return time.Time{}, false
	}
	t := time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC)
	if t.Day() != d || int(t.Month()) != m {
		return time.Time{}, false
	}
	return t, true
}

func civil(t time.Time, loc *time.Location) time.Time {
	t = t.In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// DateOf returns the calendar day of t as seen in loc.
func DateOf(t time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.Local
	}
	return civil(t, loc)
}

// ToISODate normalises v to YYYY-MM-DD, or "" when it is not a date.
func ToISODate(v any, loc *time.Location) string {
	t, ok := ParseDate(v, loc)
	if !ok {
		return ""
	}
	return t.Format(ISODate)
}

// FormatBR renders a date as DD/MM/YYYY, or "" when it is not a date.
func FormatBR(v any, loc *time.Location) string {
	t, ok := ParseDate(v, loc)
	if !ok {
		return ""
	}
	return t.Format("02/01/2006")
}

// DaysBetween counts calendar days from a to b. Both must be calendar days as
// returned by ParseDate or DateOf.
func DaysBetween(a, b time.Time) int {
	return int(epochDay(b) - epochDay(a))
}

func epochDay(t time.Time) int64 {
	secs := t.Unix()
	day := secs / 86400
	if secs%86400 < 0 {
		day--
	}
	return day
}
