package shared

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToISODate(t *testing.T) {
	saoPaulo := time.FixedZone("BRT", -3*60*60)
	cases := map[string]struct {
		in   any
		want string
	}{
		"iso":                {"2024-03-01", "2024-03-01"},
		"iso with time":      {"2024-03-01T23:59:00Z", "2024-03-01"},
		"iso with space":     {"2024-03-01 10:00:00+00", "2024-03-01"},
		"brazilian":          {"01/03/2024", "2024-03-01"},
		"brazilian short":    {"1/3/2024", "2024-03-01"},
		"brazilian datetime": {"01/03/2024 10:30", "2024-03-01"},
		"rfc1123":            {"Fri, 01 Mar 2024 02:00:00 GMT", "2024-02-29"},
		"time value":         {time.Date(2024, 3, 1, 1, 0, 0, 0, time.UTC), "2024-02-29"},
		"invalid day":        {"31/02/2024", ""},
		"invalid month":      {"2024-13-01", ""},
		"empty":              {"", ""},
		"garbage":            {"amanhã", ""},
		"number":             {20240301, ""},
		"nil":                {nil, ""},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, tc.want, ToISODate(tc.in, saoPaulo))
		})
	}
}

func TestBrazilianRoundTrip(t *testing.T) {
	inputs := []string{"2024-03-01", "01/03/2024", "2023-12-31T10:00:00Z", "29/02/2024", "Jan 2, 2006"}
	for _, in := range inputs {
		iso := ToISODate(in, time.UTC)
		require.NotEmpty(t, iso, in)
		require.Equal(t, iso, ToISODate(FormatBR(iso, time.UTC), time.UTC), in)
	}
}

func TestDaysBetweenIgnoresDST(t *testing.T) {
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Skip("tzdata not available")
	}
	before := DateOf(time.Date(2024, 3, 9, 12, 0, 0, 0, loc), loc)
	after, ok := ParseDate("2024-03-12", loc)
	require.True(t, ok)
	require.Equal(t, 3, DaysBetween(before, after))
	require.Equal(t, -3, DaysBetween(after, before))
}

func TestDaysBetweenFarApartDates(t *testing.T) {
	epoch := time.Date(1970, 1, 1, 0, 0, 0, 0, time.UTC)
	first := time.Date(1, 1, 1, 0, 0, 0, 0, time.UTC)
	require.Equal(t, -719162, DaysBetween(epoch, first))
	require.Equal(t, 719162, DaysBetween(first, epoch))

	today := time.Date(2024, 2, 27, 0, 0, 0, 0, time.UTC)
	last := time.Date(9999, 12, 31, 0, 0, 0, 0, time.UTC)
	require.Equal(t, 2913116, DaysBetween(today, last))
}
