package schedule

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/example/studybot/internal/clock"
	"github.com/example/studybot/internal/textutil"
)

// ErrInvalidDate is returned for input ParseDate does not understand
var ErrInvalidDate = errors.New("invalid date")

// Accepted absolute layouts, day first as Turkish users write dates
var dateLayouts = []struct {
	layout   string
	withTime bool
}{
	{"02.01.2006 15:04", true},
	{"2.1.2006 15:04", true},
	{"2006-01-02 15:04", true},
	{"02.01.2006", false},
	{"2.1.2006", false},
	{"02/01/2006", false},
	{"2006-01-02", false},
}

// ParseDate reads a due date or reminder time in the clock's timezone.
//
// Understood forms: "bugün"/"bugun" and "yarın"/"yarin" (12:00 unless a time
// follows, as in "yarın 14:00"), DD.MM.YYYY, DD.MM.YYYY HH:MM, YYYY-MM-DD,
// YYYY-MM-DD HH:MM and a bare HH:MM meaning today. Dates without a time
// resolve to local midnight.
func ParseDate(input string, clk *clock.Clock) (time.Time, error) {
	fields := strings.Fields(textutil.Fold(input))
	if len(fields) == 0 || len(fields) > 2 {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, input)
	}

	loc := clk.Location()
	today := clk.StartOfDay(clk.Now())

	var day time.Time
	switch fields[0] {
	case "bugün", "bugun":
		day = today
	case "yarın", "yarin":
		day = today.AddDate(0, 0, 1)
	}

	if !day.IsZero() {
		if len(fields) == 1 {
			return day.Add(12 * time.Hour), nil
		}
		hm, err := time.Parse("15:04", fields[1])
		if err != nil {
			return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, input)
		}
		return time.Date(day.Year(), day.Month(), day.Day(), hm.Hour(), hm.Minute(), 0, 0, loc), nil
	}

	joined := strings.Join(fields, " ")

	if hm, err := time.Parse("15:04", joined); err == nil {
		return time.Date(today.Year(), today.Month(), today.Day(), hm.Hour(), hm.Minute(), 0, 0, loc), nil
	}

	for _, l := range dateLayouts {
		if t, err := time.ParseInLocation(l.layout, joined, loc); err == nil {
			return t, nil
		}
	}

	return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, input)
}

// LooksLikeDate reports whether an argument could be a date or time, used
// to peel a trailing date off free-form command arguments.
func LooksLikeDate(arg string) bool {
	return strings.ContainsAny(arg, "0123456789")
}
