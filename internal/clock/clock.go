// Package clock provides calendar helpers bound to the configured timezone.
// Every "today" in the bot is computed here so tests can pin the time.
package clock

import "time"

// DateLayout is the storage format of calendar dates
const DateLayout = "2006-01-02"

// Clock reports the current time in a fixed location
type Clock struct {
	loc *time.Location
	now func() time.Time
}

// New returns a clock using the wall time in loc
func New(loc *time.Location) *Clock {
	return &Clock{loc: loc, now: time.Now}
}

// Fixed returns a clock whose current time is provided by now.
// Used by tests to move through calendar days.
func Fixed(loc *time.Location, now func() time.Time) *Clock {
	return &Clock{loc: loc, now: now}
}

// Location returns the configured timezone
func (c *Clock) Location() *time.Location {
	return c.loc
}

// Now returns the current time in the configured timezone
func (c *Clock) Now() time.Time {
	return c.now().In(c.loc)
}

// NowUTC returns the current time in UTC, as stored in the database
func (c *Clock) NowUTC() time.Time {
	return c.now().UTC()
}

// StartOfDay returns local midnight of the day containing t
func (c *Clock) StartOfDay(t time.Time) time.Time {
	local := t.In(c.loc)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, c.loc)
}

// TodayRange returns [local midnight, next local midnight) for the current day
func (c *Clock) TodayRange() (time.Time, time.Time) {
	start := c.StartOfDay(c.Now())
	return start, start.AddDate(0, 0, 1)
}

// Today returns the current calendar date formatted with DateLayout
func (c *Clock) Today() string {
	return c.Now().Format(DateLayout)
}

// Format renders t in the configured timezone as "02.01.2006 15:04"
func (c *Clock) Format(t time.Time) string {
	return t.In(c.loc).Format("02.01.2006 15:04")
}

// FormatDate renders t in the configured timezone as "02.01.2006"
func (c *Clock) FormatDate(t time.Time) string {
	return t.In(c.loc).Format("02.01.2006")
}

// DaysBetween returns the number of calendar days from date a to date b,
// both formatted with DateLayout. Negative when b is before a.
func DaysBetween(a, b string) (int, error) {
	from, err := time.Parse(DateLayout, a)
	if err != nil {
		return 0, err
	}
	to, err := time.Parse(DateLayout, b)
	if err != nil {
		return 0, err
	}
	return int(to.Sub(from).Hours() / 24), nil
}
