package progress

import "github.com/example/studybot/internal/clock"

// NextStreak returns the streak after a study session on today, given the
// previous session date and streak. Dates use clock.DateLayout.
//
// Same day keeps the streak, the following day extends it, and anything else
// (a gap of two or more days, a future date or an unreadable date) restarts
// it at 1.
func NextStreak(lastDate string, streak int, today string) int {
	days, err := clock.DaysBetween(lastDate, today)
	if err != nil {
		return 1
	}

	switch days {
	case 0:
		if streak < 1 {
			return 1
		}
		return streak
	case 1:
		return streak + 1
	default:
		return 1
	}
}
