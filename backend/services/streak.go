// Package services holds the habit progress engine: streak derivation, milestone
// awarding, growth-stage progression and the read-only reports built on them.
package services

import (
	"sort"
	"time"
)

const oneDay = 24 * time.Hour

// DayOf returns the calendar day of t in loc, encoded as midnight UTC so that days
// compare and subtract exactly regardless of DST transitions.
func DayOf(t time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.Local
	}
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func daysBetween(later, earlier time.Time) int {
	return int(later.Sub(earlier) / oneDay)
}

// CalculateStreak counts consecutive calendar days with at least one completion,
// ending today or, when today has no completion yet, ending yesterday.
// Completion days after today are ignored.
func CalculateStreak(completions []time.Time, now time.Time, loc *time.Location) int {
	if len(completions) == 0 {
		return 0
	}

	today := DayOf(now, loc)
	seen := make(map[time.Time]struct{}, len(completions))
	days := make([]time.Time, 0, len(completions))
	for _, c := range completions {
		d := DayOf(c, loc)
		if d.After(today) {
			continue
		}
		if _, dup := seen[d]; dup {
			continue
		}
		seen[d] = struct{}{}
		days = append(days, d)
	}
	if len(days) == 0 {
		return 0
	}

	sort.Slice(days, func(i, j int) bool { return days[i].After(days[j]) })

	cursor := today
	if daysBetween(today, days[0]) == 1 {
		cursor = days[0]
	}

	streak := 0
	for _, d := range days {
		if !d.Equal(cursor) {
			break
		}
		streak++
		cursor = cursor.Add(-oneDay)
	}
	return streak
}
