package services

import (
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

var refNow = time.Date(2024, time.May, 15, 12, 0, 0, 0, time.UTC)

func daysAgo(n int) time.Time {
	return refNow.AddDate(0, 0, -n)
}

func TestCalculateStreak(t *testing.T) {
	tests := []struct {
		name        string
		completions []time.Time
		want        int
	}{
		{"no completions", nil, 0},
		{"today only", []time.Time{daysAgo(0)}, 1},
		{"yesterday only", []time.Time{daysAgo(1)}, 1},
		{"two days ago only", []time.Time{daysAgo(2)}, 0},
		{"three consecutive ending today", []time.Time{daysAgo(0), daysAgo(1), daysAgo(2)}, 3},
		{"gap does not extend", []time.Time{daysAgo(0), daysAgo(1), daysAgo(2), daysAgo(4)}, 3},
		{"ending yesterday", []time.Time{daysAgo(1), daysAgo(2), daysAgo(3)}, 3},
		{"unordered input", []time.Time{daysAgo(2), daysAgo(0), daysAgo(1)}, 3},
		{"same day twice", []time.Time{daysAgo(0), daysAgo(0).Add(-time.Hour), daysAgo(1)}, 2},
		{"future days ignored", []time.Time{daysAgo(-1), daysAgo(0), daysAgo(1)}, 2},
		{"only future days", []time.Time{daysAgo(-3)}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CalculateStreak(tt.completions, refNow, time.UTC))
		})
	}
}

func TestCalculateStreakUsesLocation(t *testing.T) {
	loc := time.FixedZone("UTC+10", 10*60*60)
	now := time.Date(2024, time.May, 15, 1, 0, 0, 0, loc) // 14 May 15:00 UTC

	// 14 May 20:00 UTC is already 15 May in loc.
	completions := []time.Time{
		time.Date(2024, time.May, 14, 20, 0, 0, 0, time.UTC),
		time.Date(2024, time.May, 13, 20, 0, 0, 0, time.UTC),
	}

	assert.Equal(t, 2, CalculateStreak(completions, now, loc))
	assert.Equal(t, 0, CalculateStreak(completions, now.AddDate(0, 0, 2), loc))
}

func TestCalculateStreakAcrossDST(t *testing.T) {
	loc, err := time.LoadLocation("Europe/Berlin")
	if err != nil {
		t.Skip("tzdata unavailable")
	}
	now := time.Date(2024, time.March, 31, 20, 0, 0, 0, loc)
	completions := []time.Time{
		time.Date(2024, time.March, 31, 9, 0, 0, 0, loc),
		time.Date(2024, time.March, 30, 9, 0, 0, 0, loc),
		time.Date(2024, time.March, 29, 9, 0, 0, 0, loc),
	}
	assert.Equal(t, 3, CalculateStreak(completions, now, loc))
}

func TestCalculateStreakBoundedByDistinctDays(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 200; i++ {
		var completions []time.Time
		distinct := map[time.Time]bool{}
		for j := rng.Intn(20); j > 0; j-- {
			ts := daysAgo(rng.Intn(15)).Add(time.Duration(rng.Intn(10)) * time.Hour)
			completions = append(completions, ts)
			distinct[DayOf(ts, time.UTC)] = true
		}

		streak := CalculateStreak(completions, refNow, time.UTC)
		assert.GreaterOrEqual(t, streak, 0)
		assert.LessOrEqual(t, streak, len(distinct))
	}
}

func TestDayOf(t *testing.T) {
	loc := time.FixedZone("UTC-5", -5*60*60)
	ts := time.Date(2024, time.January, 1, 2, 0, 0, 0, time.UTC)

	assert.Equal(t, time.Date(2023, time.December, 31, 0, 0, 0, 0, time.UTC), DayOf(ts, loc))
	assert.Equal(t, time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC), DayOf(ts, time.UTC))
}
