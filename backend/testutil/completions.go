package testutil

import (
	"testing"
	"time"

	"habitgrowth/backend/models"

	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Day returns the UTC calendar day of ts as stored in habit_completions.day.
func Day(ts time.Time) datatypes.Date {
	y, m, d := ts.In(time.UTC).Date()
	return datatypes.Date(time.Date(y, m, d, 0, 0, 0, 0, time.UTC))
}

// AddCompletion stores a completion at ts, with its day computed in UTC.
func AddCompletion(t *testing.T, db *gorm.DB, habitID uint, ts time.Time) *models.HabitCompletion {
	t.Helper()
	completion := &models.HabitCompletion{
		HabitID:     habitID,
		CompletedAt: ts,
		Day:         Day(ts),
	}
	require.NoError(t, db.Create(completion).Error)
	return completion
}
