package services

import (
	"context"
	"fmt"
	"time"

	"habitgrowth/backend/apperrors"
	"habitgrowth/backend/models"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Reporter builds read-only views over a habit's completions. Each report reads a
// point-in-time snapshot without cross-query isolation.
type Reporter struct {
	DB      *gorm.DB
	Catalog MilestoneCatalog
	Loc     *time.Location
	Now     func() time.Time
}

func NewReporter(db *gorm.DB, catalog MilestoneCatalog, loc *time.Location) *Reporter {
	return &Reporter{DB: db, Catalog: catalog, Loc: loc, Now: time.Now}
}

func (r *Reporter) now() time.Time {
	if r.Now == nil {
		return time.Now()
	}
	return r.Now()
}

func (r *Reporter) location() *time.Location {
	if r.Loc == nil {
		return time.Local
	}
	return r.Loc
}

type UnlockedAchievement struct {
	ID          uint      `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Icon        string    `json:"icon"`
	XPReward    int       `json:"xp_reward"`
	UnlockedAt  time.Time `json:"unlocked_at"`
}

type NextMilestone struct {
	MilestoneDefinition
	DaysRemaining int `json:"daysRemaining"`
}

type HabitStats struct {
	HabitID          uint                  `json:"habitId"`
	HabitName        string                `json:"habitName"`
	CurrentStreak    int                   `json:"currentStreak"`
	TotalCompletions int                   `json:"totalCompletions"`
	Achievements     []UnlockedAchievement `json:"achievements"`
	NextMilestone    *NextMilestone        `json:"nextMilestone"`
}

// HabitStats reports the streak, completion count, awarded milestones and the next
// milestone of a habit the user owns.
func (r *Reporter) HabitStats(ctx context.Context, userID, habitID uint) (*HabitStats, error) {
	habit, err := FindOwnedHabit(ctx, r.DB, userID, habitID)
	if err != nil {
		return nil, err
	}
	completions, err := loadCompletions(ctx, r.DB, habit.ID)
	if err != nil {
		return nil, err
	}
	streak := CalculateStreak(completionTimes(completions), r.now(), r.location())

	var links []models.UserAchievement
	err = r.DB.WithContext(ctx).
		Preload("Achievement").
		Where("user_id = ?", userID).
		Where("achievement_id IN (?)", r.DB.Model(&models.Achievement{}).Select("id").Where("habit_id = ?", habit.ID)).
		Order("unlocked_at ASC").
		Find(&links).Error
	if err != nil {
		return nil, fmt.Errorf("load achievements for habit %d: %w", habit.ID, err)
	}

	stats := &HabitStats{
		HabitID:          habit.ID,
		HabitName:        habit.Name,
		CurrentStreak:    streak,
		TotalCompletions: len(completions),
		Achievements:     make([]UnlockedAchievement, 0, len(links)),
	}
	for _, link := range links {
		stats.Achievements = append(stats.Achievements, UnlockedAchievement{
			ID:          link.Achievement.ID,
			Name:        link.Achievement.Name,
			Description: link.Achievement.Description,
			Icon:        link.Achievement.Icon,
			XPReward:    link.Achievement.XPReward,
			UnlockedAt:  link.UnlockedAt,
		})
	}
	if next, ok := r.Catalog.Next(streak); ok {
		stats.NextMilestone = &NextMilestone{
			MilestoneDefinition: next,
			DaysRemaining:       next.Days - streak,
		}
	}
	return stats, nil
}

type CalendarDay struct {
	Completed    bool   `json:"completed"`
	CompletionID uint   `json:"completionId"`
	Notes        string `json:"notes"`
}

type HabitCalendar struct {
	Year             int                 `json:"year"`
	Month            int                 `json:"month"`
	HabitName        string              `json:"habitName"`
	CalendarData     map[int]CalendarDay `json:"calendarData"`
	TotalDaysInMonth int                 `json:"totalDaysInMonth"`
	CompletedDays    int                 `json:"completedDays"`
}

// HabitCalendar maps each day of the month that has a completion to that completion.
// A zero year or month selects the current one.
func (r *Reporter) HabitCalendar(ctx context.Context, userID, habitID uint, year, month int) (*HabitCalendar, error) {
	habit, err := FindOwnedHabit(ctx, r.DB, userID, habitID)
	if err != nil {
		return nil, err
	}

	today := r.now().In(r.location())
	if year == 0 {
		year = today.Year()
	}
	if month == 0 {
		month = int(today.Month())
	}
	if month < 1 || month > 12 {
		return nil, apperrors.Validation("Month must be between 1 and 12")
	}
	if year < 1 || year > 9999 {
		return nil, apperrors.Validation("Invalid year %d", year)
	}

	first := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	last := first.AddDate(0, 1, -1)

	var completions []models.HabitCompletion
	err = r.DB.WithContext(ctx).
		Where("habit_id = ? AND day BETWEEN ? AND ?", habit.ID, datatypes.Date(first), datatypes.Date(last)).
		Order("day ASC").
		Find(&completions).Error
	if err != nil {
		return nil, fmt.Errorf("load calendar for habit %d: %w", habit.ID, err)
	}

	calendar := &HabitCalendar{
		Year:             year,
		Month:            month,
		HabitName:        habit.Name,
		CalendarData:     make(map[int]CalendarDay, len(completions)),
		TotalDaysInMonth: last.Day(),
	}
	for _, c := range completions {
		d := DayOf(time.Time(c.Day), time.UTC)
		if d.Before(first) || d.After(last) {
			continue
		}
		calendar.CalendarData[d.Day()] = CalendarDay{
			Completed:    true,
			CompletionID: c.ID,
			Notes:        c.Notes,
		}
	}
	calendar.CompletedDays = len(calendar.CalendarData)
	return calendar, nil
}
