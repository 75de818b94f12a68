package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"habitgrowth/backend/apperrors"
	"habitgrowth/backend/models"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Submitter accepts follow-up recompute work without blocking the caller.
type Submitter interface {
	Submit(job RecomputeJob) bool
}

// HabitService owns habits and their completion records.
type HabitService struct {
	DB        *gorm.DB
	Loc       *time.Location
	Now       func() time.Time
	Recompute Submitter
}

func NewHabitService(db *gorm.DB, loc *time.Location, recompute Submitter) *HabitService {
	return &HabitService{DB: db, Loc: loc, Now: time.Now, Recompute: recompute}
}

type HabitInput struct {
	Name            string `json:"name"`
	Description     string `json:"description"`
	Category        string `json:"category"`
	DifficultyLevel int    `json:"difficulty_level"`
	TargetFrequency string `json:"target_frequency"`
}

// HabitPatch carries optional updates; nil fields are left untouched.
type HabitPatch struct {
	Name            *string `json:"name"`
	Description     *string `json:"description"`
	Category        *string `json:"category"`
	DifficultyLevel *int    `json:"difficulty_level"`
	TargetFrequency *string `json:"target_frequency"`
	IsActive        *bool   `json:"is_active"`
}

type CompleteInput struct {
	Date  *time.Time
	Notes string
}

func (in HabitInput) validate() error {
	var missing []string
	if strings.TrimSpace(in.Name) == "" {
		missing = append(missing, "name")
	}
	if strings.TrimSpace(in.Category) == "" {
		missing = append(missing, "category")
	}
	if in.DifficultyLevel <= 0 {
		missing = append(missing, "difficulty_level")
	}
	if strings.TrimSpace(in.TargetFrequency) == "" {
		missing = append(missing, "target_frequency")
	}
	if len(missing) > 0 {
		return apperrors.Validation("Missing or invalid fields: %s", strings.Join(missing, ", "))
	}
	return nil
}

func (s *HabitService) now() time.Time {
	if s.Now == nil {
		return time.Now()
	}
	return s.Now()
}

func (s *HabitService) Create(ctx context.Context, userID uint, in HabitInput) (*models.Habit, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	habit := models.Habit{
		UserID:          userID,
		Name:            strings.TrimSpace(in.Name),
		Description:     in.Description,
		Category:        strings.TrimSpace(in.Category),
		DifficultyLevel: in.DifficultyLevel,
		TargetFrequency: strings.TrimSpace(in.TargetFrequency),
		IsActive:        true,
	}
	if err := s.DB.WithContext(ctx).Create(&habit).Error; err != nil {
		return nil, fmt.Errorf("create habit: %w", err)
	}
	return &habit, nil
}

func (s *HabitService) List(ctx context.Context, userID uint) ([]models.Habit, error) {
	habits := []models.Habit{}
	err := s.DB.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&habits).Error
	if err != nil {
		return nil, fmt.Errorf("list habits: %w", err)
	}
	return habits, nil
}

// Update applies patch to a habit the caller owns. A habit owned by someone else is
// a permission error rather than a not-found.
func (s *HabitService) Update(ctx context.Context, userID, habitID uint, patch HabitPatch) (*models.Habit, error) {
	habit, err := s.ownedForWrite(ctx, userID, habitID, "update")
	if err != nil {
		return nil, err
	}

	if patch.Name != nil {
		if strings.TrimSpace(*patch.Name) == "" {
			return nil, apperrors.Validation("Name cannot be empty")
		}
		habit.Name = strings.TrimSpace(*patch.Name)
	}
	if patch.Description != nil {
		habit.Description = *patch.Description
	}
	if patch.Category != nil {
		habit.Category = *patch.Category
	}
	if patch.DifficultyLevel != nil {
		if *patch.DifficultyLevel <= 0 {
			return nil, apperrors.Validation("difficulty_level must be positive")
		}
		habit.DifficultyLevel = *patch.DifficultyLevel
	}
	if patch.TargetFrequency != nil {
		habit.TargetFrequency = *patch.TargetFrequency
	}
	if patch.IsActive != nil {
		habit.IsActive = *patch.IsActive
	}

	if err := s.DB.WithContext(ctx).Save(habit).Error; err != nil {
		return nil, fmt.Errorf("update habit: %w", err)
	}
	return habit, nil
}

// Delete removes the habit and its completions. Achievements already awarded stay.
func (s *HabitService) Delete(ctx context.Context, userID, habitID uint) error {
	habit, err := s.ownedForWrite(ctx, userID, habitID, "delete")
	if err != nil {
		return err
	}
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Unscoped().Where("habit_id = ?", habit.ID).Delete(&models.HabitCompletion{}).Error; err != nil {
			return fmt.Errorf("delete completions: %w", err)
		}
		if err := tx.Unscoped().Delete(habit).Error; err != nil {
			return fmt.Errorf("delete habit: %w", err)
		}
		return nil
	})
}

// Complete records a completion for the day of in.Date (default now) and queues the
// milestone and growth recompute. The recompute outcome never affects the result.
func (s *HabitService) Complete(ctx context.Context, userID, habitID uint, in CompleteInput) (*models.HabitCompletion, error) {
	habit, err := FindOwnedHabit(ctx, s.DB, userID, habitID)
	if err != nil {
		return nil, err
	}

	when := s.now()
	if in.Date != nil {
		when = *in.Date
	}
	completionDay := datatypes.Date(DayOf(when, s.Loc))

	var existing int64
	err = s.DB.WithContext(ctx).Model(&models.HabitCompletion{}).
		Where("habit_id = ? AND day = ?", habit.ID, completionDay).
		Count(&existing).Error
	if err != nil {
		return nil, fmt.Errorf("check completion: %w", err)
	}
	if existing > 0 {
		return nil, apperrors.Conflict("Habit already marked as completed for this day")
	}

	completion := models.HabitCompletion{
		HabitID:     habit.ID,
		CompletedAt: when,
		Day:         completionDay,
		Notes:       in.Notes,
	}
	if err := s.DB.WithContext(ctx).Create(&completion).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apperrors.Conflict("Habit already marked as completed for this day")
		}
		return nil, fmt.Errorf("create completion: %w", err)
	}

	if s.Recompute != nil {
		s.Recompute.Submit(RecomputeJob{UserID: userID, HabitID: habit.ID})
	}
	return &completion, nil
}

type CompletionEntry struct {
	ID   uint      `json:"id"`
	Date time.Time `json:"date"`
}

// Completions lists a habit's completion dates, oldest first.
func (s *HabitService) Completions(ctx context.Context, userID, habitID uint) ([]CompletionEntry, error) {
	habit, err := FindOwnedHabit(ctx, s.DB, userID, habitID)
	if err != nil {
		return nil, err
	}
	completions, err := loadCompletions(ctx, s.DB, habit.ID)
	if err != nil {
		return nil, err
	}
	out := make([]CompletionEntry, 0, len(completions))
	for _, c := range completions {
		out = append(out, CompletionEntry{ID: c.ID, Date: c.CompletedAt})
	}
	return out, nil
}

// localLayouts are ISO 8601 forms without an offset; they are read in the service's zone.
var localLayouts = []string{
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04",
	"2006-01-02",
}

// ParseCompletionDate accepts an RFC 3339 timestamp, or an ISO 8601 date or local
// date-time without offset, the latter interpreted in loc.
func ParseCompletionDate(value string, loc *time.Location) (*time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return &t, nil
	}
	if loc == nil {
		loc = time.Local
	}
	for _, layout := range localLayouts {
		if t, err := time.ParseInLocation(layout, value, loc); err == nil {
			return &t, nil
		}
	}
	return nil, apperrors.Validation("Invalid date %q, expected ISO 8601", value)
}

// FindOwnedHabit loads a habit visible to userID. Missing and foreign habits are
// both reported as not found.
func FindOwnedHabit(ctx context.Context, db *gorm.DB, userID, habitID uint) (*models.Habit, error) {
	var habit models.Habit
	if err := db.WithContext(ctx).First(&habit, habitID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("Habit not found")
		}
		return nil, fmt.Errorf("load habit %d: %w", habitID, err)
	}
	if habit.UserID != userID {
		return nil, apperrors.NotFound("Habit not found")
	}
	return &habit, nil
}

func (s *HabitService) ownedForWrite(ctx context.Context, userID, habitID uint, action string) (*models.Habit, error) {
	var habit models.Habit
	if err := s.DB.WithContext(ctx).First(&habit, habitID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("Habit not found")
		}
		return nil, fmt.Errorf("load habit %d: %w", habitID, err)
	}
	if habit.UserID != userID {
		return nil, apperrors.Permission("You do not have permission to %s this habit", action)
	}
	return &habit, nil
}

func loadCompletions(ctx context.Context, db *gorm.DB, habitID uint) ([]models.HabitCompletion, error) {
	var completions []models.HabitCompletion
	err := db.WithContext(ctx).
		Where("habit_id = ?", habitID).
		Order("day ASC").
		Order("completed_at ASC").
		Find(&completions).Error
	if err != nil {
		return nil, fmt.Errorf("load completions for habit %d: %w", habitID, err)
	}
	return completions, nil
}

func completionTimes(completions []models.HabitCompletion) []time.Time {
	out := make([]time.Time, len(completions))
	for i, c := range completions {
		out[i] = c.CompletedAt
	}
	return out
}
