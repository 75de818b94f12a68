package models

import (
	"time"

	"gorm.io/datatypes"
)

type Habit struct {
	Model
	UserID          uint              `gorm:"not null;index" json:"user_id"`
	Name            string            `gorm:"size:255;not null" json:"name"`
	Description     string            `json:"description"`
	Category        string            `gorm:"size:50;not null;default:General" json:"category"`
	DifficultyLevel int               `gorm:"not null;default:1" json:"difficulty_level"`
	TargetFrequency string            `gorm:"size:20;not null" json:"target_frequency"`
	IsActive        bool              `gorm:"not null;default:true" json:"is_active"`
	Completions     []HabitCompletion `gorm:"constraint:OnDelete:CASCADE" json:"-"`
}

// HabitCompletion records one completion event. Day is the calendar day of
// CompletedAt in the service's time zone, stored as a UTC midnight so that a
// (habit, day) pair can be held unique by the database.
type HabitCompletion struct {
	Model
	HabitID     uint           `gorm:"not null;uniqueIndex:idx_completion_habit_day" json:"habit_id"`
	CompletedAt time.Time      `gorm:"not null;index" json:"completed_at"`
	Day         datatypes.Date `gorm:"not null;uniqueIndex:idx_completion_habit_day" json:"day"`
	Notes       string         `json:"notes,omitempty"`
}
