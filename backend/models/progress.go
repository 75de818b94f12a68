package models

import "time"

type MetaphorType string

const (
	MetaphorPlant    MetaphorType = "plant"
	MetaphorCreature MetaphorType = "creature"
)

// Valid reports whether m is one of the two growth tracks.
func (m MetaphorType) Valid() bool {
	return m == MetaphorPlant || m == MetaphorCreature
}

// GrowthMilestone is one stage of a metaphor track.
type GrowthMilestone struct {
	Model
	Name                string       `gorm:"size:100;not null" json:"name"`
	Description         string       `json:"description"`
	MetaphorType        MetaphorType `gorm:"size:20;not null;uniqueIndex:idx_growth_stage" json:"metaphor_type"`
	Stage               int          `gorm:"not null;uniqueIndex:idx_growth_stage" json:"stage"`
	RequiredCompletions int          `gorm:"not null" json:"required_completions"`
	Emoji               string       `gorm:"size:10;not null" json:"emoji"`
	XPReward            int          `gorm:"not null;default:50" json:"xp_reward"`
}

type UserGrowthProgress struct {
	Model
	UserID              uint         `gorm:"not null;uniqueIndex" json:"user_id"`
	MetaphorType        MetaphorType `gorm:"size:20;not null;default:plant" json:"metaphor_type"`
	CurrentStage        int          `gorm:"not null;default:1;check:current_stage >= 1" json:"current_stage"`
	StageProgress       float64      `gorm:"not null;default:0;check:stage_progress >= 0 AND stage_progress <= 100" json:"stage_progress"`
	MilestonesCompleted int          `gorm:"not null;default:0" json:"milestones_completed"`
	LastMilestoneDate   *time.Time   `json:"last_milestone_date"`

	User *ProgressOwner `gorm:"-" json:"User,omitempty"`
}

// ProgressOwner is the slice of the user shown alongside their growth progress.
type ProgressOwner struct {
	Username string `json:"username"`
	TotalXP  int    `json:"total_xp"`
}

// All lists every model managed by migrations.
func All() []interface{} {
	return []interface{}{
		&User{},
		&Habit{},
		&HabitCompletion{},
		&Achievement{},
		&UserAchievement{},
		&GrowthMilestone{},
		&UserGrowthProgress{},
		&NotificationPreference{},
	}
}
