package models

import "time"

// Achievement is a one-time award. UnlockCondition is the de-duplication key: the
// unique index turns a second insert for the same key into a no-op.
type Achievement struct {
	Model
	Name            string `gorm:"size:100;not null" json:"name"`
	Description     string `json:"description"`
	Icon            string `gorm:"size:50" json:"icon"`
	XPReward        int    `gorm:"not null;default:10" json:"xp_reward"`
	UnlockCondition string `gorm:"size:191;not null;uniqueIndex" json:"unlock_condition"`
	HabitID         *uint  `gorm:"index" json:"habit_id,omitempty"`
	MilestoneDays   int    `json:"milestone_days,omitempty"`
}

type UserAchievement struct {
	Model
	UserID        uint        `gorm:"not null;uniqueIndex:idx_user_achievement" json:"user_id"`
	AchievementID uint        `gorm:"not null;uniqueIndex:idx_user_achievement" json:"achievement_id"`
	Achievement   Achievement `json:"achievement"`
	UnlockedAt    time.Time   `gorm:"not null" json:"unlocked_at"`
}
