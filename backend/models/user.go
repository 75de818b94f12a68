package models

import "time"

// XPPerLevel is the amount of XP separating two avatar levels.
const XPPerLevel = 100

type User struct {
	Model
	Username     string `gorm:"unique;not null" json:"username"`
	Email        string `gorm:"unique;not null" json:"email"`
	PasswordHash string `gorm:"not null" json:"-"`
	TotalXP      int    `gorm:"default:0" json:"total_xp"`
	AvatarLevel  int    `gorm:"default:1" json:"avatar_level"`

	// ResetTokenHash is the SHA-256 of the outstanding password reset token.
	ResetTokenHash   *string    `gorm:"size:64;index" json:"-"`
	ResetTokenExpiry *time.Time `json:"-"`
}
