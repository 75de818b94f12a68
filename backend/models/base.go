package models

import (
	"time"

	"gorm.io/gorm"
)

// Model replaces gorm.Model so that every row serialises with snake_case keys.
// DeletedAt keeps soft deletes working but is never written to JSON.
type Model struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}
