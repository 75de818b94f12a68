package services

import (
	"context"
	"fmt"

	"habitgrowth/backend/models"

	"gorm.io/gorm"
)

// SeedGrowthMilestones fills the growth catalog when it is empty and returns the
// number of rows inserted.
func SeedGrowthMilestones(ctx context.Context, db *gorm.DB) (int, error) {
	var existing int64
	if err := db.WithContext(ctx).Model(&models.GrowthMilestone{}).Count(&existing).Error; err != nil {
		return 0, fmt.Errorf("count growth milestones: %w", err)
	}
	if existing > 0 {
		return 0, nil
	}

	rows := DefaultGrowthMilestones()
	if err := db.WithContext(ctx).Create(&rows).Error; err != nil {
		return 0, fmt.Errorf("seed growth milestones: %w", err)
	}
	return len(rows), nil
}
