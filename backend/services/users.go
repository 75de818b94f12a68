package services

import (
	"context"
	"errors"
	"fmt"

	"habitgrowth/backend/apperrors"
	"habitgrowth/backend/models"

	"gorm.io/gorm"
)

// DeleteUser removes the user together with everything they own. Achievements stay,
// only the user's links to them are removed.
func DeleteUser(ctx context.Context, db *gorm.DB, userID uint) error {
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var user models.User
		if err := tx.First(&user, userID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperrors.NotFound("User not found")
			}
			return fmt.Errorf("load user %d: %w", userID, err)
		}

		habitIDs := tx.Unscoped().Model(&models.Habit{}).Select("id").Where("user_id = ?", userID)
		steps := []struct {
			name  string
			query *gorm.DB
			model interface{}
		}{
			{"completions", tx.Unscoped().Where("habit_id IN (?)", habitIDs), &models.HabitCompletion{}},
			{"habits", tx.Unscoped().Where("user_id = ?", userID), &models.Habit{}},
			{"achievement links", tx.Unscoped().Where("user_id = ?", userID), &models.UserAchievement{}},
			{"growth progress", tx.Unscoped().Where("user_id = ?", userID), &models.UserGrowthProgress{}},
			{"notification preferences", tx.Unscoped().Where("user_id = ?", userID), &models.NotificationPreference{}},
		}
		for _, step := range steps {
			if err := step.query.Delete(step.model).Error; err != nil {
				return fmt.Errorf("delete %s: %w", step.name, err)
			}
		}
		if err := tx.Unscoped().Delete(&user).Error; err != nil {
			return fmt.Errorf("delete user: %w", err)
		}
		return nil
	})
}
