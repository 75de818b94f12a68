package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"habitgrowth/backend/apperrors"
	"habitgrowth/backend/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GrowthUpdater advances a user's growth metaphor from cumulative completions.
type GrowthUpdater struct {
	DB  *gorm.DB
	Now func() time.Time
}

// NewGrowthUpdater returns an updater on the wall clock.
func NewGrowthUpdater(db *gorm.DB) *GrowthUpdater {
	return &GrowthUpdater{DB: db, Now: time.Now}
}

func (g *GrowthUpdater) now() time.Time {
	if g.Now == nil {
		return time.Now()
	}
	return g.Now()
}

// ApplyGrowth folds the completion total into p against the milestone of its current
// stage and returns the XP earned. Reaching the threshold advances exactly one stage.
func ApplyGrowth(p *models.UserGrowthProgress, m *models.GrowthMilestone, totalCompletions int64, now time.Time) int {
	if m == nil || m.RequiredCompletions <= 0 {
		return 0
	}

	percent := float64(totalCompletions) * 100 / float64(m.RequiredCompletions)
	if percent < 100 {
		p.StageProgress = percent
		return 0
	}

	p.CurrentStage++
	p.MilestonesCompleted++
	p.StageProgress = 0
	stamped := now
	p.LastMilestoneDate = &stamped
	return m.XPReward
}

// Progress returns the user's growth record, creating it on first access, together
// with the milestone row of the current stage (nil past the top of the track). The
// record carries the owner's username and XP.
func (g *GrowthUpdater) Progress(ctx context.Context, userID uint) (*models.UserGrowthProgress, *models.GrowthMilestone, error) {
	progress, err := loadOrCreateProgress(g.DB.WithContext(ctx), userID)
	if err != nil {
		return nil, nil, err
	}
	milestone, err := stageMilestone(g.DB.WithContext(ctx), progress.MetaphorType, progress.CurrentStage)
	if err != nil {
		return nil, nil, err
	}

	var owner models.ProgressOwner
	err = g.DB.WithContext(ctx).Model(&models.User{}).
		Select("username", "total_xp").
		Where("id = ?", userID).
		Take(&owner).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil, fmt.Errorf("load progress owner: %w", err)
	}
	if err == nil {
		progress.User = &owner
	}
	return progress, milestone, nil
}

// Recompute counts the user's completions across all habits and applies them to the
// current stage. Past the last stage of the track it changes nothing.
func (g *GrowthUpdater) Recompute(ctx context.Context, userID uint) (*models.UserGrowthProgress, error) {
	var result *models.UserGrowthProgress
	err := g.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		total, err := countUserCompletions(tx, userID)
		if err != nil {
			return err
		}
		progress, err := loadOrCreateProgress(tx, userID)
		if err != nil {
			return err
		}
		result = progress

		milestone, err := stageMilestone(tx, progress.MetaphorType, progress.CurrentStage)
		if err != nil || milestone == nil {
			return err
		}

		fromStage, fromMetaphor := progress.CurrentStage, progress.MetaphorType
		xp := ApplyGrowth(progress, milestone, total, g.now())

		// Guard on the stage we read so a concurrent recompute cannot award the
		// same transition twice.
		res := tx.Model(&models.UserGrowthProgress{}).
			Where("id = ? AND current_stage = ? AND metaphor_type = ?", progress.ID, fromStage, fromMetaphor).
			Updates(map[string]interface{}{
				"current_stage":        progress.CurrentStage,
				"stage_progress":       progress.StageProgress,
				"milestones_completed": progress.MilestonesCompleted,
				"last_milestone_date":  progress.LastMilestoneDate,
			})
		if res.Error != nil {
			return fmt.Errorf("save growth progress: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			fresh, err := loadOrCreateProgress(tx, userID)
			if err != nil {
				return err
			}
			result = fresh
			return nil
		}
		return creditXP(tx, userID, xp)
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// SwitchMetaphor moves the user to another track, restarting at stage 1. Completed
// milestones and earned XP are kept.
func (g *GrowthUpdater) SwitchMetaphor(ctx context.Context, userID uint, metaphor models.MetaphorType) (*models.UserGrowthProgress, error) {
	if !metaphor.Valid() {
		return nil, apperrors.Validation("Invalid metaphor type")
	}

	var result *models.UserGrowthProgress
	err := g.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		progress, err := loadOrCreateProgress(tx, userID)
		if err != nil {
			return err
		}
		err = tx.Model(progress).Updates(map[string]interface{}{
			"metaphor_type":  metaphor,
			"current_stage":  1,
			"stage_progress": 0,
		}).Error
		if err != nil {
			return fmt.Errorf("switch metaphor: %w", err)
		}
		progress.MetaphorType = metaphor
		progress.CurrentStage = 1
		progress.StageProgress = 0
		result = progress
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Milestones lists a track's stages in order.
func (g *GrowthUpdater) Milestones(ctx context.Context, metaphor models.MetaphorType) ([]models.GrowthMilestone, error) {
	if !metaphor.Valid() {
		return nil, apperrors.Validation("Invalid metaphor type")
	}
	milestones := []models.GrowthMilestone{}
	err := g.DB.WithContext(ctx).
		Where("metaphor_type = ?", metaphor).
		Order("stage ASC").
		Find(&milestones).Error
	if err != nil {
		return nil, fmt.Errorf("list growth milestones: %w", err)
	}
	return milestones, nil
}

func loadOrCreateProgress(db *gorm.DB, userID uint) (*models.UserGrowthProgress, error) {
	var progress models.UserGrowthProgress
	err := db.Where("user_id = ?", userID).First(&progress).Error
	if err == nil {
		return &progress, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("load growth progress: %w", err)
	}

	progress = models.UserGrowthProgress{
		UserID:       userID,
		MetaphorType: models.MetaphorPlant,
		CurrentStage: 1,
	}
	err = db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoNothing: true,
	}).Create(&progress).Error
	if err != nil {
		return nil, fmt.Errorf("create growth progress: %w", err)
	}

	var stored models.UserGrowthProgress
	if err := db.Where("user_id = ?", userID).First(&stored).Error; err != nil {
		return nil, fmt.Errorf("reload growth progress: %w", err)
	}
	return &stored, nil
}

func stageMilestone(db *gorm.DB, metaphor models.MetaphorType, stage int) (*models.GrowthMilestone, error) {
	var milestone models.GrowthMilestone
	err := db.Where("metaphor_type = ? AND stage = ?", metaphor, stage).First(&milestone).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load growth milestone: %w", err)
	}
	return &milestone, nil
}

func countUserCompletions(db *gorm.DB, userID uint) (int64, error) {
	var total int64
	err := db.Model(&models.HabitCompletion{}).
		Joins("JOIN habits ON habits.id = habit_completions.habit_id").
		Where("habits.user_id = ? AND habits.deleted_at IS NULL", userID).
		Count(&total).Error
	if err != nil {
		return 0, fmt.Errorf("count completions for user %d: %w", userID, err)
	}
	return total, nil
}
