package services

import (
	"context"
	"fmt"
	"time"

	"habitgrowth/backend/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// MilestoneAwarder turns a habit's streak into one-time achievements.
type MilestoneAwarder struct {
	DB      *gorm.DB
	Catalog MilestoneCatalog
	Loc     *time.Location
	Now     func() time.Time
}

// NewMilestoneAwarder returns an awarder on the wall clock. A nil loc means time.Local.
func NewMilestoneAwarder(db *gorm.DB, catalog MilestoneCatalog, loc *time.Location) *MilestoneAwarder {
	return &MilestoneAwarder{DB: db, Catalog: catalog, Loc: loc, Now: time.Now}
}

// AwardedMilestone is a catalog entry that was awarded by the current call.
type AwardedMilestone struct {
	MilestoneDefinition
	AchievementID uint `json:"achievementId"`
}

// MilestoneCheck is the result of a synchronous milestone check.
type MilestoneCheck struct {
	CurrentStreak int                `json:"currentStreak"`
	NewMilestones []AwardedMilestone `json:"newMilestones"`
	Message       string             `json:"message"`
}

func (a *MilestoneAwarder) now() time.Time {
	if a.Now == nil {
		return time.Now()
	}
	return a.Now()
}

// CurrentStreak derives the habit's streak from its stored completions.
func (a *MilestoneAwarder) CurrentStreak(ctx context.Context, habitID uint) (int, error) {
	completions, err := loadCompletions(ctx, a.DB, habitID)
	if err != nil {
		return 0, err
	}
	return CalculateStreak(completionTimes(completions), a.now(), a.Loc), nil
}

// Check recomputes the streak of a habit the user owns and awards what it qualifies for.
func (a *MilestoneAwarder) Check(ctx context.Context, userID, habitID uint) (*MilestoneCheck, error) {
	habit, err := FindOwnedHabit(ctx, a.DB, userID, habitID)
	if err != nil {
		return nil, err
	}
	streak, err := a.CurrentStreak(ctx, habit.ID)
	if err != nil {
		return nil, err
	}
	awarded, err := a.Award(ctx, habit, streak)
	if err != nil {
		return nil, err
	}

	result := &MilestoneCheck{
		CurrentStreak: streak,
		NewMilestones: awarded,
		Message:       "No new milestones",
	}
	if len(awarded) > 0 {
		result.Message = "New milestones achieved!"
	}
	return result, nil
}

// Award creates an Achievement and UserAchievement for every catalog threshold at or
// below streak that has not been awarded for this habit yet, crediting its XP to the
// habit's owner. Calling it again with the same streak awards nothing.
func (a *MilestoneAwarder) Award(ctx context.Context, habit *models.Habit, streak int) ([]AwardedMilestone, error) {
	reached := a.Catalog.Reached(streak)
	awarded := []AwardedMilestone{}
	if len(reached) == 0 {
		return awarded, nil
	}

	keys := make([]string, len(reached))
	for i, def := range reached {
		keys[i] = UnlockConditionKey(def.Days, habit.ID)
	}
	var existing []string
	err := a.DB.WithContext(ctx).Unscoped().Model(&models.Achievement{}).
		Where("unlock_condition IN ?", keys).
		Pluck("unlock_condition", &existing).Error
	if err != nil {
		return nil, fmt.Errorf("load awarded milestones: %w", err)
	}
	done := make(map[string]bool, len(existing))
	for _, k := range existing {
		done[k] = true
	}

	for i, def := range reached {
		if done[keys[i]] {
			continue
		}
		id, created, err := a.awardOne(ctx, habit, def, keys[i])
		if err != nil {
			return awarded, fmt.Errorf("award %q for habit %d: %w", def.Name, habit.ID, err)
		}
		if created {
			awarded = append(awarded, AwardedMilestone{MilestoneDefinition: def, AchievementID: id})
		}
	}
	return awarded, nil
}

// awardOne inserts the achievement guarded by the unlock_condition unique index. A
// concurrent award of the same key makes the insert a no-op and nothing else is written.
func (a *MilestoneAwarder) awardOne(ctx context.Context, habit *models.Habit, def MilestoneDefinition, key string) (uint, bool, error) {
	var (
		achievementID uint
		created       bool
	)
	habitID := habit.ID
	err := a.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		achievement := models.Achievement{
			Name:            fmt.Sprintf("%s - %s", def.Name, habit.Name),
			Description:     fmt.Sprintf("%s for %q", def.Description, habit.Name),
			Icon:            def.Icon,
			XPReward:        def.XP,
			UnlockCondition: key,
			HabitID:         &habitID,
			MilestoneDays:   def.Days,
		}
		res := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "unlock_condition"}},
			DoNothing: true,
		}).Create(&achievement)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return nil
		}

		link := models.UserAchievement{
			UserID:        habit.UserID,
			AchievementID: achievement.ID,
			UnlockedAt:    a.now(),
		}
		if err := tx.Create(&link).Error; err != nil {
			return err
		}
		if err := creditXP(tx, habit.UserID, def.XP); err != nil {
			return err
		}
		achievementID = achievement.ID
		created = true
		return nil
	})
	if err != nil {
		return 0, false, err
	}
	return achievementID, created, nil
}

// creditXP adds xp to the user's total and re-derives the avatar level in one statement.
func creditXP(tx *gorm.DB, userID uint, xp int) error {
	if xp == 0 {
		return nil
	}
	res := tx.Model(&models.User{}).
		Where("id = ?", userID).
		Updates(map[string]interface{}{
			"total_xp":     gorm.Expr("total_xp + ?", xp),
			"avatar_level": gorm.Expr("1 + (total_xp + ?) / ?", xp, models.XPPerLevel),
		})
	if res.Error != nil {
		return fmt.Errorf("credit xp to user %d: %w", userID, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("credit xp: user %d not found", userID)
	}
	return nil
}
