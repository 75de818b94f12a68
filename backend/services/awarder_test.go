package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"habitgrowth/backend/apperrors"
	"habitgrowth/backend/models"
	"habitgrowth/backend/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newTestAwarder(db *gorm.DB) *MilestoneAwarder {
	a := NewMilestoneAwarder(db, DefaultMilestoneCatalog(), time.UTC)
	a.Now = func() time.Time { return refNow }
	return a
}

func countAchievements(t *testing.T, db *gorm.DB, habitID uint) int64 {
	t.Helper()
	var n int64
	require.NoError(t, db.Model(&models.Achievement{}).Where("habit_id = ?", habitID).Count(&n).Error)
	return n
}

func reloadUser(t *testing.T, db *gorm.DB, id uint) models.User {
	t.Helper()
	var u models.User
	require.NoError(t, db.First(&u, id).Error)
	return u
}

func TestAwardZeroStreakAwardsNothing(t *testing.T) {
	db := testutil.NewDB(t)
	user := testutil.CreateUser(t, db, "alice")
	habit := testutil.CreateHabit(t, db, user.ID, "Read")

	awarded, err := newTestAwarder(db).Award(context.Background(), habit, 0)
	require.NoError(t, err)
	assert.Empty(t, awarded)
	assert.Zero(t, countAchievements(t, db, habit.ID))
}

func TestAwardCreatesAchievementsOnce(t *testing.T) {
	db := testutil.NewDB(t)
	user := testutil.CreateUser(t, db, "alice")
	habit := testutil.CreateHabit(t, db, user.ID, "Read")
	awarder := newTestAwarder(db)
	ctx := context.Background()

	awarded, err := awarder.Award(ctx, habit, 7)
	require.NoError(t, err)
	require.Len(t, awarded, 2)
	assert.Equal(t, 3, awarded[0].Days)
	assert.Equal(t, 7, awarded[1].Days)
	assert.NotZero(t, awarded[0].AchievementID)

	var first models.Achievement
	require.NoError(t, db.Where("unlock_condition = ?", UnlockConditionKey(3, habit.ID)).First(&first).Error)
	assert.Equal(t, "First Steps - Read", first.Name)
	assert.Equal(t, `Complete a habit for 3 consecutive days for "Read"`, first.Description)
	assert.Equal(t, 50, first.XPReward)

	u := reloadUser(t, db, user.ID)
	assert.Equal(t, 150, u.TotalXP)
	assert.Equal(t, 2, u.AvatarLevel)

	again, err := awarder.Award(ctx, habit, 7)
	require.NoError(t, err)
	assert.Empty(t, again)
	assert.Equal(t, int64(2), countAchievements(t, db, habit.ID))
	assert.Equal(t, 150, reloadUser(t, db, user.ID).TotalXP)

	var links int64
	require.NoError(t, db.Model(&models.UserAchievement{}).Where("user_id = ?", user.ID).Count(&links).Error)
	assert.Equal(t, int64(2), links)
}

func TestAwardNeverRevokes(t *testing.T) {
	db := testutil.NewDB(t)
	user := testutil.CreateUser(t, db, "alice")
	habit := testutil.CreateHabit(t, db, user.ID, "Read")
	awarder := newTestAwarder(db)

	_, err := awarder.Award(context.Background(), habit, 14)
	require.NoError(t, err)
	awarded, err := awarder.Award(context.Background(), habit, 1)
	require.NoError(t, err)

	assert.Empty(t, awarded)
	assert.Equal(t, int64(3), countAchievements(t, db, habit.ID))
}

func TestAwardSkipsKeyAlreadyPresent(t *testing.T) {
	db := testutil.NewDB(t)
	user := testutil.CreateUser(t, db, "alice")
	habit := testutil.CreateHabit(t, db, user.ID, "Read")
	habitID := habit.ID

	// A row written by a concurrent recompute before this one.
	require.NoError(t, db.Create(&models.Achievement{
		Name:            "First Steps - Read",
		UnlockCondition: UnlockConditionKey(3, habit.ID),
		XPReward:        50,
		HabitID:         &habitID,
		MilestoneDays:   3,
	}).Error)

	awarded, err := newTestAwarder(db).Award(context.Background(), habit, 3)
	require.NoError(t, err)
	assert.Empty(t, awarded)
	assert.Zero(t, reloadUser(t, db, user.ID).TotalXP)
}

func TestAwardOneIsNoOpOnDuplicateKey(t *testing.T) {
	db := testutil.NewDB(t)
	user := testutil.CreateUser(t, db, "alice")
	habit := testutil.CreateHabit(t, db, user.ID, "Read")
	awarder := newTestAwarder(db)
	def := DefaultMilestoneCatalog().Definitions()[0]
	key := UnlockConditionKey(def.Days, habit.ID)

	_, created, err := awarder.awardOne(context.Background(), habit, def, key)
	require.NoError(t, err)
	require.True(t, created)

	// Bypasses the pre-read, exercising the unique index path directly.
	_, created, err = awarder.awardOne(context.Background(), habit, def, key)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, int64(1), countAchievements(t, db, habit.ID))
	assert.Equal(t, def.XP, reloadUser(t, db, user.ID).TotalXP)
}

func TestAwardConcurrentCallsDoNotDuplicate(t *testing.T) {
	db := testutil.NewDB(t)
	user := testutil.CreateUser(t, db, "alice")
	habit := testutil.CreateHabit(t, db, user.ID, "Read")
	awarder := newTestAwarder(db)

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := awarder.Award(context.Background(), habit, 30)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(5), countAchievements(t, db, habit.ID))
	assert.Equal(t, 50+100+200+300+500, reloadUser(t, db, user.ID).TotalXP)
}

func TestAwardWithInjectedCatalog(t *testing.T) {
	db := testutil.NewDB(t)
	user := testutil.CreateUser(t, db, "alice")
	habit := testutil.CreateHabit(t, db, user.ID, "Read")

	awarder := newTestAwarder(db)
	awarder.Catalog = MustMilestoneCatalog([]MilestoneDefinition{
		{Days: 1, Name: "Day One", Description: "Complete once", XP: 5, Icon: "1"},
	})

	awarded, err := awarder.Award(context.Background(), habit, 1)
	require.NoError(t, err)
	require.Len(t, awarded, 1)
	assert.Equal(t, "Day One", awarded[0].Name)
	assert.Equal(t, 5, reloadUser(t, db, user.ID).TotalXP)
}

func TestCheckDerivesStreakFromCompletions(t *testing.T) {
	db := testutil.NewDB(t)
	user := testutil.CreateUser(t, db, "alice")
	habit := testutil.CreateHabit(t, db, user.ID, "Read")
	for _, n := range []int{0, 1, 2, 4} {
		testutil.AddCompletion(t, db, habit.ID, daysAgo(n))
	}

	result, err := newTestAwarder(db).Check(context.Background(), user.ID, habit.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, result.CurrentStreak)
	require.Len(t, result.NewMilestones, 1)
	assert.Equal(t, "New milestones achieved!", result.Message)

	result, err = newTestAwarder(db).Check(context.Background(), user.ID, habit.ID)
	require.NoError(t, err)
	assert.Empty(t, result.NewMilestones)
	assert.Equal(t, "No new milestones", result.Message)
}

func TestCheckRejectsForeignHabit(t *testing.T) {
	db := testutil.NewDB(t)
	owner := testutil.CreateUser(t, db, "alice")
	other := testutil.CreateUser(t, db, "bob")
	habit := testutil.CreateHabit(t, db, owner.ID, "Read")

	_, err := newTestAwarder(db).Check(context.Background(), other.ID, habit.ID)
	assert.True(t, apperrors.Is(err, apperrors.KindNotFound))
}
