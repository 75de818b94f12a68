package services

import (
	"context"
	"testing"
	"time"

	"habitgrowth/backend/apperrors"
	"habitgrowth/backend/models"
	"habitgrowth/backend/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newTestGrowth(t *testing.T, db *gorm.DB) *GrowthUpdater {
	t.Helper()
	_, err := SeedGrowthMilestones(context.Background(), db)
	require.NoError(t, err)
	g := NewGrowthUpdater(db)
	g.Now = func() time.Time { return refNow }
	return g
}

func addCompletions(t *testing.T, db *gorm.DB, habitID uint, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		testutil.AddCompletion(t, db, habitID, daysAgo(i))
	}
}

func TestApplyGrowth(t *testing.T) {
	milestone := &models.GrowthMilestone{Stage: 1, RequiredCompletions: 5, XPReward: 50}

	p := &models.UserGrowthProgress{CurrentStage: 1}
	assert.Zero(t, ApplyGrowth(p, milestone, 4, refNow))
	assert.Equal(t, 1, p.CurrentStage)
	assert.InDelta(t, 80.0, p.StageProgress, 1e-9)
	assert.Nil(t, p.LastMilestoneDate)

	assert.Equal(t, 50, ApplyGrowth(p, milestone, 5, refNow))
	assert.Equal(t, 2, p.CurrentStage)
	assert.Zero(t, p.StageProgress)
	assert.Equal(t, 1, p.MilestonesCompleted)
	require.NotNil(t, p.LastMilestoneDate)
	assert.True(t, p.LastMilestoneDate.Equal(refNow))

	unchanged := &models.UserGrowthProgress{CurrentStage: 6}
	assert.Zero(t, ApplyGrowth(unchanged, nil, 500, refNow))
	assert.Equal(t, 6, unchanged.CurrentStage)
}

func TestRecomputeStageTransition(t *testing.T) {
	db := testutil.NewDB(t)
	growth := newTestGrowth(t, db)
	user := testutil.CreateUser(t, db, "alice")
	habit := testutil.CreateHabit(t, db, user.ID, "Read")
	ctx := context.Background()

	addCompletions(t, db, habit.ID, 4)
	progress, err := growth.Recompute(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, progress.CurrentStage)
	assert.InDelta(t, 80.0, progress.StageProgress, 1e-9)
	assert.Zero(t, progress.MilestonesCompleted)
	xpBefore := reloadUser(t, db, user.ID).TotalXP

	testutil.AddCompletion(t, db, habit.ID, daysAgo(10))
	progress, err = growth.Recompute(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, progress.CurrentStage)
	assert.Zero(t, progress.StageProgress)
	assert.Equal(t, 1, progress.MilestonesCompleted)
	assert.NotNil(t, progress.LastMilestoneDate)
	assert.Equal(t, xpBefore+50, reloadUser(t, db, user.ID).TotalXP)

	stored, _, err := growth.Progress(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, stored.CurrentStage)
	assert.Equal(t, 1, stored.MilestonesCompleted)
}

func TestRecomputeCountsAcrossHabits(t *testing.T) {
	db := testutil.NewDB(t)
	growth := newTestGrowth(t, db)
	user := testutil.CreateUser(t, db, "alice")
	other := testutil.CreateUser(t, db, "bob")

	addCompletions(t, db, testutil.CreateHabit(t, db, user.ID, "Read").ID, 1)
	addCompletions(t, db, testutil.CreateHabit(t, db, user.ID, "Run").ID, 1)
	addCompletions(t, db, testutil.CreateHabit(t, db, other.ID, "Swim").ID, 3)

	progress, err := growth.Recompute(context.Background(), user.ID)
	require.NoError(t, err)
	assert.InDelta(t, 40.0, progress.StageProgress, 1e-9)
}

func TestRecomputeAtStageBoundaryAwardsOnce(t *testing.T) {
	db := testutil.NewDB(t)
	growth := newTestGrowth(t, db)
	user := testutil.CreateUser(t, db, "alice")
	addCompletions(t, db, testutil.CreateHabit(t, db, user.ID, "Read").ID, 5)
	ctx := context.Background()

	_, err := growth.Recompute(ctx, user.ID)
	require.NoError(t, err)
	progress, err := growth.Recompute(ctx, user.ID)
	require.NoError(t, err)

	assert.Equal(t, 2, progress.CurrentStage)
	assert.Equal(t, 1, progress.MilestonesCompleted)
	assert.Equal(t, 50, reloadUser(t, db, user.ID).TotalXP)
}

func TestRecomputeAdvancesOneStagePerCall(t *testing.T) {
	db := testutil.NewDB(t)
	growth := newTestGrowth(t, db)
	user := testutil.CreateUser(t, db, "alice")
	addCompletions(t, db, testutil.CreateHabit(t, db, user.ID, "Read").ID, 20)
	ctx := context.Background()

	steps := []struct {
		stage    int
		progress float64
		xp       int
	}{
		{2, 0, 50},
		{3, 0, 150},
		{3, 20.0 * 100 / 30, 150},
		{3, 20.0 * 100 / 30, 150},
	}
	for i, want := range steps {
		progress, err := growth.Recompute(ctx, user.ID)
		require.NoError(t, err)
		assert.Equal(t, want.stage, progress.CurrentStage, "call %d", i+1)
		assert.InDelta(t, want.progress, progress.StageProgress, 1e-9, "call %d", i+1)
		assert.Equal(t, want.xp, reloadUser(t, db, user.ID).TotalXP, "call %d", i+1)
	}
}

func TestRecomputePastTopOfCatalog(t *testing.T) {
	db := testutil.NewDB(t)
	growth := newTestGrowth(t, db)
	user := testutil.CreateUser(t, db, "alice")
	addCompletions(t, db, testutil.CreateHabit(t, db, user.ID, "Read").ID, 3)

	require.NoError(t, db.Create(&models.UserGrowthProgress{
		UserID:              user.ID,
		MetaphorType:        models.MetaphorPlant,
		CurrentStage:        6,
		MilestonesCompleted: 5,
	}).Error)

	progress, err := growth.Recompute(context.Background(), user.ID)
	require.NoError(t, err)
	assert.Equal(t, 6, progress.CurrentStage)
	assert.Equal(t, 5, progress.MilestonesCompleted)
	assert.Zero(t, reloadUser(t, db, user.ID).TotalXP)

	_, milestone, err := growth.Progress(context.Background(), user.ID)
	require.NoError(t, err)
	assert.Nil(t, milestone)
}

func TestProgressCreatedLazily(t *testing.T) {
	db := testutil.NewDB(t)
	growth := newTestGrowth(t, db)
	user := testutil.CreateUser(t, db, "alice")

	progress, milestone, err := growth.Progress(context.Background(), user.ID)
	require.NoError(t, err)
	assert.Equal(t, models.MetaphorPlant, progress.MetaphorType)
	assert.Equal(t, 1, progress.CurrentStage)
	require.NotNil(t, milestone)
	assert.Equal(t, "Seed", milestone.Name)
	require.NotNil(t, progress.User)
	assert.Equal(t, "alice", progress.User.Username)
	assert.Zero(t, progress.User.TotalXP)

	again, _, err := growth.Progress(context.Background(), user.ID)
	require.NoError(t, err)
	assert.Equal(t, progress.ID, again.ID)
}

func TestSwitchMetaphorKeepsMilestonesAndXP(t *testing.T) {
	db := testutil.NewDB(t)
	growth := newTestGrowth(t, db)
	user := testutil.CreateUser(t, db, "alice")
	addCompletions(t, db, testutil.CreateHabit(t, db, user.ID, "Read").ID, 7)
	ctx := context.Background()

	_, err := growth.Recompute(ctx, user.ID)
	require.NoError(t, err)
	progress, err := growth.Recompute(ctx, user.ID)
	require.NoError(t, err)
	require.Equal(t, 2, progress.CurrentStage)
	require.Greater(t, progress.StageProgress, 0.0)

	switched, err := growth.SwitchMetaphor(ctx, user.ID, models.MetaphorCreature)
	require.NoError(t, err)
	assert.Equal(t, models.MetaphorCreature, switched.MetaphorType)
	assert.Equal(t, 1, switched.CurrentStage)
	assert.Zero(t, switched.StageProgress)
	assert.Equal(t, 1, switched.MilestonesCompleted)
	assert.Equal(t, 50, reloadUser(t, db, user.ID).TotalXP)

	_, milestone, err := growth.Progress(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "Egg", milestone.Name)
}

func TestSwitchMetaphorRejectsUnknown(t *testing.T) {
	db := testutil.NewDB(t)
	growth := newTestGrowth(t, db)
	user := testutil.CreateUser(t, db, "alice")

	_, err := growth.SwitchMetaphor(context.Background(), user.ID, "dragon")
	assert.True(t, apperrors.Is(err, apperrors.KindValidation))
}

func TestMilestonesOrderedByStage(t *testing.T) {
	db := testutil.NewDB(t)
	growth := newTestGrowth(t, db)

	rows, err := growth.Milestones(context.Background(), models.MetaphorCreature)
	require.NoError(t, err)
	require.Len(t, rows, 5)
	for i, r := range rows {
		assert.Equal(t, i+1, r.Stage)
		assert.Equal(t, models.MetaphorCreature, r.MetaphorType)
	}
}

func TestSeedGrowthMilestonesOnlyWhenEmpty(t *testing.T) {
	db := testutil.NewDB(t)
	ctx := context.Background()

	n, err := SeedGrowthMilestones(ctx, db)
	require.NoError(t, err)
	assert.Equal(t, 10, n)

	n, err = SeedGrowthMilestones(ctx, db)
	require.NoError(t, err)
	assert.Zero(t, n)
}
