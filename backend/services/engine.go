package services

import (
	"time"

	"gorm.io/gorm"
)

// EngineOptions tunes NewEngine. Zero values select the default catalog, time.Local
// and the wall clock.
type EngineOptions struct {
	Catalog   MilestoneCatalog
	Location  *time.Location
	QueueSize int
	Now       func() time.Time
}

// Engine wires the progress services of one process around a shared store.
type Engine struct {
	Habits   *HabitService
	Awarder  *MilestoneAwarder
	Growth   *GrowthUpdater
	Reporter *Reporter
	Queue    *RecomputeQueue

	Notifications  *NotificationService
	PasswordResets *PasswordResetService
}

// NewEngine builds the services. The recompute queue is created but not started.
func NewEngine(db *gorm.DB, opts EngineOptions) *Engine {
	if opts.Location == nil {
		opts.Location = time.Local
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if len(opts.Catalog.defs) == 0 {
		opts.Catalog = DefaultMilestoneCatalog()
	}

	awarder := NewMilestoneAwarder(db, opts.Catalog, opts.Location)
	awarder.Now = opts.Now
	growth := NewGrowthUpdater(db)
	growth.Now = opts.Now
	reporter := NewReporter(db, opts.Catalog, opts.Location)
	reporter.Now = opts.Now

	queue := NewRecomputeQueue(awarder, growth, opts.QueueSize)
	habits := NewHabitService(db, opts.Location, queue)
	habits.Now = opts.Now

	notifications := NewNotificationService(db)
	notifications.Now = opts.Now
	resets := NewPasswordResetService(db)
	resets.Now = opts.Now

	return &Engine{
		Habits:         habits,
		Awarder:        awarder,
		Growth:         growth,
		Reporter:       reporter,
		Queue:          queue,
		Notifications:  notifications,
		PasswordResets: resets,
	}
}
