package services

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"
)

// ErrQueueFull is reported when a recompute job is dropped because the queue is full.
var ErrQueueFull = errors.New("recompute queue full")

// RecomputeJob asks for the streak, milestone and growth state of a habit's owner to
// be brought up to date after a completion write.
type RecomputeJob struct {
	UserID  uint
	HabitID uint
}

// RecomputeQueue runs recompute jobs on a fixed pool of workers. Submitting never
// blocks; failures are delivered on Errors and never reach the submitter.
type RecomputeQueue struct {
	awarder *MilestoneAwarder
	growth  *GrowthUpdater

	jobs   chan RecomputeJob
	errs   chan error
	group  errgroup.Group
	mu     sync.RWMutex
	closed bool
	once   sync.Once
}

// NewRecomputeQueue buffers up to size jobs. A job submitted to a full buffer is
// dropped, not retried; the habit catches up on its next completion or on an explicit
// milestone check or progress update.
func NewRecomputeQueue(awarder *MilestoneAwarder, growth *GrowthUpdater, size int) *RecomputeQueue {
	if size <= 0 {
		size = 1
	}
	return &RecomputeQueue{
		awarder: awarder,
		growth:  growth,
		jobs:    make(chan RecomputeJob, size),
		errs:    make(chan error, size),
	}
}

// Start launches workers. Jobs run detached from any request context.
func (q *RecomputeQueue) Start(workers int) {
	if workers <= 0 {
		workers = 1
	}
	for i := 0; i < workers; i++ {
		q.group.Go(func() error {
			for job := range q.jobs {
				if err := q.Process(context.Background(), job); err != nil {
					q.report(fmt.Errorf("recompute habit %d for user %d: %w", job.HabitID, job.UserID, err))
				}
			}
			return nil
		})
	}
}

// Submit enqueues job and reports whether it was accepted. After Close every job is
// rejected.
func (q *RecomputeQueue) Submit(job RecomputeJob) bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.closed {
		return false
	}
	select {
	case q.jobs <- job:
		return true
	default:
		q.report(fmt.Errorf("habit %d: %w", job.HabitID, ErrQueueFull))
		return false
	}
}

// Errors delivers job failures. It is closed once Close has drained the queue.
func (q *RecomputeQueue) Errors() <-chan error {
	return q.errs
}

// Close stops intake and waits for queued jobs to finish.
func (q *RecomputeQueue) Close() error {
	var err error
	q.once.Do(func() {
		q.mu.Lock()
		q.closed = true
		close(q.jobs)
		q.mu.Unlock()

		err = q.group.Wait()
		close(q.errs)
	})
	return err
}

// Process runs one job synchronously: streak, milestone awards, then growth.
func (q *RecomputeQueue) Process(ctx context.Context, job RecomputeJob) error {
	habit, err := FindOwnedHabit(ctx, q.awarder.DB, job.UserID, job.HabitID)
	if err != nil {
		return err
	}
	streak, err := q.awarder.CurrentStreak(ctx, habit.ID)
	if err != nil {
		return err
	}
	if _, err := q.awarder.Award(ctx, habit, streak); err != nil {
		return err
	}
	if _, err := q.growth.Recompute(ctx, job.UserID); err != nil {
		return err
	}
	return nil
}

// report never blocks; errors beyond the buffer are dropped.
func (q *RecomputeQueue) report(err error) {
	select {
	case q.errs <- err:
	default:
	}
}
