package research

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// ScheduleStore is what the Scheduler needs from the job queue.
type ScheduleStore interface {
	Enqueuer
	CountJobsSince(jobType string, since time.Time) (int, error)
}

// Scheduler enqueues one refresh job per Sunday.
type Scheduler struct {
	store    ScheduleStore
	weekday  time.Weekday
	interval time.Duration
	now      func() time.Time
	logger   *slog.Logger
}

// NewScheduler creates a Scheduler that checks every interval (default 1h).
func NewScheduler(store ScheduleStore, interval time.Duration) *Scheduler {
	if interval <= 0 {
		interval = time.Hour
	}
	return &Scheduler{
		store:    store,
		weekday:  time.Sunday,
		interval: interval,
		now:      time.Now,
		logger:   slog.Default(),
	}
}

// Tick enqueues a refresh job if now falls on the refresh weekday and no
// refresh job was enqueued earlier that day. It reports whether it enqueued.
func (s *Scheduler) Tick(now time.Time) (bool, error) {
	if now.Weekday() != s.weekday {
		return false, nil
	}

	startOfDay := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	n, err := s.store.CountJobsSince(JobType, startOfDay)
	if err != nil {
		return false, fmt.Errorf("checking refresh jobs: %w", err)
	}
	if n > 0 {
		return false, nil
	}

	id, err := Enqueue(s.store, now, "weekly")
	if err != nil {
		return false, err
	}
	s.logger.Info("weekly research refresh scheduled", "job_id", id)
	return true, nil
}

// Run ticks immediately and then every interval until ctx is cancelled.
func (s *Scheduler) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		if _, err := s.Tick(s.now()); err != nil {
			s.logger.Error("research scheduler tick failed", "error", err)
		}
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}
