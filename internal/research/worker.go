package research

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/rookguy/healthbot/internal/storage"
)

// JobStore abstracts the job queue and strategy log.
type JobStore interface {
	ClaimNextJob(types []string) (*storage.Job, error)
	CompleteJob(id string) error
	FailJob(id string, errMsg string) error
	SaveStrategy(st storage.Strategy) error
}

// Worker processes research_refresh jobs from the SQLite job queue.
type Worker struct {
	store  JobStore
	poll   time.Duration
	now    func() time.Time
	logger *slog.Logger
}

// NewWorker creates a Worker. If pollInterval is <= 0, it defaults to 1s.
func NewWorker(store JobStore, pollInterval time.Duration) *Worker {
	if pollInterval <= 0 {
		pollInterval = time.Second
	}
	return &Worker{
		store:  store,
		poll:   pollInterval,
		now:    time.Now,
		logger: slog.Default(),
	}
}

// Run polls for jobs until ctx is cancelled.
func (w *Worker) Run(ctx context.Context) error {
	for {
		if ctx.Err() != nil {
			return nil
		}

		done, err := w.RunOnce(ctx)
		if err != nil {
			w.logger.Error("research worker iteration failed", "error", err)
		}
		if done {
			continue
		}

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(w.poll):
		}
	}
}

// RunOnce claims and processes a single refresh job.
// Returns true if a job was processed (regardless of success/failure).
func (w *Worker) RunOnce(ctx context.Context) (bool, error) {
	job, err := w.store.ClaimNextJob([]string{JobType})
	if err != nil {
		return false, fmt.Errorf("claiming job: %w", err)
	}
	if job == nil {
		return false, nil
	}

	if err := w.processJob(ctx, job); err != nil {
		w.logger.Warn("research job failed", "job_id", job.ID, "error", err)
		if failErr := w.store.FailJob(job.ID, err.Error()); failErr != nil {
			w.logger.Error("failed to mark job as failed", "job_id", job.ID, "error", failErr)
		}
		return true, nil
	}

	if err := w.store.CompleteJob(job.ID); err != nil {
		return true, fmt.Errorf("completing job %s: %w", job.ID, err)
	}
	return true, nil
}

func (w *Worker) processJob(ctx context.Context, job *storage.Job) error {
	var payload refreshPayload
	if err := json.Unmarshal([]byte(job.PayloadJSON), &payload); err != nil {
		return fmt.Errorf("parsing payload: %w", err)
	}

	w.logger.Info("updating strategies with latest research (simulated)", "job_id", job.ID, "reason", payload.Reason)

	integratedAt := w.now().UTC()
	for _, name := range strategies {
		if err := ctx.Err(); err != nil {
			return err
		}
		st := storage.Strategy{
			ID:           uuid.New().String(),
			Name:         name,
			JobID:        job.ID,
			IntegratedAt: integratedAt,
		}
		if err := w.store.SaveStrategy(st); err != nil {
			return fmt.Errorf("saving strategy %q: %w", name, err)
		}
	}

	w.logger.Info("integrated new strategies", "job_id", job.ID, "count", len(strategies))
	return nil
}
