// Package research simulates the weekly research refresh: a scheduler
// enqueues a refresh job on Sundays and a worker records the resulting
// coping strategies in the journal. No research is actually fetched.
package research

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/rookguy/healthbot/internal/storage"
)

// JobType is the job-queue type handled by Worker.
const JobType = "research_refresh"

var strategies = []string{
	"Progressive muscle relaxation",
	"Mindful 3-minute meditation",
	"Digital detox hour",
}

// Strategies returns the fixed strategy list a refresh integrates.
func Strategies() []string {
	return append([]string(nil), strategies...)
}

// Enqueuer adds jobs to the queue.
type Enqueuer interface {
	EnqueueJob(job storage.Job) error
}

type refreshPayload struct {
	RequestedAt string `json:"requested_at"`
	Reason      string `json:"reason"`
}

// Enqueue adds a refresh job and returns its id.
func Enqueue(store Enqueuer, now time.Time, reason string) (string, error) {
	payload, err := json.Marshal(refreshPayload{
		RequestedAt: now.UTC().Format(time.RFC3339),
		Reason:      reason,
	})
	if err != nil {
		return "", fmt.Errorf("marshalling refresh payload: %w", err)
	}
	job := storage.Job{
		ID:          uuid.New().String(),
		Type:        JobType,
		PayloadJSON: string(payload),
	}
	if err := store.EnqueueJob(job); err != nil {
		return "", fmt.Errorf("enqueueing refresh job: %w", err)
	}
	return job.ID, nil
}
