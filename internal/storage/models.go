package storage

import (
	"errors"
	"time"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("not found")

// Job statuses.
const (
	JobPending   = "pending"
	JobRunning   = "running"
	JobCompleted = "completed"
	JobFailed    = "failed"
)

// Interaction is one chat exchange: the user's message, the reply, and the
// name of the rule that produced it.
type Interaction struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	Message   string    `json:"message"`
	Reply     string    `json:"reply"`
	Rule      string    `json:"rule"`
}

type Job struct {
	ID          string
	Type        string
	PayloadJSON string
	Status      string
	Attempts    int
	MaxAttempts int
	RunAfter    time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
	LastError   string
}

// Strategy is a coping strategy recorded by a research refresh.
type Strategy struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	JobID        string    `json:"job_id,omitempty"`
	IntegratedAt time.Time `json:"integrated_at"`
}
