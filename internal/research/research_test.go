package research

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rookguy/healthbot/internal/storage"
)

func openTestStore(t *testing.T) *storage.Store {
	t.Helper()
	s, err := storage.Open(":memory:")
	if err != nil {
		t.Fatalf("Open(:memory:) failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestStrategies_ReturnsCopy(t *testing.T) {
	got := Strategies()
	if len(got) != 3 {
		t.Fatalf("got %d strategies, want 3", len(got))
	}
	got[0] = "changed"
	if Strategies()[0] != "Progressive muscle relaxation" {
		t.Error("Strategies() exposed the package slice")
	}
}

func TestEnqueue_WritesPayload(t *testing.T) {
	store := openTestStore(t)
	now := time.Date(2026, 10, 18, 8, 0, 0, 0, time.UTC)

	id, err := Enqueue(store, now, "manual")
	if err != nil {
		t.Fatalf("Enqueue: %v", err)
	}

	job, err := store.ClaimNextJob([]string{JobType})
	if err != nil {
		t.Fatalf("ClaimNextJob: %v", err)
	}
	if job == nil || job.ID != id {
		t.Fatalf("claimed %+v, want job %s", job, id)
	}
	var p refreshPayload
	if err := json.Unmarshal([]byte(job.PayloadJSON), &p); err != nil {
		t.Fatalf("payload: %v", err)
	}
	if p.Reason != "manual" || p.RequestedAt != "2026-10-18T08:00:00Z" {
		t.Errorf("payload = %+v", p)
	}
}

func TestWorker_RunOnce_RecordsStrategies(t *testing.T) {
	store := openTestStore(t)
	id, err := Enqueue(store, time.Now(), "test")
	if err != nil {
		t.Fatalf("Enqueue: %v", err)
	}

	w := NewWorker(store, 10*time.Millisecond)
	done, err := w.RunOnce(context.Background())
	if err != nil {
		t.Fatalf("RunOnce: %v", err)
	}
	if !done {
		t.Fatal("expected a job to be processed")
	}

	got, err := store.ListStrategies(10)
	if err != nil {
		t.Fatalf("ListStrategies: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("got %d strategies, want 3", len(got))
	}
	for _, st := range got {
		if st.JobID != id {
			t.Errorf("strategy %q has job id %q, want %q", st.Name, st.JobID, id)
		}
	}

	status, err := store.JobStatus(id)
	if err != nil {
		t.Fatalf("JobStatus: %v", err)
	}
	if status != storage.JobCompleted {
		t.Errorf("job status = %q, want %q", status, storage.JobCompleted)
	}
}

func TestWorker_RunOnce_NoJobs(t *testing.T) {
	store := openTestStore(t)
	w := NewWorker(store, 0)

	done, err := w.RunOnce(context.Background())
	if err != nil {
		t.Fatalf("RunOnce: %v", err)
	}
	if done {
		t.Error("expected no job processed")
	}
}

func TestWorker_RunOnce_BadPayloadFailsJob(t *testing.T) {
	store := openTestStore(t)
	if err := store.EnqueueJob(storage.Job{ID: "j-bad", Type: JobType, PayloadJSON: "not json", MaxAttempts: 1}); err != nil {
		t.Fatalf("EnqueueJob: %v", err)
	}

	w := NewWorker(store, 0)
	done, err := w.RunOnce(context.Background())
	if err != nil {
		t.Fatalf("RunOnce: %v", err)
	}
	if !done {
		t.Fatal("expected job to be processed")
	}

	status, err := store.JobStatus("j-bad")
	if err != nil {
		t.Fatalf("JobStatus: %v", err)
	}
	if status != storage.JobFailed {
		t.Errorf("status = %q, want %q", status, storage.JobFailed)
	}
}

type failingStrategyStore struct {
	*storage.Store
}

func (failingStrategyStore) SaveStrategy(storage.Strategy) error {
	return errors.New("disk full")
}

func TestWorker_RunOnce_SaveErrorRetries(t *testing.T) {
	store := openTestStore(t)
	id, err := Enqueue(store, time.Now(), "test")
	if err != nil {
		t.Fatal(err)
	}

	w := NewWorker(failingStrategyStore{store}, 0)
	if _, err := w.RunOnce(context.Background()); err != nil {
		t.Fatalf("RunOnce: %v", err)
	}

	status, err := store.JobStatus(id)
	if err != nil {
		t.Fatal(err)
	}
	if status != storage.JobPending {
		t.Errorf("status = %q, want %q (backoff retry)", status, storage.JobPending)
	}
}

func TestWorker_RunStopsOnCancel(t *testing.T) {
	store := openTestStore(t)
	w := NewWorker(store, 5*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- w.Run(ctx) }()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case err := <-errCh:
		if err != nil {
			t.Errorf("Run returned %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Run did not stop after cancel")
	}
}

type mockScheduleStore struct {
	mu    sync.Mutex
	jobs  []storage.Job
	since []time.Time
}

func (m *mockScheduleStore) EnqueueJob(job storage.Job) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.jobs = append(m.jobs, job)
	return nil
}

func (m *mockScheduleStore) CountJobsSince(jobType string, since time.Time) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.since = append(m.since, since)
	n := 0
	for _, j := range m.jobs {
		if j.Type == jobType {
			n++
		}
	}
	return n, nil
}

func TestScheduler_Tick(t *testing.T) {
	store := &mockScheduleStore{}
	s := NewScheduler(store, time.Minute)

	friday := time.Date(2026, 10, 16, 10, 0, 0, 0, time.UTC)
	enqueued, err := s.Tick(friday)
	if err != nil {
		t.Fatalf("Tick(friday): %v", err)
	}
	if enqueued {
		t.Error("enqueued on a Friday")
	}

	sunday := time.Date(2026, 10, 18, 10, 0, 0, 0, time.UTC)
	enqueued, err = s.Tick(sunday)
	if err != nil {
		t.Fatalf("Tick(sunday): %v", err)
	}
	if !enqueued {
		t.Fatal("expected a refresh job on Sunday")
	}
	if want := time.Date(2026, 10, 18, 0, 0, 0, 0, time.UTC); !store.since[0].Equal(want) {
		t.Errorf("checked since %v, want %v", store.since[0], want)
	}

	enqueued, err = s.Tick(sunday.Add(time.Hour))
	if err != nil {
		t.Fatalf("second Tick: %v", err)
	}
	if enqueued {
		t.Error("enqueued twice on the same Sunday")
	}
	if len(store.jobs) != 1 || store.jobs[0].Type != JobType {
		t.Errorf("jobs = %+v", store.jobs)
	}
}
