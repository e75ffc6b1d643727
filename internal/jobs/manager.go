package jobs

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/tranvu/amazon-product-export/internal/batch"
	"github.com/tranvu/amazon-product-export/internal/models"
)

var ErrJobNotFound = errors.New("job not found")

type Status string

const (
	StatusPending   Status = "pending"
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

// Job tracks one batch extraction through the HTTP surface. Per-item
// progress accumulates as structured events which handlers render
// however they like.
type Job struct {
	ID             string        `json:"id"`
	Identifiers    []string      `json:"identifiers"`
	NicheHint      string        `json:"niche_hint,omitempty"`
	Status         Status        `json:"status"`
	ItemsTotal     int           `json:"items_total"`
	ItemsCompleted int           `json:"items_completed"`
	ItemsFailed    int           `json:"items_failed"`
	Events         []batch.Event `json:"events"`
	CreatedAt      time.Time     `json:"created_at"`
	StartedAt      *time.Time    `json:"started_at,omitempty"`
	CompletedAt    *time.Time    `json:"completed_at,omitempty"`

	records []*models.ProductRecord
	cancel  context.CancelFunc
}

type Manager struct {
	runner *batch.Runner
	logger *slog.Logger

	mu   sync.RWMutex
	jobs map[string]*Job
}

func NewManager(runner *batch.Runner, logger *slog.Logger) *Manager {
	return &Manager{
		runner: runner,
		logger: logger.With("component", "job_manager"),
		jobs:   make(map[string]*Job),
	}
}

// Start registers a job and runs it in the background. Cancellation takes
// effect at the runner's group boundaries.
func (m *Manager) Start(ctx context.Context, identifiers []string, nicheHint, credential string) *Job {
	jobCtx, cancel := context.WithCancel(ctx)

	job := &Job{
		ID:          uuid.New().String(),
		Identifiers: identifiers,
		NicheHint:   nicheHint,
		Status:      StatusPending,
		ItemsTotal:  len(identifiers),
		CreatedAt:   time.Now(),
		cancel:      cancel,
	}

	m.mu.Lock()
	m.jobs[job.ID] = job
	m.mu.Unlock()

	go m.run(jobCtx, job, nicheHint, credential)

	m.logger.Info("job started", "id", job.ID, "items", len(identifiers))
	return job
}

func (m *Manager) run(ctx context.Context, job *Job, nicheHint, credential string) {
	now := time.Now()
	m.update(job, func(j *Job) {
		j.Status = StatusRunning
		j.StartedAt = &now
	})

	events := make(chan batch.Event, len(job.Identifiers)*2)
	done := make(chan struct{})

	go func() {
		defer close(done)
		for e := range events {
			m.update(job, func(j *Job) {
				j.Events = append(j.Events, e)
				switch e.Status {
				case batch.StatusCompleted:
					j.ItemsCompleted++
				case batch.StatusFailed:
					j.ItemsFailed++
				}
			})
		}
	}()

	records := m.runner.Run(ctx, job.Identifiers, nicheHint, credential, events)
	close(events)
	<-done

	finished := time.Now()
	m.update(job, func(j *Job) {
		j.records = records
		j.CompletedAt = &finished
		if ctx.Err() != nil {
			j.Status = StatusCancelled
		} else {
			j.Status = StatusCompleted
		}
	})

	m.logger.Info("job finished", "id", job.ID, "status", job.Status, "records", len(records))
}

// Get returns a point-in-time copy of the job's public state.
func (m *Manager) Get(id string) (*Job, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	job, ok := m.jobs[id]
	if !ok {
		return nil, ErrJobNotFound
	}

	snapshot := *job
	snapshot.Events = append([]batch.Event(nil), job.Events...)
	snapshot.records = nil
	snapshot.cancel = nil
	return &snapshot, nil
}

// Records returns the finished job's output, one record per identifier.
func (m *Manager) Records(id string) ([]*models.ProductRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	job, ok := m.jobs[id]
	if !ok {
		return nil, ErrJobNotFound
	}

	return append([]*models.ProductRecord(nil), job.records...), nil
}

// Cancel requests cancellation; the in-flight group still completes.
func (m *Manager) Cancel(id string) error {
	m.mu.RLock()
	job, ok := m.jobs[id]
	m.mu.RUnlock()

	if !ok {
		return ErrJobNotFound
	}

	job.cancel()
	m.logger.Info("job cancellation requested", "id", id)
	return nil
}

func (m *Manager) update(job *Job, fn func(*Job)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	fn(job)
}
