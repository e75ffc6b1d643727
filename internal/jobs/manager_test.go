package jobs

import (
	"context"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tranvu/amazon-product-export/internal/batch"
	"github.com/tranvu/amazon-product-export/internal/models"
	"github.com/tranvu/amazon-product-export/internal/scraper"
)

type instantScraper struct {
	failFor map[string]bool
}

func (s *instantScraper) ResolveASIN(identifier string) (string, string, error) {
	return identifier, "https://www.amazon.com/dp/" + identifier, nil
}

func (s *instantScraper) ExtractProduct(ctx context.Context, identifier, nicheHint, credential string) (*models.ProductRecord, error) {
	if s.failFor[identifier] {
		return nil, scraper.ErrInvalidInput
	}
	rec := models.NewProductRecord(identifier, "https://www.amazon.com/dp/"+identifier)
	rec.Title = "Product " + identifier
	return rec, nil
}

func newTestManager(s scraper.Scraper) *Manager {
	runner := batch.NewRunner(s, 2, slog.Default())
	return NewManager(runner, slog.Default())
}

func waitForStatus(t *testing.T, m *Manager, id string, want Status) *Job {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		job, err := m.Get(id)
		require.NoError(t, err)
		if job.Status == want {
			return job
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("job %s never reached status %s", id, want)
	return nil
}

func TestManagerRunsJobToCompletion(t *testing.T) {
	m := newTestManager(&instantScraper{})

	job := m.Start(context.Background(), []string{"B0AAAAAAA1", "B0AAAAAAA2", "B0AAAAAAA3"}, "protein", "test-key")
	assert.NotEmpty(t, job.ID)
	assert.Equal(t, 3, job.ItemsTotal)

	final := waitForStatus(t, m, job.ID, StatusCompleted)
	assert.Equal(t, 3, final.ItemsCompleted)
	assert.Zero(t, final.ItemsFailed)
	assert.NotNil(t, final.StartedAt)
	assert.NotNil(t, final.CompletedAt)
	assert.Len(t, final.Events, 6, "one started and one completed event per item")

	records, err := m.Records(job.ID)
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, "B0AAAAAAA1", records[0].ASIN)
}

func TestManagerCountsFailures(t *testing.T) {
	m := newTestManager(&instantScraper{failFor: map[string]bool{"bad": true}})

	job := m.Start(context.Background(), []string{"B0AAAAAAA1", "bad"}, "", "test-key")
	final := waitForStatus(t, m, job.ID, StatusCompleted)

	assert.Equal(t, 1, final.ItemsCompleted)
	assert.Equal(t, 1, final.ItemsFailed)

	// Failed identifiers still produce a row.
	records, err := m.Records(job.ID)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.True(t, records[1].IsError)
}

func TestManagerGetUnknownJob(t *testing.T) {
	m := newTestManager(&instantScraper{})

	_, err := m.Get("no-such-job")
	assert.ErrorIs(t, err, ErrJobNotFound)

	_, err = m.Records("no-such-job")
	assert.ErrorIs(t, err, ErrJobNotFound)

	assert.ErrorIs(t, m.Cancel("no-such-job"), ErrJobNotFound)
}

func TestManagerGetReturnsSnapshot(t *testing.T) {
	m := newTestManager(&instantScraper{})

	job := m.Start(context.Background(), []string{"B0AAAAAAA1"}, "", "test-key")
	waitForStatus(t, m, job.ID, StatusCompleted)

	snapshot, err := m.Get(job.ID)
	require.NoError(t, err)
	snapshot.Events = append(snapshot.Events, batch.Event{Identifier: "tampered"})
	snapshot.Status = StatusPending

	fresh, err := m.Get(job.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, fresh.Status)
	assert.Len(t, fresh.Events, 2)
}

func TestManagerCancel(t *testing.T) {
	s := &blockingScraper{
		entered: make(chan struct{}),
		release: make(chan struct{}),
	}
	m := newTestManager(s)

	job := m.Start(context.Background(), []string{"a1", "a2", "a3", "a4"}, "", "test-key")

	// Cancel only once the first group is in flight, so exactly that
	// group's records survive.
	<-s.entered
	require.NoError(t, m.Cancel(job.ID))
	close(s.release)

	final := waitForStatus(t, m, job.ID, StatusCancelled)
	assert.Equal(t, StatusCancelled, final.Status)

	// The first group completed before the cancellation took effect.
	records, err := m.Records(job.ID)
	require.NoError(t, err)
	assert.Len(t, records, 2)
}

type blockingScraper struct {
	entered chan struct{}
	release chan struct{}
	once    sync.Once
}

func (s *blockingScraper) ResolveASIN(identifier string) (string, string, error) {
	return identifier, "https://www.amazon.com/dp/" + identifier, nil
}

func (s *blockingScraper) ExtractProduct(ctx context.Context, identifier, nicheHint, credential string) (*models.ProductRecord, error) {
	s.once.Do(func() { close(s.entered) })
	<-s.release
	return models.NewProductRecord(identifier, ""), nil
}
