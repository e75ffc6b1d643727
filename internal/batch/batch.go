package batch

import (
	"context"
	"log/slog"
	"sync"

	"github.com/tranvu/amazon-product-export/internal/models"
	"github.com/tranvu/amazon-product-export/internal/scraper"
)

// EventStatus classifies per-item progress notifications.
type EventStatus string

const (
	StatusStarted   EventStatus = "started"
	StatusCompleted EventStatus = "completed"
	StatusFailed    EventStatus = "failed"
)

// Event is one structured progress notification. Consumers render these
// into whatever log view they want; the runner itself keeps no shared
// buffer.
type Event struct {
	Identifier string      `json:"identifier"`
	Status     EventStatus `json:"status"`
	Detail     string      `json:"detail,omitempty"`
}

// Runner processes identifier lists in fixed-size groups: one group's
// extractions run concurrently, and the next group starts only when the
// whole group finished. Cancellation is honored at group boundaries; an
// in-flight group always completes.
type Runner struct {
	scraper   scraper.Scraper
	groupSize int
	logger    *slog.Logger
}

func NewRunner(s scraper.Scraper, groupSize int, logger *slog.Logger) *Runner {
	if groupSize < 1 {
		groupSize = 1
	}
	return &Runner{
		scraper:   s,
		groupSize: groupSize,
		logger:    logger.With("component", "batch_runner"),
	}
}

// Run produces exactly one record per input identifier, in input order.
// Identifiers that fail validation yield an error-shaped record rather
// than dropping the row. The events channel, when non-nil, receives one
// started and one completed/failed event per identifier; the consumer
// must keep draining it for the whole run.
func (r *Runner) Run(ctx context.Context, identifiers []string, nicheHint, credential string, events chan<- Event) []*models.ProductRecord {
	results := make([]*models.ProductRecord, 0, len(identifiers))

	for start := 0; start < len(identifiers); start += r.groupSize {
		if ctx.Err() != nil {
			r.logger.Info("batch cancelled at group boundary", "processed", len(results), "total", len(identifiers))
			break
		}

		end := start + r.groupSize
		if end > len(identifiers) {
			end = len(identifiers)
		}
		group := identifiers[start:end]

		groupResults := make([]*models.ProductRecord, len(group))
		var wg sync.WaitGroup

		for i, id := range group {
			wg.Add(1)
			go func(i int, id string) {
				defer wg.Done()
				groupResults[i] = r.processOne(ctx, id, nicheHint, credential, events)
			}(i, id)
		}

		wg.Wait()
		results = append(results, groupResults...)
	}

	return results
}

func (r *Runner) processOne(ctx context.Context, identifier, nicheHint, credential string, events chan<- Event) *models.ProductRecord {
	emit(events, Event{Identifier: identifier, Status: StatusStarted})

	rec, err := r.scraper.ExtractProduct(ctx, identifier, nicheHint, credential)
	if err != nil {
		// Validation failures still produce a renderable row.
		r.logger.Warn("identifier rejected", "identifier", identifier, "error", err)
		emit(events, Event{Identifier: identifier, Status: StatusFailed, Detail: err.Error()})
		return scraper.NewErrorRecord(identifier, "")
	}

	if rec.IsError {
		emit(events, Event{Identifier: identifier, Status: StatusFailed, Detail: "extraction degraded to error record"})
	} else {
		emit(events, Event{Identifier: identifier, Status: StatusCompleted, Detail: rec.Title})
	}
	return rec
}

func emit(events chan<- Event, e Event) {
	if events != nil {
		events <- e
	}
}
