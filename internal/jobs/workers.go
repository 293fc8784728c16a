package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/campus-events/server/internal/domain/events"
	"github.com/campus-events/server/internal/metrics"
	"github.com/riverqueue/river"
	"github.com/rs/zerolog"
)

type PastEventSweepArgs struct{}

func (PastEventSweepArgs) Kind() string { return JobKindPastEventSweep }

// PastEventSweepWorker flips upcoming events whose date has passed to
// past. It only touches the status column, never registered_count, so
// it cannot race the registration coordinator's counter invariant.
type PastEventSweepWorker struct {
	river.WorkerDefaults[PastEventSweepArgs]
	Repo   events.Repository
	Logger zerolog.Logger
}

func (PastEventSweepWorker) Kind() string { return JobKindPastEventSweep }

func (w PastEventSweepWorker) Work(ctx context.Context, job *river.Job[PastEventSweepArgs]) error {
	if w.Repo == nil {
		return fmt.Errorf("events repository not configured")
	}

	changed, err := w.Repo.MarkPast(ctx, time.Now())
	if err != nil {
		metrics.SweepErrors.Inc()
		return fmt.Errorf("past event sweep: %w", err)
	}

	if changed > 0 {
		metrics.EventsMarkedPast.Add(float64(changed))
		w.Logger.Info().
			Int64("events_closed", changed).
			Msg("swept past events")
	}
	return nil
}

// NewWorkers registers all job workers.
func NewWorkers(repo events.Repository, logger zerolog.Logger) *river.Workers {
	workers := river.NewWorkers()
	river.AddWorker[PastEventSweepArgs](workers, PastEventSweepWorker{
		Repo:   repo,
		Logger: logger.With().Str("component", "jobs").Logger(),
	})
	return workers
}
