package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"pipeline/internal/amqp"
	"pipeline/internal/cache"
	"pipeline/internal/core"
)

// Reloader re-reads the configured pipeline source.
type Reloader interface {
	Reload(ctx context.Context) (*cache.Batch, error)
}

// ReloadWorker handles reload requests coming from AMQP
type ReloadWorker struct {
	reloader Reloader
}

func NewReloadWorker(reloader Reloader) *ReloadWorker {
	return &ReloadWorker{reloader: reloader}
}

// HandleReloadRequest reloads the pipeline. Input errors (bad header, empty
// sheet) are logged and acknowledged since retrying cannot fix them; any other
// failure is returned so the request is requeued.
func (w *ReloadWorker) HandleReloadRequest(ctx context.Context, msg *amqp.ReloadRequest) error {
	slog.InfoContext(ctx, "Processing reload request",
		"request_id", msg.RequestID,
		"reason", msg.Reason)

	b, err := w.reloader.Reload(ctx)
	if err != nil {
		if isInputError(err) {
			slog.WarnContext(ctx, "Reload rejected by normalization", "request_id", msg.RequestID, "error", err)
			return nil
		}
		return fmt.Errorf("reload pipeline: %w", err)
	}

	slog.InfoContext(ctx, "Pipeline reloaded",
		"request_id", msg.RequestID,
		"batch_id", b.ID,
		"records", len(b.Records()))
	return nil
}

func isInputError(err error) bool {
	var se *core.SchemaError
	return errors.As(err, &se) || errors.Is(err, core.ErrEmptyInput)
}

// ReloadPublisher sends reload requests.
type ReloadPublisher interface {
	PublishReload(ctx context.Context, req *amqp.ReloadRequest) error
}

// Scheduler publishes a reload request at start-up and then on every tick.
type Scheduler struct {
	publisher ReloadPublisher
	interval  time.Duration
}

func NewScheduler(publisher ReloadPublisher, interval time.Duration) *Scheduler {
	return &Scheduler{publisher: publisher, interval: interval}
}

// Run publishes until ctx is done. Publish failures are logged and retried on
// the next tick.
func (s *Scheduler) Run(ctx context.Context) error {
	if s.interval <= 0 {
		return errors.New("refresh interval must be positive")
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.tick(ctx, "startup")
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			s.tick(ctx, "schedule")
		}
	}
}

func (s *Scheduler) tick(ctx context.Context, reason string) {
	req := amqp.NewReloadRequest(uuid.NewString(), reason)
	if err := s.publisher.PublishReload(ctx, req); err != nil {
		slog.ErrorContext(ctx, "Failed to publish reload request", "request_id", req.RequestID, "error", err)
	}
}
