// Package services provides business logic and orchestration services.
package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"

	"pipeline/internal/amqp"
	"pipeline/internal/cache"
	"pipeline/internal/core"
	applog "pipeline/internal/log"
	"pipeline/internal/sheets"
	"pipeline/internal/sheets/file"
)

var (
	// ErrNoBatch is returned by read operations before any batch was loaded.
	ErrNoBatch = errors.New("no pipeline batch loaded")
	// ErrNoSource is returned by Reload when no source is configured.
	ErrNoSource = errors.New("no pipeline source configured")
)

// ImportStore records successful batch loads.
type ImportStore interface {
	RecordImport(ctx context.Context, rec core.ImportRecord) error
	ListImports(ctx context.Context, limit int) ([]core.ImportRecord, error)
}

// BatchPublisher announces newly loaded batches.
type BatchPublisher interface {
	PublishBatchLoaded(ctx context.Context, ev amqp.BatchLoaded) error
}

// PipelineOptions wires the optional collaborators of a PipelineService.
type PipelineOptions struct {
	// Source is re-read by Reload. Nil means uploads only.
	Source sheets.Source
	// TitleRows is the banner row count above the header. Zero selects
	// core.DefaultTitleRows; core.NoTitleRows reads the header from row one.
	TitleRows int
	Imports   ImportStore
	Events    BatchPublisher
	Logger    *applog.Logger
}

// PipelineService loads pipeline batches into the batch cache and serves the
// forecast built from the current batch.
type PipelineService struct {
	cache     *cache.BatchCache
	source    sheets.Source
	titleRows int
	imports   ImportStore
	events    BatchPublisher
	log       *applog.StructuredLogger
}

func NewPipelineService(c *cache.BatchCache, opts PipelineOptions) *PipelineService {
	logger := opts.Logger
	if logger == nil {
		logger = applog.New(applog.DefaultConfig())
	}
	if opts.TitleRows == 0 {
		opts.TitleRows = core.DefaultTitleRows
	}
	return &PipelineService{
		cache:     c,
		source:    opts.Source,
		titleRows: opts.TitleRows,
		imports:   opts.Imports,
		events:    opts.Events,
		log:       applog.NewStructuredLogger(logger),
	}
}

// LoadUpload decodes and normalizes an uploaded file. Uploading the same
// content again reuses the current batch; the boolean reports that case.
func (s *PipelineService) LoadUpload(ctx context.Context, name string, data []byte) (*cache.Batch, bool, error) {
	if _, err := file.DetectFormat(name); err != nil {
		return nil, false, err
	}
	sum := sha256.Sum256(data)
	key := "sha256:" + hex.EncodeToString(sum[:])

	b, reused, err := s.cache.Load(ctx, key, "upload:"+name, func(ctx context.Context) (*core.Dataset, error) {
		grid, err := file.Decode(name, data)
		if err != nil {
			return nil, err
		}
		return s.normalize(grid)
	})
	if err != nil {
		return nil, false, err
	}
	if !reused {
		s.afterLoad(ctx, b)
	}
	return b, reused, nil
}

// Reload re-reads the configured source and replaces the current batch. A
// failed reload keeps the previous batch.
func (s *PipelineService) Reload(ctx context.Context) (*cache.Batch, error) {
	if s.source == nil {
		return nil, ErrNoSource
	}
	id := s.source.Identity()
	b, err := s.cache.Refresh(ctx, id, id, func(ctx context.Context) (*core.Dataset, error) {
		grid, err := s.source.ReadRows(ctx)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", id, err)
		}
		return s.normalize(grid)
	})
	if err != nil {
		s.log.LogError(ctx, "Pipeline reload failed", err, applog.ComponentPipeline, applog.OpReload, applog.NewFields().WithBatch("", id, 0))
		return nil, err
	}
	s.afterLoad(ctx, b)
	return b, nil
}

// HasSource reports whether Reload can be used.
func (s *PipelineService) HasSource() bool {
	return s.source != nil
}

// Clear drops the current batch.
func (s *PipelineService) Clear() {
	s.cache.Invalidate()
}

// Current returns the current batch or ErrNoBatch.
func (s *PipelineService) Current() (*cache.Batch, error) {
	b, ok := s.cache.Current()
	if !ok {
		return nil, ErrNoBatch
	}
	return b, nil
}

// Summary returns the forecast of the current batch.
func (s *PipelineService) Summary(_ context.Context) (core.Summary, *cache.Batch, error) {
	b, err := s.Current()
	if err != nil {
		return core.Summary{}, nil, err
	}
	return s.cache.Summary(b), b, nil
}

// SummaryOf returns the forecast of b, which need not be the current batch.
func (s *PipelineService) SummaryOf(b *cache.Batch) core.Summary {
	return s.cache.Summary(b)
}

// Search returns the records of the current batch matching query.
func (s *PipelineService) Search(_ context.Context, query string) ([]core.Opportunity, *cache.Batch, error) {
	b, err := s.Current()
	if err != nil {
		return nil, nil, err
	}
	return s.cache.Search(b, query), b, nil
}

// Options returns the form choices derived from the current batch. Without a
// batch the fallbacks are returned.
func (s *PipelineService) Options(_ context.Context) core.Options {
	b, ok := s.cache.Current()
	if !ok {
		return core.FormOptions(nil)
	}
	return core.FormOptions(b.Records())
}

// Imports lists recorded batch loads, newest first.
func (s *PipelineService) Imports(ctx context.Context, limit int) ([]core.ImportRecord, error) {
	if s.imports == nil {
		return []core.ImportRecord{}, nil
	}
	return s.imports.ListImports(ctx, limit)
}

func (s *PipelineService) normalize(grid [][]any) (*core.Dataset, error) {
	return core.Normalize(core.FromGrid(grid, s.titleRows))
}

// afterLoad logs, records and announces a freshly published batch. Failures
// here never undo the load.
func (s *PipelineService) afterLoad(ctx context.Context, b *cache.Batch) {
	sum := s.cache.Summary(b)
	s.log.LogBatchLoaded(ctx, b.ID.String(), b.Source, sum.Count, sum.RawTotal, sum.WeightedTotal)

	if s.imports != nil {
		rec := core.ImportRecord{
			BatchID:       b.ID.String(),
			Source:        b.Source,
			Key:           b.Key,
			Records:       sum.Count,
			RawTotal:      sum.RawTotal,
			WeightedTotal: sum.WeightedTotal,
			LoadedAt:      b.LoadedAt,
		}
		if err := s.imports.RecordImport(ctx, rec); err != nil {
			slog.ErrorContext(ctx, "Failed to record pipeline import", "batch_id", rec.BatchID, "error", err)
		}
	}

	if s.events != nil {
		ev := amqp.BatchLoaded{
			BatchID:       b.ID.String(),
			Source:        b.Source,
			Key:           b.Key,
			Records:       sum.Count,
			RawTotal:      sum.RawTotal,
			WeightedTotal: sum.WeightedTotal,
			Timestamp:     b.LoadedAt,
		}
		if err := s.events.PublishBatchLoaded(ctx, ev); err != nil {
			slog.ErrorContext(ctx, "Failed to publish batch loaded event", "batch_id", ev.BatchID, "error", err)
		}
	}
}
