package backend

import (
	"context"
	"errors"
	"fmt"

	applog "pipeline/internal/log"
	"pipeline/internal/sheets"
	"pipeline/internal/sheets/file"
	gsheet "pipeline/internal/sheets/google"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *applog.Logger
}

// NewFactory creates a new source factory
func NewFactory(logger *applog.Logger) Factory {
	if logger == nil {
		logger = applog.New(applog.DefaultConfig())
	}
	return &DefaultFactory{logger: logger.WithComponent(applog.ComponentSheets)}
}

// CreateSource implements Factory.CreateSource
func (f *DefaultFactory) CreateSource(ctx context.Context, config Config) (sheets.Source, error) {
	if !config.Type.IsValid() {
		return nil, fmt.Errorf("invalid source type: %s", config.Type)
	}

	switch config.Type {
	case FileSource:
		return f.createFileSource(config)
	case SheetsSource:
		return f.createSheetsSource(ctx, config)
	default:
		f.logger.Info("Upload-only pipeline, reload disabled")
		return nil, nil
	}
}

func (f *DefaultFactory) createFileSource(config Config) (sheets.Source, error) {
	if config.PipelineFile == "" {
		return nil, errors.New("file source requires a pipeline file path")
	}
	if _, err := file.DetectFormat(config.PipelineFile); err != nil {
		return nil, err
	}
	src := file.New(config.PipelineFile)
	f.logger.Info("Initialized file source", applog.FieldSource, src.Identity())
	return src, nil
}

func (f *DefaultFactory) createSheetsSource(ctx context.Context, config Config) (sheets.Source, error) {
	if config.GoogleSpreadsheetID == "" {
		return nil, errors.New("sheets source requires a spreadsheet id")
	}
	svc, err := gsheet.NewService(ctx)
	if err != nil {
		return nil, fmt.Errorf("google sheets source: %w", err)
	}
	src := gsheet.NewClient(svc, config.GoogleSpreadsheetID, config.GoogleSheetName)
	f.logger.Info("Initialized Google Sheets source", applog.FieldSource, src.Identity())
	return src, nil
}
