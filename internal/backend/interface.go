package backend

import (
	"context"

	"pipeline/internal/sheets"
)

// SourceType names where pipeline batches are reloaded from.
type SourceType string

const (
	// UploadSource has nothing to reload; batches only arrive by upload.
	UploadSource SourceType = "upload"
	FileSource   SourceType = "file"
	SheetsSource SourceType = "sheets"
)

// IsValid reports whether t is a known source type.
func (t SourceType) IsValid() bool {
	switch t {
	case UploadSource, FileSource, SheetsSource:
		return true
	}
	return false
}

// Config holds what is needed to build a source.
type Config struct {
	Type SourceType

	// File source
	PipelineFile string

	// Google Sheets source; credentials are read from the environment.
	GoogleSpreadsheetID string
	GoogleSheetName     string
}

// Factory creates sources based on configuration
type Factory interface {
	// CreateSource returns nil without error for UploadSource.
	CreateSource(ctx context.Context, config Config) (sheets.Source, error)
}
