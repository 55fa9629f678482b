package backend

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"pipeline/internal/config"
	applog "pipeline/internal/log"
	"pipeline/internal/sheets/file"
)

func TestFromAppConfig(t *testing.T) {
	if _, err := FromAppConfig(nil); err == nil {
		t.Fatal("expected error for nil config")
	}
	if _, err := FromAppConfig(&config.Config{DataSource: "ftp"}); err == nil {
		t.Fatal("expected error for unknown source")
	}

	cfg, err := FromAppConfig(&config.Config{
		DataSource:          "sheets",
		GoogleSpreadsheetID: "abc",
		GoogleSheetName:     "Pipeline",
	})
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Type != SheetsSource || cfg.GoogleSpreadsheetID != "abc" || cfg.GoogleSheetName != "Pipeline" {
		t.Fatalf("config = %+v", cfg)
	}
}

func TestCreateSource(t *testing.T) {
	f := NewFactory(applog.New(applog.Config{Output: io.Discard}))
	ctx := context.Background()

	tests := []struct {
		name     string
		config   Config
		identity string
		wantErr  error
		errText  string
	}{
		{name: "upload", config: Config{Type: UploadSource}},
		{name: "file", config: Config{Type: FileSource, PipelineFile: "data/pipeline.csv"}, identity: "file:data/pipeline.csv"},
		{name: "file without path", config: Config{Type: FileSource}, errText: "pipeline file path"},
		{name: "file with unknown extension", config: Config{Type: FileSource, PipelineFile: "pipeline.ods"}, wantErr: file.ErrUnsupportedFormat},
		{name: "sheets without id", config: Config{Type: SheetsSource}, errText: "spreadsheet id"},
		{name: "invalid type", config: Config{Type: "ftp"}, errText: "invalid source type"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src, err := f.CreateSource(ctx, tt.config)
			switch {
			case tt.wantErr != nil:
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("err = %v, want %v", err, tt.wantErr)
				}
			case tt.errText != "":
				if err == nil || !strings.Contains(err.Error(), tt.errText) {
					t.Fatalf("err = %v, want containing %q", err, tt.errText)
				}
			default:
				if err != nil {
					t.Fatal(err)
				}
				if tt.identity == "" && src != nil {
					t.Fatalf("expected nil source, got %v", src)
				}
				if tt.identity != "" && src.Identity() != tt.identity {
					t.Fatalf("identity = %q", src.Identity())
				}
			}
		})
	}
}

func TestCreateSheetsSourceWithoutCredentials(t *testing.T) {
	t.Setenv("GOOGLE_SERVICE_ACCOUNT_JSON", "")
	t.Setenv("GOOGLE_SERVICE_ACCOUNT_FILE", "")
	t.Setenv("GOOGLE_APPLICATION_CREDENTIALS", "")

	_, err := NewFactory(nil).CreateSource(context.Background(), Config{Type: SheetsSource, GoogleSpreadsheetID: "abc"})
	if err == nil || !strings.Contains(err.Error(), "missing service account credentials") {
		t.Fatalf("err = %v", err)
	}
}
