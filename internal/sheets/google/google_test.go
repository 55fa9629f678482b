package google

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

func TestNewFromEnv_MissingSpreadsheetID(t *testing.T) {
	t.Setenv("GOOGLE_SPREADSHEET_ID", "")

	_, err := NewFromEnv(context.Background())
	if err == nil {
		t.Fatal("expected error for missing GOOGLE_SPREADSHEET_ID")
	}
	if err.Error() != "missing GOOGLE_SPREADSHEET_ID" {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestNewFromEnv_MissingCredentials(t *testing.T) {
	t.Setenv("GOOGLE_SPREADSHEET_ID", "sheet-id")
	t.Setenv("GOOGLE_SERVICE_ACCOUNT_JSON", "")
	t.Setenv("GOOGLE_SERVICE_ACCOUNT_FILE", "")
	t.Setenv("GOOGLE_APPLICATION_CREDENTIALS", "")

	_, err := NewFromEnv(context.Background())
	if err == nil || !strings.Contains(err.Error(), "missing service account credentials") {
		t.Fatalf("expected credentials error, got %v", err)
	}
}

func TestServiceAccountCredentialsFromFile(t *testing.T) {
	path := t.TempDir() + "/sa.json"
	if err := os.WriteFile(path, []byte(`{"type":"service_account"}`), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("GOOGLE_SERVICE_ACCOUNT_JSON", "")
	t.Setenv("GOOGLE_SERVICE_ACCOUNT_FILE", "")
	t.Setenv("GOOGLE_APPLICATION_CREDENTIALS", path)

	b, err := serviceAccountCredentials()
	if err != nil || !strings.Contains(string(b), "service_account") {
		t.Fatalf("credentials = %s, err = %v", b, err)
	}
}

func TestClientReadRows(t *testing.T) {
	var gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"range": "Pipeline!A1:Q4",
			"majorDimension": "ROWS",
			"values": [
				["2026 Pipeline"],
				["Partner", "Industry", "Sales Stage", "Probility", "Jan"],
				["Acme", "", "Proposal", "High", 1200.5],
				["Beta", "Retail", "Won", "Won", "n/a"]
			]
		}`))
	}))
	defer srv.Close()

	svc, err := gsheet.NewService(context.Background(),
		goption.WithEndpoint(srv.URL+"/"),
		goption.WithHTTPClient(srv.Client()))
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	c := NewClient(svc, "sheet-id", "")

	grid, err := c.ReadRows(context.Background())
	if err != nil {
		t.Fatalf("read rows: %v", err)
	}
	if !strings.Contains(gotQuery, "valueRenderOption=UNFORMATTED_VALUE") {
		t.Fatalf("values should be requested unformatted, query = %s", gotQuery)
	}
	if len(grid) != 4 {
		t.Fatalf("rows = %d", len(grid))
	}
	if grid[2][1] != nil {
		t.Fatalf("empty string should become nil, got %#v", grid[2][1])
	}
	if v, ok := grid[2][4].(float64); !ok || v != 1200.5 {
		t.Fatalf("number cell = %#v", grid[2][4])
	}
	if c.Identity() != "sheets:sheet-id/Pipeline" {
		t.Fatalf("identity = %s", c.Identity())
	}
}

func TestClientReadRowsWithoutService(t *testing.T) {
	c := &Client{spreadsheetID: "x", sheetName: "y"}
	if _, err := c.ReadRows(context.Background()); err == nil {
		t.Fatal("expected error when service is nil")
	}
}
