package http

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"pipeline/internal/core"
)

const defaultImportsLimit = 20

type uploadResponse struct {
	Batch   batchInfo    `json:"batch"`
	Reused  bool         `json:"reused"`
	Summary core.Summary `json:"summary"`
}

type recordsResponse struct {
	Batch   batchInfo `json:"batch"`
	Query   string    `json:"query"`
	Columns []string  `json:"columns"`
	Rows    [][]any   `json:"rows"`
	Count   int       `json:"count"`
}

type summaryResponse struct {
	Batch   batchInfo    `json:"batch"`
	Summary core.Summary `json:"summary"`
}

// handleUpload normalizes the multipart field "file". Uploading the content
// of the current batch again answers 200 with reused=true; a new batch is 201.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	if r.ContentLength > s.maxUploadBytes {
		writeJSON(w, http.StatusRequestEntityTooLarge, errorBody{Error: fmt.Sprintf("upload exceeds %d bytes", s.maxUploadBytes)})
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUploadBytes)
	if err := r.ParseMultipartForm(s.maxUploadBytes); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid multipart form: " + err.Error()})
		return
	}
	defer r.MultipartForm.RemoveAll()

	f, header, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: `missing upload field "file"`})
		return
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		writeError(w, r, fmt.Errorf("read upload: %w", err))
		return
	}

	b, reused, err := s.pipeline.LoadUpload(r.Context(), header.Filename, data)
	if err != nil {
		writeError(w, r, err)
		return
	}
	sum := s.pipeline.SummaryOf(b)

	status := http.StatusCreated
	if reused {
		status = http.StatusOK
	}
	writeJSON(w, status, uploadResponse{Batch: newBatchInfo(b), Reused: reused, Summary: sum})
}

func (s *Server) handleReload(w http.ResponseWriter, r *http.Request) {
	b, err := s.pipeline.Reload(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newBatchInfo(b))
}

func (s *Server) handleClear(w http.ResponseWriter, r *http.Request) {
	s.pipeline.Clear()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleCurrent(w http.ResponseWriter, r *http.Request) {
	b, err := s.pipeline.Current()
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newBatchInfo(b))
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	sum, b, err := s.pipeline.Summary(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, summaryResponse{Batch: newBatchInfo(b), Summary: sum})
}

// handleRecords lists the records matching ?q= as rows ordered like columns.
// The query is matched literally, whitespace included.
func (s *Server) handleRecords(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	records, b, err := s.pipeline.Search(r.Context(), query)
	if err != nil {
		writeError(w, r, err)
		return
	}

	columns := b.Dataset.DisplayColumns()
	rows := make([][]any, 0, len(records))
	for _, o := range records {
		cells := o.Row(columns)
		row := make([]any, len(columns))
		for i, c := range columns {
			row[i] = cells[c]
		}
		rows = append(rows, row)
	}

	writeJSON(w, http.StatusOK, recordsResponse{
		Batch:   newBatchInfo(b),
		Query:   query,
		Columns: columns,
		Rows:    rows,
		Count:   len(rows),
	})
}

func (s *Server) handleOptions(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.pipeline.Options(r.Context()))
}

func (s *Server) handleImports(w http.ResponseWriter, r *http.Request) {
	limit := defaultImportsLimit
	if v := strings.TrimSpace(r.URL.Query().Get("limit")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			writeJSON(w, http.StatusBadRequest, errorBody{Error: "limit must be a positive integer"})
			return
		}
		limit = n
	}

	imports, err := s.pipeline.Imports(r.Context(), limit)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, imports)
}
