package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"pipeline/internal/cache"
	"pipeline/internal/core"
	applog "pipeline/internal/log"
	"pipeline/internal/services"
	"pipeline/internal/sheets/file"
)

type errorBody struct {
	Error string `json:"error"`
	// Set for schema errors.
	Missing   []string `json:"missing_columns,omitempty"`
	Available []string `json:"available_columns,omitempty"`
	Truncated bool     `json:"available_truncated,omitempty"`
}

type batchInfo struct {
	ID       string    `json:"id"`
	Source   string    `json:"source"`
	Key      string    `json:"key"`
	LoadedAt time.Time `json:"loaded_at"`
	Records  int       `json:"records"`
	Months   []string  `json:"months"`
}

func newBatchInfo(b *cache.Batch) batchInfo {
	return batchInfo{
		ID:       b.ID.String(),
		Source:   b.Source,
		Key:      b.Key,
		LoadedAt: b.LoadedAt,
		Records:  len(b.Records()),
		Months:   core.MonthCodes(),
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps domain errors to status codes. Unknown errors are logged
// and reported as 500 without their message.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		schemaErr *core.SchemaError
		tooLarge  *http.MaxBytesError
	)
	switch {
	case errors.As(err, &schemaErr):
		writeJSON(w, http.StatusUnprocessableEntity, errorBody{
			Error:     err.Error(),
			Missing:   schemaErr.Missing,
			Available: schemaErr.Available,
			Truncated: schemaErr.Truncated,
		})
	case errors.Is(err, core.ErrEmptyInput):
		writeJSON(w, http.StatusUnprocessableEntity, errorBody{Error: err.Error()})
	case errors.Is(err, file.ErrUnsupportedFormat):
		writeJSON(w, http.StatusUnsupportedMediaType, errorBody{Error: err.Error()})
	case errors.As(err, &tooLarge):
		writeJSON(w, http.StatusRequestEntityTooLarge, errorBody{Error: err.Error()})
	case errors.Is(err, services.ErrNoBatch), errors.Is(err, core.ErrDealNotFound):
		writeJSON(w, http.StatusNotFound, errorBody{Error: err.Error()})
	case errors.Is(err, services.ErrNoSource), errors.Is(err, core.ErrDealFinalStage):
		writeJSON(w, http.StatusConflict, errorBody{Error: err.Error()})
	case errors.Is(err, core.ErrDealClientRequired), errors.Is(err, core.ErrDealInvalidValue):
		writeJSON(w, http.StatusBadRequest, errorBody{Error: err.Error()})
	default:
		applog.FromContext(r.Context()).ErrorContext(r.Context(), "Request failed",
			applog.FieldPath, r.URL.Path,
			applog.FieldError, err.Error())
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: "internal error"})
	}
}
