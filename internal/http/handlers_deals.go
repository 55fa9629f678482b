package http

import (
	"encoding/json"
	"net/http"
	"strconv"

	"pipeline/internal/core"
)

type boardResponse struct {
	Stages []string               `json:"stages"`
	Board  map[string][]core.Deal `json:"board"`
}

type createDealRequest struct {
	ClientName string  `json:"client_name"`
	Value      float64 `json:"value"`
	Notes      string  `json:"notes"`
}

func (s *Server) handleListDeals(w http.ResponseWriter, r *http.Request) {
	board, err := s.deals.Board(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, boardResponse{Stages: core.DealStages(), Board: board})
}

func (s *Server) handleCreateDeal(w http.ResponseWriter, r *http.Request) {
	var req createDealRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid JSON body: " + err.Error()})
		return
	}

	d, err := s.deals.Create(r.Context(), core.Deal{
		ClientName: req.ClientName,
		Value:      req.Value,
		Notes:      req.Notes,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, d)
}

func (s *Server) handleAdvanceDeal(w http.ResponseWriter, r *http.Request) {
	id, ok := dealID(w, r)
	if !ok {
		return
	}
	d, err := s.deals.Advance(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

func (s *Server) handleDeleteDeal(w http.ResponseWriter, r *http.Request) {
	id, ok := dealID(w, r)
	if !ok {
		return
	}
	if err := s.deals.Delete(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func dealID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id < 1 {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid deal id"})
		return 0, false
	}
	return id, true
}
