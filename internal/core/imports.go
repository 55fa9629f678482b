package core

import "time"

// ImportRecord describes one successful batch load.
type ImportRecord struct {
	BatchID       string    `json:"batch_id"`
	Source        string    `json:"source"`
	Key           string    `json:"key"`
	Records       int       `json:"records"`
	RawTotal      float64   `json:"raw_total"`
	WeightedTotal float64   `json:"weighted_total"`
	LoadedAt      time.Time `json:"loaded_at"`
}
