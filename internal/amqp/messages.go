package amqp

import (
	"encoding/json"
	"time"
)

// Routing keys of the events published on the pipeline exchange. Reload
// requests are routed with the queue name.
const (
	RoutingBatchLoaded = "pipeline.batch_loaded"
	RoutingDealChanged = "deals.changed"
)

// Deal change actions.
const (
	DealCreated  = "created"
	DealAdvanced = "advanced"
	DealDeleted  = "deleted"
)

// ReloadRequest asks the server to re-read its configured pipeline source.
type ReloadRequest struct {
	RequestID string    `json:"request_id"`
	Reason    string    `json:"reason,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// NewReloadRequest creates a reload request stamped with the current time.
func NewReloadRequest(requestID, reason string) *ReloadRequest {
	return &ReloadRequest{
		RequestID: requestID,
		Reason:    reason,
		Timestamp: time.Now(),
	}
}

// BatchLoaded announces a new current pipeline batch.
type BatchLoaded struct {
	BatchID       string    `json:"batch_id"`
	Source        string    `json:"source"`
	Key           string    `json:"key"`
	Records       int       `json:"records"`
	RawTotal      float64   `json:"raw_total"`
	WeightedTotal float64   `json:"weighted_total"`
	Timestamp     time.Time `json:"timestamp"`
}

// DealChanged announces a change on the deal board.
type DealChanged struct {
	DealID    int64     `json:"deal_id"`
	Action    string    `json:"action"`
	Stage     string    `json:"stage,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// ToJSON converts the message to JSON bytes
func (m *ReloadRequest) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// ReloadRequestFromJSON creates a message from JSON bytes
func ReloadRequestFromJSON(data []byte) (*ReloadRequest, error) {
	var msg ReloadRequest
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
