package core

import (
	"errors"
	"math"
	"strings"
	"time"
)

// Deal stages in board order.
const (
	StageProspect    = "Prospect"
	StageProposal    = "Proposal"
	StageNegotiation = "Negotiation"
	StageWon         = "Won"
	StageLost        = "Lost"
)

var dealStages = []string{StageProspect, StageProposal, StageNegotiation, StageWon, StageLost}

var (
	ErrDealClientRequired = errors.New("client name is required")
	ErrDealInvalidValue   = errors.New("deal value must be a finite, non-negative number")
	ErrDealFinalStage     = errors.New("deal is already in the final stage")
	ErrDealNotFound       = errors.New("deal not found")
)

// Deal is one entry of the deal tracker.
type Deal struct {
	ID         int64     `json:"id"`
	ClientName string    `json:"client_name"`
	Value      float64   `json:"value"`
	Stage      string    `json:"stage"`
	Notes      string    `json:"notes"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// DealStages returns the stages in board order.
func DealStages() []string {
	return append([]string(nil), dealStages...)
}

// BoardStage maps a stored stage to the column it is shown in. Stages outside
// the known list land in the first column.
func BoardStage(stage string) string {
	for _, s := range dealStages {
		if s == stage {
			return s
		}
	}
	return dealStages[0]
}

// NextStage returns the stage after stage. The final stage has no successor.
func NextStage(stage string) (string, error) {
	cur := BoardStage(stage)
	for i, s := range dealStages {
		if s == cur && i < len(dealStages)-1 {
			return dealStages[i+1], nil
		}
	}
	return "", ErrDealFinalStage
}

// Normalize trims the text fields and places a new deal in the first stage.
func (d *Deal) Normalize() {
	d.ClientName = strings.TrimSpace(d.ClientName)
	d.Notes = strings.TrimSpace(d.Notes)
	if d.Stage == "" {
		d.Stage = dealStages[0]
	}
}

// Validate checks the fields a deal must carry before it is stored.
func (d Deal) Validate() error {
	if strings.TrimSpace(d.ClientName) == "" {
		return ErrDealClientRequired
	}
	if math.IsNaN(d.Value) || math.IsInf(d.Value, 0) || d.Value < 0 {
		return ErrDealInvalidValue
	}
	return nil
}

// GroupByStage buckets deals by board stage. Every stage is present in the
// result, possibly with an empty list.
func GroupByStage(deals []Deal) map[string][]Deal {
	out := make(map[string][]Deal, len(dealStages))
	for _, s := range dealStages {
		out[s] = []Deal{}
	}
	for _, d := range deals {
		s := BoardStage(d.Stage)
		out[s] = append(out[s], d)
	}
	return out
}
