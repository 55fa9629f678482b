package core

// Probability labels of the pipeline sheet.
const (
	LabelWon    = "Won"
	LabelHigh   = "High"
	LabelMedium = "Medium"
	LabelLow    = "Low"
	LabelLost   = "Lost"
)

// DefaultWeight applies to any label outside the known vocabulary, including
// an empty cell.
const DefaultWeight = 0.1

var weights = map[string]float64{
	LabelWon:    1.0,
	LabelHigh:   0.7,
	LabelMedium: 0.4,
	LabelLow:    0.2,
	LabelLost:   0.0,
}

// Weight maps a probability label to its closing probability. Matching is
// exact and case-sensitive; unknown labels get DefaultWeight.
func Weight(label string) float64 {
	if w, ok := weights[label]; ok {
		return w
	}
	return DefaultWeight
}

// ProbabilityLabels returns the known labels in the order offered to users.
func ProbabilityLabels() []string {
	return []string{LabelLow, LabelMedium, LabelHigh, LabelWon, LabelLost}
}
