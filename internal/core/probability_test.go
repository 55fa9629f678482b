package core

import "testing"

func TestWeightKnownLabels(t *testing.T) {
	cases := []struct {
		label string
		want  float64
	}{
		{"Won", 1.0},
		{"High", 0.7},
		{"Medium", 0.4},
		{"Low", 0.2},
		{"Lost", 0.0},
	}
	for _, tc := range cases {
		if got := Weight(tc.label); got != tc.want {
			t.Fatalf("Weight(%q) = %v, want %v", tc.label, got, tc.want)
		}
	}
}

func TestWeightUnknownLabelsDefault(t *testing.T) {
	for _, label := range []string{"", "Unknown", "high", "WON", " High", "High ", "0.7", "Probable"} {
		if got := Weight(label); got != DefaultWeight {
			t.Fatalf("Weight(%q) = %v, want default %v", label, got, DefaultWeight)
		}
	}
}

func TestWeightWithinUnitInterval(t *testing.T) {
	for _, label := range append(ProbabilityLabels(), "", "x") {
		w := Weight(label)
		if w < 0 || w > 1 {
			t.Fatalf("Weight(%q) = %v outside [0,1]", label, w)
		}
	}
}

func TestOpportunityWeightFallsBackOnInvalidProbability(t *testing.T) {
	o := Opportunity{ProbabilityLabel: "High", Probability: 3}
	if got := o.Weight(); got != 0.7 {
		t.Fatalf("expected label fallback 0.7, got %v", got)
	}
	o = NewOpportunity("Acme", "Tech", "Proposal", "Medium", Months{})
	if o.Probability != 0.4 || o.Weight() != 0.4 {
		t.Fatalf("unexpected probability: %+v", o)
	}
}

func TestOpportunityWeightDerivesMissingProbability(t *testing.T) {
	tests := []struct {
		label string
		want  float64
	}{
		{"High", 0.7},
		{"Won", 1.0},
		{"Lost", 0.0},
		{"", 0.1},
		{"whatever", 0.1},
	}
	for _, tt := range tests {
		o := Opportunity{ProbabilityLabel: tt.label, Amounts: Months{10}}
		if got := o.Weight(); got != tt.want {
			t.Errorf("Weight() for %q = %v, want %v", tt.label, got, tt.want)
		}
		if got, want := o.Weighted(0), 10*tt.want; got != want {
			t.Errorf("Weighted(0) for %q = %v, want %v", tt.label, got, want)
		}
	}
}
