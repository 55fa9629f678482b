package core

import (
	"reflect"
	"testing"
)

type panicky struct{}

func (panicky) String() string { panic("boom") }

func searchFixture() []Opportunity {
	acme := NewOpportunity("Acme Corp", "Tech", "Negotiation", "High", months(100))
	beta := NewOpportunity("Beta", "Retail", "Proposal", "Low", months(0, 250.5))
	beta.Extra = []Field{{Name: "Region", Value: "EMEA"}, {Name: "Broken", Value: panicky{}}}
	gamma := NewOpportunity("Gamma acme", "Energy", "Won", "Won", months())
	gamma.NextStep = "Call back (urgent)"
	return []Opportunity{acme, beta, gamma}
}

func partners(records []Opportunity) []string {
	out := make([]string, 0, len(records))
	for _, o := range records {
		out = append(out, o.Partner)
	}
	return out
}

func TestSearch(t *testing.T) {
	records := searchFixture()
	cases := []struct {
		name  string
		query string
		want  []string
	}{
		{"case insensitive partner", "ACME", []string{"Acme Corp", "Gamma acme"}},
		{"industry", "retail", []string{"Beta"}},
		{"extra column", "emea", []string{"Beta"}},
		{"amount text", "250.5", []string{"Beta"}},
		{"integral amount renders with decimal", "100.0", []string{"Acme Corp"}},
		{"regex metacharacters are literal", "(urgent)", []string{"Gamma acme"}},
		{"no match", "zzz", []string{}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := partners(Search(records, tc.query))
			if !reflect.DeepEqual(got, tc.want) {
				t.Fatalf("Search(%q) = %v, want %v", tc.query, got, tc.want)
			}
		})
	}
}

func TestSearchEmptyQueryReturnsInput(t *testing.T) {
	records := searchFixture()
	got := Search(records, "")
	if !reflect.DeepEqual(partners(got), partners(records)) {
		t.Fatalf("empty query changed the records: %v", partners(got))
	}
	if len(Search(nil, "")) != 0 {
		t.Fatalf("empty input should stay empty")
	}
}

func TestSearchSkipsPanickingValues(t *testing.T) {
	o := NewOpportunity("Solo", "Tech", "Won", "Won", months())
	o.Extra = []Field{{Name: "Bad", Value: panicky{}}, {Name: "Chan", Value: make(chan int)}}
	if got := Search([]Opportunity{o}, "boom"); len(got) != 0 {
		t.Fatalf("panicking value should not match: %v", partners(got))
	}
	if got := Search([]Opportunity{o}, "solo"); len(got) != 1 {
		t.Fatalf("record with an unrenderable field should still match on others")
	}
}

func TestFormOptions(t *testing.T) {
	opts := FormOptions(searchFixture())
	if !reflect.DeepEqual(opts.Industries, []string{"Tech", "Retail", "Energy"}) {
		t.Fatalf("industries = %v", opts.Industries)
	}
	if !reflect.DeepEqual(opts.Stages, []string{"Negotiation", "Proposal", "Won"}) {
		t.Fatalf("stages = %v", opts.Stages)
	}
	if !reflect.DeepEqual(opts.Probabilities, []string{"Low", "Medium", "High", "Won", "Lost"}) {
		t.Fatalf("probabilities = %v", opts.Probabilities)
	}

	empty := FormOptions([]Opportunity{NewOpportunity("A", " ", "", "", months())})
	if !reflect.DeepEqual(empty.Industries, []string{"Unknown"}) {
		t.Fatalf("industries fallback = %v", empty.Industries)
	}
	if !reflect.DeepEqual(empty.Stages, []string{""}) {
		t.Fatalf("stages = %v", empty.Stages)
	}
	none := FormOptions(nil)
	if !reflect.DeepEqual(none.Stages, []string{"Prospect"}) {
		t.Fatalf("stages fallback = %v", none.Stages)
	}
}
