package core

import "strings"

// Search returns the records with at least one field whose text contains
// query, ignoring case. Matching is literal. An empty query returns records
// unchanged; order is always preserved.
func Search(records []Opportunity, query string) []Opportunity {
	if query == "" {
		return records
	}
	needle := strings.ToLower(query)
	out := make([]Opportunity, 0)
	for _, o := range records {
		if o.matches(needle) {
			out = append(out, o)
		}
	}
	return out
}

func (o Opportunity) matches(needle string) bool {
	for _, v := range o.fields() {
		s, ok := Text(v)
		if !ok {
			continue
		}
		if strings.Contains(strings.ToLower(s), needle) {
			return true
		}
	}
	return false
}

// fields lists every value of the record that search looks at.
func (o Opportunity) fields() []any {
	vals := make([]any, 0, 7+MonthsPerYear+len(o.Extra))
	vals = append(vals, o.Partner, o.Industry, o.SalesStage, o.ProbabilityLabel, o.Owner, o.NextStep, o.Probability)
	for _, v := range o.Amounts {
		vals = append(vals, v)
	}
	for _, f := range o.Extra {
		vals = append(vals, f.Value)
	}
	return vals
}

// Options are the choices offered when entering a new opportunity.
type Options struct {
	Industries    []string `json:"industries"`
	Stages        []string `json:"stages"`
	Probabilities []string `json:"probabilities"`
}

// FormOptions collects the distinct industries and stages of records in
// first-seen order. Blank industries are skipped. Empty lists fall back to
// "Unknown" and "Prospect".
func FormOptions(records []Opportunity) Options {
	opts := Options{
		Industries:    distinct(records, func(o Opportunity) string { return o.Industry }, true),
		Stages:        distinct(records, func(o Opportunity) string { return o.SalesStage }, false),
		Probabilities: ProbabilityLabels(),
	}
	if len(opts.Industries) == 0 {
		opts.Industries = []string{"Unknown"}
	}
	if len(opts.Stages) == 0 {
		opts.Stages = []string{"Prospect"}
	}
	return opts
}

func distinct(records []Opportunity, key func(Opportunity) string, skipBlank bool) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, o := range records {
		k := key(o)
		if skipBlank && strings.TrimSpace(k) == "" {
			continue
		}
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, k)
	}
	return out
}
