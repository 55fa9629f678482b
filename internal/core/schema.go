package core

// ColumnRule describes one expected column of a pipeline sheet.
type ColumnRule struct {
	Name     string
	Required bool
	// Default is used when an optional column is absent from the header.
	Default any
}

// Schema is an ordered set of column rules.
type Schema struct {
	rules []ColumnRule
	index map[string]int
}

// NewSchema builds a schema from rules; a later rule with the same name wins.
func NewSchema(rules ...ColumnRule) Schema {
	s := Schema{index: make(map[string]int, len(rules))}
	for _, r := range rules {
		if i, ok := s.index[r.Name]; ok {
			s.rules[i] = r
			continue
		}
		s.index[r.Name] = len(s.rules)
		s.rules = append(s.rules, r)
	}
	return s
}

// PipelineSchema is the schema of a sales pipeline export: four required
// text columns, two optional display columns and twelve optional month
// columns defaulting to zero.
func PipelineSchema() Schema {
	rules := []ColumnRule{
		{Name: ColumnPartner, Required: true},
		{Name: ColumnIndustry, Required: true},
		{Name: ColumnSalesStage, Required: true},
		{Name: ColumnProbability, Required: true},
		{Name: ColumnOwner, Default: ""},
		{Name: ColumnNextStep, Default: ""},
	}
	for _, m := range monthCodes {
		rules = append(rules, ColumnRule{Name: m, Default: 0.0})
	}
	return NewSchema(rules...)
}

// Rules returns the rules in declaration order.
func (s Schema) Rules() []ColumnRule {
	return append([]ColumnRule(nil), s.rules...)
}

// Rule looks up a rule by exact column name.
func (s Schema) Rule(name string) (ColumnRule, bool) {
	i, ok := s.index[name]
	if !ok {
		return ColumnRule{}, false
	}
	return s.rules[i], true
}

// Known reports whether name is described by the schema.
func (s Schema) Known(name string) bool {
	_, ok := s.index[name]
	return ok
}

// Missing returns the required columns absent from labels, in schema order.
// Labels are compared exactly; callers trim them first.
func (s Schema) Missing(labels []string) []string {
	present := make(map[string]struct{}, len(labels))
	for _, l := range labels {
		present[l] = struct{}{}
	}
	var missing []string
	for _, r := range s.rules {
		if !r.Required {
			continue
		}
		if _, ok := present[r.Name]; !ok {
			missing = append(missing, r.Name)
		}
	}
	return missing
}
