package core

import "strings"

// Dataset is a normalized batch of opportunities.
type Dataset struct {
	Records []Opportunity
	// Months is the canonical month list, always the twelve codes.
	Months []string
	// Columns are the trimmed source labels followed by any month column
	// that had to be synthesized.
	Columns []string
}

// Normalize validates and coerces a table into opportunities using
// PipelineSchema. The table must not contain the title rows any more; use
// FromGrid to skip them.
//
// An empty table yields *EmptyInputError, a header without the required
// columns yields *SchemaError. Every other anomaly is absorbed: bad amounts
// become 0, unknown probability labels weigh DefaultWeight.
func Normalize(t Table) (*Dataset, error) {
	return NormalizeWith(PipelineSchema(), t)
}

// NormalizeWith is Normalize with an explicit schema.
func NormalizeWith(schema Schema, t Table) (*Dataset, error) {
	// trimmed label -> original key, first occurrence wins
	keys := make(map[string]string, len(t.Columns))
	labels := make([]string, 0, len(t.Columns))
	for _, c := range t.Columns {
		l := strings.TrimSpace(c)
		if _, dup := keys[l]; dup {
			continue
		}
		keys[l] = c
		labels = append(labels, l)
	}

	if len(t.Rows) == 0 {
		return nil, &EmptyInputError{TitleRows: t.TitleRows}
	}
	if missing := schema.Missing(labels); len(missing) > 0 {
		return nil, newSchemaError(missing, labels)
	}

	columns := append([]string(nil), labels...)
	for _, m := range monthCodes {
		if _, ok := keys[m]; !ok {
			columns = append(columns, m)
		}
	}

	var extras []string
	for _, l := range labels {
		if !schema.Known(l) {
			extras = append(extras, l)
		}
	}

	value := func(row Row, name string) any {
		if k, ok := keys[name]; ok {
			return row[k]
		}
		if r, ok := schema.Rule(name); ok {
			return r.Default
		}
		return nil
	}

	records := make([]Opportunity, 0, len(t.Rows))
	for _, row := range t.Rows {
		o := Opportunity{
			Partner:          label(value(row, ColumnPartner)),
			Industry:         label(value(row, ColumnIndustry)),
			SalesStage:       label(value(row, ColumnSalesStage)),
			ProbabilityLabel: label(value(row, ColumnProbability)),
			Owner:            label(value(row, ColumnOwner)),
			NextStep:         label(value(row, ColumnNextStep)),
		}
		o.Probability = Weight(o.ProbabilityLabel)
		for i, m := range monthCodes {
			o.Amounts[i] = ParseAmount(value(row, m))
		}
		if len(extras) > 0 {
			o.Extra = make([]Field, 0, len(extras))
			for _, name := range extras {
				o.Extra = append(o.Extra, Field{Name: name, Value: row[keys[name]]})
			}
		}
		records = append(records, o)
	}

	return &Dataset{
		Records: records,
		Months:  MonthCodes(),
		Columns: columns,
	}, nil
}

// Has reports whether the batch carried a column with the given label.
func (d *Dataset) Has(column string) bool {
	for _, c := range d.Columns {
		if c == column {
			return true
		}
	}
	return false
}

// DisplayColumns lists the columns shown in a record listing: the required
// fields, the optional display fields the batch actually has, then months.
func (d *Dataset) DisplayColumns() []string {
	cols := []string{ColumnPartner, ColumnIndustry, ColumnSalesStage, ColumnProbability}
	for _, opt := range []string{ColumnOwner, ColumnNextStep} {
		if d.Has(opt) {
			cols = append(cols, opt)
		}
	}
	return append(cols, d.Months...)
}

// Table renders the dataset back into a Table with the same columns. Feeding
// it to Normalize again reproduces the dataset.
func (d *Dataset) Table() Table {
	t := Table{Columns: append([]string(nil), d.Columns...)}
	for _, o := range d.Records {
		row := make(Row, len(d.Columns))
		for _, c := range d.Columns {
			row[c] = o.cell(c)
		}
		t.Rows = append(t.Rows, row)
	}
	return t
}

// cell returns the normalized value of a column for this record.
func (o Opportunity) cell(column string) any {
	switch column {
	case ColumnPartner:
		return o.Partner
	case ColumnIndustry:
		return o.Industry
	case ColumnSalesStage:
		return o.SalesStage
	case ColumnProbability:
		return o.ProbabilityLabel
	case ColumnOwner:
		return o.Owner
	case ColumnNextStep:
		return o.NextStep
	}
	if i, ok := MonthIndex(column); ok {
		return o.Amounts[i]
	}
	v, _ := o.Lookup(column)
	return v
}

// Row renders the record as a column map restricted to columns.
func (o Opportunity) Row(columns []string) Row {
	row := make(Row, len(columns))
	for _, c := range columns {
		row[c] = o.cell(c)
	}
	return row
}
