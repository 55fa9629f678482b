package core

import "strings"

// Canonical column labels. The probability column keeps the spelling used by
// the pipeline spreadsheets ("Probility"); renaming it would reject every
// existing export.
const (
	ColumnPartner     = "Partner"
	ColumnIndustry    = "Industry"
	ColumnSalesStage  = "Sales Stage"
	ColumnProbability = "Probility"
	ColumnOwner       = "BD"
	ColumnNextStep    = "Next Step"
)

// MonthsPerYear is the number of monthly revenue columns of a pipeline sheet.
const MonthsPerYear = 12

var monthCodes = [MonthsPerYear]string{"Jan", "Feb", "Mar", "Apr", "May", "Jun", "Jul", "Aug", "Sep", "Oct", "Nov", "Dec"}

// MonthCodes returns the twelve month column labels in calendar order.
func MonthCodes() []string {
	out := make([]string, MonthsPerYear)
	copy(out, monthCodes[:])
	return out
}

// MonthIndex returns the 0-based calendar index of a month code.
func MonthIndex(code string) (int, bool) {
	for i, m := range monthCodes {
		if m == code {
			return i, true
		}
	}
	return -1, false
}

type (
	// Months holds one amount per calendar month. A fixed array means no month
	// can ever be missing.
	Months [MonthsPerYear]float64

	// Field is a named, untyped value carried from the source row.
	Field struct {
		Name  string
		Value any
	}

	// Opportunity is one normalized pipeline row.
	Opportunity struct {
		Partner          string
		Industry         string
		SalesStage       string
		ProbabilityLabel string
		Probability      float64
		Owner            string // BD column, optional
		NextStep         string // optional
		Amounts          Months
		// Extra keeps every other source column in header order.
		Extra []Field
	}
)

// NewOpportunity builds an opportunity and derives its probability from label.
func NewOpportunity(partner, industry, stage, label string, amounts Months) Opportunity {
	return Opportunity{
		Partner:          partner,
		Industry:         industry,
		SalesStage:       stage,
		ProbabilityLabel: label,
		Probability:      Weight(label),
		Amounts:          amounts,
	}
}

// Amount returns the raw amount for a month code.
func (o Opportunity) Amount(code string) (float64, bool) {
	i, ok := MonthIndex(code)
	if !ok {
		return 0, false
	}
	return o.Amounts[i], true
}

// Weight returns the probability used for weighting. Records built by hand
// without a derived probability (zero, NaN or out of range) fall back to the
// label table; a zero is kept only when the label itself weighs 0.
func (o Opportunity) Weight() float64 {
	p := o.Probability
	if p != p || p <= 0 || p > 1 {
		return Weight(o.ProbabilityLabel)
	}
	return p
}

// Weighted returns amount*probability for the month at index i.
func (o Opportunity) Weighted(i int) float64 {
	if i < 0 || i >= MonthsPerYear {
		return 0
	}
	return o.Amounts[i] * o.Weight()
}

// RawTotal sums the twelve raw monthly amounts.
func (o Opportunity) RawTotal() float64 {
	var sum float64
	for _, v := range o.Amounts {
		sum += clampAmount(v)
	}
	return saturate(sum)
}

// WeightedTotal sums the twelve weighted monthly amounts.
func (o Opportunity) WeightedTotal() float64 {
	return o.RawTotal() * o.Weight()
}

// Lookup returns the value of an extra column by its trimmed label.
func (o Opportunity) Lookup(name string) (any, bool) {
	name = strings.TrimSpace(name)
	for _, f := range o.Extra {
		if f.Name == name {
			return f.Value, true
		}
	}
	return nil, false
}
