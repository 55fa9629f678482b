package core

type (
	// MonthTrend is the raw and weighted total of one calendar month.
	MonthTrend struct {
		Month    string  `json:"month"`
		Raw      float64 `json:"raw"`
		Weighted float64 `json:"weighted"`
	}

	// Summary is the aggregate forecast of a batch.
	Summary struct {
		RawTotal      float64      `json:"raw_total"`
		WeightedTotal float64      `json:"weighted_total"`
		Trend         []MonthTrend `json:"monthly_trend"`
		// ByIndustry and ByStage hold weighted totals; groups whose weighted
		// total is not strictly positive are left out.
		ByIndustry    map[string]float64 `json:"industry_breakdown"`
		ByStage       map[string]float64 `json:"stage_breakdown"`
		ByProbability map[string]int     `json:"probability_counts"`
		Count         int                `json:"count"`
	}
)

// Aggregate computes totals, the monthly trend and the weighted breakdowns
// of records. It never fails; an empty input yields zero sums and empty
// breakdowns.
func Aggregate(records []Opportunity) Summary {
	var raw, weighted Months
	byIndustry := make(map[string]float64)
	byStage := make(map[string]float64)
	byProb := make(map[string]int)

	for _, o := range records {
		w := o.Weight()
		var recWeighted float64
		for i, v := range o.Amounts {
			v = clampAmount(v)
			raw[i] += v
			weighted[i] += v * w
			recWeighted += v * w
		}
		byIndustry[o.Industry] += recWeighted
		byStage[o.SalesStage] += recWeighted
		byProb[o.ProbabilityLabel]++
	}

	s := Summary{
		Trend:         make([]MonthTrend, MonthsPerYear),
		ByIndustry:    positive(byIndustry),
		ByStage:       positive(byStage),
		ByProbability: byProb,
		Count:         len(records),
	}
	for i, m := range monthCodes {
		r, w := saturate(raw[i]), saturate(weighted[i])
		s.Trend[i] = MonthTrend{Month: m, Raw: r, Weighted: w}
		s.RawTotal = saturate(s.RawTotal + r)
		s.WeightedTotal = saturate(s.WeightedTotal + w)
	}
	return s
}

func positive(in map[string]float64) map[string]float64 {
	out := make(map[string]float64, len(in))
	for k, v := range in {
		if v = saturate(v); v > 0 {
			out[k] = v
		}
	}
	return out
}

// MonthTotal returns the trend entry for a month code.
func (s Summary) MonthTotal(code string) (MonthTrend, bool) {
	for _, t := range s.Trend {
		if t.Month == code {
			return t, true
		}
	}
	return MonthTrend{}, false
}
