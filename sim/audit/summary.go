package audit

import "math"

// Summary aggregates statistics over audit records.
type Summary struct {
	Total    int
	Failed   int
	Feasible int // evaluations with no penalty at all

	BestFitness float64
	BestLCOE    float64
	Best        []float64 // decision vector of the best record
}

// NewSummary returns an empty summary.
func NewSummary() *Summary {
	return &Summary{BestFitness: math.Inf(1), BestLCOE: math.Inf(1)}
}

// Add folds one record into the summary.
func (s *Summary) Add(r Record) {
	s.Total++
	if r.Failed() {
		s.Failed++
		return
	}
	if r.Penalty() == 0 {
		s.Feasible++
	}
	if r.Fitness < s.BestFitness {
		s.BestFitness = r.Fitness
		s.BestLCOE = r.LCOE
		s.Best = append(s.Best[:0], r.X...)
	}
}

// Summarize computes the summary of records.
// Safe for nil or empty input (returns zero counts and +Inf best fitness).
func Summarize(records []Record) *Summary {
	s := NewSummary()
	for _, r := range records {
		s.Add(r)
	}
	return s
}
