// Package audit keeps the append-only record of every evaluated decision
// vector. It does not depend on sim/ and only stores plain data.
package audit

import (
	"math"
	"strconv"
)

// Record captures one evaluation of the objective.
type Record struct {
	X []float64

	Fitness float64 // LCOE plus every penalty; +Inf when the evaluation failed
	LCOE    float64 // $/MWh

	PenaltyDeficit      float64 // unserved energy above the allowance
	PenaltyEnergy       float64 // import energy over its annual budget
	PenaltyPower        float64 // mismatch between peak deficit and interconnection capacity
	PenaltyTransmission float64

	ExportEnergy float64 // average annual export, MWh

	Err string // non-empty when the evaluation failed
}

// Penalty is the sum of all penalty components.
func (r Record) Penalty() float64 {
	return r.PenaltyDeficit + r.PenaltyEnergy + r.PenaltyPower + r.PenaltyTransmission
}

// Failed reports whether the evaluation ended in an error.
func (r Record) Failed() bool { return r.Err != "" }

// Failure builds the record of an evaluation that returned err.
func Failure(x []float64, err error) Record {
	inf := math.Inf(1)
	return Record{
		X:                   append([]float64(nil), x...),
		Fitness:             inf,
		LCOE:                inf,
		PenaltyDeficit:      inf,
		PenaltyEnergy:       inf,
		PenaltyPower:        inf,
		PenaltyTransmission: inf,
		ExportEnergy:        math.NaN(),
		Err:                 err.Error(),
	}
}

// fields renders the record as one CSV row: the vector followed by the total
// penalty, the deficit, energy and power penalties, LCOE, exports and error.
func (r Record) fields() []string {
	row := make([]string, 0, len(r.X)+7)
	for _, v := range r.X {
		row = append(row, formatFloat(v))
	}
	return append(row,
		formatFloat(r.Penalty()),
		formatFloat(r.PenaltyDeficit),
		formatFloat(r.PenaltyEnergy),
		formatFloat(r.PenaltyPower),
		formatFloat(r.LCOE),
		formatFloat(r.ExportEnergy),
		r.Err,
	)
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
