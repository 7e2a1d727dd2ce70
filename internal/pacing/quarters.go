package pacing

import (
	"math"
	"time"

	"peflow/cashflow-backend/internal/cashflow"
)

// quarterEnds returns the quarter-end dates for years of fund life starting
// at the vintage year: Mar 31, Jun 30, Sep 30, Dec 31 of each year.
func quarterEnds(vintageYear, years int) []time.Time {
	if years <= 0 {
		return nil
	}
	dates := make([]time.Time, 0, years*4)
	for y := 0; y < years; y++ {
		year := vintageYear + y
		dates = append(dates,
			time.Date(year, time.March, 31, 0, 0, 0, 0, time.UTC),
			time.Date(year, time.June, 30, 0, 0, 0, 0, time.UTC),
			time.Date(year, time.September, 30, 0, 0, 0, 0, time.UTC),
			time.Date(year, time.December, 31, 0, 0, 0, 0, time.UTC),
		)
	}
	return dates
}

// annualToQuarterly spreads each annual amount evenly across its four
// quarters.
func annualToQuarterly(annual []float64) []float64 {
	quarterly := make([]float64, 0, len(annual)*4)
	for _, a := range annual {
		q := a / 4
		quarterly = append(quarterly, q, q, q, q)
	}
	return quarterly
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// appendEntry adds an entry when the rounded amount is material (> 0.01).
func appendEntry(entries []Entry, date time.Time, flowType cashflow.FlowType, amount float64) []Entry {
	rounded := round2(amount)
	if rounded <= 0.01 {
		return entries
	}
	return append(entries, Entry{Date: date, Type: flowType, Amount: rounded})
}
