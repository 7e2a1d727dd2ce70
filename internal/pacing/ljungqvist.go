package pacing

import (
	"math"

	"peflow/cashflow-backend/internal/cashflow"
)

// LjungqvistRichardson calls capital per an annual investment-pace schedule
// during the investment period and distributes a rising fraction of NAV
// during harvest. Any NAV left after the harvest schedule runs out is
// liquidated evenly across the remaining quarters.
type LjungqvistRichardson struct {
	InvestmentPeriod int       `json:"investment_period"`
	InvestmentPace   []float64 `json:"investment_pace"`
	HarvestStart     int       `json:"harvest_start"`
	HarvestPace      []float64 `json:"harvest_pace"`
	NAVGrowthRate    float64   `json:"nav_growth_rate"`
}

// DefaultLjungqvistRichardson returns the model with its standard schedules.
func DefaultLjungqvistRichardson() *LjungqvistRichardson {
	return &LjungqvistRichardson{
		InvestmentPeriod: 5,
		InvestmentPace:   []float64{0.25, 0.25, 0.20, 0.15, 0.15},
		HarvestStart:     4,
		HarvestPace:      []float64{0.10, 0.15, 0.20, 0.25, 0.30, 0.35, 0.40},
		NAVGrowthRate:    0.10,
	}
}

func (m *LjungqvistRichardson) Code() string { return "ljungqvist_richardson" }
func (m *LjungqvistRichardson) Name() string { return "Ljungqvist-Richardson" }

func (m *LjungqvistRichardson) Forecast(in Input) []Entry {
	if in.Commitment <= 0 || in.Lifetime <= 0 {
		return nil
	}

	investmentPace := append([]float64(nil), m.InvestmentPace...)
	for len(investmentPace) < m.InvestmentPeriod {
		investmentPace = append(investmentPace, 0)
	}
	harvestPace := m.HarvestPace

	numQuarters := in.Lifetime * 4
	dates := quarterEnds(in.VintageYear, in.Lifetime)
	gQ := math.Pow(1+m.NAVGrowthRate, 0.25) - 1

	var entries []Entry
	nav := 0.0
	totalCalled := 0.0

	for i := 0; i < numQuarters; i++ {
		yearIdx := i / 4

		call := 0.0
		if yearIdx < len(investmentPace) {
			call = investmentPace[yearIdx] * in.Commitment / 4
			unfunded := in.Commitment - totalCalled
			call = math.Max(0, math.Min(call, unfunded))
		}
		totalCalled += call
		nav += call
		nav *= 1 + gQ

		dist := 0.0
		harvestYearIdx := yearIdx - m.HarvestStart
		switch {
		case harvestYearIdx >= 0 && harvestYearIdx < len(harvestPace):
			dist = harvestPace[harvestYearIdx] / 4 * nav
			dist = math.Max(0, math.Min(dist, nav))
			nav -= dist
		case harvestYearIdx >= len(harvestPace) && nav > 0.01:
			// Schedule exhausted: liquidate evenly over what is left.
			remaining := numQuarters - i
			if remaining > 0 {
				dist = nav / float64(remaining)
				dist = math.Max(0, math.Min(dist, nav))
				nav -= dist
			}
		}

		entries = appendEntry(entries, dates[i], cashflow.CapitalCall, call)
		entries = appendEntry(entries, dates[i], cashflow.Distribution, dist)
	}
	return entries
}
