package pacing

import (
	"math"

	"peflow/cashflow-backend/internal/cashflow"
)

// TakahashiAlexander is the Yale endowment pacing model. A parabolic bow
// factor peaking mid-life shapes both call and distribution timing; NAV
// compounds at GrowthRate and is depleted by distributions.
type TakahashiAlexander struct {
	RateOfContribution float64 `json:"rate_of_contribution"`
	RateOfDistribution float64 `json:"rate_of_distribution"`
	BowFactor          float64 `json:"bow_factor"`
	GrowthRate         float64 `json:"growth_rate"`
}

// DefaultTakahashiAlexander returns the model with its standard parameters.
func DefaultTakahashiAlexander() *TakahashiAlexander {
	return &TakahashiAlexander{
		RateOfContribution: 0.25,
		RateOfDistribution: 0.20,
		BowFactor:          2.5,
		GrowthRate:         0.08,
	}
}

func (m *TakahashiAlexander) Code() string { return "takahashi_alexander" }
func (m *TakahashiAlexander) Name() string { return "Takahashi-Alexander (Yale)" }

func (m *TakahashiAlexander) Forecast(in Input) []Entry {
	if in.Commitment <= 0 || in.Lifetime <= 0 {
		return nil
	}
	lifetime := float64(in.Lifetime)
	numQuarters := in.Lifetime * 4
	dates := quarterEnds(in.VintageYear, in.Lifetime)

	rcQ := m.RateOfContribution / 4
	rdQ := m.RateOfDistribution / 4
	gQ := math.Pow(1+m.GrowthRate, 0.25) - 1
	mid := lifetime / 2

	var entries []Entry
	nav := 0.0
	totalCalled := 0.0

	for i := 0; i < numQuarters; i++ {
		t := float64(i+1) / 4

		bowRaw := (t * (lifetime - t)) / (mid * mid)
		bow := 0.0
		if bowRaw > 0 {
			bow = math.Pow(bowRaw, m.BowFactor)
		}

		unfunded := in.Commitment - totalCalled
		call := rcQ * bow * unfunded
		call = math.Max(0, math.Min(call, unfunded))

		totalCalled += call
		nav += call
		nav *= 1 + gQ

		dist := rdQ * bow * nav
		dist = math.Max(0, math.Min(dist, nav))
		nav -= dist

		entries = appendEntry(entries, dates[i], cashflow.CapitalCall, call)
		entries = appendEntry(entries, dates[i], cashflow.Distribution, dist)
	}
	return entries
}
