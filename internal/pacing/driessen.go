package pacing

import (
	"math"

	"peflow/cashflow-backend/internal/cashflow"
)

// DriessenLinPhalippou models calls as exponential decay on the unfunded
// commitment. Distributions start in year three as a fixed fraction of a
// growing NAV.
type DriessenLinPhalippou struct {
	DrawdownRate     float64 `json:"drawdown_rate"`
	DistributionRate float64 `json:"distribution_rate"`
	NAVGrowthRate    float64 `json:"nav_growth_rate"`
}

// DefaultDriessenLinPhalippou returns the model with its standard parameters.
func DefaultDriessenLinPhalippou() *DriessenLinPhalippou {
	return &DriessenLinPhalippou{
		DrawdownRate:     0.30,
		DistributionRate: 0.25,
		NAVGrowthRate:    0.10,
	}
}

func (m *DriessenLinPhalippou) Code() string { return "driessen_lin_phalippou" }
func (m *DriessenLinPhalippou) Name() string { return "Driessen-Lin-Phalippou" }

func (m *DriessenLinPhalippou) Forecast(in Input) []Entry {
	if in.Commitment <= 0 || in.Lifetime <= 0 {
		return nil
	}
	numQuarters := in.Lifetime * 4
	dates := quarterEnds(in.VintageYear, in.Lifetime)

	// Annual rates converted so that four quarterly applications compound
	// to the annual rate.
	drQ := 1 - math.Pow(1-m.DrawdownRate, 0.25)
	distQ := 1 - math.Pow(1-m.DistributionRate, 0.25)
	gQ := math.Pow(1+m.NAVGrowthRate, 0.25) - 1

	var entries []Entry
	nav := 0.0
	totalCalled := 0.0

	for i := 0; i < numQuarters; i++ {
		yearOffset := float64(i+1) / 4
		unfunded := in.Commitment - totalCalled

		call := drQ * unfunded
		call = math.Max(0, math.Min(call, unfunded))
		totalCalled += call
		nav += call
		nav *= 1 + gQ

		dist := 0.0
		if yearOffset >= 3.0 {
			dist = distQ * nav
			dist = math.Max(0, math.Min(dist, nav))
			nav -= dist
		}

		entries = appendEntry(entries, dates[i], cashflow.CapitalCall, call)
		entries = appendEntry(entries, dates[i], cashflow.Distribution, dist)
	}
	return entries
}
