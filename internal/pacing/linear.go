package pacing

import "peflow/cashflow-backend/internal/cashflow"

// Linear calls capital evenly over the investment period and distributes
// commitment times TVPI evenly over the harvest period.
type Linear struct {
	InvestmentPeriod int     `json:"investment_period"`
	HarvestStart     int     `json:"harvest_start"`
	TVPIMultiple     float64 `json:"tvpi_multiple"`
}

// DefaultLinear returns the model with its standard parameters.
func DefaultLinear() *Linear {
	return &Linear{
		InvestmentPeriod: 5,
		HarvestStart:     4,
		TVPIMultiple:     1.5,
	}
}

func (m *Linear) Code() string { return "linear" }
func (m *Linear) Name() string { return "Linear" }

func (m *Linear) Forecast(in Input) []Entry {
	if in.Commitment <= 0 || in.Lifetime <= 0 {
		return nil
	}
	numQuarters := in.Lifetime * 4
	dates := quarterEnds(in.VintageYear, in.Lifetime)

	callQuarters := m.InvestmentPeriod * 4
	quarterlyCall := 0.0
	if callQuarters > 0 {
		quarterlyCall = in.Commitment / float64(callQuarters)
	}

	harvestQuarters := (in.Lifetime - m.HarvestStart) * 4
	quarterlyDist := 0.0
	if harvestQuarters > 0 {
		quarterlyDist = in.Commitment * m.TVPIMultiple / float64(harvestQuarters)
	}

	var entries []Entry
	for i := 0; i < numQuarters; i++ {
		yearOffset := float64(i) / 4

		if i < callQuarters {
			entries = appendEntry(entries, dates[i], cashflow.CapitalCall, quarterlyCall)
		}
		if yearOffset >= float64(m.HarvestStart) {
			entries = appendEntry(entries, dates[i], cashflow.Distribution, quarterlyDist)
		}
	}
	return entries
}
