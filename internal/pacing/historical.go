package pacing

import "peflow/cashflow-backend/internal/cashflow"

// HistoricalAverage replays the pacing curves derived from a reference
// fund's realized history, scaled to the new commitment. Unlike Manual,
// distributions are not rescaled to a TVPI target; the historical
// return profile is kept as observed.
type HistoricalAverage struct {
	Curves cashflow.PacingCurves `json:"curves"`
}

func (m *HistoricalAverage) Code() string { return "historical_average" }
func (m *HistoricalAverage) Name() string { return "Historical Average" }

func (m *HistoricalAverage) Forecast(in Input) []Entry {
	if in.Commitment <= 0 {
		return nil
	}
	if len(m.Curves.CallPacing) == 0 && len(m.Curves.DistPacing) == 0 {
		return nil
	}

	// The schedule covers the full historical profile even when it runs
	// past the requested lifetime.
	lifetime := derivedLifetime(m.Curves.CallPacing, m.Curves.DistPacing, in.Lifetime)
	dates := quarterEnds(in.VintageYear, lifetime)

	var entries []Entry
	for i := range dates {
		yearIdx := i / 4
		call := m.Curves.CallPacing[yearIdx] * in.Commitment / 4
		dist := m.Curves.DistPacing[yearIdx] * in.Commitment / 4

		entries = appendEntry(entries, dates[i], cashflow.CapitalCall, call)
		entries = appendEntry(entries, dates[i], cashflow.Distribution, dist)
	}
	return entries
}
