package pacing

import "peflow/cashflow-backend/internal/cashflow"

// Manual spreads user-defined annual pacing fractions across quarters.
// Fractions are keyed by year offset from the vintage year; distributions
// are rescaled so their total equals called capital times TVPIMultiple.
type Manual struct {
	CallPacing   map[int]float64 `json:"call_pacing"`
	DistPacing   map[int]float64 `json:"dist_pacing"`
	TVPIMultiple float64         `json:"tvpi_multiple"`
}

func (m *Manual) Code() string { return "manual" }
func (m *Manual) Name() string { return "Manual Pacing" }

func (m *Manual) Forecast(in Input) []Entry {
	if in.Commitment <= 0 {
		return nil
	}
	if len(m.CallPacing) == 0 && len(m.DistPacing) == 0 {
		return nil
	}

	lifetime := derivedLifetime(m.CallPacing, m.DistPacing, 1)

	tvpi := m.TVPIMultiple
	if tvpi <= 0 {
		tvpi = 1.5
	}
	distScale := 1.0
	totalCallPct := sumPacing(m.CallPacing)
	totalDistPct := sumPacing(m.DistPacing)
	if totalDistPct > 0 && totalCallPct > 0 {
		distScale = totalCallPct * tvpi / totalDistPct
	}

	dates := quarterEnds(in.VintageYear, lifetime)

	var entries []Entry
	for i := range dates {
		yearIdx := i / 4
		call := m.CallPacing[yearIdx] * in.Commitment / 4
		dist := m.DistPacing[yearIdx] * in.Commitment * distScale / 4

		entries = appendEntry(entries, dates[i], cashflow.CapitalCall, call)
		entries = appendEntry(entries, dates[i], cashflow.Distribution, dist)
	}
	return entries
}

// derivedLifetime returns the number of years covered by the pacing maps,
// at least floor.
func derivedLifetime(callPacing, distPacing map[int]float64, floor int) int {
	maxYear := 0
	for yr := range callPacing {
		if yr+1 > maxYear {
			maxYear = yr + 1
		}
	}
	for yr := range distPacing {
		if yr+1 > maxYear {
			maxYear = yr + 1
		}
	}
	if maxYear < floor {
		return floor
	}
	return maxYear
}

func sumPacing(pacing map[int]float64) float64 {
	total := 0.0
	for _, pct := range pacing {
		total += pct
	}
	return total
}
