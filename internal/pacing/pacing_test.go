package pacing

import (
	"math"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"peflow/cashflow-backend/internal/cashflow"
)

func totalByType(entries []Entry, t cashflow.FlowType) float64 {
	total := 0.0
	for _, e := range entries {
		if e.Type == t {
			total += e.Amount
		}
	}
	return total
}

func TestTakahashiAlexanderShape(t *testing.T) {
	model := DefaultTakahashiAlexander()
	entries := model.Forecast(Input{Commitment: 1_000_000, Lifetime: 10, VintageYear: 2024})
	require.NotEmpty(t, entries)

	firstDate := time.Date(2024, time.March, 31, 0, 0, 0, 0, time.UTC)
	lastDate := time.Date(2033, time.December, 31, 0, 0, 0, 0, time.UTC)
	firstCallYear := 0
	for _, e := range entries {
		assert.False(t, e.Date.Before(firstDate), "entry before fund start: %s", e.Date)
		assert.False(t, e.Date.After(lastDate), "entry after fund end: %s", e.Date)
		assert.Greater(t, e.Amount, 0.01)
		assert.Equal(t, e.Amount, math.Round(e.Amount*100)/100, "amount not rounded to cents")
		if e.Type == cashflow.CapitalCall && firstCallYear == 0 {
			firstCallYear = e.Date.Year()
		}
	}
	assert.Equal(t, 2024, firstCallYear, "calls must start in the vintage year")

	called := totalByType(entries, cashflow.CapitalCall)
	assert.LessOrEqual(t, called, 1_000_000.0+0.5)
	assert.Greater(t, called, 900_000.0, "bow-shaped pacing should call most of the commitment")

	distributed := totalByType(entries, cashflow.Distribution)
	assert.Greater(t, distributed, 0.0)
}

func TestTakahashiAlexanderDegenerateInput(t *testing.T) {
	model := DefaultTakahashiAlexander()
	assert.Empty(t, model.Forecast(Input{Commitment: 0, Lifetime: 10, VintageYear: 2024}))
	assert.Empty(t, model.Forecast(Input{Commitment: 1_000_000, Lifetime: 0, VintageYear: 2024}))
}

func TestDriessenDistributionsStartYearThree(t *testing.T) {
	model := DefaultDriessenLinPhalippou()
	entries := model.Forecast(Input{Commitment: 1_000_000, Lifetime: 10, VintageYear: 2024})
	require.NotEmpty(t, entries)

	// Distributions are suppressed until the year offset reaches 3.0,
	// i.e. no distribution before 2026-12-31.
	earliestDist := time.Date(2026, time.December, 31, 0, 0, 0, 0, time.UTC)
	for _, e := range entries {
		if e.Type == cashflow.Distribution {
			assert.False(t, e.Date.Before(earliestDist), "distribution too early: %s", e.Date)
		}
	}

	called := totalByType(entries, cashflow.CapitalCall)
	assert.LessOrEqual(t, called, 1_000_000.0+0.5)
}

func TestLjungqvistCallsFollowPace(t *testing.T) {
	model := DefaultLjungqvistRichardson()
	entries := model.Forecast(Input{Commitment: 2_000_000, Lifetime: 10, VintageYear: 2024})
	require.NotEmpty(t, entries)

	// The default investment pace sums to 1.0 so the full commitment is
	// called during the investment period.
	called := totalByType(entries, cashflow.CapitalCall)
	assert.InDelta(t, 2_000_000, called, 1.0)

	lastCall := time.Time{}
	for _, e := range entries {
		if e.Type == cashflow.CapitalCall && e.Date.After(lastCall) {
			lastCall = e.Date
		}
	}
	assert.Equal(t, 2028, lastCall.Year(), "calls end with the 5-year investment period")
}

func TestLjungqvistResidualLiquidation(t *testing.T) {
	// Short harvest schedule with a long lifetime forces the residual
	// liquidation branch.
	model := &LjungqvistRichardson{
		InvestmentPeriod: 2,
		InvestmentPace:   []float64{0.50, 0.50},
		HarvestStart:     2,
		HarvestPace:      []float64{0.20},
		NAVGrowthRate:    0.0,
	}
	entries := model.Forecast(Input{Commitment: 1_000_000, Lifetime: 6, VintageYear: 2024})
	require.NotEmpty(t, entries)

	var lastDistDate time.Time
	for _, e := range entries {
		if e.Type == cashflow.Distribution && e.Date.After(lastDistDate) {
			lastDistDate = e.Date
		}
	}
	// Residual NAV keeps paying out after the one-year harvest schedule.
	assert.Greater(t, lastDistDate.Year(), 2026)
	distributed := totalByType(entries, cashflow.Distribution)
	assert.InDelta(t, 1_000_000, distributed, 1.0, "with zero growth everything called is returned")
}

func TestCambridgeQuantileTVPIRescale(t *testing.T) {
	model := DefaultCambridgeQuantile()
	entries := model.Forecast(Input{Commitment: 1_000_000, Lifetime: 10, VintageYear: 2024})
	require.NotEmpty(t, entries)

	called := totalByType(entries, cashflow.CapitalCall)
	distributed := totalByType(entries, cashflow.Distribution)
	assert.InDelta(t, called*1.6, distributed, called*0.01, "distributions rescaled to target TVPI")
}

func TestCambridgeQuantileUnknownStrategyFallsBack(t *testing.T) {
	unknown := &CambridgeQuantile{Strategy: "hedge", Percentile: "p99", TVPIMultiple: 1.6, Benchmarks: embeddedBenchmarks{}}
	fallback := &CambridgeQuantile{Strategy: "buyout", Percentile: "median", TVPIMultiple: 1.6, Benchmarks: embeddedBenchmarks{}}
	in := Input{Commitment: 500_000, Lifetime: 10, VintageYear: 2024}
	assert.Equal(t, fallback.Forecast(in), unknown.Forecast(in))
}

func TestCambridgeQuantileShortLifetimeTrimsCurve(t *testing.T) {
	model := DefaultCambridgeQuantile()
	entries := model.Forecast(Input{Commitment: 1_000_000, Lifetime: 5, VintageYear: 2024})
	require.NotEmpty(t, entries)
	for _, e := range entries {
		assert.LessOrEqual(t, e.Date.Year(), 2028)
	}
}

func TestLinearSchedule(t *testing.T) {
	model := DefaultLinear()
	entries := model.Forecast(Input{Commitment: 500_000, Lifetime: 10, VintageYear: 2024})
	require.NotEmpty(t, entries)

	var calls, dists []Entry
	for _, e := range entries {
		switch e.Type {
		case cashflow.CapitalCall:
			calls = append(calls, e)
		case cashflow.Distribution:
			dists = append(dists, e)
		}
	}

	require.Len(t, calls, 20, "even calls across a 5-year investment period")
	for _, c := range calls {
		assert.InDelta(t, 25_000, c.Amount, 0.01)
	}

	require.Len(t, dists, 24, "even distributions from year 4 through year 10")
	assert.Equal(t, 2028, dists[0].Date.Year())
	assert.InDelta(t, 500_000*1.5, totalByType(entries, cashflow.Distribution), 1.0)
}

func TestManualPacing(t *testing.T) {
	model := &Manual{
		CallPacing:   map[int]float64{0: 0.40, 1: 0.60},
		DistPacing:   map[int]float64{2: 0.50, 3: 0.50},
		TVPIMultiple: 2.0,
	}
	entries := model.Forecast(Input{Commitment: 1_000_000, VintageYear: 2024})
	require.NotEmpty(t, entries)

	called := totalByType(entries, cashflow.CapitalCall)
	distributed := totalByType(entries, cashflow.Distribution)
	assert.InDelta(t, 1_000_000, called, 0.5)
	// Total call pct 1.0, TVPI 2.0: distributions rescale to 2x commitment.
	assert.InDelta(t, 2_000_000, distributed, 0.5)

	// Lifetime derives from the highest pacing year.
	for _, e := range entries {
		assert.LessOrEqual(t, e.Date.Year(), 2027)
	}
}

func TestManualPacingEmptyIsNoop(t *testing.T) {
	model := &Manual{}
	assert.Empty(t, model.Forecast(Input{Commitment: 1_000_000, VintageYear: 2024}))
}

func TestHistoricalAverageReplaysCurves(t *testing.T) {
	model := &HistoricalAverage{
		Curves: cashflow.PacingCurves{
			CallPacing: map[int]float64{0: 0.50, 1: 0.50},
			DistPacing: map[int]float64{3: 0.80},
		},
	}
	entries := model.Forecast(Input{Commitment: 600_000, Lifetime: 2, VintageYear: 2025})
	require.NotEmpty(t, entries)

	called := totalByType(entries, cashflow.CapitalCall)
	distributed := totalByType(entries, cashflow.Distribution)
	assert.InDelta(t, 600_000, called, 0.5)
	// No TVPI rescale: the historical return profile is kept as is.
	assert.InDelta(t, 480_000, distributed, 0.5)

	// Derived lifetime (4 years) wins over the shorter requested lifetime.
	sawYearFour := false
	for _, e := range entries {
		if e.Date.Year() == 2028 {
			sawYearFour = true
		}
	}
	assert.True(t, sawYearFour)
}

func TestEngineRegistryAndDispatch(t *testing.T) {
	engine := NewEngine()
	assert.Len(t, engine.Models(), 7)

	_, err := engine.Forecast("black_scholes", Input{Commitment: 1, Lifetime: 1})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported pacing model")

	entries, err := engine.Forecast("linear", Input{Commitment: 100_000, Lifetime: 10, VintageYear: 2024})
	require.NoError(t, err)
	assert.NotEmpty(t, entries)
}

func TestPrepareForInsertion(t *testing.T) {
	fundID := uuid.New()
	entries := []Entry{
		{Date: time.Date(2024, time.March, 31, 0, 0, 0, 0, time.UTC), Type: cashflow.CapitalCall, Amount: 100.555},
		{Date: time.Date(2024, time.June, 30, 0, 0, 0, 0, time.UTC), Type: cashflow.Distribution, Amount: 0},
	}
	events := PrepareForInsertion(entries, fundID, "base", "EUR", "Forecast")
	require.Len(t, events, 1, "zero amounts are dropped")

	ev := events[0]
	assert.Equal(t, fundID, ev.FundID)
	assert.Equal(t, cashflow.CapitalCall, ev.Type)
	assert.InDelta(t, 100.56, ev.Amount, 0.001)
	assert.False(t, ev.IsActual)
	assert.Equal(t, "base", ev.Scenario)
	require.NotNil(t, ev.Note)
	assert.Equal(t, "Forecast: capital_call", *ev.Note)
}
