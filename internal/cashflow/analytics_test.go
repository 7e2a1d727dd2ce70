package cashflow

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testEvent(date string, t FlowType, amount float64, actual bool) Event {
	d, err := time.Parse("2006-01-02", date)
	if err != nil {
		panic(err)
	}
	return Event{Date: d, Type: t, Amount: amount, Currency: "EUR", IsActual: actual, Scenario: BaseScenario}
}

func TestCumulativeGroupsByDate(t *testing.T) {
	events := []Event{
		testEvent("2024-03-31", CapitalCall, 250, true),
		testEvent("2024-03-31", ManagementFee, 10, true),
		testEvent("2024-06-30", Distribution, 100, false),
	}

	points := Cumulative(events)
	require.Len(t, points, 2)

	assert.InDelta(t, -260, points[0].CapitalCalls, 0.001)
	assert.InDelta(t, -260, points[0].CumulativeNet, 0.001)
	assert.True(t, points[0].IsActual)

	assert.InDelta(t, 100, points[1].Distributions, 0.001)
	assert.InDelta(t, -160, points[1].CumulativeNet, 0.001)
	assert.False(t, points[1].IsActual)
}

func TestCumulativeIsOrderIndependent(t *testing.T) {
	events := []Event{
		testEvent("2024-06-30", Distribution, 100, true),
		testEvent("2024-03-31", CapitalCall, 250, true),
		testEvent("2025-01-15", Clawback, 20, true),
	}
	reversed := []Event{events[2], events[1], events[0]}

	a := Cumulative(events)
	b := Cumulative(reversed)
	require.Equal(t, a, b)
	assert.InDelta(t, -130, a[len(a)-1].CumulativeNet, 0.001)
}

func TestPeriodicQuarterlyRollup(t *testing.T) {
	events := []Event{
		testEvent("2024-01-15", CapitalCall, 100, true),
		testEvent("2024-02-20", CapitalCall, 50, true),
		testEvent("2024-05-01", Distribution, 80, true),
		testEvent("2023-11-01", CapitalCall, 30, true),
	}

	totals := Periodic(events, PeriodQuarter)
	require.Len(t, totals, 3)

	// String sort puts 2023Q4 before 2024Q1.
	assert.Equal(t, "2023Q4", totals[0].Label)
	assert.Equal(t, "2024Q1", totals[1].Label)
	assert.InDelta(t, -150, totals[1].CapitalCalls, 0.001)
	assert.Equal(t, "2024Q2", totals[2].Label)
	assert.InDelta(t, 80, totals[2].Net, 0.001)
}

func TestSummarize(t *testing.T) {
	events := []Event{
		testEvent("2024-01-15", CapitalCall, 400, true),
		testEvent("2024-02-20", ManagementFee, 100, true),
		testEvent("2024-05-01", Distribution, 250, true),
	}

	s := Summarize(events)
	assert.InDelta(t, 500, s.TotalCalled, 0.001)
	assert.InDelta(t, 250, s.TotalDistributed, 0.001)
	assert.InDelta(t, -250, s.Net, 0.001)
	assert.InDelta(t, 0.5, s.DPI, 0.001)
}

func TestSummarizeDPIWithoutCalls(t *testing.T) {
	s := Summarize([]Event{testEvent("2024-05-01", Distribution, 250, true)})
	assert.Zero(t, s.DPI, "DPI is defined as zero when nothing was called")
}

func TestHistoricalPacing(t *testing.T) {
	events := []Event{
		testEvent("2022-03-31", CapitalCall, 250_000, true),
		testEvent("2022-09-30", CapitalCall, 250_000, true),
		testEvent("2023-06-30", CapitalCall, 100_000, true),
		testEvent("2024-06-30", Distribution, 150_000, true),
		// Planned events never shape historical curves.
		testEvent("2025-03-31", CapitalCall, 999_999, false),
	}

	curves := HistoricalPacing(events, 1_000_000)
	assert.Equal(t, 2022, curves.FirstYear)
	assert.InDelta(t, 0.5, curves.CallPacing[0], 0.0001)
	assert.InDelta(t, 0.1, curves.CallPacing[1], 0.0001)
	assert.InDelta(t, 0.15, curves.DistPacing[2], 0.0001)
	assert.NotContains(t, curves.CallPacing, 3)
}

func TestHistoricalPacingDegenerate(t *testing.T) {
	curves := HistoricalPacing([]Event{testEvent("2022-03-31", CapitalCall, 1, true)}, 0)
	assert.Empty(t, curves.CallPacing)

	curves = HistoricalPacing([]Event{testEvent("2022-03-31", CapitalCall, 1, false)}, 1_000_000)
	assert.Empty(t, curves.CallPacing)
}

func TestComputeScenarioMetrics(t *testing.T) {
	events := []Event{
		testEvent("2024-03-31", CapitalCall, 500, false),
		testEvent("2025-03-31", Distribution, 200, false),
		testEvent("2026-03-31", Distribution, 400, false),
	}
	curve := Cumulative(events)
	m := ComputeScenarioMetrics(curve, Summarize(events))

	assert.InDelta(t, -500, m.PeakNegative, 0.001)
	assert.Equal(t, "2026Q1", m.BreakevenLabel)
}

func TestComputeScenarioMetricsNoBreakeven(t *testing.T) {
	events := []Event{
		testEvent("2024-03-31", CapitalCall, 500, false),
		testEvent("2025-03-31", Distribution, 100, false),
	}
	m := ComputeScenarioMetrics(Cumulative(events), Summarize(events))
	assert.Empty(t, m.BreakevenLabel)
}
