package portfolio

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"peflow/cashflow-backend/internal/cashflow"
	"peflow/cashflow-backend/internal/fx"
)

func normalized(date string, t cashflow.FlowType, base float64, actual bool) fx.NormalizedEvent {
	ev := event(date, t, base, actual)
	amount := base
	one := 1.0
	return fx.NormalizedEvent{Event: ev, OriginalCurrency: "EUR", FxRate: &one, BaseAmount: &amount}
}

func unconvertible(date string, t cashflow.FlowType, amount float64, actual bool) fx.NormalizedEvent {
	return fx.NormalizedEvent{Event: event(date, t, amount, actual), OriginalCurrency: "GBP"}
}

func TestFundingGapPlannedOnly(t *testing.T) {
	events := []fx.NormalizedEvent{
		normalized("2025-02-01", cashflow.CapitalCall, 100, false),
		normalized("2025-03-15", cashflow.Distribution, 40, false),
		normalized("2025-05-01", cashflow.Distribution, 200, false),
		// Actuals and unconvertible rows must not contribute.
		normalized("2025-02-10", cashflow.CapitalCall, 999, true),
		unconvertible("2025-02-11", cashflow.CapitalCall, 999, false),
	}

	rows := FundingGap(events, cashflow.PeriodQuarter)
	require.Len(t, rows, 2)

	assert.Equal(t, "2025Q1", rows[0].PeriodLabel)
	assert.InDelta(t, 100, rows[0].ExpectedCalls, 0.001)
	assert.InDelta(t, 40, rows[0].ExpectedDistributions, 0.001)
	assert.InDelta(t, -60, rows[0].NetFundingNeed, 0.001)
	assert.InDelta(t, -60, rows[0].CumulativeFundingNeed, 0.001)

	assert.Equal(t, "2025Q2", rows[1].PeriodLabel)
	assert.InDelta(t, 200, rows[1].NetFundingNeed, 0.001)
	assert.InDelta(t, 140, rows[1].CumulativeFundingNeed, 0.001)
}

func TestFundingGapEmptyWithoutPlannedEvents(t *testing.T) {
	events := []fx.NormalizedEvent{
		normalized("2025-02-10", cashflow.CapitalCall, 100, true),
	}
	assert.Empty(t, FundingGap(events, cashflow.PeriodQuarter))
}

func TestCashReserveBalances(t *testing.T) {
	events := []fx.NormalizedEvent{
		normalized("2025-01-10", cashflow.CapitalCall, 300, true),
		// Same-day call and distribution net against each other.
		normalized("2025-03-01", cashflow.CapitalCall, 100, false),
		normalized("2025-03-01", cashflow.Distribution, 250, false),
	}

	points := CashReserve(events, 200, true)
	require.Len(t, points, 2)

	assert.InDelta(t, -100, points[0].Balance, 0.001, "start 200 minus 300 call")
	assert.InDelta(t, 250, points[1].Inflow, 0.001)
	assert.InDelta(t, 100, points[1].Outflow, 0.001)
	assert.InDelta(t, 50, points[1].Balance, 0.001)
}

func TestCashReserveExcludesActualsWhenAsked(t *testing.T) {
	events := []fx.NormalizedEvent{
		normalized("2025-01-10", cashflow.CapitalCall, 300, true),
		normalized("2025-03-01", cashflow.Distribution, 50, false),
	}

	points := CashReserve(events, 100, false)
	require.Len(t, points, 1)
	assert.InDelta(t, 150, points[0].Balance, 0.001)
}
