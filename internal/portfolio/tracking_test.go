package portfolio

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"peflow/cashflow-backend/internal/cashflow"
)

func event(date string, t cashflow.FlowType, amount float64, actual bool) cashflow.Event {
	d, err := time.Parse("2006-01-02", date)
	if err != nil {
		panic(err)
	}
	return cashflow.Event{Date: d, Type: t, Amount: amount, Currency: "EUR", IsActual: actual}
}

func TestCompareActualVsForecast(t *testing.T) {
	events := []cashflow.Event{
		event("2024-02-15", cashflow.CapitalCall, 100, true),
		event("2024-02-15", cashflow.CapitalCall, 120, false),
		event("2024-05-20", cashflow.Distribution, 50, false),
	}

	result := CompareActualVsForecast(events)

	require.Len(t, result.Deviations, 2)
	q1 := result.Deviations[0]
	assert.Equal(t, "2024Q1", q1.Period)
	assert.InDelta(t, -100, q1.NetActual, 0.001)
	assert.InDelta(t, -120, q1.NetForecast, 0.001)
	assert.InDelta(t, 20, q1.Deviation, 0.001)

	// Q2 has no actuals; the missing side counts as zero.
	q2 := result.Deviations[1]
	assert.Equal(t, "2024Q2", q2.Period)
	assert.InDelta(t, 0, q2.NetActual, 0.001)
	assert.InDelta(t, 50, q2.NetForecast, 0.001)
	assert.InDelta(t, -50, q2.Deviation, 0.001)

	m := result.Metrics
	assert.InDelta(t, -15, m.MeanDeviation, 0.001)
	// Sample stddev of {20, -50}.
	assert.InDelta(t, 49.497, m.TrackingError, 0.01)
	assert.InDelta(t, 100.0/120.0*100, m.PctCallsRealized, 0.001)
	assert.InDelta(t, 0, m.PctDistsRealized, 0.001)
}

func TestCompareActualVsForecastNoOverlap(t *testing.T) {
	// Only actuals: no forecast to deviate from.
	events := []cashflow.Event{
		event("2024-02-15", cashflow.CapitalCall, 100, true),
		event("2024-05-20", cashflow.Distribution, 30, true),
	}
	result := CompareActualVsForecast(events)

	assert.Empty(t, result.Deviations)
	assert.Zero(t, result.Metrics.TrackingError)
	assert.Zero(t, result.Metrics.MeanDeviation)
	assert.Zero(t, result.Metrics.PctCallsRealized)
	assert.Len(t, result.ActualCumulative, 2)
	assert.Empty(t, result.ForecastCumulative)
}

func TestCompareActualVsForecastSingleDeviation(t *testing.T) {
	// One overlapping quarter: the sample stddev is undefined, reported 0.
	events := []cashflow.Event{
		event("2024-02-15", cashflow.CapitalCall, 100, true),
		event("2024-03-01", cashflow.CapitalCall, 90, false),
	}
	result := CompareActualVsForecast(events)

	require.Len(t, result.Deviations, 1)
	assert.InDelta(t, -10, result.Deviations[0].Deviation, 0.001)
	assert.Zero(t, result.Metrics.TrackingError)
	assert.InDelta(t, -10, result.Metrics.MeanDeviation, 0.001)
}

func TestCompareActualVsForecastFeesCountAsCalls(t *testing.T) {
	events := []cashflow.Event{
		event("2024-02-15", cashflow.ManagementFee, 10, true),
		event("2024-02-20", cashflow.CapitalCall, 90, true),
		event("2024-02-25", cashflow.CapitalCall, 200, false),
	}
	result := CompareActualVsForecast(events)
	assert.InDelta(t, 50, result.Metrics.PctCallsRealized, 0.001)
}
