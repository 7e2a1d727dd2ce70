package portfolio

import (
	"math"
	"sort"

	"peflow/cashflow-backend/internal/cashflow"
)

// Deviation is one quarter's realized-vs-planned net difference.
type Deviation struct {
	Period      string  `json:"period"`
	NetActual   float64 `json:"net_actual"`
	NetForecast float64 `json:"net_forecast"`
	Deviation   float64 `json:"deviation"`
}

// TrackingMetrics quantify how closely actuals follow the forecast.
type TrackingMetrics struct {
	// TrackingError is the sample standard deviation of the quarterly
	// deviations, in the stream's currency.
	TrackingError    float64 `json:"tracking_error"`
	MeanDeviation    float64 `json:"mean_deviation"`
	PctCallsRealized float64 `json:"pct_calls_realized"`
	PctDistsRealized float64 `json:"pct_dists_realized"`
}

// ActualVsForecast is the realized-vs-planned comparison for one event
// stream, either a single fund in its native currency or a portfolio in the
// base currency.
type ActualVsForecast struct {
	ActualCumulative   []cashflow.CumulativePoint `json:"actual_cumulative"`
	ForecastCumulative []cashflow.CumulativePoint `json:"forecast_cumulative"`
	Deviations         []Deviation                `json:"deviations"`
	Metrics            TrackingMetrics            `json:"metrics"`
}

// CompareActualVsForecast splits a stream into actual and planned halves
// and derives cumulative curves, quarterly deviations and tracking metrics.
// Deviations are only produced when both halves are non-empty; a quarter
// present on one side only contributes zero for the missing side.
func CompareActualVsForecast(events []cashflow.Event) ActualVsForecast {
	var actuals, forecasts []cashflow.Event
	for _, ev := range events {
		if ev.IsActual {
			actuals = append(actuals, ev)
		} else {
			forecasts = append(forecasts, ev)
		}
	}

	result := ActualVsForecast{
		ActualCumulative:   cashflow.Cumulative(actuals),
		ForecastCumulative: cashflow.Cumulative(forecasts),
	}

	if len(actuals) > 0 && len(forecasts) > 0 {
		result.Deviations = quarterlyDeviations(actuals, forecasts)
	}

	result.Metrics = trackingMetrics(actuals, forecasts, result.Deviations)
	return result
}

func quarterlyDeviations(actuals, forecasts []cashflow.Event) []Deviation {
	actualNet := quarterlyNet(actuals)
	forecastNet := quarterlyNet(forecasts)

	periods := make(map[string]struct{})
	for p := range actualNet {
		periods[p] = struct{}{}
	}
	for p := range forecastNet {
		periods[p] = struct{}{}
	}
	labels := make([]string, 0, len(periods))
	for p := range periods {
		labels = append(labels, p)
	}
	sort.Strings(labels)

	deviations := make([]Deviation, 0, len(labels))
	for _, label := range labels {
		a := actualNet[label]
		f := forecastNet[label]
		deviations = append(deviations, Deviation{
			Period:      label,
			NetActual:   a,
			NetForecast: f,
			Deviation:   a - f,
		})
	}
	return deviations
}

func quarterlyNet(events []cashflow.Event) map[string]float64 {
	net := make(map[string]float64)
	for _, ev := range events {
		net[cashflow.PeriodQuarter.Label(ev.Date)] += ev.Type.Signed(ev.Amount)
	}
	return net
}

func trackingMetrics(actuals, forecasts []cashflow.Event, deviations []Deviation) TrackingMetrics {
	var m TrackingMetrics

	actualSummary := cashflow.Summarize(actuals)
	forecastSummary := cashflow.Summarize(forecasts)
	if forecastSummary.TotalCalled > 0 {
		m.PctCallsRealized = actualSummary.TotalCalled / forecastSummary.TotalCalled * 100
	}
	if forecastSummary.TotalDistributed > 0 {
		m.PctDistsRealized = actualSummary.TotalDistributed / forecastSummary.TotalDistributed * 100
	}

	if len(deviations) == 0 {
		return m
	}

	sum := 0.0
	for _, d := range deviations {
		sum += d.Deviation
	}
	mean := sum / float64(len(deviations))
	m.MeanDeviation = mean

	if len(deviations) >= 2 {
		ss := 0.0
		for _, d := range deviations {
			diff := d.Deviation - mean
			ss += diff * diff
		}
		m.TrackingError = math.Sqrt(ss / float64(len(deviations)-1))
	}
	return m
}
