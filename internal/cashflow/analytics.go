package cashflow

import (
	"sort"
	"time"
)

// CumulativePoint is one row of the J-curve: signed totals for a single
// date plus the running net across all prior dates.
type CumulativePoint struct {
	Date          time.Time `json:"date"`
	CapitalCalls  float64   `json:"capital_calls"`  // sum of signed outflows, <= 0
	Distributions float64   `json:"distributions"`  // sum of signed inflows, >= 0
	Net           float64   `json:"net"`            // calls + distributions
	CumulativeNet float64   `json:"cumulative_net"` // running sum of Net in date order
	IsActual      bool      `json:"is_actual"`      // true only if every event on the date is actual
}

// PeriodTotal is one bucket of a quarterly or yearly rollup.
type PeriodTotal struct {
	Label         string  `json:"label"`
	CapitalCalls  float64 `json:"capital_calls"`
	Distributions float64 `json:"distributions"`
	Net           float64 `json:"net"`
}

// Summary holds whole-stream totals for one fund and scenario.
type Summary struct {
	TotalCalled      float64 `json:"total_called"`
	TotalDistributed float64 `json:"total_distributed"`
	Net              float64 `json:"net"`
	DPI              float64 `json:"dpi"`
}

// Cumulative groups events by exact date and derives the running net
// series. The final cumulative value is independent of input order; only
// the intermediate series depends on the date sort applied here.
func Cumulative(events []Event) []CumulativePoint {
	if len(events) == 0 {
		return nil
	}

	type bucket struct {
		calls float64
		dists float64
		all   bool
	}
	byDate := make(map[time.Time]*bucket)
	for _, ev := range events {
		d := dateOnly(ev.Date)
		b := byDate[d]
		if b == nil {
			b = &bucket{all: true}
			byDate[d] = b
		}
		signed := ev.Type.Signed(ev.Amount)
		if signed < 0 {
			b.calls += signed
		} else {
			b.dists += signed
		}
		if !ev.IsActual {
			b.all = false
		}
	}

	dates := make([]time.Time, 0, len(byDate))
	for d := range byDate {
		dates = append(dates, d)
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })

	points := make([]CumulativePoint, 0, len(dates))
	running := 0.0
	for _, d := range dates {
		b := byDate[d]
		net := b.calls + b.dists
		running += net
		points = append(points, CumulativePoint{
			Date:          d,
			CapitalCalls:  b.calls,
			Distributions: b.dists,
			Net:           net,
			CumulativeNet: running,
			IsActual:      b.all,
		})
	}
	return points
}

// Periodic rolls signed totals up into quarter or year buckets in
// chronological order.
func Periodic(events []Event, period Period) []PeriodTotal {
	if len(events) == 0 {
		return nil
	}

	type bucket struct {
		calls float64
		dists float64
	}
	byLabel := make(map[string]*bucket)
	for _, ev := range events {
		label := period.Label(ev.Date)
		b := byLabel[label]
		if b == nil {
			b = &bucket{}
			byLabel[label] = b
		}
		signed := ev.Type.Signed(ev.Amount)
		if signed < 0 {
			b.calls += signed
		} else {
			b.dists += signed
		}
	}

	labels := make([]string, 0, len(byLabel))
	for l := range byLabel {
		labels = append(labels, l)
	}
	// "2024Q1" and "2024" both sort chronologically as strings.
	sort.Strings(labels)

	totals := make([]PeriodTotal, 0, len(labels))
	for _, l := range labels {
		b := byLabel[l]
		totals = append(totals, PeriodTotal{
			Label:         l,
			CapitalCalls:  b.calls,
			Distributions: b.dists,
			Net:           b.calls + b.dists,
		})
	}
	return totals
}

// Summarize computes whole-stream totals. DPI is zero when nothing has been
// called, never a division error.
func Summarize(events []Event) Summary {
	var called, distributed float64
	for _, ev := range events {
		if ev.Type.Direction() == Outflow {
			called += ev.Amount
		} else {
			distributed += ev.Amount
		}
	}
	s := Summary{
		TotalCalled:      called,
		TotalDistributed: distributed,
		Net:              distributed - called,
	}
	if called > 0 {
		s.DPI = distributed / called
	}
	return s
}

// PacingCurves are per-year-offset call and distribution fractions of a
// commitment, derived from realized history. Year offsets are calendar
// years counted from the year of the first actual event.
type PacingCurves struct {
	CallPacing map[int]float64 `json:"call_pacing"`
	DistPacing map[int]float64 `json:"dist_pacing"`
	Commitment float64         `json:"commitment"`
	FirstYear  int             `json:"first_year"`
}

// HistoricalPacing normalizes a fund's actual cashflows by its commitment
// into pacing fractions. Empty curves are returned when there are no
// actuals or the commitment is not positive.
func HistoricalPacing(events []Event, commitment float64) PacingCurves {
	curves := PacingCurves{
		CallPacing: map[int]float64{},
		DistPacing: map[int]float64{},
	}
	if commitment <= 0 {
		return curves
	}

	firstYear := 0
	for _, ev := range events {
		if !ev.IsActual {
			continue
		}
		y := ev.Date.Year()
		if firstYear == 0 || y < firstYear {
			firstYear = y
		}
	}
	if firstYear == 0 {
		return curves
	}

	callByYear := map[int]float64{}
	distByYear := map[int]float64{}
	for _, ev := range events {
		if !ev.IsActual {
			continue
		}
		offset := ev.Date.Year() - firstYear
		if offset < 0 {
			continue
		}
		if ev.Type.Direction() == Outflow {
			callByYear[offset] += ev.Amount
		} else {
			distByYear[offset] += ev.Amount
		}
	}

	for yr, amt := range callByYear {
		if amt > 0 {
			curves.CallPacing[yr] = roundTo(amt/commitment, 4)
		}
	}
	for yr, amt := range distByYear {
		if amt > 0 {
			curves.DistPacing[yr] = roundTo(amt/commitment, 4)
		}
	}
	curves.Commitment = commitment
	curves.FirstYear = firstYear
	return curves
}

// ScenarioMetrics extends a summary with J-curve shape indicators used when
// comparing scenarios side by side.
type ScenarioMetrics struct {
	Summary
	// BreakevenLabel is the quarter in which the cumulative net first
	// crosses from negative to non-negative, empty if it never does.
	BreakevenLabel string  `json:"breakeven,omitempty"`
	PeakNegative   float64 `json:"peak_negative"`
}

// ComputeScenarioMetrics derives breakeven and peak-negative from a
// cumulative curve plus its summary.
func ComputeScenarioMetrics(curve []CumulativePoint, summary Summary) ScenarioMetrics {
	m := ScenarioMetrics{Summary: summary}
	for i, pt := range curve {
		if pt.CumulativeNet < m.PeakNegative {
			m.PeakNegative = pt.CumulativeNet
		}
		if m.BreakevenLabel == "" && i > 0 &&
			curve[i-1].CumulativeNet < 0 && pt.CumulativeNet >= 0 {
			m.BreakevenLabel = PeriodQuarter.Label(pt.Date)
		}
	}
	return m
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func roundTo(v float64, places int) float64 {
	scale := 1.0
	for i := 0; i < places; i++ {
		scale *= 10
	}
	if v < 0 {
		return float64(int64(v*scale-0.5)) / scale
	}
	return float64(int64(v*scale+0.5)) / scale
}
