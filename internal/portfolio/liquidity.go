package portfolio

import (
	"sort"
	"time"

	"peflow/cashflow-backend/internal/cashflow"
	"peflow/cashflow-backend/internal/fx"
)

// FundingGapRow is one period of the funding-gap analysis. Only planned
// events contribute; calls and distributions are unsigned totals.
type FundingGapRow struct {
	PeriodLabel           string  `json:"period_label"`
	ExpectedCalls         float64 `json:"expected_calls"`
	ExpectedDistributions float64 `json:"expected_distributions"`
	NetFundingNeed        float64 `json:"net_funding_need"`
	CumulativeFundingNeed float64 `json:"cumulative_funding_need"`
}

// FundingGap buckets planned, convertible events into periods and computes
// the net and running funding need. A negative net means the period needs
// fresh liquidity.
func FundingGap(events []fx.NormalizedEvent, period cashflow.Period) []FundingGapRow {
	type bucket struct {
		calls float64
		dists float64
	}
	byLabel := make(map[string]*bucket)
	for _, ev := range events {
		if ev.IsActual || ev.BaseAmount == nil {
			continue
		}
		label := period.Label(ev.Date)
		b := byLabel[label]
		if b == nil {
			b = &bucket{}
			byLabel[label] = b
		}
		if ev.Type.Direction() == cashflow.Outflow {
			b.calls += *ev.BaseAmount
		} else {
			b.dists += *ev.BaseAmount
		}
	}
	if len(byLabel) == 0 {
		return nil
	}

	labels := make([]string, 0, len(byLabel))
	for l := range byLabel {
		labels = append(labels, l)
	}
	sort.Strings(labels)

	rows := make([]FundingGapRow, 0, len(labels))
	running := 0.0
	for _, l := range labels {
		b := byLabel[l]
		net := b.dists - b.calls
		running += net
		rows = append(rows, FundingGapRow{
			PeriodLabel:           l,
			ExpectedCalls:         b.calls,
			ExpectedDistributions: b.dists,
			NetFundingNeed:        net,
			CumulativeFundingNeed: running,
		})
	}
	return rows
}

// ReservePoint is one date of the simulated account balance.
type ReservePoint struct {
	Date    time.Time `json:"date"`
	Inflow  float64   `json:"inflow"`
	Outflow float64   `json:"outflow"`
	Net     float64   `json:"net"`
	Balance float64   `json:"balance"`
}

// CashReserve simulates an account that starts at startBalance, receives
// distributions and pays capital calls at each event date. Dates with a
// negative balance mark an underfunded stretch.
func CashReserve(events []fx.NormalizedEvent, startBalance float64, includeActuals bool) []ReservePoint {
	type bucket struct {
		inflow  float64
		outflow float64
	}
	byDate := make(map[time.Time]*bucket)
	for _, ev := range events {
		if ev.BaseAmount == nil {
			continue
		}
		if !includeActuals && ev.IsActual {
			continue
		}
		d := time.Date(ev.Date.Year(), ev.Date.Month(), ev.Date.Day(), 0, 0, 0, 0, time.UTC)
		b := byDate[d]
		if b == nil {
			b = &bucket{}
			byDate[d] = b
		}
		if ev.Type.Direction() == cashflow.Outflow {
			b.outflow += *ev.BaseAmount
		} else {
			b.inflow += *ev.BaseAmount
		}
	}
	if len(byDate) == 0 {
		return nil
	}

	dates := make([]time.Time, 0, len(byDate))
	for d := range byDate {
		dates = append(dates, d)
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })

	points := make([]ReservePoint, 0, len(dates))
	balance := startBalance
	for _, d := range dates {
		b := byDate[d]
		net := b.inflow - b.outflow
		balance += net
		points = append(points, ReservePoint{
			Date:    d,
			Inflow:  b.inflow,
			Outflow: b.outflow,
			Net:     net,
			Balance: balance,
		})
	}
	return points
}
