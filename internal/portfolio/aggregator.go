// Package portfolio aggregates multi-fund cashflow streams that have been
// normalized into a base currency. Events without a resolved conversion are
// excluded from every sum and surfaced as warnings instead.
package portfolio

import (
	"github.com/google/uuid"

	"peflow/cashflow-backend/internal/cashflow"
	"peflow/cashflow-backend/internal/fx"
)

// Summary holds portfolio-level totals in the base currency.
type Summary struct {
	TotalCommitment  float64  `json:"total_commitment"`
	TotalCalled      float64  `json:"total_called"`
	TotalDistributed float64  `json:"total_distributed"`
	TotalUnfunded    float64  `json:"total_unfunded"`
	NetCashflow      float64  `json:"net_cashflow"`
	DPI              float64  `json:"portfolio_dpi"`
	NumFunds         int      `json:"num_funds"`
	FxWarnings       []string `json:"fx_warnings,omitempty"`
}

// FundBreakdown is one fund's row of the per-fund portfolio table. Base
// amounts are nil when the fund's currency could not be converted; its
// native-currency DPI is still reported since that ratio is unit-free.
type FundBreakdown struct {
	FundID          uuid.UUID `json:"fund_id"`
	FundName        string    `json:"fund_name"`
	Currency        string    `json:"currency"`
	CommitmentBase  *float64  `json:"commitment_base"`
	CalledBase      *float64  `json:"called_base"`
	DistributedBase *float64  `json:"distributed_base"`
	NetBase         *float64  `json:"net_base"`
	DPI             float64   `json:"dpi"`
}

// baseEvents projects normalized events onto plain events carrying the base
// amount, dropping rows without a resolved conversion.
func baseEvents(events []fx.NormalizedEvent) []cashflow.Event {
	out := make([]cashflow.Event, 0, len(events))
	for _, ev := range events {
		if ev.BaseAmount == nil {
			continue
		}
		e := ev.Event
		e.Amount = *ev.BaseAmount
		out = append(out, e)
	}
	return out
}

// Cumulative builds the portfolio J-curve across all convertible events.
func Cumulative(events []fx.NormalizedEvent) []cashflow.CumulativePoint {
	return cashflow.Cumulative(baseEvents(events))
}

// Periodic rolls convertible events into quarter or year buckets.
func Periodic(events []fx.NormalizedEvent, period cashflow.Period) []cashflow.PeriodTotal {
	return cashflow.Periodic(baseEvents(events), period)
}

// Totals sums called and distributed base amounts across convertible events.
func Totals(events []fx.NormalizedEvent) (called, distributed float64) {
	for _, ev := range events {
		if ev.BaseAmount == nil {
			continue
		}
		if ev.Type.Direction() == cashflow.Outflow {
			called += *ev.BaseAmount
		} else {
			distributed += *ev.BaseAmount
		}
	}
	return called, distributed
}
