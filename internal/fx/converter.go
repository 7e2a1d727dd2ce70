package fx

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"peflow/cashflow-backend/internal/cashflow"
)

// NormalizedEvent is a cashflow event annotated with its conversion into a
// base currency. BaseAmount is nil when no rate could be resolved; such
// rows are excluded from every downstream sum but kept so callers can
// report the gap instead of silently dropping data.
type NormalizedEvent struct {
	cashflow.Event
	FundName         string   `json:"fund_name"`
	OriginalCurrency string   `json:"original_currency"`
	FxRate           *float64 `json:"fx_rate,omitempty"`
	BaseAmount       *float64 `json:"base_amount,omitempty"`
}

// Convertible reports whether the event carries a resolved base amount.
func (e NormalizedEvent) Convertible() bool {
	return e.BaseAmount != nil
}

// Warning names one fund whose events could not be converted into the base
// currency. One warning is emitted per fund and currency pair, no matter
// how many of its events lacked a rate.
type Warning struct {
	FundID   uuid.UUID `json:"fund_id"`
	FundName string    `json:"fund_name"`
	From     string    `json:"from"`
	To       string    `json:"to"`
}

func (w Warning) String() string {
	return fmt.Sprintf("%s (%s->%s)", w.FundName, w.From, w.To)
}

// Converter normalizes fund-native event streams into a base currency.
type Converter struct {
	rates RateProvider
}

// NewConverter creates a converter over a rate provider.
func NewConverter(rates RateProvider) *Converter {
	return &Converter{rates: rates}
}

// Normalize converts a single fund's events into the base currency using
// the rate applicable at each event's date. Events without a resolvable
// rate keep a nil BaseAmount.
func (c *Converter) Normalize(ctx context.Context, fund cashflow.FundCommitment, events []cashflow.Event, base string) ([]NormalizedEvent, []Warning, error) {
	out := make([]NormalizedEvent, 0, len(events))
	var warnings []Warning
	missing := false

	for _, ev := range events {
		ne := NormalizedEvent{
			Event:            ev,
			FundName:         fund.Name,
			OriginalCurrency: fund.Currency,
		}
		if fund.Currency == base {
			one := 1.0
			amount := ev.Amount
			ne.FxRate = &one
			ne.BaseAmount = &amount
		} else {
			rate, err := c.rates.RateWithInverse(ctx, fund.Currency, base, ev.Date)
			if err != nil {
				return nil, nil, err
			}
			if rate != nil {
				converted := ev.Amount * *rate
				ne.FxRate = rate
				ne.BaseAmount = &converted
			} else {
				missing = true
			}
		}
		out = append(out, ne)
	}

	if missing {
		warnings = append(warnings, Warning{
			FundID:   fund.FundID,
			FundName: fund.Name,
			From:     fund.Currency,
			To:       base,
		})
	}
	return out, warnings, nil
}

// ConvertBalance converts a static balance (commitment, unfunded) at the
// rate applicable today rather than at any event date. Returns nil when no
// rate is known.
func (c *Converter) ConvertBalance(ctx context.Context, amount float64, from, base string, asOf time.Time) (*float64, error) {
	rate, err := c.rates.RateWithInverse(ctx, from, base, asOf)
	if err != nil || rate == nil {
		return nil, err
	}
	converted := amount * *rate
	return &converted, nil
}
