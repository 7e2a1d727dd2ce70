package portfolio

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"peflow/cashflow-backend/internal/cashflow"
	"peflow/cashflow-backend/internal/fx"
	"peflow/cashflow-backend/pkg/cache"
)

// Service aggregates cashflows across funds in a base currency. Reads are
// memoized with a short TTL; write paths in the cashflow service clear the
// "portfolio" key prefix.
type Service struct {
	repo      cashflow.Repository
	converter *fx.Converter
	cache     *cache.QueryCache
	logger    *zap.Logger
}

// NewService creates a portfolio aggregation service.
func NewService(repo cashflow.Repository, converter *fx.Converter, c *cache.QueryCache, logger *zap.Logger) *Service {
	return &Service{repo: repo, converter: converter, cache: c, logger: logger}
}

// fundSetKey builds a deterministic cache key fragment for a fund set.
func fundSetKey(fundIDs []uuid.UUID) string {
	ids := make([]string, 0, len(fundIDs))
	for _, id := range fundIDs {
		ids = append(ids, id.String())
	}
	sort.Strings(ids)
	return strings.Join(ids, ",")
}

func cachedAs[T any](c *cache.QueryCache, key string, compute func() (T, error)) (T, error) {
	v, err := c.GetOrSet(key, func() (any, error) { return compute() })
	if err != nil {
		var zero T
		return zero, err
	}
	return v.(T), nil
}

// AllFundIDs returns every fund known to the cashflow module, for callers
// that do not select an explicit subset.
func (s *Service) AllFundIDs(ctx context.Context) ([]uuid.UUID, error) {
	funds, err := s.repo.FundsForCashflow(ctx)
	if err != nil {
		return nil, err
	}
	ids := make([]uuid.UUID, 0, len(funds))
	for _, f := range funds {
		ids = append(ids, f.FundID)
	}
	return ids, nil
}

// normalizedEvents loads and converts every selected fund's events.
func (s *Service) normalizedEvents(ctx context.Context, fundIDs []uuid.UUID, base, scenario string) ([]fx.NormalizedEvent, []fx.Warning, error) {
	var all []fx.NormalizedEvent
	var warnings []fx.Warning
	for _, fundID := range fundIDs {
		fund, err := s.repo.FundInfo(ctx, fundID)
		if err != nil {
			return nil, nil, err
		}
		events, err := s.repo.EventsForFund(ctx, fundID, &scenario)
		if err != nil {
			return nil, nil, err
		}
		normalized, w, err := s.converter.Normalize(ctx, *fund, events, base)
		if err != nil {
			return nil, nil, err
		}
		all = append(all, normalized...)
		warnings = append(warnings, w...)
	}
	return all, warnings, nil
}

// CumulativeCashflows returns the portfolio J-curve in the base currency.
func (s *Service) CumulativeCashflows(ctx context.Context, fundIDs []uuid.UUID, base, scenario string) ([]cashflow.CumulativePoint, error) {
	key := cache.Key("portfolio", "cumulative", fundSetKey(fundIDs), base, scenario)
	return cachedAs(s.cache, key, func() ([]cashflow.CumulativePoint, error) {
		events, _, err := s.normalizedEvents(ctx, fundIDs, base, scenario)
		if err != nil {
			return nil, err
		}
		return Cumulative(events), nil
	})
}

// PeriodicCashflows returns quarter or year rollups in the base currency.
func (s *Service) PeriodicCashflows(ctx context.Context, fundIDs []uuid.UUID, base string, period cashflow.Period, scenario string) ([]cashflow.PeriodTotal, error) {
	key := cache.Key("portfolio", "periodic", fundSetKey(fundIDs), base, period, scenario)
	return cachedAs(s.cache, key, func() ([]cashflow.PeriodTotal, error) {
		events, _, err := s.normalizedEvents(ctx, fundIDs, base, scenario)
		if err != nil {
			return nil, err
		}
		return Periodic(events, period), nil
	})
}

// PortfolioSummary returns portfolio totals with commitments converted at
// the most recent rate. Funds whose commitment cannot be converted are left
// out of the commitment totals; their events already carry warnings.
func (s *Service) PortfolioSummary(ctx context.Context, fundIDs []uuid.UUID, base, scenario string) (*Summary, error) {
	key := cache.Key("portfolio", "summary", fundSetKey(fundIDs), base, scenario)
	return cachedAs(s.cache, key, func() (*Summary, error) {
		events, warnings, err := s.normalizedEvents(ctx, fundIDs, base, scenario)
		if err != nil {
			return nil, err
		}
		called, distributed := Totals(events)

		summary := &Summary{
			TotalCalled:      called,
			TotalDistributed: distributed,
			NetCashflow:      distributed - called,
			NumFunds:         len(fundIDs),
		}
		if called > 0 {
			summary.DPI = distributed / called
		}
		for _, w := range warnings {
			summary.FxWarnings = append(summary.FxWarnings, w.String())
		}

		today := time.Now().UTC()
		for _, fundID := range fundIDs {
			fund, err := s.repo.FundInfo(ctx, fundID)
			if err != nil {
				return nil, err
			}
			commitment, err := s.converter.ConvertBalance(ctx, fund.CommitmentAmount, fund.Currency, base, today)
			if err != nil {
				return nil, err
			}
			unfunded, err := s.converter.ConvertBalance(ctx, fund.UnfundedAmount, fund.Currency, base, today)
			if err != nil {
				return nil, err
			}
			if commitment != nil {
				summary.TotalCommitment += *commitment
			}
			if unfunded != nil {
				summary.TotalUnfunded += *unfunded
			}
		}
		return summary, nil
	})
}

// FundBreakdowns returns the per-fund portfolio table. Per-fund totals are
// converted at the most recent rate; DPI stays in the fund's own currency.
func (s *Service) FundBreakdowns(ctx context.Context, fundIDs []uuid.UUID, base, scenario string) ([]FundBreakdown, error) {
	key := cache.Key("portfolio", "breakdown", fundSetKey(fundIDs), base, scenario)
	return cachedAs(s.cache, key, func() ([]FundBreakdown, error) {
		today := time.Now().UTC()
		rows := make([]FundBreakdown, 0, len(fundIDs))
		for _, fundID := range fundIDs {
			fund, err := s.repo.FundInfo(ctx, fundID)
			if err != nil {
				return nil, err
			}
			events, err := s.repo.EventsForFund(ctx, fundID, &scenario)
			if err != nil {
				return nil, err
			}
			native := cashflow.Summarize(events)

			row := FundBreakdown{
				FundID:   fund.FundID,
				FundName: fund.Name,
				Currency: fund.Currency,
				DPI:      native.DPI,
			}
			rate, err := s.converter.ConvertBalance(ctx, 1.0, fund.Currency, base, today)
			if err != nil {
				return nil, err
			}
			if rate != nil {
				commitment := fund.CommitmentAmount * *rate
				called := native.TotalCalled * *rate
				distributed := native.TotalDistributed * *rate
				net := distributed - called
				row.CommitmentBase = &commitment
				row.CalledBase = &called
				row.DistributedBase = &distributed
				row.NetBase = &net
			} else {
				s.logger.Warn("no exchange rate for fund breakdown",
					zap.String("fund_id", fundID.String()),
					zap.String("from", fund.Currency),
					zap.String("to", base))
			}
			rows = append(rows, row)
		}
		return rows, nil
	})
}

// FundActualVsForecast compares realized against planned events for one
// fund in its native currency.
func (s *Service) FundActualVsForecast(ctx context.Context, fundID uuid.UUID, scenario string) (*ActualVsForecast, error) {
	key := cache.Key("fund", fundID, "avf", scenario)
	return cachedAs(s.cache, key, func() (*ActualVsForecast, error) {
		events, err := s.repo.EventsForFund(ctx, fundID, &scenario)
		if err != nil {
			return nil, err
		}
		result := CompareActualVsForecast(events)
		return &result, nil
	})
}

// PortfolioActualVsForecast compares realized against planned events across
// funds in the base currency. Events without a rate are excluded.
func (s *Service) PortfolioActualVsForecast(ctx context.Context, fundIDs []uuid.UUID, base, scenario string) (*ActualVsForecast, error) {
	key := cache.Key("portfolio", "avf", fundSetKey(fundIDs), base, scenario)
	return cachedAs(s.cache, key, func() (*ActualVsForecast, error) {
		events, _, err := s.normalizedEvents(ctx, fundIDs, base, scenario)
		if err != nil {
			return nil, err
		}
		result := CompareActualVsForecast(baseEvents(events))
		return &result, nil
	})
}

// PortfolioFundingGap returns the planned funding need per period.
func (s *Service) PortfolioFundingGap(ctx context.Context, fundIDs []uuid.UUID, base string, period cashflow.Period, scenario string) ([]FundingGapRow, error) {
	key := cache.Key("portfolio", "funding_gap", fundSetKey(fundIDs), base, period, scenario)
	return cachedAs(s.cache, key, func() ([]FundingGapRow, error) {
		events, _, err := s.normalizedEvents(ctx, fundIDs, base, scenario)
		if err != nil {
			return nil, err
		}
		return FundingGap(events, period), nil
	})
}

// SimulateCashReserve runs the account-balance simulation. Not cached: the
// start balance is free input and would fragment the cache.
func (s *Service) SimulateCashReserve(ctx context.Context, fundIDs []uuid.UUID, base string, startBalance float64, scenario string, includeActuals bool) ([]ReservePoint, error) {
	events, _, err := s.normalizedEvents(ctx, fundIDs, base, scenario)
	if err != nil {
		return nil, err
	}
	return CashReserve(events, startBalance, includeActuals), nil
}
