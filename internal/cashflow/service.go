package cashflow

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"peflow/cashflow-backend/pkg/cache"
)

// Service wraps the repository with validation, caching and cache
// invalidation. Reads are memoized per fund; any write to a fund clears its
// key prefix plus every portfolio aggregate.
type Service struct {
	repo   Repository
	cache  *cache.QueryCache
	logger *zap.Logger
}

// NewService creates a cashflow service.
func NewService(repo Repository, c *cache.QueryCache, logger *zap.Logger) *Service {
	return &Service{repo: repo, cache: c, logger: logger}
}

func (s *Service) invalidateFund(fundID uuid.UUID) {
	s.cache.DeleteByPrefix(cache.Key("fund", fundID))
	s.cache.DeleteByPrefix("portfolio")
}

func (s *Service) validateEvent(ev *Event) error {
	if ev.FundID == uuid.Nil {
		return fmt.Errorf("fund id is required")
	}
	if !ev.Type.Valid() {
		return fmt.Errorf("unknown cashflow type %q", ev.Type)
	}
	if ev.Amount <= 0 {
		return fmt.Errorf("amount must be positive; direction is carried by the type")
	}
	if ev.Currency == "" {
		return fmt.Errorf("currency is required")
	}
	if ev.Scenario == "" {
		ev.Scenario = BaseScenario
	}
	return nil
}

// Events returns a fund's events, optionally limited to one scenario.
func (s *Service) Events(ctx context.Context, fundID uuid.UUID, scenario *string) ([]Event, error) {
	scenarioKey := "all"
	if scenario != nil {
		scenarioKey = *scenario
	}
	key := cache.Key("fund", fundID, "events", scenarioKey)
	v, err := s.cache.GetOrSet(key, func() (any, error) {
		return s.repo.EventsForFund(ctx, fundID, scenario)
	})
	if err != nil {
		return nil, err
	}
	return v.([]Event), nil
}

// SaveEvent validates and upserts one event on its natural key.
func (s *Service) SaveEvent(ctx context.Context, ev *Event) error {
	if err := s.validateEvent(ev); err != nil {
		return err
	}
	if _, err := s.repo.UpsertEvent(ctx, ev); err != nil {
		return err
	}
	s.invalidateFund(ev.FundID)
	return nil
}

// SaveEvents validates and bulk-upserts a batch. Events may span scenarios
// but must belong to the given fund.
func (s *Service) SaveEvents(ctx context.Context, fundID uuid.UUID, events []Event) (int, error) {
	for i := range events {
		events[i].FundID = fundID
		if err := s.validateEvent(&events[i]); err != nil {
			return 0, fmt.Errorf("event %d: %w", i+1, err)
		}
	}
	n, err := s.repo.BulkUpsert(ctx, events)
	if err != nil {
		return 0, err
	}
	s.invalidateFund(fundID)
	return n, nil
}

// DeleteEvent removes a single event by id.
func (s *Service) DeleteEvent(ctx context.Context, fundID uuid.UUID, eventID int64) error {
	if err := s.repo.DeleteEvent(ctx, eventID); err != nil {
		return err
	}
	s.invalidateFund(fundID)
	return nil
}

// DeleteAll removes every event of a fund within one scenario.
func (s *Service) DeleteAll(ctx context.Context, fundID uuid.UUID, scenario string) (int, error) {
	n, err := s.repo.DeleteAll(ctx, fundID, scenario)
	if err != nil {
		return 0, err
	}
	s.invalidateFund(fundID)
	return n, nil
}

// DeleteForecast removes the planned events of a fund within one scenario,
// leaving actuals untouched.
func (s *Service) DeleteForecast(ctx context.Context, fundID uuid.UUID, scenario string) (int, error) {
	n, err := s.repo.DeleteForecast(ctx, fundID, scenario)
	if err != nil {
		return 0, err
	}
	s.invalidateFund(fundID)
	return n, nil
}

// CumulativeCashflows returns the fund's J-curve in its native currency.
func (s *Service) CumulativeCashflows(ctx context.Context, fundID uuid.UUID, scenario string) ([]CumulativePoint, error) {
	key := cache.Key("fund", fundID, "cumulative", scenario)
	v, err := s.cache.GetOrSet(key, func() (any, error) {
		events, err := s.repo.EventsForFund(ctx, fundID, &scenario)
		if err != nil {
			return nil, err
		}
		return Cumulative(events), nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]CumulativePoint), nil
}

// PeriodicCashflows returns quarter or year rollups in the fund's currency.
func (s *Service) PeriodicCashflows(ctx context.Context, fundID uuid.UUID, period Period, scenario string) ([]PeriodTotal, error) {
	key := cache.Key("fund", fundID, "periodic", period, scenario)
	v, err := s.cache.GetOrSet(key, func() (any, error) {
		events, err := s.repo.EventsForFund(ctx, fundID, &scenario)
		if err != nil {
			return nil, err
		}
		return Periodic(events, period), nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]PeriodTotal), nil
}

// CashflowSummary returns whole-stream totals for one fund and scenario.
func (s *Service) CashflowSummary(ctx context.Context, fundID uuid.UUID, scenario string) (*Summary, error) {
	key := cache.Key("fund", fundID, "summary", scenario)
	v, err := s.cache.GetOrSet(key, func() (any, error) {
		events, err := s.repo.EventsForFund(ctx, fundID, &scenario)
		if err != nil {
			return nil, err
		}
		summary := Summarize(events)
		return &summary, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Summary), nil
}

// CompareScenarios computes side-by-side metrics for a fund across
// scenarios.
func (s *Service) CompareScenarios(ctx context.Context, fundID uuid.UUID, scenarios []string) (map[string]ScenarioMetrics, error) {
	result := make(map[string]ScenarioMetrics, len(scenarios))
	for _, scenario := range scenarios {
		events, err := s.repo.EventsForFund(ctx, fundID, &scenario)
		if err != nil {
			return nil, err
		}
		result[scenario] = ComputeScenarioMetrics(Cumulative(events), Summarize(events))
	}
	return result, nil
}

// HistoricalPacingCurves derives normalized pacing fractions from a fund's
// realized history, for use as a forecasting template.
func (s *Service) HistoricalPacingCurves(ctx context.Context, fundID uuid.UUID) (*PacingCurves, error) {
	fund, err := s.repo.FundInfo(ctx, fundID)
	if err != nil {
		return nil, err
	}
	events, err := s.repo.EventsForFund(ctx, fundID, nil)
	if err != nil {
		return nil, err
	}
	curves := HistoricalPacing(events, fund.CommitmentAmount)
	return &curves, nil
}

// ListScenarios returns all scenarios.
func (s *Service) ListScenarios(ctx context.Context) ([]Scenario, error) {
	return s.repo.ListScenarios(ctx)
}

// CreateScenario adds a named scenario.
func (s *Service) CreateScenario(ctx context.Context, name string, description *string) (int64, error) {
	if name == "" {
		return 0, fmt.Errorf("scenario name is required")
	}
	return s.repo.CreateScenario(ctx, name, description)
}

// DeleteScenario removes a scenario and its events. The base scenario is
// protected.
func (s *Service) DeleteScenario(ctx context.Context, name string) (int, bool, error) {
	eventsDeleted, scenarioDeleted, err := s.repo.DeleteScenario(ctx, name)
	if err != nil {
		return 0, false, err
	}
	s.cache.Clear()
	s.logger.Info("scenario deleted",
		zap.String("scenario", name),
		zap.Int("events_deleted", eventsDeleted))
	return eventsDeleted, scenarioDeleted, nil
}

// FundInfo returns a fund's commitment data.
func (s *Service) FundInfo(ctx context.Context, fundID uuid.UUID) (*FundCommitment, error) {
	return s.repo.FundInfo(ctx, fundID)
}

// Funds lists every fund visible to the cashflow module.
func (s *Service) Funds(ctx context.Context) ([]FundCommitment, error) {
	return s.repo.FundsForCashflow(ctx)
}

// UpdateCommitment patches a fund's commitment fields. Nil values keep the
// stored ones.
func (s *Service) UpdateCommitment(ctx context.Context, fundID uuid.UUID, commitment, unfunded *float64, commitmentDate, endDate *time.Time) error {
	if commitment != nil && *commitment < 0 {
		return fmt.Errorf("commitment must not be negative")
	}
	if unfunded != nil && *unfunded < 0 {
		return fmt.Errorf("unfunded amount must not be negative")
	}
	if err := s.repo.UpdateCommitment(ctx, fundID, commitment, unfunded, commitmentDate, endDate); err != nil {
		return err
	}
	s.invalidateFund(fundID)
	return nil
}
