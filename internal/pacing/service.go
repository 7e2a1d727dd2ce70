package pacing

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"peflow/cashflow-backend/internal/cashflow"
	"peflow/cashflow-backend/pkg/cache"
)

// ForecastRequest selects a pacing model and its inputs for one fund and
// scenario. Params carries model-specific parameters as raw JSON; absent
// fields keep the model defaults.
type ForecastRequest struct {
	FundID      uuid.UUID       `json:"fund_id"`
	Scenario    string          `json:"scenario"`
	Model       string          `json:"model"`
	Lifetime    int             `json:"lifetime"`
	VintageYear int             `json:"vintage_year"`
	Commitment  *float64        `json:"commitment,omitempty"`
	Params      json.RawMessage `json:"params,omitempty"`

	// ReferenceFundID names the fund whose realized history seeds the
	// historical-average model.
	ReferenceFundID *uuid.UUID `json:"reference_fund_id,omitempty"`
}

// ForecastResult reports what a forecast write changed.
type ForecastResult struct {
	Model    string  `json:"model"`
	Scenario string  `json:"scenario"`
	Deleted  int     `json:"deleted"`
	Inserted int     `json:"inserted"`
	Entries  []Entry `json:"entries"`
}

// ForecastService turns model output into stored planned events.
type ForecastService struct {
	repo   cashflow.Repository
	engine *Engine
	cache  *cache.QueryCache
	logger *zap.Logger
}

// NewForecastService creates a forecast service.
func NewForecastService(repo cashflow.Repository, engine *Engine, c *cache.QueryCache, logger *zap.Logger) *ForecastService {
	return &ForecastService{repo: repo, engine: engine, cache: c, logger: logger}
}

// Models lists the available pacing models.
func (s *ForecastService) Models() []Model {
	return s.engine.Models()
}

// buildModel constructs the request's model instance, starting from the
// defaults and overlaying the request params.
func (s *ForecastService) buildModel(ctx context.Context, req *ForecastRequest) (Model, error) {
	var model Model
	switch req.Model {
	case "takahashi_alexander":
		model = DefaultTakahashiAlexander()
	case "driessen_lin_phalippou":
		model = DefaultDriessenLinPhalippou()
	case "ljungqvist_richardson":
		model = DefaultLjungqvistRichardson()
	case "cambridge_quantile":
		model = DefaultCambridgeQuantile()
	case "linear":
		model = DefaultLinear()
	case "manual":
		model = &Manual{TVPIMultiple: 1.5}
	case "historical_average":
		if req.ReferenceFundID == nil {
			return nil, fmt.Errorf("historical_average requires a reference fund")
		}
		curves, err := s.referenceCurves(ctx, *req.ReferenceFundID)
		if err != nil {
			return nil, err
		}
		model = &HistoricalAverage{Curves: *curves}
	default:
		return nil, fmt.Errorf("unsupported pacing model: %s", req.Model)
	}

	if len(req.Params) > 0 {
		if err := json.Unmarshal(req.Params, model); err != nil {
			return nil, fmt.Errorf("invalid parameters for %s: %w", req.Model, err)
		}
	}
	return model, nil
}

// referenceCurves derives pacing curves from a reference fund's actuals.
func (s *ForecastService) referenceCurves(ctx context.Context, fundID uuid.UUID) (*cashflow.PacingCurves, error) {
	fund, err := s.repo.FundInfo(ctx, fundID)
	if err != nil {
		return nil, err
	}
	events, err := s.repo.EventsForFund(ctx, fundID, nil)
	if err != nil {
		return nil, err
	}
	curves := cashflow.HistoricalPacing(events, fund.CommitmentAmount)
	if len(curves.CallPacing) == 0 && len(curves.DistPacing) == 0 {
		return nil, fmt.Errorf("reference fund %s has no realized history to derive pacing from", fund.Name)
	}
	return &curves, nil
}

func (s *ForecastService) resolveInput(ctx context.Context, req *ForecastRequest) (Input, *cashflow.FundCommitment, error) {
	fund, err := s.repo.FundInfo(ctx, req.FundID)
	if err != nil {
		return Input{}, nil, err
	}

	in := Input{
		Commitment:  fund.CommitmentAmount,
		Lifetime:    req.Lifetime,
		VintageYear: req.VintageYear,
	}
	if req.Commitment != nil {
		in.Commitment = *req.Commitment
	}
	if in.Commitment <= 0 {
		return Input{}, nil, fmt.Errorf("fund has no commitment to forecast against")
	}
	if in.Lifetime <= 0 {
		in.Lifetime = 10
	}
	if in.VintageYear <= 0 {
		in.VintageYear = time.Now().Year()
	}
	return in, fund, nil
}

// Preview runs the model without touching storage.
func (s *ForecastService) Preview(ctx context.Context, req *ForecastRequest) ([]Entry, error) {
	model, err := s.buildModel(ctx, req)
	if err != nil {
		return nil, err
	}
	in, _, err := s.resolveInput(ctx, req)
	if err != nil {
		return nil, err
	}
	return model.Forecast(in), nil
}

// Apply runs the model and replaces the scenario's planned events with the
// result in one transaction. Actual events are never touched.
func (s *ForecastService) Apply(ctx context.Context, req *ForecastRequest) (*ForecastResult, error) {
	if req.Scenario == "" {
		req.Scenario = cashflow.BaseScenario
	}
	model, err := s.buildModel(ctx, req)
	if err != nil {
		return nil, err
	}
	in, fund, err := s.resolveInput(ctx, req)
	if err != nil {
		return nil, err
	}

	entries := model.Forecast(in)
	events := PrepareForInsertion(entries, req.FundID, req.Scenario, fund.Currency, "Forecast")

	deleted, inserted, err := s.repo.ReplaceForecast(ctx, req.FundID, req.Scenario, events)
	if err != nil {
		return nil, err
	}

	s.cache.DeleteByPrefix(cache.Key("fund", req.FundID))
	s.cache.DeleteByPrefix("portfolio")

	s.logger.Info("forecast applied",
		zap.String("fund_id", req.FundID.String()),
		zap.String("model", req.Model),
		zap.String("scenario", req.Scenario),
		zap.Int("deleted", deleted),
		zap.Int("inserted", inserted))

	return &ForecastResult{
		Model:    req.Model,
		Scenario: req.Scenario,
		Deleted:  deleted,
		Inserted: inserted,
		Entries:  entries,
	}, nil
}
