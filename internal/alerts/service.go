// Package alerts surfaces planned capital calls and fund deadlines that
// need attention soon.
package alerts

import (
	"context"
	"time"

	"go.uber.org/zap"

	"peflow/cashflow-backend/internal/cashflow"
	"peflow/cashflow-backend/internal/config"
)

// CallAlert is a planned capital call inside the alert horizon.
type CallAlert struct {
	cashflow.UpcomingCall
	DaysUntil int  `json:"days_until"`
	Urgent    bool `json:"urgent"`
}

// DeadlineAlert flags a fund whose expected end date is approaching while
// commitment remains undrawn.
type DeadlineAlert struct {
	FundID    string    `json:"fund_id"`
	FundName  string    `json:"fund_name"`
	EndDate   time.Time `json:"end_date"`
	DaysUntil int       `json:"days_until"`
	Unfunded  float64   `json:"unfunded_amount"`
	Currency  string    `json:"currency"`
}

// Digest bundles one alert sweep.
type Digest struct {
	GeneratedAt time.Time       `json:"generated_at"`
	Calls       []CallAlert     `json:"upcoming_calls"`
	Deadlines   []DeadlineAlert `json:"deadline_warnings"`
}

// Calls due within this many days are marked urgent.
const urgentDays = 30

type Service struct {
	repo   cashflow.Repository
	cfg    config.AlertsConfig
	logger *zap.Logger
}

func NewService(repo cashflow.Repository, cfg config.AlertsConfig, logger *zap.Logger) *Service {
	if cfg.CallHorizonDays <= 0 {
		cfg.CallHorizonDays = 90
	}
	if cfg.DeadlineHorizonDays <= 0 {
		cfg.DeadlineHorizonDays = 90
	}
	return &Service{repo: repo, cfg: cfg, logger: logger}
}

func daysUntil(now, d time.Time) int {
	return int(d.Sub(now).Hours() / 24)
}

// UpcomingCalls lists planned capital calls due within the horizon,
// soonest first.
func (s *Service) UpcomingCalls(ctx context.Context, now time.Time) ([]CallAlert, error) {
	now = now.Truncate(24 * time.Hour)
	calls, err := s.repo.UpcomingCalls(ctx, now, now.AddDate(0, 0, s.cfg.CallHorizonDays))
	if err != nil {
		return nil, err
	}
	alerts := make([]CallAlert, 0, len(calls))
	for _, c := range calls {
		d := daysUntil(now, c.Date)
		alerts = append(alerts, CallAlert{UpcomingCall: c, DaysUntil: d, Urgent: d <= urgentDays})
	}
	return alerts, nil
}

// DeadlineWarnings lists funds whose expected end date falls within the
// horizon and that still carry an unfunded balance. Fully drawn funds need
// no action when their term ends.
func (s *Service) DeadlineWarnings(ctx context.Context, now time.Time) ([]DeadlineAlert, error) {
	now = now.Truncate(24 * time.Hour)
	funds, err := s.repo.FundsEndingBetween(ctx, now, now.AddDate(0, 0, s.cfg.DeadlineHorizonDays))
	if err != nil {
		return nil, err
	}
	warnings := make([]DeadlineAlert, 0, len(funds))
	for _, f := range funds {
		if f.ExpectedEndDate == nil || f.UnfundedAmount <= 0 {
			continue
		}
		warnings = append(warnings, DeadlineAlert{
			FundID:    f.FundID.String(),
			FundName:  f.Name,
			EndDate:   *f.ExpectedEndDate,
			DaysUntil: daysUntil(now, *f.ExpectedEndDate),
			Unfunded:  f.UnfundedAmount,
			Currency:  f.Currency,
		})
	}
	return warnings, nil
}

// Sweep runs both scans and logs a summary. The worker calls this on a
// schedule; the API calls the individual scans directly.
func (s *Service) Sweep(ctx context.Context) (*Digest, error) {
	now := time.Now().UTC()
	calls, err := s.UpcomingCalls(ctx, now)
	if err != nil {
		return nil, err
	}
	deadlines, err := s.DeadlineWarnings(ctx, now)
	if err != nil {
		return nil, err
	}

	urgent := 0
	for _, c := range calls {
		if c.Urgent {
			urgent++
		}
	}
	s.logger.Info("alert sweep",
		zap.Int("upcoming_calls", len(calls)),
		zap.Int("urgent_calls", urgent),
		zap.Int("deadline_warnings", len(deadlines)))

	return &Digest{GeneratedAt: now, Calls: calls, Deadlines: deadlines}, nil
}
