package pipeline

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"peflow/cashflow-backend/pkg/cache"
)

// Service enforces the lifecycle rules on top of the repository and keeps
// the audit trail complete. Every status change, guarded or forced, lands
// in the history.
type Service struct {
	repo   Repository
	cache  *cache.QueryCache
	logger *zap.Logger
}

// NewService creates a pipeline service.
func NewService(repo Repository, c *cache.QueryCache, logger *zap.Logger) *Service {
	return &Service{repo: repo, cache: c, logger: logger}
}

func (s *Service) invalidate() {
	s.cache.DeleteByPrefix("pipeline")
}

// Transition moves a fund along a valid lifecycle edge.
func (s *Service) Transition(ctx context.Context, fundID uuid.UUID, target Status, changedBy, reason string) error {
	current, err := s.repo.CurrentStatus(ctx, fundID)
	if err != nil {
		return err
	}
	if !CanTransition(current, target) {
		return fmt.Errorf("%w: %s -> %s (allowed: %v)",
			ErrInvalidTransition, current, target, AllowedTargets(current))
	}
	if err := s.repo.RecordTransition(ctx, fundID, current, target, changedBy, reason); err != nil {
		return err
	}
	s.logger.Info("fund status changed",
		zap.String("fund_id", fundID.String()),
		zap.String("from", string(current)),
		zap.String("to", string(target)),
		zap.String("changed_by", changedBy))
	s.invalidate()
	return nil
}

// ForceTransition sets a status without lifecycle validation. The change is
// still recorded in the history; a same-status request is a no-op.
func (s *Service) ForceTransition(ctx context.Context, fundID uuid.UUID, target Status, changedBy, reason string) error {
	current, err := s.repo.CurrentStatus(ctx, fundID)
	if err != nil {
		return err
	}
	if current == target {
		return nil
	}
	if err := s.repo.RecordTransition(ctx, fundID, current, target, changedBy, reason); err != nil {
		return err
	}
	s.logger.Warn("fund status forced",
		zap.String("fund_id", fundID.String()),
		zap.String("from", string(current)),
		zap.String("to", string(target)),
		zap.String("changed_by", changedBy))
	s.invalidate()
	return nil
}

// Promote commits a negotiation-stage fund: the status moves to committed
// and the commitment is stamped onto the fund with unfunded equal to the
// full amount.
func (s *Service) Promote(ctx context.Context, fundID uuid.UUID, commitment float64, commitmentDate time.Time, changedBy string) error {
	reason := fmt.Sprintf("promoted with commitment %.0f", commitment)
	if err := s.Transition(ctx, fundID, Committed, changedBy, reason); err != nil {
		return err
	}
	if err := s.repo.SetCommitment(ctx, fundID, commitment, commitmentDate); err != nil {
		return err
	}
	s.invalidate()
	return nil
}

// Decline rejects a pipeline fund and stores the reason on its metadata.
func (s *Service) Decline(ctx context.Context, fundID uuid.UUID, reason, changedBy string) error {
	if err := s.Transition(ctx, fundID, Declined, changedBy, reason); err != nil {
		return err
	}
	if err := s.repo.UpsertMeta(ctx, fundID, MetaUpdate{DeclineReason: &reason}); err != nil {
		return err
	}
	s.invalidate()
	return nil
}

// CreateFund opens a new fund in screening with its metadata and the
// initial history entry.
func (s *Service) CreateFund(ctx context.Context, f NewFund) (uuid.UUID, error) {
	if f.FundName == "" {
		return uuid.Nil, fmt.Errorf("fund name is required")
	}
	if f.Probability < 0 || f.Probability > 100 {
		return uuid.Nil, fmt.Errorf("probability must be between 0 and 100")
	}
	fundID, err := s.repo.CreateFund(ctx, f)
	if err != nil {
		return uuid.Nil, err
	}
	s.logger.Info("pipeline fund created",
		zap.String("fund_id", fundID.String()),
		zap.String("fund_name", f.FundName))
	s.invalidate()
	return fundID, nil
}

// UpdateMeta changes pipeline metadata fields.
func (s *Service) UpdateMeta(ctx context.Context, fundID uuid.UUID, update MetaUpdate) error {
	if update.Probability != nil && (*update.Probability < 0 || *update.Probability > 100) {
		return fmt.Errorf("probability must be between 0 and 100")
	}
	if err := s.repo.UpsertMeta(ctx, fundID, update); err != nil {
		return err
	}
	s.invalidate()
	return nil
}

// Meta returns a fund's pipeline metadata, nil when none exists.
func (s *Service) Meta(ctx context.Context, fundID uuid.UUID) (*Meta, error) {
	return s.repo.Meta(ctx, fundID)
}

// History returns a fund's status audit trail, most recent first.
func (s *Service) History(ctx context.Context, fundID uuid.UUID) ([]HistoryEntry, error) {
	return s.repo.History(ctx, fundID)
}

// AllHistory returns the status audit trail across all funds.
func (s *Service) AllHistory(ctx context.Context) ([]HistoryEntry, error) {
	return s.repo.AllHistory(ctx)
}

// FundsByGroup lists funds in a lifecycle group.
func (s *Service) FundsByGroup(ctx context.Context, group StatusGroup) ([]Fund, error) {
	key := cache.Key("pipeline", "funds", group)
	v, err := s.cache.GetOrSet(key, func() (any, error) {
		return s.repo.FundsByGroup(ctx, group)
	})
	if err != nil {
		return nil, err
	}
	return v.([]Fund), nil
}

// PipelineSummary computes the pipeline KPIs: stage counts, the
// probability-weighted expected commitment, the average due-diligence score
// and the five nearest next steps.
func (s *Service) PipelineSummary(ctx context.Context) (*Summary, error) {
	key := cache.Key("pipeline", "summary")
	v, err := s.cache.GetOrSet(key, func() (any, error) {
		funds, err := s.repo.FundsByGroup(ctx, GroupPipeline)
		if err != nil {
			return nil, err
		}

		summary := &Summary{
			TotalPipeline: len(funds),
			ByStatusCount: make(map[Status]int),
		}

		var ddScores []float64
		var upcoming []NextStepItem
		for _, f := range funds {
			summary.ByStatusCount[f.Status]++

			prob := 0.0
			if f.Probability != nil {
				prob = *f.Probability / 100
			}
			if f.ExpectedCommitment != nil {
				summary.ProbabilityWeightedCommitment += prob * *f.ExpectedCommitment
			}
			if f.DDScore != nil {
				ddScores = append(ddScores, *f.DDScore)
			}
			if f.NextStepDate != nil {
				step := ""
				if f.NextStep != nil {
					step = *f.NextStep
				}
				upcoming = append(upcoming, NextStepItem{
					FundName:     f.FundName,
					NextStep:     step,
					NextStepDate: *f.NextStepDate,
				})
			}
		}

		if len(ddScores) > 0 {
			total := 0.0
			for _, score := range ddScores {
				total += score
			}
			summary.AvgDDScore = total / float64(len(ddScores))
		}

		sort.Slice(upcoming, func(i, j int) bool {
			return upcoming[i].NextStepDate.Before(upcoming[j].NextStepDate)
		})
		if len(upcoming) > 5 {
			upcoming = upcoming[:5]
		}
		summary.UpcomingNextSteps = upcoming
		return summary, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Summary), nil
}

// Kanban groups pipeline-stage funds by status for the board view. Every
// pipeline status is present, empty stages included.
func (s *Service) Kanban(ctx context.Context) (map[Status][]Fund, error) {
	funds, err := s.FundsByGroup(ctx, GroupPipeline)
	if err != nil {
		return nil, err
	}
	board := make(map[Status][]Fund, len(PipelineStatuses))
	for _, status := range PipelineStatuses {
		board[status] = []Fund{}
	}
	for _, f := range funds {
		if _, ok := board[f.Status]; ok {
			board[f.Status] = append(board[f.Status], f)
		}
	}
	return board, nil
}
