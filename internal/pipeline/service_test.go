package pipeline

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"peflow/cashflow-backend/pkg/cache"
)

// MockRepository is a mock implementation of the Repository interface
type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) CurrentStatus(ctx context.Context, fundID uuid.UUID) (Status, error) {
	args := m.Called(ctx, fundID)
	return args.Get(0).(Status), args.Error(1)
}

func (m *MockRepository) RecordTransition(ctx context.Context, fundID uuid.UUID, from, to Status, changedBy, reason string) error {
	args := m.Called(ctx, fundID, from, to, changedBy, reason)
	return args.Error(0)
}

func (m *MockRepository) CreateFund(ctx context.Context, f NewFund) (uuid.UUID, error) {
	args := m.Called(ctx, f)
	return args.Get(0).(uuid.UUID), args.Error(1)
}

func (m *MockRepository) SetCommitment(ctx context.Context, fundID uuid.UUID, amount float64, date time.Time) error {
	args := m.Called(ctx, fundID, amount, date)
	return args.Error(0)
}

func (m *MockRepository) Meta(ctx context.Context, fundID uuid.UUID) (*Meta, error) {
	args := m.Called(ctx, fundID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Meta), args.Error(1)
}

func (m *MockRepository) UpsertMeta(ctx context.Context, fundID uuid.UUID, update MetaUpdate) error {
	args := m.Called(ctx, fundID, update)
	return args.Error(0)
}

func (m *MockRepository) History(ctx context.Context, fundID uuid.UUID) ([]HistoryEntry, error) {
	args := m.Called(ctx, fundID)
	return args.Get(0).([]HistoryEntry), args.Error(1)
}

func (m *MockRepository) AllHistory(ctx context.Context) ([]HistoryEntry, error) {
	args := m.Called(ctx)
	return args.Get(0).([]HistoryEntry), args.Error(1)
}

func (m *MockRepository) FundsByGroup(ctx context.Context, group StatusGroup) ([]Fund, error) {
	args := m.Called(ctx, group)
	return args.Get(0).([]Fund), args.Error(1)
}

func newTestService(repo Repository) *Service {
	c := cache.New(time.Minute)
	return NewService(repo, c, zap.NewNop())
}

func TestTransitionGuarded(t *testing.T) {
	mockRepo := new(MockRepository)
	service := newTestService(mockRepo)
	ctx := context.Background()
	fundID := uuid.New()

	mockRepo.On("CurrentStatus", ctx, fundID).Return(Screening, nil)
	mockRepo.On("RecordTransition", ctx, fundID, Screening, DueDiligence, "analyst", "kickoff").Return(nil)

	err := service.Transition(ctx, fundID, DueDiligence, "analyst", "kickoff")

	assert.NoError(t, err)
	mockRepo.AssertExpectations(t)
}

func TestTransitionRejectsInvalidEdge(t *testing.T) {
	mockRepo := new(MockRepository)
	service := newTestService(mockRepo)
	ctx := context.Background()
	fundID := uuid.New()

	mockRepo.On("CurrentStatus", ctx, fundID).Return(Active, nil)

	err := service.Transition(ctx, fundID, Closed, "analyst", "")

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidTransition)
	assert.Contains(t, err.Error(), "active -> closed")
	assert.Contains(t, err.Error(), "harvesting")
	mockRepo.AssertNotCalled(t, "RecordTransition", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestForceTransitionSkipsValidation(t *testing.T) {
	mockRepo := new(MockRepository)
	service := newTestService(mockRepo)
	ctx := context.Background()
	fundID := uuid.New()

	mockRepo.On("CurrentStatus", ctx, fundID).Return(Active, nil)
	mockRepo.On("RecordTransition", ctx, fundID, Active, Closed, "admin", "wind-down").Return(nil)

	err := service.ForceTransition(ctx, fundID, Closed, "admin", "wind-down")

	assert.NoError(t, err)
	mockRepo.AssertExpectations(t)
}

func TestForceTransitionSameStatusIsNoop(t *testing.T) {
	mockRepo := new(MockRepository)
	service := newTestService(mockRepo)
	ctx := context.Background()
	fundID := uuid.New()

	mockRepo.On("CurrentStatus", ctx, fundID).Return(Active, nil)

	err := service.ForceTransition(ctx, fundID, Active, "admin", "")

	assert.NoError(t, err)
	mockRepo.AssertNotCalled(t, "RecordTransition", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestPromoteStampsCommitment(t *testing.T) {
	mockRepo := new(MockRepository)
	service := newTestService(mockRepo)
	ctx := context.Background()
	fundID := uuid.New()
	commitDate := time.Date(2025, time.September, 1, 0, 0, 0, 0, time.UTC)

	mockRepo.On("CurrentStatus", ctx, fundID).Return(Negotiation, nil)
	mockRepo.On("RecordTransition", ctx, fundID, Negotiation, Committed, "partner", mock.AnythingOfType("string")).Return(nil)
	mockRepo.On("SetCommitment", ctx, fundID, 5_000_000.0, commitDate).Return(nil)

	err := service.Promote(ctx, fundID, 5_000_000, commitDate, "partner")

	assert.NoError(t, err)
	mockRepo.AssertExpectations(t)
}

func TestPromoteFailsOutsideNegotiation(t *testing.T) {
	mockRepo := new(MockRepository)
	service := newTestService(mockRepo)
	ctx := context.Background()
	fundID := uuid.New()

	mockRepo.On("CurrentStatus", ctx, fundID).Return(Screening, nil)

	err := service.Promote(ctx, fundID, 5_000_000, time.Now(), "partner")

	assert.ErrorIs(t, err, ErrInvalidTransition)
	mockRepo.AssertNotCalled(t, "SetCommitment", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestDeclineStoresReason(t *testing.T) {
	mockRepo := new(MockRepository)
	service := newTestService(mockRepo)
	ctx := context.Background()
	fundID := uuid.New()

	mockRepo.On("CurrentStatus", ctx, fundID).Return(DueDiligence, nil)
	mockRepo.On("RecordTransition", ctx, fundID, DueDiligence, Declined, "analyst", "fees too high").Return(nil)
	mockRepo.On("UpsertMeta", ctx, fundID, mock.MatchedBy(func(u MetaUpdate) bool {
		return u.DeclineReason != nil && *u.DeclineReason == "fees too high"
	})).Return(nil)

	err := service.Decline(ctx, fundID, "fees too high", "analyst")

	assert.NoError(t, err)
	mockRepo.AssertExpectations(t)
}

func TestCreateFundValidation(t *testing.T) {
	mockRepo := new(MockRepository)
	service := newTestService(mockRepo)
	ctx := context.Background()

	_, err := service.CreateFund(ctx, NewFund{Currency: "EUR", Probability: 50})
	assert.Error(t, err, "missing name")

	_, err = service.CreateFund(ctx, NewFund{FundName: "Fund I", Currency: "EUR", Probability: 150})
	assert.Error(t, err, "probability out of range")

	fundID := uuid.New()
	valid := NewFund{FundName: "Fund I", Currency: "EUR", Probability: 50}
	mockRepo.On("CreateFund", ctx, valid).Return(fundID, nil)

	created, err := service.CreateFund(ctx, valid)
	assert.NoError(t, err)
	assert.Equal(t, fundID, created)
}

func TestPipelineSummary(t *testing.T) {
	mockRepo := new(MockRepository)
	service := newTestService(mockRepo)
	ctx := context.Background()

	prob60, prob40 := 60.0, 40.0
	commit1, commit2 := 10_000_000.0, 5_000_000.0
	score := 7.5
	soon := time.Now().Add(24 * time.Hour)
	later := time.Now().Add(96 * time.Hour)
	step := "management call"

	funds := []Fund{
		{FundName: "Alpha", Status: Screening, Probability: &prob60, ExpectedCommitment: &commit1, NextStepDate: &later, NextStep: &step},
		{FundName: "Beta", Status: DueDiligence, Probability: &prob40, ExpectedCommitment: &commit2, DDScore: &score, NextStepDate: &soon},
		{FundName: "Gamma", Status: Screening},
	}
	mockRepo.On("FundsByGroup", ctx, GroupPipeline).Return(funds, nil)

	summary, err := service.PipelineSummary(ctx)
	require.NoError(t, err)

	assert.Equal(t, 3, summary.TotalPipeline)
	assert.Equal(t, 2, summary.ByStatusCount[Screening])
	assert.Equal(t, 1, summary.ByStatusCount[DueDiligence])
	assert.InDelta(t, 0.6*10_000_000+0.4*5_000_000, summary.ProbabilityWeightedCommitment, 0.001)
	assert.InDelta(t, 7.5, summary.AvgDDScore, 0.001)
	require.Len(t, summary.UpcomingNextSteps, 2)
	assert.Equal(t, "Beta", summary.UpcomingNextSteps[0].FundName, "sorted by date")
}

func TestKanbanIncludesEmptyStages(t *testing.T) {
	mockRepo := new(MockRepository)
	service := newTestService(mockRepo)
	ctx := context.Background()

	funds := []Fund{{FundName: "Alpha", Status: Negotiation}}
	mockRepo.On("FundsByGroup", ctx, GroupPipeline).Return(funds, nil)

	board, err := service.Kanban(ctx)
	require.NoError(t, err)

	assert.Len(t, board, 3)
	assert.Empty(t, board[Screening])
	assert.Empty(t, board[DueDiligence])
	require.Len(t, board[Negotiation], 1)
	assert.Equal(t, "Alpha", board[Negotiation][0].FundName)
}
