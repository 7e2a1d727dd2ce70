package alerts

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"peflow/cashflow-backend/internal/cashflow"
	"peflow/cashflow-backend/internal/config"
)

// mockRepo stubs only the two repository methods the alert scans use.
type mockRepo struct {
	mock.Mock
	cashflow.Repository
}

func (m *mockRepo) UpcomingCalls(ctx context.Context, from, to time.Time) ([]cashflow.UpcomingCall, error) {
	args := m.Called(ctx, from, to)
	return args.Get(0).([]cashflow.UpcomingCall), args.Error(1)
}

func (m *mockRepo) FundsEndingBetween(ctx context.Context, from, to time.Time) ([]cashflow.FundCommitment, error) {
	args := m.Called(ctx, from, to)
	return args.Get(0).([]cashflow.FundCommitment), args.Error(1)
}

func TestUpcomingCallsFlagsUrgency(t *testing.T) {
	repo := new(mockRepo)
	svc := NewService(repo, config.AlertsConfig{CallHorizonDays: 90}, zap.NewNop())
	now := time.Date(2026, time.January, 1, 10, 30, 0, 0, time.UTC)

	repo.On("UpcomingCalls", mock.Anything, mock.MatchedBy(func(from time.Time) bool {
		return from.Hour() == 0
	}), mock.Anything).Return([]cashflow.UpcomingCall{
		{FundID: uuid.New(), FundName: "Alpha Fund I", Date: now.AddDate(0, 0, 10), Amount: 250_000, Currency: "EUR"},
		{FundID: uuid.New(), FundName: "Beta Ventures", Date: now.AddDate(0, 0, 75), Amount: 500_000, Currency: "USD"},
	}, nil)

	alerts, err := svc.UpcomingCalls(context.Background(), now)
	require.NoError(t, err)
	require.Len(t, alerts, 2)

	assert.Equal(t, 10, alerts[0].DaysUntil)
	assert.True(t, alerts[0].Urgent)
	assert.Equal(t, 75, alerts[1].DaysUntil)
	assert.False(t, alerts[1].Urgent)
}

func TestDeadlineWarnings(t *testing.T) {
	repo := new(mockRepo)
	svc := NewService(repo, config.AlertsConfig{DeadlineHorizonDays: 90}, zap.NewNop())
	now := time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC)

	end := now.AddDate(0, 0, 45)
	repo.On("FundsEndingBetween", mock.Anything, now, now.AddDate(0, 0, 90)).Return([]cashflow.FundCommitment{
		{FundID: uuid.New(), Name: "Alpha Fund I", Currency: "EUR", UnfundedAmount: 400_000, ExpectedEndDate: &end},
		{FundID: uuid.New(), Name: "Fully Drawn", UnfundedAmount: 0, ExpectedEndDate: &end},
		{FundID: uuid.New(), Name: "No End Date", UnfundedAmount: 100},
	}, nil)

	warnings, err := svc.DeadlineWarnings(context.Background(), now)
	require.NoError(t, err)
	require.Len(t, warnings, 1)
	assert.Equal(t, "Alpha Fund I", warnings[0].FundName)
	assert.Equal(t, 45, warnings[0].DaysUntil)
	assert.InDelta(t, 400_000, warnings[0].Unfunded, 0.001)
}

func TestNewServiceAppliesDefaultHorizons(t *testing.T) {
	repo := new(mockRepo)
	svc := NewService(repo, config.AlertsConfig{}, zap.NewNop())
	now := time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC)

	repo.On("UpcomingCalls", mock.Anything, now, now.AddDate(0, 0, 90)).
		Return([]cashflow.UpcomingCall{}, nil)

	_, err := svc.UpcomingCalls(context.Background(), now)
	require.NoError(t, err)
	repo.AssertExpectations(t)
}
