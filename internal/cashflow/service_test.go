package cashflow

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

func (m *MockRepository) EventsForFund(ctx context.Context, fundID uuid.UUID, scenario *string) ([]Event, error) {
	args := m.Called(ctx, fundID, scenario)
	return args.Get(0).([]Event), args.Error(1)
}

func (m *MockRepository) UpsertEvent(ctx context.Context, ev *Event) (int64, error) {
	args := m.Called(ctx, ev)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockRepository) BulkUpsert(ctx context.Context, events []Event) (int, error) {
	args := m.Called(ctx, events)
	return args.Int(0), args.Error(1)
}

func (m *MockRepository) DeleteEvent(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockRepository) DeleteAll(ctx context.Context, fundID uuid.UUID, scenario string) (int, error) {
	args := m.Called(ctx, fundID, scenario)
	return args.Int(0), args.Error(1)
}

func (m *MockRepository) DeleteForecast(ctx context.Context, fundID uuid.UUID, scenario string) (int, error) {
	args := m.Called(ctx, fundID, scenario)
	return args.Int(0), args.Error(1)
}

func (m *MockRepository) ReplaceForecast(ctx context.Context, fundID uuid.UUID, scenario string, events []Event) (int, int, error) {
	args := m.Called(ctx, fundID, scenario, events)
	return args.Int(0), args.Int(1), args.Error(2)
}

func (m *MockRepository) UpcomingCalls(ctx context.Context, from, to time.Time) ([]UpcomingCall, error) {
	args := m.Called(ctx, from, to)
	return args.Get(0).([]UpcomingCall), args.Error(1)
}

func (m *MockRepository) ListScenarios(ctx context.Context) ([]Scenario, error) {
	args := m.Called(ctx)
	return args.Get(0).([]Scenario), args.Error(1)
}

func (m *MockRepository) CreateScenario(ctx context.Context, name string, description *string) (int64, error) {
	args := m.Called(ctx, name, description)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockRepository) DeleteScenario(ctx context.Context, name string) (int, bool, error) {
	args := m.Called(ctx, name)
	return args.Int(0), args.Bool(1), args.Error(2)
}

func (m *MockRepository) FundInfo(ctx context.Context, fundID uuid.UUID) (*FundCommitment, error) {
	args := m.Called(ctx, fundID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*FundCommitment), args.Error(1)
}

func (m *MockRepository) FundsForCashflow(ctx context.Context) ([]FundCommitment, error) {
	args := m.Called(ctx)
	return args.Get(0).([]FundCommitment), args.Error(1)
}

func (m *MockRepository) UpdateCommitment(ctx context.Context, fundID uuid.UUID, commitment, unfunded *float64, commitmentDate, endDate *time.Time) error {
	args := m.Called(ctx, fundID, commitment, unfunded, commitmentDate, endDate)
	return args.Error(0)
}

func (m *MockRepository) FundsEndingBetween(ctx context.Context, from, to time.Time) ([]FundCommitment, error) {
	args := m.Called(ctx, from, to)
	return args.Get(0).([]FundCommitment), args.Error(1)
}

func newTestService(repo Repository) *Service {
	return NewService(repo, cache.New(time.Minute), zap.NewNop())
}

func TestSaveEventValidation(t *testing.T) {
	mockRepo := new(MockRepository)
	service := newTestService(mockRepo)
	ctx := context.Background()
	fundID := uuid.New()

	cases := []struct {
		name string
		ev   Event
	}{
		{"missing fund", Event{Type: CapitalCall, Amount: 100, Currency: "EUR"}},
		{"unknown type", Event{FundID: fundID, Type: "dividend", Amount: 100, Currency: "EUR"}},
		{"zero amount", Event{FundID: fundID, Type: CapitalCall, Amount: 0, Currency: "EUR"}},
		{"negative amount", Event{FundID: fundID, Type: CapitalCall, Amount: -5, Currency: "EUR"}},
		{"missing currency", Event{FundID: fundID, Type: CapitalCall, Amount: 100}},
	}
	for _, tc := range cases {
		ev := tc.ev
		assert.Error(t, service.SaveEvent(ctx, &ev), tc.name)
	}
	mockRepo.AssertNotCalled(t, "UpsertEvent", mock.Anything, mock.Anything)
}

func TestSaveEventDefaultsScenario(t *testing.T) {
	mockRepo := new(MockRepository)
	service := newTestService(mockRepo)
	ctx := context.Background()

	ev := Event{
		FundID:   uuid.New(),
		Date:     time.Date(2024, time.March, 31, 0, 0, 0, 0, time.UTC),
		Type:     CapitalCall,
		Amount:   100,
		Currency: "EUR",
	}
	mockRepo.On("UpsertEvent", ctx, mock.MatchedBy(func(e *Event) bool {
		return e.Scenario == BaseScenario
	})).Return(int64(1), nil)

	require.NoError(t, service.SaveEvent(ctx, &ev))
	mockRepo.AssertExpectations(t)
}

func TestEventsAreCachedUntilWrite(t *testing.T) {
	mockRepo := new(MockRepository)
	service := newTestService(mockRepo)
	ctx := context.Background()
	fundID := uuid.New()
	scenario := BaseScenario

	stored := []Event{testEvent("2024-03-31", CapitalCall, 100, true)}
	mockRepo.On("EventsForFund", ctx, fundID, &scenario).Return(stored, nil).Twice()
	mockRepo.On("UpsertEvent", ctx, mock.Anything).Return(int64(1), nil)

	// Two reads, one repository hit.
	_, err := service.Events(ctx, fundID, &scenario)
	require.NoError(t, err)
	_, err = service.Events(ctx, fundID, &scenario)
	require.NoError(t, err)
	mockRepo.AssertNumberOfCalls(t, "EventsForFund", 1)

	// A write invalidates the fund's cached reads.
	ev := Event{FundID: fundID, Type: Distribution, Amount: 50, Currency: "EUR", Scenario: scenario}
	require.NoError(t, service.SaveEvent(ctx, &ev))

	_, err = service.Events(ctx, fundID, &scenario)
	require.NoError(t, err)
	mockRepo.AssertNumberOfCalls(t, "EventsForFund", 2)
}

func TestSaveEventsStampsFundID(t *testing.T) {
	mockRepo := new(MockRepository)
	service := newTestService(mockRepo)
	ctx := context.Background()
	fundID := uuid.New()

	events := []Event{
		{Type: CapitalCall, Amount: 100, Currency: "EUR"},
		{Type: Distribution, Amount: 40, Currency: "EUR"},
	}
	mockRepo.On("BulkUpsert", ctx, mock.MatchedBy(func(evs []Event) bool {
		for _, e := range evs {
			if e.FundID != fundID {
				return false
			}
		}
		return true
	})).Return(2, nil)

	n, err := service.SaveEvents(ctx, fundID, events)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestCompareScenarios(t *testing.T) {
	mockRepo := new(MockRepository)
	service := newTestService(mockRepo)
	ctx := context.Background()
	fundID := uuid.New()

	base, downside := "base", "downside"
	mockRepo.On("EventsForFund", ctx, fundID, &base).Return([]Event{
		testEvent("2024-03-31", CapitalCall, 500, false),
		testEvent("2025-03-31", Distribution, 800, false),
	}, nil)
	mockRepo.On("EventsForFund", ctx, fundID, &downside).Return([]Event{
		testEvent("2024-03-31", CapitalCall, 500, false),
		testEvent("2025-03-31", Distribution, 300, false),
	}, nil)

	metrics, err := service.CompareScenarios(ctx, fundID, []string{base, downside})
	require.NoError(t, err)
	require.Len(t, metrics, 2)

	assert.Equal(t, "2025Q1", metrics[base].BreakevenLabel)
	assert.Empty(t, metrics[downside].BreakevenLabel)
	assert.InDelta(t, -500, metrics[downside].PeakNegative, 0.001)
	assert.InDelta(t, 1.6, metrics[base].DPI, 0.001)
}

func TestUpdateCommitmentValidation(t *testing.T) {
	mockRepo := new(MockRepository)
	service := newTestService(mockRepo)
	ctx := context.Background()
	fundID := uuid.New()

	negative := -5.0
	assert.Error(t, service.UpdateCommitment(ctx, fundID, &negative, nil, nil, nil))
	assert.Error(t, service.UpdateCommitment(ctx, fundID, nil, &negative, nil, nil))
	mockRepo.AssertNotCalled(t, "UpdateCommitment", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestCreateScenarioRequiresName(t *testing.T) {
	mockRepo := new(MockRepository)
	service := newTestService(mockRepo)

	_, err := service.CreateScenario(context.Background(), "", nil)
	assert.Error(t, err)
}
