package imports

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"peflow/cashflow-backend/internal/cashflow"
)

func diffEvent(fundID uuid.UUID, date string, t cashflow.FlowType, amount float64) cashflow.Event {
	d, err := time.Parse("2006-01-02", date)
	if err != nil {
		panic(err)
	}
	return cashflow.Event{
		FundID:   fundID,
		Date:     d,
		Type:     t,
		Amount:   amount,
		Currency: "EUR",
		IsActual: true,
		Scenario: cashflow.BaseScenario,
	}
}

func TestDiff(t *testing.T) {
	fundID := uuid.New()
	existing := []cashflow.Event{
		diffEvent(fundID, "2024-03-31", cashflow.CapitalCall, 100),
		diffEvent(fundID, "2024-06-30", cashflow.Distribution, 50),
	}
	changedAmount := diffEvent(fundID, "2024-03-31", cashflow.CapitalCall, 120)
	brandNew := diffEvent(fundID, "2024-09-30", cashflow.CapitalCall, 80)
	untouched := diffEvent(fundID, "2024-06-30", cashflow.Distribution, 50)

	changes := Diff(existing, []cashflow.Event{changedAmount, untouched, brandNew})
	require.Len(t, changes, 2)
	assert.Equal(t, ChangeModified, changes[0].Kind)
	assert.InDelta(t, 120, changes[0].Event.Amount, 0.001)
	assert.Equal(t, ChangeAdded, changes[1].Kind)
}

func TestDiffDetectsNoteAndStatusChanges(t *testing.T) {
	fundID := uuid.New()
	base := diffEvent(fundID, "2024-03-31", cashflow.CapitalCall, 100)

	withNote := base
	note := "restated"
	withNote.Note = &note
	assert.Len(t, Diff([]cashflow.Event{base}, []cashflow.Event{withNote}), 1)

	planned := base
	planned.IsActual = false
	assert.Len(t, Diff([]cashflow.Event{base}, []cashflow.Event{planned}), 1)

	assert.Empty(t, Diff([]cashflow.Event{base}, []cashflow.Event{base}))
}

func TestDiffSameAmountDifferentScenarioIsAdded(t *testing.T) {
	fundID := uuid.New()
	base := diffEvent(fundID, "2024-03-31", cashflow.CapitalCall, 100)
	downside := base
	downside.Scenario = "downside"

	changes := Diff([]cashflow.Event{base}, []cashflow.Event{downside})
	require.Len(t, changes, 1)
	assert.Equal(t, ChangeAdded, changes[0].Kind)
}

func TestSelectChanges(t *testing.T) {
	fundID := uuid.New()
	changes := []Change{
		{Kind: ChangeAdded, Event: diffEvent(fundID, "2024-03-31", cashflow.CapitalCall, 100)},
		{Kind: ChangeModified, Event: diffEvent(fundID, "2024-06-30", cashflow.Distribution, 50)},
		{Kind: ChangeAdded, Event: diffEvent(fundID, "2024-09-30", cashflow.CapitalCall, 80)},
	}

	assert.Len(t, SelectChanges(changes, nil), 3)

	picked := SelectChanges(changes, []bool{true, false, true})
	require.Len(t, picked, 2)
	assert.InDelta(t, 100, picked[0].Amount, 0.001)
	assert.InDelta(t, 80, picked[1].Amount, 0.001)

	// A short mask leaves the tail out.
	assert.Len(t, SelectChanges(changes, []bool{true}), 1)
}
