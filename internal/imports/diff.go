package imports

import (
	"fmt"

	"peflow/cashflow-backend/internal/cashflow"
)

// ChangeKind classifies a diff row.
type ChangeKind string

const (
	ChangeAdded    ChangeKind = "added"
	ChangeModified ChangeKind = "modified"
)

// Change is one incoming event that differs from the stored state.
type Change struct {
	Kind  ChangeKind     `json:"kind"`
	Event cashflow.Event `json:"event"`
}

func naturalKey(ev cashflow.Event) string {
	return fmt.Sprintf("%s|%s|%s|%s",
		ev.FundID, ev.Date.Format("2006-01-02"), ev.Type, ev.Scenario)
}

func sameNote(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

// Diff compares incoming events against the stored ones by natural key
// (fund, date, type, scenario) and returns only the rows that would change
// something: new keys and keys whose amount, currency, status or note
// differ. Unchanged rows are dropped so callers can present and apply a
// minimal write-set. Order follows the incoming slice.
func Diff(existing, incoming []cashflow.Event) []Change {
	stored := make(map[string]cashflow.Event, len(existing))
	for _, ev := range existing {
		stored[naturalKey(ev)] = ev
	}

	var changes []Change
	for _, ev := range incoming {
		old, ok := stored[naturalKey(ev)]
		if !ok {
			changes = append(changes, Change{Kind: ChangeAdded, Event: ev})
			continue
		}
		if old.Amount != ev.Amount || old.Currency != ev.Currency ||
			old.IsActual != ev.IsActual || !sameNote(old.Note, ev.Note) {
			changes = append(changes, Change{Kind: ChangeModified, Event: ev})
		}
	}
	return changes
}

// SelectChanges picks the changes marked true in mask and returns their
// events, ready for a bulk upsert. A nil mask selects everything; a short
// mask leaves the tail unselected.
func SelectChanges(changes []Change, mask []bool) []cashflow.Event {
	events := make([]cashflow.Event, 0, len(changes))
	for i, ch := range changes {
		if mask != nil && (i >= len(mask) || !mask[i]) {
			continue
		}
		events = append(events, ch.Event)
	}
	return events
}
