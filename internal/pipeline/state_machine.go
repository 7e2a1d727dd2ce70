package pipeline

import "errors"

// ErrInvalidTransition is returned when a requested status change is not an
// edge of the lifecycle graph.
var ErrInvalidTransition = errors.New("invalid status transition")

// validTransitions is the lifecycle graph:
//
//	screening -> due_diligence -> negotiation -> committed -> active -> harvesting -> closed
//	        \            \              \
//	         declined     declined       declined
//
// declined and closed are terminal.
var validTransitions = map[Status][]Status{
	Screening:    {DueDiligence, Declined},
	DueDiligence: {Negotiation, Declined},
	Negotiation:  {Committed, Declined},
	Committed:    {Active},
	Active:       {Harvesting},
	Harvesting:   {Closed},
	Declined:     {},
	Closed:       {},
}

// CanTransition reports whether from -> to is a valid lifecycle edge.
func CanTransition(from, to Status) bool {
	for _, allowed := range validTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// AllowedTargets returns the statuses reachable from the given status.
func AllowedTargets(from Status) []Status {
	return append([]Status(nil), validTransitions[from]...)
}

// Terminal reports whether the status has no outgoing transitions.
func (s Status) Terminal() bool {
	return len(validTransitions[s]) == 0 && s.Valid()
}
