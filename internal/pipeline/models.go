// Package pipeline tracks funds through the deal lifecycle, from first
// screening to a closed position, with an audited status history and
// per-fund pipeline metadata.
package pipeline

import (
	"time"

	"github.com/google/uuid"
)

// Status is a fund's position in the deal lifecycle.
type Status string

const (
	Screening    Status = "screening"
	DueDiligence Status = "due_diligence"
	Negotiation  Status = "negotiation"
	Committed    Status = "committed"
	Active       Status = "active"
	Harvesting   Status = "harvesting"
	Closed       Status = "closed"
	Declined     Status = "declined"
)

var statusLabels = map[Status]string{
	Screening:    "Screening",
	DueDiligence: "Due Diligence",
	Negotiation:  "Negotiation",
	Committed:    "Committed",
	Active:       "Active",
	Harvesting:   "Harvesting",
	Closed:       "Closed",
	Declined:     "Declined",
}

// Label returns the display name for a status.
func (s Status) Label() string {
	if l, ok := statusLabels[s]; ok {
		return l
	}
	return string(s)
}

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	_, ok := statusLabels[s]
	return ok
}

// StatusGroup selects a slice of the lifecycle.
type StatusGroup string

const (
	GroupPipeline StatusGroup = "pipeline"
	GroupActive   StatusGroup = "active"
	GroupDeclined StatusGroup = "declined"
	GroupAll      StatusGroup = "all"
)

// PipelineStatuses are the pre-commitment stages shown on the kanban board.
var PipelineStatuses = []Status{Screening, DueDiligence, Negotiation}

// ActiveStatuses are the post-commitment stages.
var ActiveStatuses = []Status{Committed, Active, Harvesting, Closed}

// Statuses returns the statuses belonging to a group. Unknown groups
// resolve to all statuses.
func (g StatusGroup) Statuses() []Status {
	switch g {
	case GroupPipeline:
		return PipelineStatuses
	case GroupActive:
		return ActiveStatuses
	case GroupDeclined:
		return []Status{Declined}
	default:
		all := make([]Status, 0, len(PipelineStatuses)+len(ActiveStatuses)+1)
		all = append(all, PipelineStatuses...)
		all = append(all, ActiveStatuses...)
		return append(all, Declined)
	}
}

// Meta holds the pipeline metadata attached to a fund. All fields except
// the probability are optional.
type Meta struct {
	MetaID                 int64      `db:"meta_id" json:"meta_id"`
	FundID                 uuid.UUID  `db:"fund_id" json:"fund_id"`
	Probability            float64    `db:"probability" json:"probability"`
	DDScore                *float64   `db:"dd_score" json:"dd_score,omitempty"`
	DDNotes                *string    `db:"dd_notes" json:"dd_notes,omitempty"`
	DeclineReason          *string    `db:"decline_reason" json:"decline_reason,omitempty"`
	ExpectedCommitment     *float64   `db:"expected_commitment" json:"expected_commitment,omitempty"`
	ExpectedCommitmentDate *time.Time `db:"expected_commitment_date" json:"expected_commitment_date,omitempty"`
	Source                 *string    `db:"source" json:"source,omitempty"`
	ContactPerson          *string    `db:"contact_person" json:"contact_person,omitempty"`
	NextStep               *string    `db:"next_step" json:"next_step,omitempty"`
	NextStepDate           *time.Time `db:"next_step_date" json:"next_step_date,omitempty"`
	CreatedAt              time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt              time.Time  `db:"updated_at" json:"updated_at"`
}

// MetaUpdate carries the metadata fields to change. Nil fields keep their
// stored value.
type MetaUpdate struct {
	Probability            *float64   `json:"probability,omitempty"`
	DDScore                *float64   `json:"dd_score,omitempty"`
	DDNotes                *string    `json:"dd_notes,omitempty"`
	DeclineReason          *string    `json:"decline_reason,omitempty"`
	ExpectedCommitment     *float64   `json:"expected_commitment,omitempty"`
	ExpectedCommitmentDate *time.Time `json:"expected_commitment_date,omitempty"`
	Source                 *string    `json:"source,omitempty"`
	ContactPerson          *string    `json:"contact_person,omitempty"`
	NextStep               *string    `json:"next_step,omitempty"`
	NextStepDate           *time.Time `json:"next_step_date,omitempty"`
}

// HistoryEntry is one row of a fund's status audit trail. OldStatus is nil
// for the entry written when the fund is created.
type HistoryEntry struct {
	HistoryID    int64     `db:"history_id" json:"history_id"`
	FundID       uuid.UUID `db:"fund_id" json:"fund_id"`
	FundName     string    `db:"fund_name" json:"fund_name,omitempty"`
	OldStatus    *Status   `db:"old_status" json:"old_status,omitempty"`
	NewStatus    Status    `db:"new_status" json:"new_status"`
	ChangedBy    string    `db:"changed_by" json:"changed_by"`
	ChangeReason string    `db:"change_reason" json:"change_reason"`
	ChangedAt    time.Time `db:"changed_at" json:"changed_at"`
}

// Fund is a fund joined with its pipeline metadata, one row of a status
// group listing.
type Fund struct {
	FundID             uuid.UUID  `db:"fund_id" json:"fund_id"`
	FundName           string     `db:"fund_name" json:"fund_name"`
	Status             Status     `db:"status" json:"status"`
	Currency           string     `db:"currency" json:"currency"`
	VintageYear        *int       `db:"vintage_year" json:"vintage_year,omitempty"`
	Strategy           *string    `db:"strategy" json:"strategy,omitempty"`
	Geography          *string    `db:"geography" json:"geography,omitempty"`
	FundSizeM          *float64   `db:"fund_size_m" json:"fund_size_m,omitempty"`
	CommitmentAmount   *float64   `db:"commitment_amount" json:"commitment_amount,omitempty"`
	UnfundedAmount     *float64   `db:"unfunded_amount" json:"unfunded_amount,omitempty"`
	Probability        *float64   `db:"probability" json:"probability,omitempty"`
	ExpectedCommitment *float64   `db:"expected_commitment" json:"expected_commitment,omitempty"`
	DDScore            *float64   `db:"dd_score" json:"dd_score,omitempty"`
	NextStep           *string    `db:"next_step" json:"next_step,omitempty"`
	NextStepDate       *time.Time `db:"next_step_date" json:"next_step_date,omitempty"`
	Source             *string    `db:"source" json:"source,omitempty"`
	ContactPerson      *string    `db:"contact_person" json:"contact_person,omitempty"`
}

// NewFund carries the fields needed to open a fund in screening.
type NewFund struct {
	FundName           string     `json:"fund_name"`
	Strategy           *string    `json:"strategy,omitempty"`
	Geography          *string    `json:"geography,omitempty"`
	FundSizeM          *float64   `json:"fund_size_m,omitempty"`
	Currency           string     `json:"currency"`
	VintageYear        *int       `json:"vintage_year,omitempty"`
	Probability        float64    `json:"probability"`
	ExpectedCommitment *float64   `json:"expected_commitment,omitempty"`
	Source             *string    `json:"source,omitempty"`
	ContactPerson      *string    `json:"contact_person,omitempty"`
}

// NextStepItem is an upcoming pipeline action.
type NextStepItem struct {
	FundName     string    `json:"fund_name"`
	NextStep     string    `json:"next_step"`
	NextStepDate time.Time `json:"next_step_date"`
}

// Summary holds the pipeline KPIs.
type Summary struct {
	TotalPipeline                 int            `json:"total_pipeline"`
	ByStatusCount                 map[Status]int `json:"by_status_count"`
	ProbabilityWeightedCommitment float64        `json:"probability_weighted_commitment"`
	AvgDDScore                    float64        `json:"avg_dd_score"`
	UpcomingNextSteps             []NextStepItem `json:"upcoming_next_steps"`
}
