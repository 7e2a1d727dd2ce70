package cashflow

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Direction indicates whether a flow type moves money out of or into the
// investor's pocket.
type Direction int

const (
	Outflow Direction = iota
	Inflow
)

// FlowType classifies a cashflow event. Amounts are always stored positive;
// the type alone determines the sign applied at aggregation time.
type FlowType string

const (
	CapitalCall     FlowType = "capital_call"
	Distribution    FlowType = "distribution"
	ManagementFee   FlowType = "management_fee"
	CarriedInterest FlowType = "carried_interest"
	Clawback        FlowType = "clawback"
)

// Direction returns the intrinsic sign convention of the type. Adding a new
// FlowType without extending this switch fails the exhaustiveness test in
// models_test.go.
func (t FlowType) Direction() Direction {
	switch t {
	case CapitalCall, ManagementFee, CarriedInterest:
		return Outflow
	case Distribution, Clawback:
		return Inflow
	}
	return Outflow
}

// Signed applies the type's direction to a stored (positive) amount.
func (t FlowType) Signed(amount float64) float64 {
	if t.Direction() == Outflow {
		return -amount
	}
	return amount
}

// Valid reports whether t is one of the known flow types.
func (t FlowType) Valid() bool {
	switch t {
	case CapitalCall, Distribution, ManagementFee, CarriedInterest, Clawback:
		return true
	}
	return false
}

// ParseFlowType converts a storage or import label into a FlowType.
func ParseFlowType(label string) (FlowType, error) {
	t := FlowType(label)
	if !t.Valid() {
		return "", fmt.Errorf("unknown cashflow type %q", label)
	}
	return t, nil
}

// AllFlowTypes lists every known type, in display order.
func AllFlowTypes() []FlowType {
	return []FlowType{CapitalCall, Distribution, ManagementFee, CarriedInterest, Clawback}
}

// Event is one monetary movement for a fund within a scenario.
//
// The natural key is (FundID, Date, Type, Scenario): writing an event with
// an existing key replaces amount, currency, is_actual and note rather than
// inserting a second row.
type Event struct {
	ID        int64     `db:"cashflow_id" json:"id"`
	FundID    uuid.UUID `db:"fund_id" json:"fund_id"`
	Date      time.Time `db:"date" json:"date"`
	Type      FlowType  `db:"type" json:"type"`
	Amount    float64   `db:"amount" json:"amount"`
	Currency  string    `db:"currency" json:"currency"`
	IsActual  bool      `db:"is_actual" json:"is_actual"`
	Scenario  string    `db:"scenario_name" json:"scenario"`
	Note      *string   `db:"notes" json:"note,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// BaseScenario is the protected default scenario. It cannot be deleted.
const BaseScenario = "base"

// Scenario is a named partition of the event space, shared across funds.
type Scenario struct {
	ID          int64     `db:"scenario_id" json:"id"`
	Name        string    `db:"scenario_name" json:"name"`
	Description *string   `db:"description" json:"description,omitempty"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// FundCommitment carries the static per-fund fields the analytics layer
// needs: the commitment anchor for pacing models and the native currency
// for conversion.
type FundCommitment struct {
	FundID           uuid.UUID  `db:"fund_id" json:"fund_id"`
	Name             string     `db:"fund_name" json:"name"`
	Currency         string     `db:"currency" json:"currency"`
	CommitmentAmount float64    `db:"commitment_amount" json:"commitment_amount"`
	UnfundedAmount   float64    `db:"unfunded_amount" json:"unfunded_amount"`
	CommitmentDate   *time.Time `db:"commitment_date" json:"commitment_date,omitempty"`
	ExpectedEndDate  *time.Time `db:"expected_end_date" json:"expected_end_date,omitempty"`
}

// Period selects the bucket size for periodic rollups.
type Period string

const (
	PeriodQuarter Period = "quarter"
	PeriodYear    Period = "year"
)

// Label formats a date into its period bucket label, e.g. "2024Q3" or "2024".
func (p Period) Label(d time.Time) string {
	if p == PeriodYear {
		return fmt.Sprintf("%d", d.Year())
	}
	return fmt.Sprintf("%dQ%d", d.Year(), (int(d.Month())-1)/3+1)
}
