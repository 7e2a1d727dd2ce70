// Package pacing implements the capital-call and distribution pacing
// models. Every model is a pure function from a commitment plus shape
// parameters to a quarter-end schedule of planned events; no model touches
// storage.
package pacing

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"peflow/cashflow-backend/internal/cashflow"
)

// Input carries the parameters every model shares.
type Input struct {
	Commitment  float64 `json:"commitment"`
	Lifetime    int     `json:"lifetime"`
	VintageYear int     `json:"vintage_year"`
}

// Entry is one forecast event before storage handoff.
type Entry struct {
	Date   time.Time         `json:"date"`
	Type   cashflow.FlowType `json:"type"`
	Amount float64           `json:"amount"`
}

// Model defines the interface for pacing methodologies.
type Model interface {
	// Code returns the stable identifier used to select the model.
	Code() string

	// Name returns a human-readable label.
	Name() string

	// Forecast produces the dated call/distribution schedule. A
	// commitment <= 0 or otherwise degenerate input yields an empty
	// result, never an error.
	Forecast(in Input) []Entry
}

// Engine holds the registered pacing models keyed by code.
type Engine struct {
	models map[string]Model
	order  []string
}

// NewEngine creates an engine with the built-in models registered with
// their default parameters.
func NewEngine() *Engine {
	e := &Engine{models: make(map[string]Model)}
	e.Register(DefaultTakahashiAlexander())
	e.Register(DefaultDriessenLinPhalippou())
	e.Register(DefaultLjungqvistRichardson())
	e.Register(DefaultCambridgeQuantile())
	e.Register(DefaultLinear())
	e.Register(&Manual{})
	e.Register(&HistoricalAverage{})
	return e
}

// Register adds or replaces a model. Handlers re-register a model carrying
// request-specific parameters before forecasting.
func (e *Engine) Register(m Model) {
	if _, exists := e.models[m.Code()]; !exists {
		e.order = append(e.order, m.Code())
	}
	e.models[m.Code()] = m
}

// Forecast runs the model registered under code.
func (e *Engine) Forecast(code string, in Input) ([]Entry, error) {
	m, ok := e.models[code]
	if !ok {
		return nil, fmt.Errorf("unsupported pacing model: %s", code)
	}
	return m.Forecast(in), nil
}

// Models returns the registered models in registration order.
func (e *Engine) Models() []Model {
	out := make([]Model, 0, len(e.order))
	for _, code := range e.order {
		out = append(out, e.models[code])
	}
	return out
}

// PrepareForInsertion converts a forecast into storage events tagged as
// planned, with a note identifying the generating model. Entries that
// rounded away to zero are skipped.
func PrepareForInsertion(entries []Entry, fundID uuid.UUID, scenario, currency, notePrefix string) []cashflow.Event {
	events := make([]cashflow.Event, 0, len(entries))
	for _, entry := range entries {
		if entry.Amount <= 0 {
			continue
		}
		note := fmt.Sprintf("%s: %s", notePrefix, entry.Type)
		events = append(events, cashflow.Event{
			FundID:   fundID,
			Date:     entry.Date,
			Type:     entry.Type,
			Amount:   round2(entry.Amount),
			Currency: currency,
			IsActual: false,
			Scenario: scenario,
			Note:     &note,
		})
	}
	return events
}
