package cashflow

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// ErrFundNotFound is returned when a fund id resolves to no row.
var ErrFundNotFound = errors.New("fund not found")

// ErrProtectedScenario is returned when deleting the base scenario.
var ErrProtectedScenario = errors.New("the base scenario cannot be deleted")

// Repository defines the event-store contract the analytics layer depends
// on. Amounts are stored positive; direction lives in the type.
type Repository interface {
	// Events
	EventsForFund(ctx context.Context, fundID uuid.UUID, scenario *string) ([]Event, error)
	UpsertEvent(ctx context.Context, ev *Event) (int64, error)
	BulkUpsert(ctx context.Context, events []Event) (int, error)
	DeleteEvent(ctx context.Context, id int64) error
	DeleteAll(ctx context.Context, fundID uuid.UUID, scenario string) (int, error)
	DeleteForecast(ctx context.Context, fundID uuid.UUID, scenario string) (int, error)
	ReplaceForecast(ctx context.Context, fundID uuid.UUID, scenario string, events []Event) (deleted, inserted int, err error)
	UpcomingCalls(ctx context.Context, from, to time.Time) ([]UpcomingCall, error)

	// Scenarios
	ListScenarios(ctx context.Context) ([]Scenario, error)
	CreateScenario(ctx context.Context, name string, description *string) (int64, error)
	DeleteScenario(ctx context.Context, name string) (eventsDeleted int, scenarioDeleted bool, err error)

	// Fund static data
	FundInfo(ctx context.Context, fundID uuid.UUID) (*FundCommitment, error)
	FundsForCashflow(ctx context.Context) ([]FundCommitment, error)
	UpdateCommitment(ctx context.Context, fundID uuid.UUID, commitment, unfunded *float64, commitmentDate, endDate *time.Time) error
	FundsEndingBetween(ctx context.Context, from, to time.Time) ([]FundCommitment, error)
}

// UpcomingCall is a planned capital call joined with its fund name, used by
// the alert scanner.
type UpcomingCall struct {
	FundID   uuid.UUID `db:"fund_id" json:"fund_id"`
	FundName string    `db:"fund_name" json:"fund_name"`
	Date     time.Time `db:"date" json:"date"`
	Amount   float64   `db:"amount" json:"amount"`
	Currency string    `db:"currency" json:"currency"`
	Scenario string    `db:"scenario_name" json:"scenario"`
}

// PostgresRepository implements Repository using PostgreSQL
type PostgresRepository struct {
	db *sqlx.DB
}

// NewPostgresRepository creates a new PostgreSQL repository
func NewPostgresRepository(db *sqlx.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const eventColumns = `cashflow_id, fund_id, date, type, amount, currency, is_actual, scenario_name, notes, created_at`

func (r *PostgresRepository) EventsForFund(ctx context.Context, fundID uuid.UUID, scenario *string) ([]Event, error) {
	var events []Event
	var err error
	if scenario != nil {
		err = r.db.SelectContext(ctx, &events, `
			SELECT `+eventColumns+`
			FROM cashflows
			WHERE fund_id = $1 AND scenario_name = $2
			ORDER BY date`, fundID, *scenario)
	} else {
		err = r.db.SelectContext(ctx, &events, `
			SELECT `+eventColumns+`
			FROM cashflows
			WHERE fund_id = $1
			ORDER BY date`, fundID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load cashflows: %w", err)
	}
	return events, nil
}

const upsertEventQuery = `
	INSERT INTO cashflows (fund_id, date, type, amount, currency, is_actual, scenario_name, notes)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	ON CONFLICT (fund_id, date, type, scenario_name)
	DO UPDATE SET amount = EXCLUDED.amount,
	              currency = EXCLUDED.currency,
	              is_actual = EXCLUDED.is_actual,
	              notes = EXCLUDED.notes
	RETURNING cashflow_id`

func (r *PostgresRepository) UpsertEvent(ctx context.Context, ev *Event) (int64, error) {
	var id int64
	err := r.db.QueryRowContext(ctx, upsertEventQuery,
		ev.FundID, ev.Date, ev.Type, ev.Amount, ev.Currency, ev.IsActual, ev.Scenario, ev.Note,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to upsert cashflow: %w", err)
	}
	ev.ID = id
	return id, nil
}

func (r *PostgresRepository) BulkUpsert(ctx context.Context, events []Event) (int, error) {
	if len(events) == 0 {
		return 0, nil
	}
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	count, err := bulkUpsertTx(ctx, tx, events)
	if err != nil {
		return 0, err
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit bulk upsert: %w", err)
	}
	return count, nil
}

func bulkUpsertTx(ctx context.Context, tx *sqlx.Tx, events []Event) (int, error) {
	count := 0
	for _, ev := range events {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO cashflows (fund_id, date, type, amount, currency, is_actual, scenario_name, notes)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			ON CONFLICT (fund_id, date, type, scenario_name)
			DO UPDATE SET amount = EXCLUDED.amount,
			              currency = EXCLUDED.currency,
			              is_actual = EXCLUDED.is_actual,
			              notes = EXCLUDED.notes`,
			ev.FundID, ev.Date, ev.Type, ev.Amount, ev.Currency, ev.IsActual, ev.Scenario, ev.Note,
		); err != nil {
			return 0, fmt.Errorf("failed to upsert cashflow for %s on %s: %w", ev.FundID, ev.Date.Format("2006-01-02"), err)
		}
		count++
	}
	return count, nil
}

func (r *PostgresRepository) DeleteEvent(ctx context.Context, id int64) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM cashflows WHERE cashflow_id = $1`, id); err != nil {
		return fmt.Errorf("failed to delete cashflow %d: %w", id, err)
	}
	return nil
}

func (r *PostgresRepository) DeleteAll(ctx context.Context, fundID uuid.UUID, scenario string) (int, error) {
	res, err := r.db.ExecContext(ctx, `
		DELETE FROM cashflows WHERE fund_id = $1 AND scenario_name = $2`, fundID, scenario)
	if err != nil {
		return 0, fmt.Errorf("failed to delete cashflows: %w", err)
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}

func (r *PostgresRepository) DeleteForecast(ctx context.Context, fundID uuid.UUID, scenario string) (int, error) {
	res, err := r.db.ExecContext(ctx, `
		DELETE FROM cashflows
		WHERE fund_id = $1 AND scenario_name = $2 AND is_actual = FALSE`, fundID, scenario)
	if err != nil {
		return 0, fmt.Errorf("failed to delete forecast cashflows: %w", err)
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}

// ReplaceForecast removes all planned events for (fund, scenario) and
// writes the new forecast in the same transaction, so a mid-sequence
// failure leaves the previous forecast intact.
func (r *PostgresRepository) ReplaceForecast(ctx context.Context, fundID uuid.UUID, scenario string, events []Event) (int, int, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		DELETE FROM cashflows
		WHERE fund_id = $1 AND scenario_name = $2 AND is_actual = FALSE`, fundID, scenario)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to clear prior forecast: %w", err)
	}
	deleted, _ := res.RowsAffected()

	inserted, err := bulkUpsertTx(ctx, tx, events)
	if err != nil {
		return 0, 0, err
	}
	if err := tx.Commit(); err != nil {
		return 0, 0, fmt.Errorf("failed to commit forecast replace: %w", err)
	}
	return int(deleted), inserted, nil
}

func (r *PostgresRepository) UpcomingCalls(ctx context.Context, from, to time.Time) ([]UpcomingCall, error) {
	var calls []UpcomingCall
	err := r.db.SelectContext(ctx, &calls, `
		SELECT c.fund_id, f.fund_name, c.date, c.amount, c.currency, c.scenario_name
		FROM cashflows c
		JOIN funds f ON c.fund_id = f.fund_id
		WHERE c.is_actual = FALSE
		  AND c.type = 'capital_call'
		  AND c.date >= $1 AND c.date <= $2
		ORDER BY c.date ASC`, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to load upcoming calls: %w", err)
	}
	return calls, nil
}

// =====================================================
// Scenarios
// =====================================================

func (r *PostgresRepository) ListScenarios(ctx context.Context) ([]Scenario, error) {
	var scenarios []Scenario
	err := r.db.SelectContext(ctx, &scenarios, `
		SELECT scenario_id, scenario_name, description, created_at
		FROM scenarios ORDER BY scenario_id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list scenarios: %w", err)
	}
	return scenarios, nil
}

func (r *PostgresRepository) CreateScenario(ctx context.Context, name string, description *string) (int64, error) {
	var id int64
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO scenarios (scenario_name, description)
		VALUES ($1, $2)
		ON CONFLICT (scenario_name) DO UPDATE SET scenario_name = EXCLUDED.scenario_name
		RETURNING scenario_id`, name, description).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to create scenario %q: %w", name, err)
	}
	return id, nil
}

// DeleteScenario removes a scenario and every event in it, across all
// funds, in one transaction. The base scenario is refused.
func (r *PostgresRepository) DeleteScenario(ctx context.Context, name string) (int, bool, error) {
	if name == BaseScenario {
		return 0, false, ErrProtectedScenario
	}
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `DELETE FROM cashflows WHERE scenario_name = $1`, name)
	if err != nil {
		return 0, false, fmt.Errorf("failed to delete scenario cashflows: %w", err)
	}
	eventsDeleted, _ := res.RowsAffected()

	res, err = tx.ExecContext(ctx, `DELETE FROM scenarios WHERE scenario_name = $1`, name)
	if err != nil {
		return 0, false, fmt.Errorf("failed to delete scenario: %w", err)
	}
	scenariosDeleted, _ := res.RowsAffected()

	if err := tx.Commit(); err != nil {
		return 0, false, fmt.Errorf("failed to commit scenario delete: %w", err)
	}
	return int(eventsDeleted), scenariosDeleted > 0, nil
}

// =====================================================
// Fund static data
// =====================================================

func (r *PostgresRepository) FundInfo(ctx context.Context, fundID uuid.UUID) (*FundCommitment, error) {
	var info FundCommitment
	err := r.db.GetContext(ctx, &info, `
		SELECT fund_id, fund_name, currency,
		       COALESCE(commitment_amount, 0) AS commitment_amount,
		       COALESCE(unfunded_amount, 0) AS unfunded_amount,
		       commitment_date, expected_end_date
		FROM funds WHERE fund_id = $1`, fundID)
	if err == sql.ErrNoRows {
		return nil, ErrFundNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load fund info: %w", err)
	}
	return &info, nil
}

func (r *PostgresRepository) FundsForCashflow(ctx context.Context) ([]FundCommitment, error) {
	var funds []FundCommitment
	err := r.db.SelectContext(ctx, &funds, `
		SELECT fund_id, fund_name, currency,
		       COALESCE(commitment_amount, 0) AS commitment_amount,
		       COALESCE(unfunded_amount, 0) AS unfunded_amount,
		       commitment_date, expected_end_date
		FROM funds ORDER BY fund_name`)
	if err != nil {
		return nil, fmt.Errorf("failed to list funds: %w", err)
	}
	return funds, nil
}

func (r *PostgresRepository) UpdateCommitment(ctx context.Context, fundID uuid.UUID, commitment, unfunded *float64, commitmentDate, endDate *time.Time) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE funds
		SET commitment_amount = COALESCE($1, commitment_amount),
		    unfunded_amount = COALESCE($2, unfunded_amount),
		    commitment_date = COALESCE($3, commitment_date),
		    expected_end_date = COALESCE($4, expected_end_date)
		WHERE fund_id = $5`,
		commitment, unfunded, commitmentDate, endDate, fundID)
	if err != nil {
		return fmt.Errorf("failed to update commitment: %w", err)
	}
	return nil
}

func (r *PostgresRepository) FundsEndingBetween(ctx context.Context, from, to time.Time) ([]FundCommitment, error) {
	var funds []FundCommitment
	err := r.db.SelectContext(ctx, &funds, `
		SELECT fund_id, fund_name, currency,
		       COALESCE(commitment_amount, 0) AS commitment_amount,
		       COALESCE(unfunded_amount, 0) AS unfunded_amount,
		       commitment_date, expected_end_date
		FROM funds
		WHERE expected_end_date IS NOT NULL
		  AND expected_end_date >= $1 AND expected_end_date <= $2
		ORDER BY expected_end_date ASC`, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to load ending funds: %w", err)
	}
	return funds, nil
}
