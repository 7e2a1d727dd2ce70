package pipeline

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"peflow/cashflow-backend/internal/cashflow"
)

// Repository defines the storage contract for fund status and pipeline
// metadata.
type Repository interface {
	CurrentStatus(ctx context.Context, fundID uuid.UUID) (Status, error)
	RecordTransition(ctx context.Context, fundID uuid.UUID, from, to Status, changedBy, reason string) error
	CreateFund(ctx context.Context, f NewFund) (uuid.UUID, error)
	SetCommitment(ctx context.Context, fundID uuid.UUID, amount float64, date time.Time) error

	Meta(ctx context.Context, fundID uuid.UUID) (*Meta, error)
	UpsertMeta(ctx context.Context, fundID uuid.UUID, update MetaUpdate) error

	History(ctx context.Context, fundID uuid.UUID) ([]HistoryEntry, error)
	AllHistory(ctx context.Context) ([]HistoryEntry, error)
	FundsByGroup(ctx context.Context, group StatusGroup) ([]Fund, error)
}

// PostgresRepository implements Repository using PostgreSQL
type PostgresRepository struct {
	db *sqlx.DB
}

// NewPostgresRepository creates a new PostgreSQL repository
func NewPostgresRepository(db *sqlx.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) CurrentStatus(ctx context.Context, fundID uuid.UUID) (Status, error) {
	var status sql.NullString
	err := r.db.GetContext(ctx, &status, `SELECT status FROM funds WHERE fund_id = $1`, fundID)
	if err == sql.ErrNoRows {
		return "", cashflow.ErrFundNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to load fund status: %w", err)
	}
	if !status.Valid || status.String == "" {
		// Funds predating the pipeline default to active.
		return Active, nil
	}
	return Status(status.String), nil
}

// RecordTransition updates the fund status and appends the audit row in one
// transaction.
func (r *PostgresRepository) RecordTransition(ctx context.Context, fundID uuid.UUID, from, to Status, changedBy, reason string) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `UPDATE funds SET status = $1 WHERE fund_id = $2`, to, fundID)
	if err != nil {
		return fmt.Errorf("failed to update fund status: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return cashflow.ErrFundNotFound
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO fund_status_history (fund_id, old_status, new_status, changed_by, change_reason)
		VALUES ($1, $2, $3, $4, $5)`,
		fundID, from, to, changedBy, reason)
	if err != nil {
		return fmt.Errorf("failed to record status history: %w", err)
	}
	return tx.Commit()
}

// CreateFund inserts a screening fund plus its metadata and initial history
// entry in one transaction.
func (r *PostgresRepository) CreateFund(ctx context.Context, f NewFund) (uuid.UUID, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var fundID uuid.UUID
	err = tx.QueryRowContext(ctx, `
		INSERT INTO funds (fund_name, strategy, geography, fund_size_m, currency, vintage_year, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING fund_id`,
		f.FundName, f.Strategy, f.Geography, f.FundSizeM, f.Currency, f.VintageYear, Screening,
	).Scan(&fundID)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to create pipeline fund: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO fund_pipeline_meta (fund_id, probability, expected_commitment, source, contact_person)
		VALUES ($1, $2, $3, $4, $5)`,
		fundID, f.Probability, f.ExpectedCommitment, f.Source, f.ContactPerson)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to create pipeline meta: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO fund_status_history (fund_id, old_status, new_status, changed_by, change_reason)
		VALUES ($1, NULL, $2, 'system', 'pipeline fund created')`,
		fundID, Screening)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to record initial status: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return uuid.Nil, err
	}
	return fundID, nil
}

func (r *PostgresRepository) SetCommitment(ctx context.Context, fundID uuid.UUID, amount float64, date time.Time) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE funds
		SET commitment_amount = $1, commitment_date = $2, unfunded_amount = $1
		WHERE fund_id = $3`, amount, date, fundID)
	if err != nil {
		return fmt.Errorf("failed to set commitment: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return cashflow.ErrFundNotFound
	}
	return nil
}

func (r *PostgresRepository) Meta(ctx context.Context, fundID uuid.UUID) (*Meta, error) {
	var m Meta
	err := r.db.GetContext(ctx, &m, `
		SELECT meta_id, fund_id, probability, dd_score, dd_notes, decline_reason,
		       expected_commitment, expected_commitment_date, source, contact_person,
		       next_step, next_step_date, created_at, updated_at
		FROM fund_pipeline_meta
		WHERE fund_id = $1`, fundID)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load pipeline meta: %w", err)
	}
	return &m, nil
}

// UpsertMeta creates or updates the metadata row. Nil update fields keep
// their stored value.
func (r *PostgresRepository) UpsertMeta(ctx context.Context, fundID uuid.UUID, u MetaUpdate) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO fund_pipeline_meta
			(fund_id, probability, dd_score, dd_notes, decline_reason, expected_commitment,
			 expected_commitment_date, source, contact_person, next_step, next_step_date)
		VALUES ($1, COALESCE($2, 50), $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (fund_id) DO UPDATE SET
			probability              = COALESCE($2, fund_pipeline_meta.probability),
			dd_score                 = COALESCE($3, fund_pipeline_meta.dd_score),
			dd_notes                 = COALESCE($4, fund_pipeline_meta.dd_notes),
			decline_reason           = COALESCE($5, fund_pipeline_meta.decline_reason),
			expected_commitment      = COALESCE($6, fund_pipeline_meta.expected_commitment),
			expected_commitment_date = COALESCE($7, fund_pipeline_meta.expected_commitment_date),
			source                   = COALESCE($8, fund_pipeline_meta.source),
			contact_person           = COALESCE($9, fund_pipeline_meta.contact_person),
			next_step                = COALESCE($10, fund_pipeline_meta.next_step),
			next_step_date           = COALESCE($11, fund_pipeline_meta.next_step_date),
			updated_at               = NOW()`,
		fundID, u.Probability, u.DDScore, u.DDNotes, u.DeclineReason, u.ExpectedCommitment,
		u.ExpectedCommitmentDate, u.Source, u.ContactPerson, u.NextStep, u.NextStepDate)
	if err != nil {
		return fmt.Errorf("failed to upsert pipeline meta: %w", err)
	}
	return nil
}

func (r *PostgresRepository) History(ctx context.Context, fundID uuid.UUID) ([]HistoryEntry, error) {
	var entries []HistoryEntry
	err := r.db.SelectContext(ctx, &entries, `
		SELECT h.history_id, h.fund_id, f.fund_name, h.old_status, h.new_status,
		       h.changed_by, h.change_reason, h.changed_at
		FROM fund_status_history h
		JOIN funds f ON h.fund_id = f.fund_id
		WHERE h.fund_id = $1
		ORDER BY h.changed_at DESC`, fundID)
	if err != nil {
		return nil, fmt.Errorf("failed to load status history: %w", err)
	}
	return entries, nil
}

func (r *PostgresRepository) AllHistory(ctx context.Context) ([]HistoryEntry, error) {
	var entries []HistoryEntry
	err := r.db.SelectContext(ctx, &entries, `
		SELECT h.history_id, h.fund_id, f.fund_name, h.old_status, h.new_status,
		       h.changed_by, h.change_reason, h.changed_at
		FROM fund_status_history h
		JOIN funds f ON h.fund_id = f.fund_id
		ORDER BY h.changed_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to load status history: %w", err)
	}
	return entries, nil
}

func (r *PostgresRepository) FundsByGroup(ctx context.Context, group StatusGroup) ([]Fund, error) {
	statuses := group.Statuses()
	placeholders := make([]string, len(statuses))
	args := make([]any, len(statuses))
	for i, s := range statuses {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
		args[i] = s
	}

	var funds []Fund
	err := r.db.SelectContext(ctx, &funds, fmt.Sprintf(`
		SELECT f.fund_id, f.fund_name, f.status, f.currency, f.vintage_year,
		       f.strategy, f.geography, f.fund_size_m,
		       f.commitment_amount, f.unfunded_amount,
		       pm.probability, pm.expected_commitment, pm.dd_score,
		       pm.next_step, pm.next_step_date, pm.source, pm.contact_person
		FROM funds f
		LEFT JOIN fund_pipeline_meta pm ON f.fund_id = pm.fund_id
		WHERE f.status IN (%s)
		ORDER BY f.fund_name`, strings.Join(placeholders, ",")), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to load funds by status group: %w", err)
	}
	return funds, nil
}
