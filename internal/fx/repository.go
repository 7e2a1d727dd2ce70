package fx

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
)

// RateProvider resolves a directed exchange rate at or before a date.
// A nil result means no rate is known; it is not an error.
type RateProvider interface {
	// Rate returns the most recent rate with rate_date <= asOf for the
	// ordered pair, or nil when none exists. Same-currency pairs resolve
	// to 1.0 without a lookup.
	Rate(ctx context.Context, from, to string, asOf time.Time) (*float64, error)
	// RateWithInverse behaves like Rate but falls back to the inverted
	// opposite pair when the direct pair has no rate.
	RateWithInverse(ctx context.Context, from, to string, asOf time.Time) (*float64, error)
	UpsertRate(ctx context.Context, rate *Rate) (int64, error)
	ListRates(ctx context.Context, from, to string) ([]Rate, error)
}

// PostgresRates implements RateProvider using PostgreSQL
type PostgresRates struct {
	db *sqlx.DB
}

// NewPostgresRates creates a new rate repository
func NewPostgresRates(db *sqlx.DB) *PostgresRates {
	return &PostgresRates{db: db}
}

func (r *PostgresRates) Rate(ctx context.Context, from, to string, asOf time.Time) (*float64, error) {
	if from == to {
		one := 1.0
		return &one, nil
	}
	var rate float64
	err := r.db.GetContext(ctx, &rate, `
		SELECT rate FROM exchange_rates
		WHERE from_currency = $1 AND to_currency = $2 AND rate_date <= $3
		ORDER BY rate_date DESC
		LIMIT 1`, from, to, asOf)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up rate %s->%s: %w", from, to, err)
	}
	return &rate, nil
}

func (r *PostgresRates) RateWithInverse(ctx context.Context, from, to string, asOf time.Time) (*float64, error) {
	rate, err := r.Rate(ctx, from, to, asOf)
	if err != nil || rate != nil {
		return rate, err
	}
	inverse, err := r.Rate(ctx, to, from, asOf)
	if err != nil || inverse == nil {
		return nil, err
	}
	if *inverse == 0 {
		return nil, nil
	}
	inverted := 1.0 / *inverse
	return &inverted, nil
}

func (r *PostgresRates) UpsertRate(ctx context.Context, rate *Rate) (int64, error) {
	var id int64
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO exchange_rates (from_currency, to_currency, rate_date, rate)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (from_currency, to_currency, rate_date)
		DO UPDATE SET rate = EXCLUDED.rate
		RETURNING rate_id`,
		rate.From, rate.To, rate.Date, rate.Value).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to upsert rate %s->%s: %w", rate.From, rate.To, err)
	}
	rate.ID = id
	return id, nil
}

func (r *PostgresRates) ListRates(ctx context.Context, from, to string) ([]Rate, error) {
	var rates []Rate
	err := r.db.SelectContext(ctx, &rates, `
		SELECT rate_id, from_currency, to_currency, rate_date, rate, created_at
		FROM exchange_rates
		WHERE from_currency = $1 AND to_currency = $2
		ORDER BY rate_date DESC`, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to list rates: %w", err)
	}
	return rates, nil
}
