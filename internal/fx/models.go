package fx

import "time"

// Rate is one dated exchange rate for an ordered currency pair. Multiple
// dated rates may exist per pair; lookups resolve the most recent rate at
// or before the requested date.
type Rate struct {
	ID        int64     `db:"rate_id" json:"id"`
	From      string    `db:"from_currency" json:"from"`
	To        string    `db:"to_currency" json:"to"`
	Date      time.Time `db:"rate_date" json:"date"`
	Value     float64   `db:"rate" json:"rate"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
