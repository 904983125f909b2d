package repo

import (
	"context"
	"time"
)

// NextInvoiceSeq increments and returns the per-day invoice counter. The
// upsert takes a row lock, so concurrent checkouts on the same day are
// serialized here and can never observe the same sequence value.
func (q *Queries) NextInvoiceSeq(ctx context.Context, day time.Time) (int64, error) {
	var seq int64
	err := q.db.QueryRow(ctx, `
		INSERT INTO invoice_counters (day, seq)
		VALUES ($1, 1)
		ON CONFLICT (day) DO UPDATE SET seq = invoice_counters.seq + 1
		RETURNING seq`, day.Format("2006-01-02")).Scan(&seq)
	return seq, err
}
