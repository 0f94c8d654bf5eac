package repository

import (
	"context"

	sq "github.com/Masterminds/squirrel"
	"github.com/bhims/bhims-backend/pkg/database"
)

// TransactionReader yields movements from the optional generalized
// transaction log. Only consulted when the capability detector reports the
// table present. Rows here may describe physical events that are already
// visible through batches or fulfillments; no link exists to tell, so
// callers sum both sources as recorded.
type TransactionReader struct {
	db *database.DB
}

// NewTransactionReader creates a new generic transaction reader
func NewTransactionReader(db *database.DB) *TransactionReader {
	return &TransactionReader{db: db}
}

func (r *TransactionReader) base(spec QuerySpec) sq.SelectBuilder {
	b := psql.Select().
		From("inventory_transactions t").
		LeftJoin("medicine_batches b ON b.id = t.batch_id").
		LeftJoin("users u ON u.id = t.performed_by")

	return spec.apply(b, "t.medicine_id", "t.transaction_date", "t.batch_id")
}

// Read returns generic log movements matching the spec, oldest first.
func (r *TransactionReader) Read(ctx context.Context, spec QuerySpec) ([]Movement, error) {
	b := r.base(spec).Columns(
		"t.id",
		"t.medicine_id",
		"COALESCE(t.batch_id, 0) AS batch_id",
		"COALESCE(b.batch_code, '') AS batch_code",
		"t.quantity",
		"CASE WHEN t.direction = 'in' THEN 'GENERIC_IN' ELSE 'GENERIC_OUT' END AS source",
		"t.transaction_date AS occurred_on",
		"COALESCE(u.full_name, 'system') AS actor",
		"COALESCE(t.remarks, '') AS remarks",
	).OrderBy("t.transaction_date ASC", "t.id ASC")

	query, args, err := b.ToSql()
	if err != nil {
		return nil, err
	}

	var movements []Movement
	if err := r.db.SelectContext(ctx, &movements, query, args...); err != nil {
		return nil, err
	}
	return movements, nil
}

// Count returns the number of generic log movements matching the spec.
func (r *TransactionReader) Count(ctx context.Context, spec QuerySpec) (int64, error) {
	query, args, err := r.base(spec).Columns("COUNT(*)").ToSql()
	if err != nil {
		return 0, err
	}

	var count int64
	if err := r.db.GetContext(ctx, &count, query, args...); err != nil {
		return 0, err
	}
	return count, nil
}
