package repository

import (
	"context"

	"github.com/bhims/bhims-backend/pkg/database"
)

// BatchReceiptReader yields one positive movement per batch received in
// range. Receipts carry no staff attribution in the schema, so the actor is
// always "system".
type BatchReceiptReader struct {
	db *database.DB
}

// NewBatchReceiptReader creates a new batch receipt reader
func NewBatchReceiptReader(db *database.DB) *BatchReceiptReader {
	return &BatchReceiptReader{db: db}
}

// Read returns receipt movements matching the spec, oldest first.
func (r *BatchReceiptReader) Read(ctx context.Context, spec QuerySpec) ([]Movement, error) {
	b := psql.Select(
		"b.id",
		"b.medicine_id",
		"b.id AS batch_id",
		"b.batch_code",
		"b.quantity_received AS quantity",
		"'BATCH_RECEIVED' AS source",
		"b.received_at AS occurred_on",
		"'system' AS actor",
	).From("medicine_batches b")

	b = spec.apply(b, "b.medicine_id", "b.received_at", "b.id")
	b = b.OrderBy("b.received_at ASC", "b.id ASC")

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

// Count returns the number of receipt movements matching the spec.
func (r *BatchReceiptReader) Count(ctx context.Context, spec QuerySpec) (int64, error) {
	b := psql.Select("COUNT(*)").From("medicine_batches b")
	b = spec.apply(b, "b.medicine_id", "b.received_at", "b.id")

	query, args, err := b.ToSql()
	if err != nil {
		return 0, err
	}

	var count int64
	if err := r.db.GetContext(ctx, &count, query, args...); err != nil {
		return 0, err
	}
	return count, nil
}
