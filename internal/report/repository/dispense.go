package repository

import (
	"context"

	sq "github.com/Masterminds/squirrel"
	"github.com/bhims/bhims-backend/pkg/database"
)

// dispenseDateExpr is the effective dispense date: the fulfillment timestamp
// when recorded, otherwise the parent request's last status change.
const dispenseDateExpr = "COALESCE(ri.dispensed_at, req.updated_at)"

// DispenseReader yields one negative movement per fulfillment whose parent
// request reached approved or claimed status. Fulfillments are the
// authoritative source of dispensed quantities.
type DispenseReader struct {
	db *database.DB
}

// NewDispenseReader creates a new dispense reader
func NewDispenseReader(db *database.DB) *DispenseReader {
	return &DispenseReader{db: db}
}

func (r *DispenseReader) base(spec QuerySpec) sq.SelectBuilder {
	b := psql.Select().
		From("request_items ri").
		Join("requests req ON req.id = ri.request_id").
		LeftJoin("residents res ON res.id = req.resident_id").
		LeftJoin("users u ON u.id = ri.dispensed_by").
		LeftJoin("medicine_batches b ON b.id = ri.batch_id").
		Where(sq.Eq{"req.status": []string{"approved", "claimed"}})

	return spec.apply(b, "ri.medicine_id", dispenseDateExpr, "ri.batch_id")
}

// Read returns dispense movements matching the spec, oldest first. The
// patient display name falls back from the explicit per-item patient name
// (family-requested items) to the resident's own name, and finally to the
// walk-in placeholder.
func (r *DispenseReader) Read(ctx context.Context, spec QuerySpec) ([]Movement, error) {
	b := r.base(spec).Columns(
		"ri.id",
		"ri.medicine_id",
		"COALESCE(ri.batch_id, 0) AS batch_id",
		"COALESCE(b.batch_code, '') AS batch_code",
		"ri.quantity",
		"'DISPENSED' AS source",
		dispenseDateExpr+" AS occurred_on",
		"COALESCE(u.full_name, 'system') AS actor",
		"COALESCE(NULLIF(ri.patient_name, ''), res.first_name || ' ' || res.last_name, 'Walk-in Patient') AS patient_name",
		"COALESCE(res.purok, '') AS purok",
		"COALESCE(res.barangay, '') AS barangay",
	).OrderBy(dispenseDateExpr+" ASC", "ri.id ASC")

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

// Count returns the number of dispense movements matching the spec.
func (r *DispenseReader) Count(ctx context.Context, spec QuerySpec) (int64, error) {
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
