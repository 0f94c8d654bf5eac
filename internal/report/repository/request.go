package repository

import (
	"context"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/bhims/bhims-backend/pkg/database"
)

// PatientRequest is one request for a medicine, with the quantity summed
// across its fulfillment line items. Unlike the dispense reader this includes
// every lifecycle status.
type PatientRequest struct {
	RequestID   int64     `db:"request_id" json:"request_id"`
	Status      string    `db:"status" json:"status"`
	RequestedAt time.Time `db:"requested_at" json:"requested_at"`
	PatientName string    `db:"patient_name" json:"patient_name"`
	Quantity    int       `db:"quantity" json:"quantity"`
}

// RequestRepository reads patient requests for the patient-requests report.
type RequestRepository struct {
	db *database.DB
}

// NewRequestRepository creates a new request repository
func NewRequestRepository(db *database.DB) *RequestRepository {
	return &RequestRepository{db: db}
}

func (r *RequestRepository) base(spec QuerySpec) sq.SelectBuilder {
	b := psql.Select().
		From("requests req").
		Join("request_items ri ON ri.request_id = req.id").
		LeftJoin("residents res ON res.id = req.resident_id")

	return spec.apply(b, "ri.medicine_id", "req.created_at", "ri.batch_id")
}

// ListForMedicine returns one row per request in range, newest first.
func (r *RequestRepository) ListForMedicine(ctx context.Context, spec QuerySpec) ([]PatientRequest, error) {
	b := r.base(spec).Columns(
		"req.id AS request_id",
		"req.status",
		"req.created_at AS requested_at",
		"COALESCE(NULLIF(MAX(ri.patient_name), ''), MAX(res.first_name || ' ' || res.last_name), 'Walk-in Patient') AS patient_name",
		"COALESCE(SUM(ri.quantity), 0) AS quantity",
	).GroupBy("req.id", "req.status", "req.created_at").
		OrderBy("req.created_at DESC", "req.id DESC")

	query, args, err := b.ToSql()
	if err != nil {
		return nil, err
	}

	var requests []PatientRequest
	if err := r.db.SelectContext(ctx, &requests, query, args...); err != nil {
		return nil, err
	}
	return requests, nil
}

// CountForMedicine returns the number of distinct requests in range.
func (r *RequestRepository) CountForMedicine(ctx context.Context, spec QuerySpec) (int64, error) {
	query, args, err := r.base(spec).Columns("COUNT(DISTINCT req.id)").ToSql()
	if err != nil {
		return 0, err
	}

	var count int64
	if err := r.db.GetContext(ctx, &count, query, args...); err != nil {
		return 0, err
	}
	return count, nil
}
