package repository

import (
	"context"
	"database/sql"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/bhims/bhims-backend/pkg/database"
)

// BatchStock is a snapshot row for a single batch. quantity_available is the
// live counter maintained by the dispensing workflow; historical balances are
// replayed from movements instead of trusting it.
type BatchStock struct {
	ID                int64      `db:"id" json:"id"`
	MedicineID        int64      `db:"medicine_id" json:"medicine_id"`
	BatchCode         string     `db:"batch_code" json:"batch_code"`
	QuantityReceived  int        `db:"quantity_received" json:"quantity_received"`
	QuantityAvailable int        `db:"quantity_available" json:"quantity_available"`
	ExpiryDate        time.Time  `db:"expiry_date" json:"expiry_date"`
	ReceivedAt        time.Time  `db:"received_at" json:"received_at"`
	LastDispensedAt   *time.Time `db:"last_dispensed_at" json:"last_dispensed_at,omitempty"`
}

// BatchRepository reads batch snapshots for the snapshot-shaped reports
// (remaining stocks, expiry, low stock).
type BatchRepository struct {
	db *database.DB
}

// NewBatchRepository creates a new batch repository
func NewBatchRepository(db *database.DB) *BatchRepository {
	return &BatchRepository{db: db}
}

const batchColumns = "b.id, b.medicine_id, b.batch_code, b.quantity_received, b.quantity_available, b.expiry_date, b.received_at"

// ListByMedicine returns batch snapshots matching the spec, soonest expiry
// first. The date filter applies to the received date.
func (r *BatchRepository) ListByMedicine(ctx context.Context, spec QuerySpec) ([]BatchStock, error) {
	b := psql.Select(batchColumns).From("medicine_batches b")
	b = spec.apply(b, "b.medicine_id", "b.received_at", "b.id")
	b = b.OrderBy("b.expiry_date ASC", "b.id ASC")

	query, args, err := b.ToSql()
	if err != nil {
		return nil, err
	}

	var batches []BatchStock
	if err := r.db.SelectContext(ctx, &batches, query, args...); err != nil {
		return nil, err
	}
	return batches, nil
}

// ExpiringWithin returns batches with positive stock expiring within the
// horizon, soonest first. Already-expired batches are excluded; they belong
// to the remaining-stocks view, not the early-warning one.
func (r *BatchRepository) ExpiringWithin(ctx context.Context, medicineID, batchID int64, horizonDays int) ([]BatchStock, error) {
	b := psql.Select(batchColumns).
		From("medicine_batches b").
		Where(sq.Eq{"b.medicine_id": medicineID}).
		Where("b.quantity_available > 0").
		Where("b.expiry_date >= CURRENT_DATE").
		Where("b.expiry_date <= CURRENT_DATE + ?::int", horizonDays)
	if batchID > 0 {
		b = b.Where(sq.Eq{"b.id": batchID})
	}
	b = b.OrderBy("b.expiry_date ASC", "b.id ASC")

	query, args, err := b.ToSql()
	if err != nil {
		return nil, err
	}

	var batches []BatchStock
	if err := r.db.SelectContext(ctx, &batches, query, args...); err != nil {
		return nil, err
	}
	return batches, nil
}

// LowStock returns non-expired batches at or below the threshold, each
// annotated with the last date the batch was dispensed from. The annotation
// comes from the generic log when available, otherwise from fulfillments.
func (r *BatchRepository) LowStock(ctx context.Context, medicineID int64, threshold int, useTransactionLog bool) ([]BatchStock, error) {
	lastDispensed := `(
		SELECT MAX(COALESCE(ri.dispensed_at, req.updated_at))
		FROM request_items ri
		JOIN requests req ON req.id = ri.request_id
		WHERE ri.batch_id = b.id AND req.status IN ('approved', 'claimed')
	) AS last_dispensed_at`
	if useTransactionLog {
		lastDispensed = `(
		SELECT MAX(t.transaction_date)
		FROM inventory_transactions t
		WHERE t.batch_id = b.id AND t.direction = 'out'
	) AS last_dispensed_at`
	}

	b := psql.Select(batchColumns, lastDispensed).
		From("medicine_batches b").
		Where(sq.Eq{"b.medicine_id": medicineID}).
		Where("b.quantity_available <= ?", threshold).
		Where("b.expiry_date > CURRENT_DATE").
		OrderBy("b.quantity_available ASC", "b.id ASC")

	query, args, err := b.ToSql()
	if err != nil {
		return nil, err
	}

	var batches []BatchStock
	if err := r.db.SelectContext(ctx, &batches, query, args...); err != nil {
		return nil, err
	}
	return batches, nil
}

// LiveAvailable sums the live available stock across non-expired batches.
// This is the authoritative ending stock for a report period.
func (r *BatchRepository) LiveAvailable(ctx context.Context, medicineID, batchID int64) (int, error) {
	b := psql.Select("SUM(b.quantity_available)").
		From("medicine_batches b").
		Where(sq.Eq{"b.medicine_id": medicineID}).
		Where("b.expiry_date > CURRENT_DATE")
	if batchID > 0 {
		b = b.Where(sq.Eq{"b.id": batchID})
	}

	query, args, err := b.ToSql()
	if err != nil {
		return 0, err
	}

	var total sql.NullInt64
	if err := r.db.GetContext(ctx, &total, query, args...); err != nil {
		return 0, err
	}
	if !total.Valid {
		return 0, nil
	}
	return int(total.Int64), nil
}
