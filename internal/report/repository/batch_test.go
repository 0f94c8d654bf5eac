package repository_test

import (
	"context"
	"testing"
	"time"

	"github.com/bhims/bhims-backend/internal/report/repository"
	"github.com/bhims/bhims-backend/pkg/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBatchRepositoryListByMedicine(t *testing.T) {
	mockDB, db := newTestDB(t)
	defer mockDB.Close()

	expiry := time.Date(2026, 12, 1, 0, 0, 0, 0, time.UTC)
	received := time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC)

	mockDB.ExpectQuery("FROM medicine_batches b").
		WithArgs(int64(7)).
		WillReturnRows(testutil.
			MockRows("id", "medicine_id", "batch_code", "quantity_received", "quantity_available", "expiry_date", "received_at").
			AddRow(int64(1), int64(7), "B-2026-01", 100, 40, expiry, received))

	repo := repository.NewBatchRepository(db)
	batches, err := repo.ListByMedicine(context.Background(), repository.QuerySpec{MedicineID: 7})
	require.NoError(t, err)

	require.Len(t, batches, 1)
	assert.Equal(t, "B-2026-01", batches[0].BatchCode)
	assert.Equal(t, 100, batches[0].QuantityReceived)
	assert.Equal(t, 40, batches[0].QuantityAvailable)
	mockDB.ExpectationsWereMet(t)
}

func TestBatchRepositoryExpiringWithin(t *testing.T) {
	mockDB, db := newTestDB(t)
	defer mockDB.Close()

	mockDB.ExpectQuery("b.expiry_date <= CURRENT_DATE + $2::int").
		WithArgs(int64(7), 60).
		WillReturnRows(testutil.MockRows("id", "medicine_id", "batch_code", "quantity_received", "quantity_available", "expiry_date", "received_at"))

	repo := repository.NewBatchRepository(db)
	batches, err := repo.ExpiringWithin(context.Background(), 7, 0, 60)
	require.NoError(t, err)
	assert.Empty(t, batches)
	mockDB.ExpectationsWereMet(t)
}

func TestBatchRepositoryLowStockUsesFulfillmentsWithoutLog(t *testing.T) {
	mockDB, db := newTestDB(t)
	defer mockDB.Close()

	mockDB.ExpectQuery("FROM request_items ri").
		WithArgs(int64(7), 10).
		WillReturnRows(testutil.
			MockRows("id", "medicine_id", "batch_code", "quantity_received", "quantity_available", "expiry_date", "received_at", "last_dispensed_at").
			AddRow(int64(1), int64(7), "B-2026-01", 100, 4, time.Date(2026, 12, 1, 0, 0, 0, 0, time.UTC), time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC), nil))

	repo := repository.NewBatchRepository(db)
	batches, err := repo.LowStock(context.Background(), 7, 10, false)
	require.NoError(t, err)

	require.Len(t, batches, 1)
	assert.Equal(t, 4, batches[0].QuantityAvailable)
	assert.Nil(t, batches[0].LastDispensedAt)
	mockDB.ExpectationsWereMet(t)
}

func TestBatchRepositoryLowStockUsesTransactionLog(t *testing.T) {
	mockDB, db := newTestDB(t)
	defer mockDB.Close()

	last := time.Date(2026, 5, 20, 0, 0, 0, 0, time.UTC)
	mockDB.ExpectQuery("FROM inventory_transactions t").
		WithArgs(int64(7), 10).
		WillReturnRows(testutil.
			MockRows("id", "medicine_id", "batch_code", "quantity_received", "quantity_available", "expiry_date", "received_at", "last_dispensed_at").
			AddRow(int64(1), int64(7), "B-2026-01", 100, 4, time.Date(2026, 12, 1, 0, 0, 0, 0, time.UTC), time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC), last))

	repo := repository.NewBatchRepository(db)
	batches, err := repo.LowStock(context.Background(), 7, 10, true)
	require.NoError(t, err)

	require.Len(t, batches, 1)
	require.NotNil(t, batches[0].LastDispensedAt)
	assert.Equal(t, last, *batches[0].LastDispensedAt)
	mockDB.ExpectationsWereMet(t)
}

func TestBatchRepositoryLiveAvailable(t *testing.T) {
	mockDB, db := newTestDB(t)
	defer mockDB.Close()

	mockDB.ExpectQuery("SELECT SUM(b.quantity_available) FROM medicine_batches b").
		WithArgs(int64(7)).
		WillReturnRows(testutil.MockRows("sum").AddRow(int64(85)))

	repo := repository.NewBatchRepository(db)
	total, err := repo.LiveAvailable(context.Background(), 7, 0)
	require.NoError(t, err)
	assert.Equal(t, 85, total)
	mockDB.ExpectationsWereMet(t)
}

func TestBatchRepositoryLiveAvailableNoBatches(t *testing.T) {
	mockDB, db := newTestDB(t)
	defer mockDB.Close()

	// SUM over zero rows is NULL, which must read as zero stock.
	mockDB.ExpectQuery("SELECT SUM(b.quantity_available) FROM medicine_batches b").
		WithArgs(int64(7)).
		WillReturnRows(testutil.MockRows("sum").AddRow(nil))

	repo := repository.NewBatchRepository(db)
	total, err := repo.LiveAvailable(context.Background(), 7, 0)
	require.NoError(t, err)
	assert.Equal(t, 0, total)
	mockDB.ExpectationsWereMet(t)
}
