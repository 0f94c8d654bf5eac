package repository_test

import (
	"context"
	"testing"
	"time"

	"github.com/bhims/bhims-backend/internal/report/repository"
	"github.com/bhims/bhims-backend/pkg/database"
	"github.com/bhims/bhims-backend/pkg/logger"
	"github.com/bhims/bhims-backend/pkg/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDB(t *testing.T) (*testutil.MockDB, *database.DB) {
	t.Helper()
	mockDB := testutil.NewMockDB(t)
	return mockDB, database.FromSqlx(mockDB.DB, logger.New("test", "test"))
}

func TestBatchReceiptReaderRead(t *testing.T) {
	mockDB, db := newTestDB(t)
	defer mockDB.Close()

	receivedAt := time.Date(2026, 2, 10, 9, 0, 0, 0, time.UTC)
	mockDB.ExpectQuery("FROM medicine_batches b").
		WithArgs(int64(7)).
		WillReturnRows(testutil.
			MockRows("id", "medicine_id", "batch_id", "batch_code", "quantity", "source", "occurred_on", "actor").
			AddRow(int64(3), int64(7), int64(3), "B-2026-01", 120, "BATCH_RECEIVED", receivedAt, "system"))

	reader := repository.NewBatchReceiptReader(db)
	movements, err := reader.Read(context.Background(), repository.QuerySpec{MedicineID: 7})
	require.NoError(t, err)

	require.Len(t, movements, 1)
	assert.Equal(t, repository.SourceBatchReceived, movements[0].Source)
	assert.Equal(t, "B-2026-01", movements[0].BatchCode)
	assert.Equal(t, 120, movements[0].Quantity)
	assert.Equal(t, 120, movements[0].Signed())
	mockDB.ExpectationsWereMet(t)
}

func TestBatchReceiptReaderReadAppliesDateRange(t *testing.T) {
	mockDB, db := newTestDB(t)
	defer mockDB.Close()

	from := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, 1, 31, 0, 0, 0, 0, time.UTC)

	mockDB.ExpectQuery("FROM medicine_batches b").
		WithArgs(int64(7), testutil.AnyTime{}, testutil.AnyTime{}).
		WillReturnRows(testutil.MockRows("id", "medicine_id", "batch_id", "batch_code", "quantity", "source", "occurred_on", "actor"))

	reader := repository.NewBatchReceiptReader(db)
	movements, err := reader.Read(context.Background(), repository.QuerySpec{MedicineID: 7, From: &from, To: &to})
	require.NoError(t, err)
	assert.Empty(t, movements)
	mockDB.ExpectationsWereMet(t)
}

func TestBatchReceiptReaderCount(t *testing.T) {
	mockDB, db := newTestDB(t)
	defer mockDB.Close()

	mockDB.ExpectQuery("SELECT COUNT(*) FROM medicine_batches b").
		WithArgs(int64(7), int64(3)).
		WillReturnRows(testutil.MockRows("count").AddRow(int64(4)))

	reader := repository.NewBatchReceiptReader(db)
	count, err := reader.Count(context.Background(), repository.QuerySpec{MedicineID: 7, BatchID: 3})
	require.NoError(t, err)
	assert.Equal(t, int64(4), count)
	mockDB.ExpectationsWereMet(t)
}

func TestDispenseReaderReadFallsBackPatientName(t *testing.T) {
	mockDB, db := newTestDB(t)
	defer mockDB.Close()

	dispensedAt := time.Date(2026, 3, 2, 14, 0, 0, 0, time.UTC)

	// The name fallback chain lives in SQL; the reader must ask for it.
	mockDB.ExpectQuery("'Walk-in Patient') AS patient_name").
		WithArgs("approved", "claimed", int64(7)).
		WillReturnRows(testutil.
			MockRows("id", "medicine_id", "batch_id", "batch_code", "quantity", "source", "occurred_on", "actor", "patient_name", "purok", "barangay").
			AddRow(int64(11), int64(7), int64(3), "B-2026-01", 10, "DISPENSED", dispensedAt, "Nurse Reyes", "Maria Santos", "Purok 2", "San Isidro"))

	reader := repository.NewDispenseReader(db)
	movements, err := reader.Read(context.Background(), repository.QuerySpec{MedicineID: 7})
	require.NoError(t, err)

	require.Len(t, movements, 1)
	assert.Equal(t, repository.SourceDispensed, movements[0].Source)
	assert.Equal(t, "Maria Santos", movements[0].PatientName)
	assert.Equal(t, "Purok 2", movements[0].Purok)
	assert.Equal(t, -10, movements[0].Signed())
	mockDB.ExpectationsWereMet(t)
}

func TestDispenseReaderCountFiltersStatus(t *testing.T) {
	mockDB, db := newTestDB(t)
	defer mockDB.Close()

	mockDB.ExpectQuery("req.status IN ($1,$2)").
		WithArgs("approved", "claimed", int64(7)).
		WillReturnRows(testutil.MockRows("count").AddRow(int64(9)))

	reader := repository.NewDispenseReader(db)
	count, err := reader.Count(context.Background(), repository.QuerySpec{MedicineID: 7})
	require.NoError(t, err)
	assert.Equal(t, int64(9), count)
	mockDB.ExpectationsWereMet(t)
}

func TestTransactionReaderReadMapsDirection(t *testing.T) {
	mockDB, db := newTestDB(t)
	defer mockDB.Close()

	txDate := time.Date(2026, 4, 1, 8, 0, 0, 0, time.UTC)
	mockDB.ExpectQuery("FROM inventory_transactions t").
		WithArgs(int64(7)).
		WillReturnRows(testutil.
			MockRows("id", "medicine_id", "batch_id", "batch_code", "quantity", "source", "occurred_on", "actor", "remarks").
			AddRow(int64(21), int64(7), int64(0), "", 15, "GENERIC_OUT", txDate, "BHW Cruz", "damaged stock"))

	reader := repository.NewTransactionReader(db)
	movements, err := reader.Read(context.Background(), repository.QuerySpec{MedicineID: 7})
	require.NoError(t, err)

	require.Len(t, movements, 1)
	assert.Equal(t, repository.SourceGenericOut, movements[0].Source)
	assert.Equal(t, -15, movements[0].Signed())
	assert.Equal(t, "damaged stock", movements[0].Remarks)
	mockDB.ExpectationsWereMet(t)
}
