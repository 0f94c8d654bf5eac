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

func TestRequestRepositoryListForMedicine(t *testing.T) {
	mockDB, db := newTestDB(t)
	defer mockDB.Close()

	createdAt := time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC)
	mockDB.ExpectQuery("FROM requests req").
		WithArgs(int64(7)).
		WillReturnRows(testutil.
			MockRows("request_id", "status", "requested_at", "patient_name", "quantity").
			AddRow(int64(14), "pending", createdAt, "Walk-in Patient", 12))

	repo := repository.NewRequestRepository(db)
	requests, err := repo.ListForMedicine(context.Background(), repository.QuerySpec{MedicineID: 7})
	require.NoError(t, err)

	require.Len(t, requests, 1)
	assert.Equal(t, int64(14), requests[0].RequestID)
	assert.Equal(t, "pending", requests[0].Status)
	assert.Equal(t, "Walk-in Patient", requests[0].PatientName)
	assert.Equal(t, 12, requests[0].Quantity)
	mockDB.ExpectationsWereMet(t)
}

func TestRequestRepositoryCountForMedicine(t *testing.T) {
	mockDB, db := newTestDB(t)
	defer mockDB.Close()

	mockDB.ExpectQuery("SELECT COUNT(DISTINCT req.id) FROM requests req").
		WithArgs(int64(7)).
		WillReturnRows(testutil.MockRows("count").AddRow(int64(6)))

	repo := repository.NewRequestRepository(db)
	count, err := repo.CountForMedicine(context.Background(), repository.QuerySpec{MedicineID: 7})
	require.NoError(t, err)
	assert.Equal(t, int64(6), count)
	mockDB.ExpectationsWereMet(t)
}

func TestMedicineRepositoryGetByIDNotFound(t *testing.T) {
	mockDB, db := newTestDB(t)
	defer mockDB.Close()

	mockDB.ExpectQuery("FROM medicines").
		WithArgs(int64(99)).
		WillReturnRows(testutil.MockRows("id", "name", "generic_name", "dosage_form", "is_active"))

	repo := repository.NewMedicineRepository(db)
	_, err := repo.GetByID(context.Background(), 99)
	assert.Error(t, err)
}
