package service

import (
	"time"

	"github.com/bhims/bhims-backend/internal/report/repository"
)

// DispensedRow is one dispensing event with its reconciled remaining stock.
type DispensedRow struct {
	Date           time.Time `json:"date"`
	BatchCode      string    `json:"batch_code"`
	Quantity       int       `json:"quantity"`
	PatientName    string    `json:"patient_name"`
	Purok          string    `json:"purok,omitempty"`
	Barangay       string    `json:"barangay,omitempty"`
	DispensedBy    string    `json:"dispensed_by"`
	RemainingStock int       `json:"remaining_stock"`
}

// DispensedSummary aggregates a dispensed report period.
type DispensedSummary struct {
	TotalDispensed int `json:"total_dispensed"`
	TotalReceived  int `json:"total_received"`
	BeginningStock int `json:"beginning_stock"`
	EndingStock    int `json:"ending_stock"`
}

// RemainingStockRow is one batch snapshot.
type RemainingStockRow struct {
	BatchCode    string    `json:"batch_code"`
	Received     int       `json:"received"`
	CurrentStock int       `json:"current_stock"`
	Dispensed    int       `json:"dispensed"`
	ExpiryDate   time.Time `json:"expiry_date"`
	Expired      bool      `json:"expired"`
}

// RemainingStockSummary aggregates the remaining-stocks view.
type RemainingStockSummary struct {
	TotalReceived  int        `json:"total_received"`
	TotalAvailable int        `json:"total_available"`
	TotalDispensed int        `json:"total_dispensed"`
	NextExpiry     *time.Time `json:"next_expiry,omitempty"`
}

// ExpiryRow is one batch inside the expiry horizon.
type ExpiryRow struct {
	BatchCode       string    `json:"batch_code"`
	CurrentStock    int       `json:"current_stock"`
	ExpiryDate      time.Time `json:"expiry_date"`
	DaysUntilExpiry int       `json:"days_until_expiry"`
}

// ExpirySummary aggregates the expiry view.
type ExpirySummary struct {
	BatchesExpiring int        `json:"batches_expiring"`
	UnitsExpiring   int        `json:"units_expiring"`
	NearestExpiry   *time.Time `json:"nearest_expiry,omitempty"`
}

// RestockRow is one receipt event.
type RestockRow struct {
	Date      time.Time `json:"date"`
	BatchCode string    `json:"batch_code"`
	Quantity  int       `json:"quantity"`
	Actor     string    `json:"actor"`
	Remarks   string    `json:"remarks,omitempty"`
}

// RestockSummary aggregates the restocking view.
type RestockSummary struct {
	TotalReceived int `json:"total_received"`
}

// LowStockRow is one batch at or below the low-stock threshold.
type LowStockRow struct {
	BatchCode       string     `json:"batch_code"`
	CurrentStock    int        `json:"current_stock"`
	ExpiryDate      time.Time  `json:"expiry_date"`
	LastDispensedAt *time.Time `json:"last_dispensed_at,omitempty"`
}

// LowStockSummary aggregates the low-stock view.
type LowStockSummary struct {
	BatchesLow int `json:"batches_low"`
	Threshold  int `json:"threshold"`
}

// ActivityRow is one movement from any source with a rendered description.
type ActivityRow struct {
	Date        time.Time                 `json:"date"`
	Source      repository.MovementSource `json:"source"`
	BatchCode   string                    `json:"batch_code,omitempty"`
	Quantity    int                       `json:"quantity"`
	Actor       string                    `json:"actor"`
	Description string                    `json:"description"`
}

// ActivitySummary carries the per-source counts the union total is built
// from.
type ActivitySummary struct {
	TotalMovements int64 `json:"total_movements"`
	Receipts       int64 `json:"receipts"`
	Dispenses      int64 `json:"dispenses"`
	Transactions   int64 `json:"transactions"`
}

// PatientRequestRow is one request regardless of lifecycle status.
type PatientRequestRow struct {
	RequestID   int64     `json:"request_id"`
	Date        time.Time `json:"date"`
	PatientName string    `json:"patient_name"`
	Status      string    `json:"status"`
	Quantity    int       `json:"quantity"`
}

// PatientRequestSummary aggregates the patient-requests view.
type PatientRequestSummary struct {
	TotalRequests int64 `json:"total_requests"`
	TotalQuantity int   `json:"total_quantity"`
}
