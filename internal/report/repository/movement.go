package repository

import (
	"fmt"
	"time"
)

// MovementSource tags where a stock movement was read from.
type MovementSource string

const (
	SourceBatchReceived MovementSource = "BATCH_RECEIVED"
	SourceDispensed     MovementSource = "DISPENSED"
	SourceGenericIn     MovementSource = "GENERIC_IN"
	SourceGenericOut    MovementSource = "GENERIC_OUT"
)

// Sign returns +1 for movements that add stock and -1 for movements that
// remove it.
func (s MovementSource) Sign() int {
	switch s {
	case SourceBatchReceived, SourceGenericIn:
		return 1
	case SourceDispensed, SourceGenericOut:
		return -1
	}
	return 0
}

// Movement is a single signed stock-quantity change against a medicine/batch
// pair. It is a normalized projection over three differently-shaped tables;
// ID is the insertion id of the underlying row and serves as the same-day
// ordering tie-break.
type Movement struct {
	ID          int64          `db:"id" json:"id"`
	MedicineID  int64          `db:"medicine_id" json:"medicine_id"`
	BatchID     int64          `db:"batch_id" json:"batch_id"`
	BatchCode   string         `db:"batch_code" json:"batch_code"`
	Quantity    int            `db:"quantity" json:"quantity"`
	Source      MovementSource `db:"source" json:"source"`
	OccurredOn  time.Time      `db:"occurred_on" json:"occurred_on"`
	Actor       string         `db:"actor" json:"actor"`
	PatientName string         `db:"patient_name" json:"patient_name,omitempty"`
	Purok       string         `db:"purok" json:"purok,omitempty"`
	Barangay    string         `db:"barangay" json:"barangay,omitempty"`
	Remarks     string         `db:"remarks" json:"remarks,omitempty"`
}

// Signed returns the quantity with the source's sign applied.
func (m Movement) Signed() int {
	return m.Quantity * m.Source.Sign()
}

// ActionDescription renders a human-readable line for the activity log view.
func (m Movement) ActionDescription() string {
	switch m.Source {
	case SourceBatchReceived:
		return fmt.Sprintf("Received batch %s (+%d)", m.BatchCode, m.Quantity)
	case SourceDispensed:
		if m.PatientName != "" {
			return fmt.Sprintf("Dispensed %d from batch %s to %s", m.Quantity, m.BatchCode, m.PatientName)
		}
		return fmt.Sprintf("Dispensed %d from batch %s", m.Quantity, m.BatchCode)
	case SourceGenericIn:
		if m.Remarks != "" {
			return fmt.Sprintf("Stock in +%d (%s)", m.Quantity, m.Remarks)
		}
		return fmt.Sprintf("Stock in +%d", m.Quantity)
	case SourceGenericOut:
		if m.Remarks != "" {
			return fmt.Sprintf("Stock out -%d (%s)", m.Quantity, m.Remarks)
		}
		return fmt.Sprintf("Stock out -%d", m.Quantity)
	}
	return ""
}
