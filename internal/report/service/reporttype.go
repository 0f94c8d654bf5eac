package service

import (
	"fmt"
)

// ReportType is the closed set of report views the engine can produce.
type ReportType string

const (
	ReportDispensed       ReportType = "dispensed"
	ReportRemainingStocks ReportType = "remaining_stocks"
	ReportExpiry          ReportType = "expiry"
	ReportRestocking      ReportType = "restocking"
	ReportLowStock        ReportType = "low_stock"
	ReportActivityLogs    ReportType = "activity_logs"
	ReportPatientRequests ReportType = "patient_requests"
)

// ReportTypes lists every report type in presentation order.
func ReportTypes() []ReportType {
	return []ReportType{
		ReportDispensed,
		ReportRemainingStocks,
		ReportExpiry,
		ReportRestocking,
		ReportLowStock,
		ReportActivityLogs,
		ReportPatientRequests,
	}
}

// ParseReportType validates a report type string from a request parameter.
func ParseReportType(s string) (ReportType, error) {
	t := ReportType(s)
	switch t {
	case ReportDispensed, ReportRemainingStocks, ReportExpiry, ReportRestocking,
		ReportLowStock, ReportActivityLogs, ReportPatientRequests:
		return t, nil
	}
	return "", fmt.Errorf("unknown report type %q", s)
}

// Label returns the display title for the report type.
func (t ReportType) Label() string {
	switch t {
	case ReportDispensed:
		return "Dispensed Medicines"
	case ReportRemainingStocks:
		return "Remaining Stocks"
	case ReportExpiry:
		return "Expiring Batches"
	case ReportRestocking:
		return "Restocking History"
	case ReportLowStock:
		return "Low Stock"
	case ReportActivityLogs:
		return "Activity Logs"
	case ReportPatientRequests:
		return "Patient Requests"
	}
	return string(t)
}
