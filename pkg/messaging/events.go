package messaging

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Event types
const (
	// Report events
	EventReportGenerated      = "report.generated"
	EventReportSourceDegraded = "report.source.degraded"
)

// Exchange names
const (
	ExchangeReportEvents = "report.events"
)

// Event is the base event structure
type Event struct {
	ID            string          `json:"id"`
	Type          string          `json:"type"`
	Source        string          `json:"source"`
	Timestamp     time.Time       `json:"timestamp"`
	CorrelationID string          `json:"correlation_id"`
	Data          json.RawMessage `json:"data"`
}

// NewEvent creates a new event with the given type and data
func NewEvent(eventType, source, correlationID string, data interface{}) (*Event, error) {
	dataBytes, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}

	return &Event{
		ID:            uuid.New().String(),
		Type:          eventType,
		Source:        source,
		Timestamp:     time.Now().UTC(),
		CorrelationID: correlationID,
		Data:          dataBytes,
	}, nil
}

// UnmarshalData unmarshals the event data into the provided struct
func (e *Event) UnmarshalData(v interface{}) error {
	return json.Unmarshal(e.Data, v)
}

// ReportGeneratedEvent is published after a report is produced
type ReportGeneratedEvent struct {
	ReportType  string `json:"report_type"`
	MedicineID  int64  `json:"medicine_id"`
	DateFrom    string `json:"date_from,omitempty"`
	DateTo      string `json:"date_to,omitempty"`
	RowCount    int64  `json:"row_count"`
	GeneratedBy string `json:"generated_by"`
}

// ReportSourceDegradedEvent is published when a source reader fails and its
// report section is rendered empty
type ReportSourceDegradedEvent struct {
	ReportType string `json:"report_type"`
	MedicineID int64  `json:"medicine_id"`
	SourceName string `json:"source_name"`
	Reason     string `json:"reason"`
}
