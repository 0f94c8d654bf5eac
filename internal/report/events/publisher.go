package events

import (
	"context"

	"github.com/bhims/bhims-backend/pkg/logger"
	"github.com/bhims/bhims-backend/pkg/messaging"
)

// ReportEventPublisher emits report lifecycle events to the report.events
// exchange. Publishing is best effort: a broker failure is logged and the
// report request proceeds.
type ReportEventPublisher struct {
	publisher *messaging.Publisher
	logger    *logger.Logger
}

// NewReportEventPublisher creates a new report event publisher
func NewReportEventPublisher(publisher *messaging.Publisher, log *logger.Logger) *ReportEventPublisher {
	return &ReportEventPublisher{
		publisher: publisher,
		logger:    log,
	}
}

// ReportGenerated announces that a report view was produced.
func (p *ReportEventPublisher) ReportGenerated(ctx context.Context, data messaging.ReportGeneratedEvent) {
	if err := p.publisher.Publish(ctx, messaging.EventReportGenerated, data); err != nil {
		p.logger.Warn().
			Err(err).
			Str("report_type", data.ReportType).
			Msg("failed to publish report.generated event")
	}
}

// SourceDegraded announces that a source reader failed and its report
// section rendered empty.
func (p *ReportEventPublisher) SourceDegraded(ctx context.Context, data messaging.ReportSourceDegradedEvent) {
	if err := p.publisher.Publish(ctx, messaging.EventReportSourceDegraded, data); err != nil {
		p.logger.Warn().
			Err(err).
			Str("report_type", data.ReportType).
			Str("source", data.SourceName).
			Msg("failed to publish report.source.degraded event")
	}
}
