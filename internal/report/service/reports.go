package service

import (
	"context"
	"time"

	"github.com/bhims/bhims-backend/internal/report/ledger"
	"github.com/bhims/bhims-backend/internal/report/repository"
	"github.com/bhims/bhims-backend/pkg/config"
	"github.com/bhims/bhims-backend/pkg/errors"
	"github.com/bhims/bhims-backend/pkg/httputil"
	"github.com/bhims/bhims-backend/pkg/logger"
	"github.com/bhims/bhims-backend/pkg/messaging"
)

// MovementReader is one of the three stock movement sources.
type MovementReader interface {
	Read(ctx context.Context, spec repository.QuerySpec) ([]repository.Movement, error)
	Count(ctx context.Context, spec repository.QuerySpec) (int64, error)
}

// CapabilityDetector reports whether the optional generic transaction log
// exists in this deployment.
type CapabilityDetector interface {
	Detect(ctx context.Context) bool
}

// BatchStore reads batch snapshots for the snapshot-shaped reports.
type BatchStore interface {
	ListByMedicine(ctx context.Context, spec repository.QuerySpec) ([]repository.BatchStock, error)
	ExpiringWithin(ctx context.Context, medicineID, batchID int64, horizonDays int) ([]repository.BatchStock, error)
	LowStock(ctx context.Context, medicineID int64, threshold int, useTransactionLog bool) ([]repository.BatchStock, error)
	LiveAvailable(ctx context.Context, medicineID, batchID int64) (int, error)
}

// RequestStore reads patient requests.
type RequestStore interface {
	ListForMedicine(ctx context.Context, spec repository.QuerySpec) ([]repository.PatientRequest, error)
	CountForMedicine(ctx context.Context, spec repository.QuerySpec) (int64, error)
}

// EventPublisher emits report diagnostics for operators. May be nil when the
// broker is unavailable; reports still render.
type EventPublisher interface {
	ReportGenerated(ctx context.Context, data messaging.ReportGeneratedEvent)
	SourceDegraded(ctx context.Context, data messaging.ReportSourceDegradedEvent)
}

// ReportRequest fully determines one report generation. Ephemeral; never
// persisted.
type ReportRequest struct {
	MedicineID int64      `json:"medicine_id" validate:"required,gt=0"`
	Type       ReportType `json:"report_type" validate:"required"`
	DateFrom   *time.Time `json:"date_from,omitempty"`
	DateTo     *time.Time `json:"date_to,omitempty"`
	BatchID    int64      `json:"batch_id,omitempty"`
	Page       int        `json:"page" validate:"gte=0"`
	PrintAll   bool       `json:"print_all,omitempty"`
}

func (r ReportRequest) spec() repository.QuerySpec {
	return repository.QuerySpec{
		MedicineID: r.MedicineID,
		From:       r.DateFrom,
		To:         r.DateTo,
		BatchID:    r.BatchID,
	}
}

// DegradedSource records a source reader that failed and had its section
// rendered empty.
type DegradedSource struct {
	Source string `json:"source"`
	Reason string `json:"reason"`
}

// ReportResult is one generated report view. Ephemeral; produced and
// discarded per request, never cached.
type ReportResult struct {
	Type       ReportType       `json:"report_type"`
	Label      string           `json:"label"`
	Rows       interface{}      `json:"rows"`
	Summary    interface{}      `json:"summary"`
	TotalCount int64            `json:"total_count"`
	Degraded   []DegradedSource `json:"degraded_sources,omitempty"`
	Pagination Pagination       `json:"pagination"`
}

// ReportService builds the seven report views from the reconciled ledger.
type ReportService struct {
	detector     CapabilityDetector
	receipts     MovementReader
	dispenses    MovementReader
	transactions MovementReader
	batches      BatchStore
	requests     RequestStore
	publisher    EventPublisher
	cfg          config.ReportConfig
	logger       *logger.Logger
}

// NewReportService creates a new report service
func NewReportService(
	detector CapabilityDetector,
	receipts MovementReader,
	dispenses MovementReader,
	transactions MovementReader,
	batches BatchStore,
	requests RequestStore,
	publisher EventPublisher,
	cfg config.ReportConfig,
	log *logger.Logger,
) *ReportService {
	if cfg.PageSize <= 0 {
		cfg.PageSize = 50
	}
	if cfg.LowStockThreshold <= 0 {
		cfg.LowStockThreshold = 10
	}
	if cfg.ExpiryHorizonDays <= 0 {
		cfg.ExpiryHorizonDays = 60
	}
	if cfg.PrintAllCap <= 0 {
		cfg.PrintAllCap = 5000
	}
	return &ReportService{
		detector:     detector,
		receipts:     receipts,
		dispenses:    dispenses,
		transactions: transactions,
		batches:      batches,
		requests:     requests,
		publisher:    publisher,
		cfg:          cfg,
		logger:       log,
	}
}

// Generate produces one report view. A report is always produced when the
// parameters are valid: individual source failures degrade their section to
// an empty row set and are recorded on the result instead of propagating.
func (s *ReportService) Generate(ctx context.Context, req ReportRequest) (*ReportResult, error) {
	if req.MedicineID <= 0 {
		return nil, errors.BadRequest("medicine is required")
	}
	if _, err := ParseReportType(string(req.Type)); err != nil {
		return nil, errors.BadRequest(err.Error())
	}

	req = s.normalize(req)

	result := &ReportResult{
		Type:  req.Type,
		Label: req.Type.Label(),
	}

	perPage := s.cfg.PageSize
	if req.PrintAll {
		perPage = s.cfg.PrintAllCap
	}

	switch req.Type {
	case ReportDispensed:
		rows, summary, total := s.buildDispensed(ctx, req, result)
		assemble(result, rows, summary, total, req.Page, perPage)
	case ReportRemainingStocks:
		rows, summary, total := s.buildRemainingStocks(ctx, req, result)
		assemble(result, rows, summary, total, req.Page, perPage)
	case ReportExpiry:
		rows, summary, total := s.buildExpiry(ctx, req, result)
		assemble(result, rows, summary, total, req.Page, perPage)
	case ReportRestocking:
		rows, summary, total := s.buildRestocking(ctx, req, result)
		assemble(result, rows, summary, total, req.Page, perPage)
	case ReportLowStock:
		rows, summary, total := s.buildLowStock(ctx, req, result)
		assemble(result, rows, summary, total, req.Page, perPage)
	case ReportActivityLogs:
		rows, summary, total := s.buildActivityLogs(ctx, req, result)
		assemble(result, rows, summary, total, req.Page, perPage)
	case ReportPatientRequests:
		rows, summary, total := s.buildPatientRequests(ctx, req, result)
		assemble(result, rows, summary, total, req.Page, perPage)
	}

	s.publishGenerated(ctx, req, result)

	return result, nil
}

// normalize applies parameter defaults: page 1, date-to today, print-all
// always starts at the first page.
func (s *ReportService) normalize(req ReportRequest) ReportRequest {
	if req.Page < 1 {
		req.Page = 1
	}
	if req.PrintAll {
		req.Page = 1
	}
	if req.DateTo == nil {
		today := ledger.DateOnly(time.Now())
		req.DateTo = &today
	}
	return req
}

// assemble slices one page out of the full row set and fills the result.
func assemble[T any](result *ReportResult, rows []T, summary interface{}, total int64, page, perPage int) {
	pg := NewPagination(page, perPage, total)
	result.Rows = pageSlice(rows, pg)
	result.Summary = summary
	result.TotalCount = total
	result.Pagination = pg
}

// readMovements reads one source, degrading to an empty set on failure.
func (s *ReportService) readMovements(ctx context.Context, req ReportRequest, result *ReportResult, name string, reader MovementReader, spec repository.QuerySpec) []repository.Movement {
	movements, err := reader.Read(ctx, spec)
	if err != nil {
		s.degrade(ctx, req, result, name, err)
		return nil
	}
	return movements
}

// countMovements counts one source, falling back to the in-memory row count
// on failure.
func (s *ReportService) countMovements(ctx context.Context, reader MovementReader, spec repository.QuerySpec, fallback int) int64 {
	count, err := reader.Count(ctx, spec)
	if err != nil {
		s.logger.Warn().Err(err).Msg("count query failed, using row count")
		return int64(fallback)
	}
	return count
}

func (s *ReportService) degrade(ctx context.Context, req ReportRequest, result *ReportResult, name string, err error) {
	// A source read twice within one report (period rows plus history for the
	// replay) records one degradation, not one per read.
	for _, d := range result.Degraded {
		if d.Source == name {
			return
		}
	}

	s.logger.Warn().
		Err(err).
		Str("source", name).
		Str("report_type", string(req.Type)).
		Int64("medicine_id", req.MedicineID).
		Msg("report source degraded to empty section")

	result.Degraded = append(result.Degraded, DegradedSource{Source: name, Reason: err.Error()})

	if s.publisher != nil {
		s.publisher.SourceDegraded(ctx, messaging.ReportSourceDegradedEvent{
			ReportType: string(req.Type),
			MedicineID: req.MedicineID,
			SourceName: name,
			Reason:     err.Error(),
		})
	}
}

func (s *ReportService) publishGenerated(ctx context.Context, req ReportRequest, result *ReportResult) {
	if s.publisher == nil {
		return
	}
	data := messaging.ReportGeneratedEvent{
		ReportType:  string(req.Type),
		MedicineID:  req.MedicineID,
		RowCount:    result.TotalCount,
		GeneratedBy: httputil.GetUserName(ctx),
	}
	if req.DateFrom != nil {
		data.DateFrom = req.DateFrom.Format("2006-01-02")
	}
	if req.DateTo != nil {
		data.DateTo = req.DateTo.Format("2006-01-02")
	}
	s.publisher.ReportGenerated(ctx, data)
}

type movementKey struct {
	source repository.MovementSource
	id     int64
}

// buildDispensed enriches each dispense event with the reconciled stock
// level immediately after it posted. The replay runs over the full history
// up to the period end, across all batches, so the date and batch filters
// on the displayed rows never distort the balances.
func (s *ReportService) buildDispensed(ctx context.Context, req ReportRequest, result *ReportResult) ([]DispensedRow, DispensedSummary, int64) {
	spec := req.spec()

	periodDispenses := s.readMovements(ctx, req, result, "dispenses", s.dispenses, spec)

	histSpec := repository.QuerySpec{MedicineID: req.MedicineID, To: req.DateTo}
	history := s.readMovements(ctx, req, result, "receipts", s.receipts, histSpec)
	history = append(history, s.readMovements(ctx, req, result, "dispenses", s.dispenses, histSpec)...)
	if s.detector.Detect(ctx) {
		history = append(history, s.readMovements(ctx, req, result, "transactions", s.transactions, histSpec)...)
	}

	balances := make(map[movementKey]int, len(history))
	for _, entry := range ledger.Replay(history) {
		balances[movementKey{entry.Source, entry.ID}] = entry.BalanceAfter
	}

	rows := make([]DispensedRow, 0, len(periodDispenses))
	for _, m := range periodDispenses {
		rows = append(rows, DispensedRow{
			Date:           m.OccurredOn,
			BatchCode:      m.BatchCode,
			Quantity:       m.Quantity,
			PatientName:    m.PatientName,
			Purok:          m.Purok,
			Barangay:       m.Barangay,
			DispensedBy:    m.Actor,
			RemainingStock: balances[movementKey{m.Source, m.ID}],
		})
	}

	periodReceived, periodDispensed := periodTotals(history, req)
	ending := s.liveAvailable(ctx, req, result)
	summary := DispensedSummary{
		TotalDispensed: periodDispensed,
		TotalReceived:  periodReceived,
		BeginningStock: ledger.PeriodStock(ending, periodReceived, periodDispensed),
		EndingStock:    ending,
	}

	total := s.countMovements(ctx, s.dispenses, spec, len(rows))
	return rows, summary, total
}

// periodTotals sums received and dispensed quantities restricted to the
// requested period (and batch, when filtered) from full-history movements.
func periodTotals(history []repository.Movement, req ReportRequest) (received, dispensed int) {
	var inPeriod []repository.Movement
	for _, m := range history {
		day := ledger.DateOnly(m.OccurredOn)
		if req.DateFrom != nil && day.Before(ledger.DateOnly(*req.DateFrom)) {
			continue
		}
		if req.DateTo != nil && day.After(ledger.DateOnly(*req.DateTo)) {
			continue
		}
		if req.BatchID > 0 && m.BatchID != req.BatchID {
			continue
		}
		inPeriod = append(inPeriod, m)
	}
	return ledger.Totals(inPeriod)
}

func (s *ReportService) liveAvailable(ctx context.Context, req ReportRequest, result *ReportResult) int {
	ending, err := s.batches.LiveAvailable(ctx, req.MedicineID, req.BatchID)
	if err != nil {
		s.degrade(ctx, req, result, "live_stock", err)
		return 0
	}
	return ending
}

func (s *ReportService) buildRemainingStocks(ctx context.Context, req ReportRequest, result *ReportResult) ([]RemainingStockRow, RemainingStockSummary, int64) {
	batches, err := s.batches.ListByMedicine(ctx, req.spec())
	if err != nil {
		s.degrade(ctx, req, result, "batches", err)
		batches = nil
	}

	today := ledger.DateOnly(time.Now())

	rows := make([]RemainingStockRow, 0, len(batches))
	var summary RemainingStockSummary
	for _, b := range batches {
		expired := !ledger.DateOnly(b.ExpiryDate).After(today)
		rows = append(rows, RemainingStockRow{
			BatchCode:    b.BatchCode,
			Received:     b.QuantityReceived,
			CurrentStock: b.QuantityAvailable,
			Dispensed:    b.QuantityReceived - b.QuantityAvailable,
			ExpiryDate:   b.ExpiryDate,
			Expired:      expired,
		})

		summary.TotalReceived += b.QuantityReceived
		summary.TotalAvailable += b.QuantityAvailable
		summary.TotalDispensed += b.QuantityReceived - b.QuantityAvailable

		if !expired && b.QuantityAvailable > 0 {
			if summary.NextExpiry == nil || b.ExpiryDate.Before(*summary.NextExpiry) {
				expiry := b.ExpiryDate
				summary.NextExpiry = &expiry
			}
		}
	}

	return rows, summary, int64(len(rows))
}

func (s *ReportService) buildExpiry(ctx context.Context, req ReportRequest, result *ReportResult) ([]ExpiryRow, ExpirySummary, int64) {
	batches, err := s.batches.ExpiringWithin(ctx, req.MedicineID, req.BatchID, s.cfg.ExpiryHorizonDays)
	if err != nil {
		s.degrade(ctx, req, result, "batches", err)
		batches = nil
	}

	today := ledger.DateOnly(time.Now())

	rows := make([]ExpiryRow, 0, len(batches))
	var summary ExpirySummary
	for _, b := range batches {
		days := int(ledger.DateOnly(b.ExpiryDate).Sub(today).Hours() / 24)
		rows = append(rows, ExpiryRow{
			BatchCode:       b.BatchCode,
			CurrentStock:    b.QuantityAvailable,
			ExpiryDate:      b.ExpiryDate,
			DaysUntilExpiry: days,
		})
		summary.UnitsExpiring += b.QuantityAvailable
		if summary.NearestExpiry == nil || b.ExpiryDate.Before(*summary.NearestExpiry) {
			expiry := b.ExpiryDate
			summary.NearestExpiry = &expiry
		}
	}
	summary.BatchesExpiring = len(rows)

	return rows, summary, int64(len(rows))
}

// buildRestocking reads the generic log when the deployment carries one and
// falls back to raw batch receipts otherwise.
func (s *ReportService) buildRestocking(ctx context.Context, req ReportRequest, result *ReportResult) ([]RestockRow, RestockSummary, int64) {
	spec := req.spec()

	var movements []repository.Movement
	var total int64
	if s.detector.Detect(ctx) {
		for _, m := range s.readMovements(ctx, req, result, "transactions", s.transactions, spec) {
			if m.Source == repository.SourceGenericIn {
				movements = append(movements, m)
			}
		}
		total = int64(len(movements))
	} else {
		movements = s.readMovements(ctx, req, result, "receipts", s.receipts, spec)
		total = s.countMovements(ctx, s.receipts, spec, len(movements))
	}

	rows := make([]RestockRow, 0, len(movements))
	var summary RestockSummary
	for _, m := range movements {
		rows = append(rows, RestockRow{
			Date:      m.OccurredOn,
			BatchCode: m.BatchCode,
			Quantity:  m.Quantity,
			Actor:     m.Actor,
			Remarks:   m.Remarks,
		})
		summary.TotalReceived += m.Quantity
	}

	return rows, summary, total
}

func (s *ReportService) buildLowStock(ctx context.Context, req ReportRequest, result *ReportResult) ([]LowStockRow, LowStockSummary, int64) {
	useLog := s.detector.Detect(ctx)
	batches, err := s.batches.LowStock(ctx, req.MedicineID, s.cfg.LowStockThreshold, useLog)
	if err != nil {
		s.degrade(ctx, req, result, "batches", err)
		batches = nil
	}

	rows := make([]LowStockRow, 0, len(batches))
	for _, b := range batches {
		rows = append(rows, LowStockRow{
			BatchCode:       b.BatchCode,
			CurrentStock:    b.QuantityAvailable,
			ExpiryDate:      b.ExpiryDate,
			LastDispensedAt: b.LastDispensedAt,
		})
	}

	summary := LowStockSummary{BatchesLow: len(rows), Threshold: s.cfg.LowStockThreshold}
	return rows, summary, int64(len(rows))
}

// buildActivityLogs is the full three-source union, newest first. The total
// is the sum of per-source counts rather than one combined count query.
func (s *ReportService) buildActivityLogs(ctx context.Context, req ReportRequest, result *ReportResult) ([]ActivityRow, ActivitySummary, int64) {
	spec := req.spec()

	receipts := s.readMovements(ctx, req, result, "receipts", s.receipts, spec)
	dispenses := s.readMovements(ctx, req, result, "dispenses", s.dispenses, spec)

	var transactions []repository.Movement
	hasLog := s.detector.Detect(ctx)
	if hasLog {
		transactions = s.readMovements(ctx, req, result, "transactions", s.transactions, spec)
	}

	summary := ActivitySummary{
		Receipts:  s.countMovements(ctx, s.receipts, spec, len(receipts)),
		Dispenses: s.countMovements(ctx, s.dispenses, spec, len(dispenses)),
	}
	if hasLog {
		summary.Transactions = s.countMovements(ctx, s.transactions, spec, len(transactions))
	}
	summary.TotalMovements = summary.Receipts + summary.Dispenses + summary.Transactions

	merged := make([]repository.Movement, 0, len(receipts)+len(dispenses)+len(transactions))
	merged = append(merged, receipts...)
	merged = append(merged, dispenses...)
	merged = append(merged, transactions...)

	entries := ledger.Replay(merged)

	rows := make([]ActivityRow, 0, len(entries))
	for i := len(entries) - 1; i >= 0; i-- {
		m := entries[i].Movement
		rows = append(rows, ActivityRow{
			Date:        m.OccurredOn,
			Source:      m.Source,
			BatchCode:   m.BatchCode,
			Quantity:    m.Signed(),
			Actor:       m.Actor,
			Description: m.ActionDescription(),
		})
	}

	return rows, summary, summary.TotalMovements
}

func (s *ReportService) buildPatientRequests(ctx context.Context, req ReportRequest, result *ReportResult) ([]PatientRequestRow, PatientRequestSummary, int64) {
	spec := req.spec()

	requests, err := s.requests.ListForMedicine(ctx, spec)
	if err != nil {
		s.degrade(ctx, req, result, "requests", err)
		requests = nil
	}

	rows := make([]PatientRequestRow, 0, len(requests))
	var summary PatientRequestSummary
	for _, r := range requests {
		rows = append(rows, PatientRequestRow{
			RequestID:   r.RequestID,
			Date:        r.RequestedAt,
			PatientName: r.PatientName,
			Status:      r.Status,
			Quantity:    r.Quantity,
		})
		summary.TotalQuantity += r.Quantity
	}

	total, err := s.requests.CountForMedicine(ctx, spec)
	if err != nil {
		s.logger.Warn().Err(err).Msg("request count query failed, using row count")
		total = int64(len(rows))
	}
	summary.TotalRequests = total

	return rows, summary, total
}
