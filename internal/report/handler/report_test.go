package handler_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/bhims/bhims-backend/internal/report/handler"
	"github.com/bhims/bhims-backend/internal/report/repository"
	"github.com/bhims/bhims-backend/internal/report/service"
	"github.com/bhims/bhims-backend/pkg/httputil"
	"github.com/bhims/bhims-backend/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubGenerator struct {
	result  *service.ReportResult
	err     error
	lastReq service.ReportRequest
}

func (s *stubGenerator) Generate(ctx context.Context, req service.ReportRequest) (*service.ReportResult, error) {
	s.lastReq = req
	if s.err != nil {
		return nil, s.err
	}
	return s.result, nil
}

type stubMedicines struct {
	medicines []repository.Medicine
	medicine  *repository.Medicine
	err       error
}

func (s *stubMedicines) ListActive(ctx context.Context) ([]repository.Medicine, error) {
	return s.medicines, s.err
}

func (s *stubMedicines) GetByID(ctx context.Context, id int64) (*repository.Medicine, error) {
	return s.medicine, s.err
}

type stubSettings struct {
	branding *repository.Branding
	err      error
}

func (s *stubSettings) GetBranding(ctx context.Context) (*repository.Branding, error) {
	return s.branding, s.err
}

func sampleResult() *service.ReportResult {
	return &service.ReportResult{
		Type:  service.ReportDispensed,
		Label: service.ReportDispensed.Label(),
		Rows: []service.DispensedRow{
			{Date: time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC), BatchCode: "B-1", Quantity: 10, PatientName: "Maria Santos", DispensedBy: "Nurse Reyes", RemainingStock: 90},
		},
		Summary:    service.DispensedSummary{TotalDispensed: 10, TotalReceived: 100, EndingStock: 90},
		TotalCount: 1,
		Pagination: service.NewPagination(1, 50, 1),
	}
}

func TestGenerateServesFilterFormWithoutParameters(t *testing.T) {
	medicines := &stubMedicines{medicines: []repository.Medicine{{ID: 1, Name: "Paracetamol 500mg"}}}
	h := handler.NewReportHandler(&stubGenerator{}, medicines, logger.New("test", "test"))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/reports", nil)
	rec := httptest.NewRecorder()
	h.Generate(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp httputil.Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Success)

	form, ok := resp.Data.(map[string]interface{})
	require.True(t, ok)
	assert.Len(t, form["medicines"], 1)
	assert.Len(t, form["report_types"], 7)
}

func TestGenerateServesFilterFormWithPartialParameters(t *testing.T) {
	medicines := &stubMedicines{medicines: []repository.Medicine{{ID: 1, Name: "Paracetamol 500mg"}}}

	// Either parameter alone is incomplete; both cases get the filter form,
	// not an error.
	urls := []string{
		"/api/v1/reports?medicine_id=1",
		"/api/v1/reports?medicine_id=0&report_type=dispensed",
		"/api/v1/reports?report_type=dispensed",
	}
	for _, url := range urls {
		h := handler.NewReportHandler(&stubGenerator{}, medicines, logger.New("test", "test"))

		req := httptest.NewRequest(http.MethodGet, url, nil)
		rec := httptest.NewRecorder()
		h.Generate(rec, req)

		require.Equal(t, http.StatusOK, rec.Code, url)

		var resp httputil.Response
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.True(t, resp.Success, url)

		form, ok := resp.Data.(map[string]interface{})
		require.True(t, ok, url)
		assert.Len(t, form["report_types"], 7, url)
	}
}

func TestGenerateRejectsUnknownReportType(t *testing.T) {
	h := handler.NewReportHandler(&stubGenerator{}, &stubMedicines{}, logger.New("test", "test"))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/reports?medicine_id=1&report_type=bogus", nil)
	rec := httptest.NewRecorder()
	h.Generate(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGenerateRejectsMalformedDate(t *testing.T) {
	h := handler.NewReportHandler(&stubGenerator{}, &stubMedicines{}, logger.New("test", "test"))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/reports?medicine_id=1&report_type=dispensed&date_from=03-02-2026", nil)
	rec := httptest.NewRecorder()
	h.Generate(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGenerateRejectsInvertedDateRange(t *testing.T) {
	h := handler.NewReportHandler(&stubGenerator{}, &stubMedicines{}, logger.New("test", "test"))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/reports?medicine_id=1&report_type=dispensed&date_from=2026-03-10&date_to=2026-03-01", nil)
	rec := httptest.NewRecorder()
	h.Generate(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGenerateReturnsReportWithMeta(t *testing.T) {
	gen := &stubGenerator{result: sampleResult()}
	h := handler.NewReportHandler(gen, &stubMedicines{}, logger.New("test", "test"))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/reports?medicine_id=1&report_type=dispensed&date_from=2026-03-01&date_to=2026-03-31&page=1", nil)
	rec := httptest.NewRecorder()
	h.Generate(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, int64(1), gen.lastReq.MedicineID)
	assert.Equal(t, service.ReportDispensed, gen.lastReq.Type)
	require.NotNil(t, gen.lastReq.DateFrom)
	assert.Equal(t, "2026-03-01", gen.lastReq.DateFrom.Format("2006-01-02"))

	var resp httputil.Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	require.NotNil(t, resp.Meta)
	assert.Equal(t, int64(1), resp.Meta.Total)
	assert.Equal(t, 1, resp.Meta.Page)
}

func TestGenerateParsesPrintAll(t *testing.T) {
	gen := &stubGenerator{result: sampleResult()}
	h := handler.NewReportHandler(gen, &stubMedicines{}, logger.New("test", "test"))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/reports?medicine_id=1&report_type=dispensed&print_all=true", nil)
	rec := httptest.NewRecorder()
	h.Generate(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, gen.lastReq.PrintAll)
}

func TestExportCSVRequiresParameters(t *testing.T) {
	h := handler.NewExportHandler(&stubGenerator{}, &stubMedicines{}, &stubSettings{}, logger.New("test", "test"))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/reports/export", nil)
	rec := httptest.NewRecorder()
	h.ExportCSV(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestExportCSVStreamsReport(t *testing.T) {
	gen := &stubGenerator{result: sampleResult()}
	medicines := &stubMedicines{medicine: &repository.Medicine{ID: 1, Name: "Paracetamol 500mg"}}
	settings := &stubSettings{branding: &repository.Branding{FacilityName: "San Isidro Health Station", Barangay: "San Isidro"}}
	h := handler.NewExportHandler(gen, medicines, settings, logger.New("test", "test"))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/reports/export?medicine_id=1&report_type=dispensed", nil)
	rec := httptest.NewRecorder()
	h.ExportCSV(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/csv")
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "dispensed-report-")

	body := rec.Body.String()
	assert.Contains(t, body, "# San Isidro Health Station, San Isidro")
	assert.Contains(t, body, "Paracetamol 500mg")
	assert.Contains(t, body, "Maria Santos")
	// Exports always walk the full row set.
	assert.True(t, gen.lastReq.PrintAll)
}
