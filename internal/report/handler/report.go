package handler

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/bhims/bhims-backend/internal/report/repository"
	"github.com/bhims/bhims-backend/internal/report/service"
	"github.com/bhims/bhims-backend/pkg/errors"
	"github.com/bhims/bhims-backend/pkg/httputil"
	"github.com/bhims/bhims-backend/pkg/logger"
)

// ReportGenerator produces report views.
type ReportGenerator interface {
	Generate(ctx context.Context, req service.ReportRequest) (*service.ReportResult, error)
}

// MedicineLister lists medicines for the filter form.
type MedicineLister interface {
	ListActive(ctx context.Context) ([]repository.Medicine, error)
}

// ReportHandler handles report endpoints
type ReportHandler struct {
	reports   ReportGenerator
	medicines MedicineLister
	logger    *logger.Logger
}

// NewReportHandler creates a new report handler
func NewReportHandler(reports ReportGenerator, medicines MedicineLister, log *logger.Logger) *ReportHandler {
	return &ReportHandler{
		reports:   reports,
		medicines: medicines,
		logger:    log,
	}
}

// reportTypeOption is one selectable report type on the filter form.
type reportTypeOption struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

// FilterForm is the blank-state payload served before a medicine and report
// type are chosen.
type FilterForm struct {
	Medicines   []repository.Medicine `json:"medicines"`
	ReportTypes []reportTypeOption    `json:"report_types"`
}

// Generate serves the report view. Without a medicine and report type it
// serves the filter form instead of an error.
func (h *ReportHandler) Generate(w http.ResponseWriter, r *http.Request) {
	req, err := parseReportQuery(r)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	// A missing medicine or report type is not an error; the filter form is
	// served instead of a report body.
	if req.MedicineID <= 0 || req.Type == "" {
		h.filterForm(w, r)
		return
	}

	if err := httputil.Validate(&req); err != nil {
		httputil.Error(w, err)
		return
	}

	result, err := h.reports.Generate(r.Context(), req)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSONWithMeta(w, http.StatusOK, result, &httputil.Meta{
		Page:       result.Pagination.Page,
		PerPage:    result.Pagination.PerPage,
		Total:      result.Pagination.Total,
		TotalPages: result.Pagination.TotalPages,
	})
}

func (h *ReportHandler) filterForm(w http.ResponseWriter, r *http.Request) {
	medicines, err := h.medicines.ListActive(r.Context())
	if err != nil {
		httputil.Error(w, err)
		return
	}

	form := FilterForm{
		Medicines:   medicines,
		ReportTypes: make([]reportTypeOption, 0, len(service.ReportTypes())),
	}
	for _, t := range service.ReportTypes() {
		form.ReportTypes = append(form.ReportTypes, reportTypeOption{Value: string(t), Label: t.Label()})
	}

	httputil.JSON(w, http.StatusOK, form)
}

// parseReportQuery reads report parameters from the query string. Dates are
// day granularity, YYYY-MM-DD.
func parseReportQuery(r *http.Request) (service.ReportRequest, error) {
	q := r.URL.Query()
	var req service.ReportRequest

	if raw := q.Get("medicine_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id < 0 {
			return req, errors.BadRequest("medicine_id must be a positive integer")
		}
		req.MedicineID = id
	}

	if raw := q.Get("report_type"); raw != "" {
		t, err := service.ParseReportType(raw)
		if err != nil {
			return req, errors.BadRequest(err.Error())
		}
		req.Type = t
	}

	var err error
	if req.DateFrom, err = parseDate(q.Get("date_from")); err != nil {
		return req, errors.BadRequest("date_from must be YYYY-MM-DD")
	}
	if req.DateTo, err = parseDate(q.Get("date_to")); err != nil {
		return req, errors.BadRequest("date_to must be YYYY-MM-DD")
	}
	if req.DateFrom != nil && req.DateTo != nil && req.DateFrom.After(*req.DateTo) {
		return req, errors.BadRequest("date_from must not be after date_to")
	}

	if raw := q.Get("batch_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id < 0 {
			return req, errors.BadRequest("batch_id must be a positive integer")
		}
		req.BatchID = id
	}

	if raw := q.Get("page"); raw != "" {
		page, err := strconv.Atoi(raw)
		if err != nil || page < 1 {
			return req, errors.BadRequest("page must be a positive integer")
		}
		req.Page = page
	}

	switch q.Get("print_all") {
	case "true", "1":
		req.PrintAll = true
	}

	return req, nil
}

func parseDate(raw string) (*time.Time, error) {
	if raw == "" {
		return nil, nil
	}
	d, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return nil, err
	}
	return &d, nil
}
