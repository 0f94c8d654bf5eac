package handler

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/bhims/bhims-backend/internal/report/repository"
	"github.com/bhims/bhims-backend/pkg/errors"
	"github.com/bhims/bhims-backend/pkg/httputil"
	"github.com/bhims/bhims-backend/pkg/logger"
)

// MedicineGetter resolves the medicine named in the export header.
type MedicineGetter interface {
	GetByID(ctx context.Context, id int64) (*repository.Medicine, error)
}

// BrandingReader resolves the facility strings for the export header.
type BrandingReader interface {
	GetBranding(ctx context.Context) (*repository.Branding, error)
}

// ExportHandler handles CSV export endpoints
type ExportHandler struct {
	reports   ReportGenerator
	medicines MedicineGetter
	settings  BrandingReader
	logger    *logger.Logger
}

// NewExportHandler creates a new export handler
func NewExportHandler(reports ReportGenerator, medicines MedicineGetter, settings BrandingReader, log *logger.Logger) *ExportHandler {
	return &ExportHandler{
		reports:   reports,
		medicines: medicines,
		settings:  settings,
		logger:    log,
	}
}

// ExportCSV generates and serves a report as a CSV download. Exports always
// cover the full row set, capped the same way as print-all.
func (h *ExportHandler) ExportCSV(w http.ResponseWriter, r *http.Request) {
	req, err := parseReportQuery(r)
	if err != nil {
		httputil.Error(w, err)
		return
	}
	if req.MedicineID == 0 || req.Type == "" {
		httputil.Error(w, errors.BadRequest("medicine_id and report_type are required"))
		return
	}
	if err := httputil.Validate(&req); err != nil {
		httputil.Error(w, err)
		return
	}
	req.PrintAll = true
	req.Page = 1

	medicine, err := h.medicines.GetByID(r.Context(), req.MedicineID)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	result, err := h.reports.Generate(r.Context(), req)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	branding, err := h.settings.GetBranding(r.Context())
	if err != nil {
		h.logger.Warn().Err(err).Msg("branding lookup failed, using defaults")
		branding = &repository.Branding{FacilityName: "Barangay Health Station"}
	}

	filename := fmt.Sprintf("%s-report-%s.csv", req.Type, time.Now().Format("2006-01-02"))
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))

	if err := writeReportCSV(w, branding, medicine, req, result); err != nil {
		// Headers are already sent; all we can do is log.
		h.logger.Error().Err(err).Str("report_type", string(req.Type)).Msg("failed to stream CSV export")
	}
}
