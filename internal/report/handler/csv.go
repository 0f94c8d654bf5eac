package handler

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/bhims/bhims-backend/internal/report/repository"
	"github.com/bhims/bhims-backend/internal/report/service"
)

const (
	csvFlushEvery = 200
	csvBufferSize = 32 * 1024
)

// csvStreamer writes a report as CSV with leading comment lines for the
// facility header. Rows are flushed in batches so print-all exports stream
// instead of buffering whole.
type csvStreamer struct {
	buf     *bufio.Writer
	csv     *csv.Writer
	pending int
}

func newCSVStreamer(w io.Writer) *csvStreamer {
	buf := bufio.NewWriterSize(w, csvBufferSize)
	writer := csv.NewWriter(buf)
	writer.UseCRLF = true
	return &csvStreamer{buf: buf, csv: writer}
}

func (s *csvStreamer) writeComment(line string) error {
	line = strings.TrimSuffix(line, "\n")
	_, err := s.buf.WriteString(line + "\r\n")
	return err
}

func (s *csvStreamer) writeRow(row []string) error {
	if err := s.csv.Write(row); err != nil {
		return err
	}
	s.pending++
	if s.pending >= csvFlushEvery {
		return s.flush()
	}
	return nil
}

func (s *csvStreamer) flush() error {
	s.csv.Flush()
	if err := s.csv.Error(); err != nil {
		return err
	}
	if err := s.buf.Flush(); err != nil {
		return err
	}
	s.pending = 0
	return nil
}

// writeReportCSV renders one generated report as CSV, header comments first,
// then a column header row, then the data rows.
func writeReportCSV(w io.Writer, branding *repository.Branding, medicine *repository.Medicine, req service.ReportRequest, result *service.ReportResult) error {
	streamer := newCSVStreamer(w)

	if err := writeCSVHeader(streamer, branding, medicine, req, result); err != nil {
		return err
	}

	switch rows := result.Rows.(type) {
	case []service.DispensedRow:
		if err := streamer.writeRow([]string{"Date", "Batch", "Quantity", "Patient", "Purok", "Barangay", "Dispensed By", "Remaining Stock"}); err != nil {
			return err
		}
		for _, row := range rows {
			if err := streamer.writeRow([]string{
				formatDay(row.Date),
				row.BatchCode,
				strconv.Itoa(row.Quantity),
				row.PatientName,
				row.Purok,
				row.Barangay,
				row.DispensedBy,
				strconv.Itoa(row.RemainingStock),
			}); err != nil {
				return err
			}
		}
	case []service.RemainingStockRow:
		if err := streamer.writeRow([]string{"Batch", "Received", "Current Stock", "Dispensed", "Expiry Date", "Expired"}); err != nil {
			return err
		}
		for _, row := range rows {
			if err := streamer.writeRow([]string{
				row.BatchCode,
				strconv.Itoa(row.Received),
				strconv.Itoa(row.CurrentStock),
				strconv.Itoa(row.Dispensed),
				formatDay(row.ExpiryDate),
				strconv.FormatBool(row.Expired),
			}); err != nil {
				return err
			}
		}
	case []service.ExpiryRow:
		if err := streamer.writeRow([]string{"Batch", "Current Stock", "Expiry Date", "Days Until Expiry"}); err != nil {
			return err
		}
		for _, row := range rows {
			if err := streamer.writeRow([]string{
				row.BatchCode,
				strconv.Itoa(row.CurrentStock),
				formatDay(row.ExpiryDate),
				strconv.Itoa(row.DaysUntilExpiry),
			}); err != nil {
				return err
			}
		}
	case []service.RestockRow:
		if err := streamer.writeRow([]string{"Date", "Batch", "Quantity", "Received By", "Remarks"}); err != nil {
			return err
		}
		for _, row := range rows {
			if err := streamer.writeRow([]string{
				formatDay(row.Date),
				row.BatchCode,
				strconv.Itoa(row.Quantity),
				row.Actor,
				row.Remarks,
			}); err != nil {
				return err
			}
		}
	case []service.LowStockRow:
		if err := streamer.writeRow([]string{"Batch", "Current Stock", "Expiry Date", "Last Dispensed"}); err != nil {
			return err
		}
		for _, row := range rows {
			last := ""
			if row.LastDispensedAt != nil {
				last = formatDay(*row.LastDispensedAt)
			}
			if err := streamer.writeRow([]string{
				row.BatchCode,
				strconv.Itoa(row.CurrentStock),
				formatDay(row.ExpiryDate),
				last,
			}); err != nil {
				return err
			}
		}
	case []service.ActivityRow:
		if err := streamer.writeRow([]string{"Date", "Source", "Batch", "Quantity", "Actor", "Description"}); err != nil {
			return err
		}
		for _, row := range rows {
			if err := streamer.writeRow([]string{
				formatDay(row.Date),
				string(row.Source),
				row.BatchCode,
				strconv.Itoa(row.Quantity),
				row.Actor,
				row.Description,
			}); err != nil {
				return err
			}
		}
	case []service.PatientRequestRow:
		if err := streamer.writeRow([]string{"Request", "Date", "Patient", "Status", "Quantity"}); err != nil {
			return err
		}
		for _, row := range rows {
			if err := streamer.writeRow([]string{
				strconv.FormatInt(row.RequestID, 10),
				formatDay(row.Date),
				row.PatientName,
				row.Status,
				strconv.Itoa(row.Quantity),
			}); err != nil {
				return err
			}
		}
	default:
		return fmt.Errorf("unsupported row type %T", result.Rows)
	}

	return streamer.flush()
}

func writeCSVHeader(streamer *csvStreamer, branding *repository.Branding, medicine *repository.Medicine, req service.ReportRequest, result *service.ReportResult) error {
	facility := branding.FacilityName
	if branding.Barangay != "" {
		facility += ", " + branding.Barangay
	}
	if branding.Province != "" {
		facility += ", " + branding.Province
	}
	if err := streamer.writeComment("# " + facility); err != nil {
		return err
	}

	if err := streamer.writeComment(fmt.Sprintf("# Report: %s | Medicine: %s", result.Label, medicine.Name)); err != nil {
		return err
	}

	from := "start"
	if req.DateFrom != nil {
		from = formatDay(*req.DateFrom)
	}
	to := "today"
	if req.DateTo != nil {
		to = formatDay(*req.DateTo)
	}
	if err := streamer.writeComment(fmt.Sprintf("# Period: %s to %s | Generated: %s", from, to, formatDay(time.Now()))); err != nil {
		return err
	}

	if len(result.Degraded) > 0 {
		names := make([]string, len(result.Degraded))
		for i, d := range result.Degraded {
			names[i] = d.Source
		}
		if err := streamer.writeComment("# Incomplete sources: " + strings.Join(names, "; ")); err != nil {
			return err
		}
	}

	return nil
}

func formatDay(t time.Time) string {
	return t.Format("2006-01-02")
}
