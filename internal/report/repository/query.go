package repository

import (
	"time"

	sq "github.com/Masterminds/squirrel"
)

// psql is the statement builder shared by all readers.
var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// QuerySpec is the immutable filter every source reader accepts. A zero
// BatchID means all batches; nil dates mean an open-ended range. Date
// comparisons are inclusive on both ends at day granularity.
type QuerySpec struct {
	MedicineID int64
	From       *time.Time
	To         *time.Time
	BatchID    int64
}

// WithoutDateFrom returns a copy with the lower date bound removed. Used when
// a balance replay needs the full history up to the period end.
func (s QuerySpec) WithoutDateFrom() QuerySpec {
	s.From = nil
	return s
}

// apply appends the spec's filters onto a select builder. Column expressions
// are passed in because each source table names them differently.
func (s QuerySpec) apply(b sq.SelectBuilder, medicineCol, dateCol, batchCol string) sq.SelectBuilder {
	b = b.Where(sq.Eq{medicineCol: s.MedicineID})
	if s.From != nil {
		b = b.Where(dateCol+"::date >= ?::date", *s.From)
	}
	if s.To != nil {
		b = b.Where(dateCol+"::date <= ?::date", *s.To)
	}
	if s.BatchID > 0 {
		b = b.Where(sq.Eq{batchCol: s.BatchID})
	}
	return b
}
