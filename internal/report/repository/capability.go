package repository

import (
	"context"

	"github.com/bhims/bhims-backend/pkg/database"
	"github.com/bhims/bhims-backend/pkg/logger"
)

// CapabilityDetector probes whether the optional inventory_transactions table
// exists in the current deployment. Older installations predate the
// generalized transaction log and only carry batches and fulfillments.
type CapabilityDetector struct {
	db     *database.DB
	logger *logger.Logger
}

// NewCapabilityDetector creates a new capability detector
func NewCapabilityDetector(db *database.DB, log *logger.Logger) *CapabilityDetector {
	return &CapabilityDetector{db: db, logger: log}
}

// Detect reports whether the generic transaction log is available. Probe
// errors are treated as "unavailable" so reports fall back to the two-source
// reconstruction instead of failing.
func (d *CapabilityDetector) Detect(ctx context.Context) bool {
	var exists bool
	query := `
		SELECT EXISTS (
			SELECT 1 FROM information_schema.tables
			WHERE table_schema = current_schema() AND table_name = 'inventory_transactions'
		)
	`
	if err := d.db.GetContext(ctx, &exists, query); err != nil {
		d.logger.Debug().Err(err).Msg("transaction log probe failed, assuming unavailable")
		return false
	}
	return exists
}
