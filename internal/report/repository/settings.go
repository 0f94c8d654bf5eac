package repository

import (
	"context"

	"github.com/bhims/bhims-backend/pkg/database"
)

// Branding holds the facility strings injected into report headers.
type Branding struct {
	FacilityName string `json:"facility_name"`
	Barangay     string `json:"barangay"`
	Province     string `json:"province"`
}

// SettingsRepository reads branding strings from the settings store. Pure
// lookup; missing keys fall back to generic defaults so a report header is
// always printable.
type SettingsRepository struct {
	db *database.DB
}

// NewSettingsRepository creates a new settings repository
func NewSettingsRepository(db *database.DB) *SettingsRepository {
	return &SettingsRepository{db: db}
}

// GetBranding returns the report header strings.
func (r *SettingsRepository) GetBranding(ctx context.Context) (*Branding, error) {
	branding := &Branding{
		FacilityName: "Barangay Health Station",
	}

	rows := []struct {
		Key   string `db:"key"`
		Value string `db:"value"`
	}{}

	query := `SELECT key, value FROM settings WHERE key IN ('facility_name', 'barangay', 'province')`
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, err
	}

	for _, row := range rows {
		switch row.Key {
		case "facility_name":
			branding.FacilityName = row.Value
		case "barangay":
			branding.Barangay = row.Value
		case "province":
			branding.Province = row.Value
		}
	}

	return branding, nil
}
