package repository

import (
	"context"
	"database/sql"

	"github.com/bhims/bhims-backend/pkg/database"
	"github.com/bhims/bhims-backend/pkg/errors"
)

// Medicine is the stable reference every report is keyed on.
type Medicine struct {
	ID          int64  `db:"id" json:"id"`
	Name        string `db:"name" json:"name"`
	GenericName string `db:"generic_name" json:"generic_name"`
	DosageForm  string `db:"dosage_form" json:"dosage_form"`
	IsActive    bool   `db:"is_active" json:"is_active"`
}

// MedicineRepository reads the medicine catalog.
type MedicineRepository struct {
	db *database.DB
}

// NewMedicineRepository creates a new medicine repository
func NewMedicineRepository(db *database.DB) *MedicineRepository {
	return &MedicineRepository{db: db}
}

// GetByID gets a medicine by ID
func (r *MedicineRepository) GetByID(ctx context.Context, id int64) (*Medicine, error) {
	var medicine Medicine
	query := `SELECT id, name, generic_name, dosage_form, is_active FROM medicines WHERE id = $1`
	if err := r.db.GetContext(ctx, &medicine, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.NotFound("medicine")
		}
		return nil, err
	}
	return &medicine, nil
}

// ListActive lists active medicines for the report filter form
func (r *MedicineRepository) ListActive(ctx context.Context) ([]Medicine, error) {
	var medicines []Medicine
	query := `
		SELECT id, name, generic_name, dosage_form, is_active
		FROM medicines
		WHERE is_active = true
		ORDER BY name
	`
	if err := r.db.SelectContext(ctx, &medicines, query); err != nil {
		return nil, err
	}
	return medicines, nil
}
