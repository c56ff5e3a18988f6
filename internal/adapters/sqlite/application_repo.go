package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/example/bto/internal/ports/secondary"
)

// ApplicationRepository implements secondary.ApplicationRepository with SQLite.
type ApplicationRepository struct {
	db *sql.DB
}

// NewApplicationRepository creates a new SQLite application repository.
func NewApplicationRepository(db *sql.DB) *ApplicationRepository {
	return &ApplicationRepository{db: db}
}

const applicationColumns = "id, requester_id, listing_id, category, status, reserved_unit_id, bound_unit_id, submitted_at, updated_at"

// Save inserts or updates an application.
func (r *ApplicationRepository) Save(ctx context.Context, application *secondary.ApplicationRecord) error {
	submittedAt, updatedAt := application.SubmittedAt, application.UpdatedAt
	if submittedAt.IsZero() {
		submittedAt = time.Now()
	}
	if updatedAt.IsZero() {
		updatedAt = submittedAt
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO applications (`+applicationColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			category = excluded.category, status = excluded.status,
			reserved_unit_id = excluded.reserved_unit_id, bound_unit_id = excluded.bound_unit_id,
			updated_at = excluded.updated_at`,
		application.ID, application.RequesterID, application.ListingID, application.Category, application.Status,
		nullString(application.ReservedUnitID), nullString(application.BoundUnitID), submittedAt, updatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save application: %w", err)
	}
	return nil
}

// GetByID retrieves an application by its ID.
func (r *ApplicationRepository) GetByID(ctx context.Context, id string) (*secondary.ApplicationRecord, error) {
	row := r.db.QueryRowContext(ctx, "SELECT "+applicationColumns+" FROM applications WHERE id = ?", id)
	record, err := scanApplication(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("application %s not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get application: %w", err)
	}
	return record, nil
}

// List retrieves applications matching the given filters, ordered by ID.
func (r *ApplicationRepository) List(ctx context.Context, filters secondary.ApplicationFilters) ([]*secondary.ApplicationRecord, error) {
	query := "SELECT " + applicationColumns + " FROM applications WHERE 1=1"
	args := []any{}

	if filters.ListingID != "" {
		query += " AND listing_id = ?"
		args = append(args, filters.ListingID)
	}
	if filters.RequesterID != "" {
		query += " AND requester_id = ?"
		args = append(args, filters.RequesterID)
	}
	if filters.Status != "" {
		query += " AND status = ?"
		args = append(args, filters.Status)
	}
	query += " ORDER BY id"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list applications: %w", err)
	}
	defer rows.Close()

	var applications []*secondary.ApplicationRecord
	for rows.Next() {
		record, err := scanApplication(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan application: %w", err)
		}
		applications = append(applications, record)
	}
	return applications, rows.Err()
}

func scanApplication(row rowScanner) (*secondary.ApplicationRecord, error) {
	var reservedUnitID, boundUnitID sql.NullString
	record := &secondary.ApplicationRecord{}
	err := row.Scan(&record.ID, &record.RequesterID, &record.ListingID, &record.Category, &record.Status,
		&reservedUnitID, &boundUnitID, &record.SubmittedAt, &record.UpdatedAt)
	if err != nil {
		return nil, err
	}
	record.ReservedUnitID = reservedUnitID.String
	record.BoundUnitID = boundUnitID.String
	return record, nil
}

var _ secondary.ApplicationRepository = (*ApplicationRepository)(nil)
