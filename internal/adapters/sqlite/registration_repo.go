package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/example/bto/internal/ports/secondary"
)

// RegistrationRepository implements secondary.RegistrationRepository with SQLite.
type RegistrationRepository struct {
	db *sql.DB
}

// NewRegistrationRepository creates a new SQLite registration repository.
func NewRegistrationRepository(db *sql.DB) *RegistrationRepository {
	return &RegistrationRepository{db: db}
}

const registrationColumns = "id, staff_id, listing_id, status, requested_at, decided_at, decided_by"

// Save inserts or updates a registration.
func (r *RegistrationRepository) Save(ctx context.Context, registration *secondary.RegistrationRecord) error {
	requestedAt := registration.RequestedAt
	if requestedAt.IsZero() {
		requestedAt = time.Now()
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO registrations (`+registrationColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			status = excluded.status, decided_at = excluded.decided_at, decided_by = excluded.decided_by`,
		registration.ID, registration.StaffID, registration.ListingID, registration.Status, requestedAt,
		nullTime(registration.DecidedAt), nullString(registration.DecidedBy),
	)
	if err != nil {
		return fmt.Errorf("failed to save registration: %w", err)
	}
	return nil
}

// GetByID retrieves a registration by its ID.
func (r *RegistrationRepository) GetByID(ctx context.Context, id string) (*secondary.RegistrationRecord, error) {
	row := r.db.QueryRowContext(ctx, "SELECT "+registrationColumns+" FROM registrations WHERE id = ?", id)
	record, err := scanRegistration(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("registration %s not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get registration: %w", err)
	}
	return record, nil
}

// List retrieves registrations matching the given filters, ordered by ID.
func (r *RegistrationRepository) List(ctx context.Context, filters secondary.RegistrationFilters) ([]*secondary.RegistrationRecord, error) {
	query := "SELECT " + registrationColumns + " FROM registrations WHERE 1=1"
	args := []any{}

	if filters.ListingID != "" {
		query += " AND listing_id = ?"
		args = append(args, filters.ListingID)
	}
	if filters.StaffID != "" {
		query += " AND staff_id = ?"
		args = append(args, filters.StaffID)
	}
	if filters.Status != "" {
		query += " AND status = ?"
		args = append(args, filters.Status)
	}
	query += " ORDER BY id"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list registrations: %w", err)
	}
	defer rows.Close()

	var registrations []*secondary.RegistrationRecord
	for rows.Next() {
		record, err := scanRegistration(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan registration: %w", err)
		}
		registrations = append(registrations, record)
	}
	return registrations, rows.Err()
}

func scanRegistration(row rowScanner) (*secondary.RegistrationRecord, error) {
	var (
		decidedAt sql.NullTime
		decidedBy sql.NullString
	)
	record := &secondary.RegistrationRecord{}
	err := row.Scan(&record.ID, &record.StaffID, &record.ListingID, &record.Status, &record.RequestedAt, &decidedAt, &decidedBy)
	if err != nil {
		return nil, err
	}
	record.DecidedAt = timeFromNull(decidedAt)
	record.DecidedBy = decidedBy.String
	return record, nil
}

var _ secondary.RegistrationRepository = (*RegistrationRepository)(nil)
