package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/example/bto/internal/ports/secondary"
)

// UnitRepository implements secondary.UnitRepository with SQLite.
type UnitRepository struct {
	db *sql.DB
}

// NewUnitRepository creates a new SQLite unit repository.
func NewUnitRepository(db *sql.DB) *UnitRepository {
	return &UnitRepository{db: db}
}

const unitColumns = "id, listing_id, category, application_id, booked_at, released_at"

// Save inserts or updates a unit.
func (r *UnitRepository) Save(ctx context.Context, unit *secondary.UnitRecord) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO units (`+unitColumns+`) VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET released_at = excluded.released_at`,
		unit.ID, unit.ListingID, unit.Category, unit.ApplicationID, unit.BookedAt, nullTime(unit.ReleasedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to save unit: %w", err)
	}
	return nil
}

// GetByID retrieves a unit by its ID.
func (r *UnitRepository) GetByID(ctx context.Context, id string) (*secondary.UnitRecord, error) {
	row := r.db.QueryRowContext(ctx, "SELECT "+unitColumns+" FROM units WHERE id = ?", id)
	record, err := scanUnit(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("unit %s not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get unit: %w", err)
	}
	return record, nil
}

// List retrieves units ordered by ID, for one listing or, when listingID is
// empty, for all.
func (r *UnitRepository) List(ctx context.Context, listingID string) ([]*secondary.UnitRecord, error) {
	query := "SELECT " + unitColumns + " FROM units"
	args := []any{}
	if listingID != "" {
		query += " WHERE listing_id = ?"
		args = append(args, listingID)
	}
	query += " ORDER BY id"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list units: %w", err)
	}
	defer rows.Close()

	var units []*secondary.UnitRecord
	for rows.Next() {
		record, err := scanUnit(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan unit: %w", err)
		}
		units = append(units, record)
	}
	return units, rows.Err()
}

func scanUnit(row rowScanner) (*secondary.UnitRecord, error) {
	var releasedAt sql.NullTime
	record := &secondary.UnitRecord{}
	if err := row.Scan(&record.ID, &record.ListingID, &record.Category, &record.ApplicationID, &record.BookedAt, &releasedAt); err != nil {
		return nil, err
	}
	record.ReleasedAt = timeFromNull(releasedAt)
	return record, nil
}

var _ secondary.UnitRepository = (*UnitRepository)(nil)
